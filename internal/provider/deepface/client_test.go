package deepface

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Represent(t *testing.T) {
	tests := []struct {
		name           string
		serverResponse interface{}
		serverStatus   int
		wantErr        bool
		wantErrIs      error
		wantErrContain string
		validateResp   func(*testing.T, *RepresentResponse)
	}{
		{
			name: "successful response with eyes",
			serverResponse: map[string]interface{}{
				"results": []map[string]interface{}{
					{
						"embedding":       make([]float64, 4),
						"face_confidence": 0.98,
						"facial_area": map[string]interface{}{
							"x": 10, "y": 20, "w": 100, "h": 100,
							"left_eye":  []float64{40, 50},
							"right_eye": []float64{80, 50},
						},
					},
				},
			},
			serverStatus: http.StatusOK,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				require.Len(t, resp.Results, 1)
				area := resp.Results[0].FacialArea
				assert.Equal(t, 10, area.X)
				assert.Equal(t, 100, area.W)
				require.NotNil(t, area.LeftEye)
				assert.Equal(t, Point{40, 50}, *area.LeftEye)
			},
		},
		{
			name:           "empty response",
			serverResponse: RepresentResponse{Results: []RepresentResult{}},
			serverStatus:   http.StatusOK,
			validateResp: func(t *testing.T, resp *RepresentResponse) {
				assert.Len(t, resp.Results, 0)
			},
		},
		{
			name:           "server error 500",
			serverResponse: map[string]string{"error": "internal server error"},
			serverStatus:   http.StatusInternalServerError,
			wantErr:        true,
			wantErrIs:      ErrDeepFaceUnavailable,
			wantErrContain: "status 500",
		},
		{
			name:           "bad request 400",
			serverResponse: map[string]string{"error": "invalid image format"},
			serverStatus:   http.StatusBadRequest,
			wantErr:        true,
			wantErrIs:      ErrClientRequest,
			wantErrContain: "status 400",
		},
		{
			name:           "invalid JSON",
			serverResponse: "not json {",
			serverStatus:   http.StatusOK,
			wantErr:        true,
			wantErrIs:      ErrInvalidResponse,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/represent", r.URL.Path)
				assert.Equal(t, http.MethodPost, r.Method)

				var req RepresentRequest
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "Facenet512", req.ModelName)
				assert.False(t, req.EnforceDetection)

				w.WriteHeader(tt.serverStatus)
				if s, ok := tt.serverResponse.(string); ok {
					_, _ = w.Write([]byte(s))
					return
				}
				_ = json.NewEncoder(w).Encode(tt.serverResponse)
			}))
			defer server.Close()

			cfg := DefaultConfig()
			cfg.BaseURL = server.URL
			client := NewClient(cfg)

			resp, err := client.Represent(context.Background(), "data:image/jpeg;base64,AAAA")
			if tt.wantErr {
				require.Error(t, err)
				if tt.wantErrIs != nil {
					assert.ErrorIs(t, err, tt.wantErrIs)
				}
				if tt.wantErrContain != "" {
					assert.Contains(t, err.Error(), tt.wantErrContain)
				}
				return
			}

			require.NoError(t, err)
			tt.validateResp(t, resp)
		})
	}
}

func TestClient_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.RetryCount = 3

	_, err := NewClient(cfg).Represent(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestClient_ContextCanceledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	cfg := DefaultConfig()
	cfg.BaseURL = server.URL
	cfg.RetryCount = 2

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewClient(cfg).Represent(ctx, "x")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCalculateBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, time.Second},
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{6, 30 * time.Second},
		{40, 30 * time.Second},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, calculateBackoff(tt.attempt), "attempt %d", tt.attempt)
	}
}
