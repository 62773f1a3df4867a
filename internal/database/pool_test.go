package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPoolConfig(t *testing.T) {
	cfg := DefaultPoolConfig("postgres://localhost/facematch")

	assert.Equal(t, "postgres://localhost/facematch", cfg.DSN)
	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, 30*time.Minute, cfg.ConnMaxLifetime)
}

func TestDatabaseName(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		want    string
		wantErr bool
	}{
		{"with params", "postgres://u:p@localhost:5432/facematch?sslmode=disable", "facematch", false},
		{"plain", "postgres://localhost/gallery", "gallery", false},
		{"missing name", "postgres://localhost:5432", "", true},
		{"garbage", "postgres://%zz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DatabaseName(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
