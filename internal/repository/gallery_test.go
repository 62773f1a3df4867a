package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/pgvector/pgvector-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saturnino-fabrica-de-software/facematch/internal/domain"
)

func TestGalleryRepository_Append(t *testing.T) {
	tests := []struct {
		name      string
		personID  string
		embedding domain.Embedding
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantErr   error
	}{
		{
			name:      "successful insert",
			personID:  "alice",
			embedding: domain.Embedding{0.6, 0.8},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO gallery_embeddings \(person_id, embedding\) VALUES \(\$1, \$2\)`).
					WithArgs("alice", pgvector.NewVector([]float32{0.6, 0.8})).
					WillReturnResult(pgxmock.NewResult("INSERT", 1))
			},
		},
		{
			name:      "database error",
			personID:  "bob",
			embedding: domain.Embedding{1, 0},
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectExec(`INSERT INTO gallery_embeddings`).
					WithArgs("bob", pgxmock.AnyArg()).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: domain.ErrStoreIOFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewGalleryRepository(mock)
			err = repo.Append(context.Background(), tt.personID, tt.embedding)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func vec(v ...float32) *pgvector.Vector {
	out := pgvector.NewVector(v)
	return &out
}

func TestGalleryRepository_LoadAll(t *testing.T) {
	tests := []struct {
		name      string
		mockSetup func(mock pgxmock.PgxPoolIface)
		wantIDs   []string
		wantCount int
		wantErr   error
	}{
		{
			name: "rows in insertion order",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"person_id", "embedding"}).
					AddRow("zoe", vec(1, 0)).
					AddRow("adam", vec(0, 1)).
					AddRow("zoe", vec(0.6, 0.8))
				mock.ExpectQuery(`SELECT person_id, embedding FROM gallery_embeddings ORDER BY id`).
					WillReturnRows(rows)
			},
			wantIDs:   []string{"zoe", "adam"},
			wantCount: 3,
		},
		{
			name: "empty table",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT person_id, embedding FROM gallery_embeddings ORDER BY id`).
					WillReturnRows(pgxmock.NewRows([]string{"person_id", "embedding"}))
			},
			wantIDs:   []string{},
			wantCount: 0,
		},
		{
			name: "query error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT person_id, embedding FROM gallery_embeddings`).
					WillReturnError(errors.New("relation does not exist"))
			},
			wantErr: domain.ErrStoreIOFailed,
		},
		{
			name: "row error",
			mockSetup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows([]string{"person_id", "embedding"}).
					AddRow("zoe", vec(1, 0)).
					RowError(0, errors.New("broken row"))
				mock.ExpectQuery(`SELECT person_id, embedding FROM gallery_embeddings`).
					WillReturnRows(rows)
			},
			wantErr: domain.ErrStoreIOFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer mock.Close()

			tt.mockSetup(mock)

			repo := NewGalleryRepository(mock)
			g, err := repo.LoadAll(context.Background())

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, g)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantIDs, g.IDs())
				assert.Equal(t, tt.wantCount, g.SampleCount())
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestGalleryRepository_Count(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery(`SELECT COUNT\(DISTINCT person_id\), COUNT\(\*\) FROM gallery_embeddings`).
		WillReturnRows(pgxmock.NewRows([]string{"count", "count"}).AddRow(2, 5))

	ids, samples, err := NewGalleryRepository(mock).Count(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, ids)
	assert.Equal(t, 5, samples)
	assert.NoError(t, mock.ExpectationsWereMet())
}
