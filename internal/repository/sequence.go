package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

type SequenceRepository struct {
	db *sql.DB
}

func NewSequenceRepository(db *sql.DB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

// Next allocates the next value of a per-hotel, per-year counter. The row
// stays locked until tx ends, so a rolled back allocation is reused by the
// next caller and numbers stay gapless.
func (r *SequenceRepository) Next(ctx context.Context, tx *sql.Tx, hotelID uuid.UUID, kind domain.SequenceKind, year int) (int64, error) {
	var next int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO document_sequences (hotel_id, kind, year, last_value)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (hotel_id, kind, year) DO UPDATE
		SET last_value = document_sequences.last_value + 1
		RETURNING last_value`,
		hotelID, kind, year,
	).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("Next: %w", err)
	}
	return next, nil
}
