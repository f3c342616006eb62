package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/josh-kwaku/folio-ledger/internal/domain"
)

const folioEventColumns = `id, folio_id, event_type, actor, payload, created_at`

type FolioEventRepository struct {
	db *sql.DB
}

func NewFolioEventRepository(db *sql.DB) *FolioEventRepository {
	return &FolioEventRepository{db: db}
}

func (r *FolioEventRepository) Create(ctx context.Context, tx *sql.Tx, event *domain.FolioEvent) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO folio_events (id, folio_id, event_type, actor, payload, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID, event.FolioID, event.EventType, event.Actor,
		nullableJSON(event.Payload), event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (r *FolioEventRepository) ListByFolio(ctx context.Context, folioID uuid.UUID) ([]domain.FolioEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+folioEventColumns+` FROM folio_events
		WHERE folio_id = $1 ORDER BY created_at, id`, folioID,
	)
	if err != nil {
		return nil, fmt.Errorf("ListByFolio: %w", err)
	}
	defer rows.Close()

	var events []domain.FolioEvent
	for rows.Next() {
		e, err := scanFolioEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("ListByFolio: scan: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ListByFolio: rows: %w", err)
	}
	return events, nil
}

func scanFolioEvent(s scanner) (*domain.FolioEvent, error) {
	var e domain.FolioEvent
	var payload []byte
	err := s.Scan(
		&e.ID, &e.FolioID, &e.EventType, &e.Actor,
		&payload, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Payload = payload
	return &e, nil
}

func nullableJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return string(b)
}
