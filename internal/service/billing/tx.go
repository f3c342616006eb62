package billing

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/folio-ledger/internal/domain"
	"github.com/josh-kwaku/folio-ledger/internal/events"
	"github.com/josh-kwaku/folio-ledger/internal/logging"
	"github.com/josh-kwaku/folio-ledger/internal/metrics"
	"github.com/josh-kwaku/folio-ledger/internal/repository"
)

const (
	SystemActor = "system"

	emitTimeout = 5 * time.Second
)

// inTx runs fn in a transaction. Lock and serialization failures surface as
// domain.ErrConcurrentUpdate; nothing is retried here.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", contention(err))
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return contention(err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", contention(err))
	}
	return nil
}

func contention(err error) error {
	if repository.IsContention(err) {
		return fmt.Errorf("%w: %w", domain.ErrConcurrentUpdate, err)
	}
	return err
}

func actorOrSystem(actor string) string {
	if actor == "" {
		return SystemActor
	}
	return actor
}

func writeAudit(ctx context.Context, tx *sql.Tx, audit auditRepo, folioID uuid.UUID, eventType domain.FolioEventType, actor string, payload map[string]any, at time.Time) error {
	var raw json.RawMessage
	if len(payload) > 0 {
		b, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("writeAudit: marshal: %w", err)
		}
		raw = b
	}

	event := &domain.FolioEvent{
		ID:        uuid.New(),
		FolioID:   folioID,
		EventType: eventType,
		Actor:     actor,
		Payload:   raw,
		CreatedAt: at,
	}
	if err := audit.Create(ctx, tx, event); err != nil {
		return fmt.Errorf("writeAudit: %w", err)
	}
	return nil
}

// publish hands committed events to the emitter. Failures are logged and
// counted but never returned: the ledger change has already committed.
func publish(ctx context.Context, emitter events.Emitter, evts ...events.Event) {
	if emitter == nil {
		return
	}
	log := logging.FromContext(ctx)

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	for _, e := range evts {
		err := emitter.Emit(ctx, e)
		metrics.IncEventEmit(e.Type, err)
		if err != nil {
			log.Warn("domain event emission failed",
				"event_id", e.ID,
				"event_type", e.Type,
				"folio_id", e.FolioID,
				"error", err,
			)
		}
	}
}

func observe(operation string, start time.Time, err *error) {
	metrics.ObserveOperation(operation, *err, time.Since(start))
}
