package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type FolioEventType string

const (
	FolioEventTypeOpened           FolioEventType = "folio.opened"
	FolioEventTypeChargePosted     FolioEventType = "folio.charge_posted"
	FolioEventTypeChargeVoided     FolioEventType = "folio.charge_voided"
	FolioEventTypePaymentRecorded  FolioEventType = "folio.payment_recorded"
	FolioEventTypeClosed           FolioEventType = "folio.closed"
	FolioEventTypeCloseOverride    FolioEventType = "folio.close_override"
	FolioEventTypeInvoiceGenerated FolioEventType = "invoice.generated"
	FolioEventTypeInvoicePayment   FolioEventType = "invoice.payment_recorded"
	FolioEventTypeInvoiceStatus    FolioEventType = "invoice.status_changed"
	FolioEventTypeInvoiceCancelled FolioEventType = "invoice.cancelled"
)

// FolioEvent is an audit record written in the same transaction as the
// change it describes. Invoice events carry the source folio id.
type FolioEvent struct {
	ID        uuid.UUID
	FolioID   uuid.UUID
	EventType FolioEventType
	Actor     string
	Payload   json.RawMessage
	CreatedAt time.Time
}
