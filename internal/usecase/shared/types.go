package shared

import (
	"time"

	"github.com/google/uuid"
)

// WebhookEventRecord is one idempotency ledger row, keyed by the processor's event id.
type WebhookEventRecord struct {
	EventID       string
	EventType     string
	ReservationID uuid.UUID
	ProviderID    uuid.UUID
	ReceivedAt    time.Time
}
