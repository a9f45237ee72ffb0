//go:build unit || e2e

package builder

import (
	"encoding/json"
	"time"

	"rental-settlement/internal/domain/settlement"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82/webhook"
)

// WebhookEventBuilder produces processor notification payloads in the
// processor's event envelope.
type WebhookEventBuilder struct {
	EventID       string
	Type          string
	IntentID      string
	ReservationID string
	ProviderID    string
	Created       time.Time
	// OmitMetadata drops the metadata object entirely.
	OmitMetadata bool
}

func NewWebhookEventBuilder() *WebhookEventBuilder {
	return &WebhookEventBuilder{
		EventID:       "evt_" + uuid.NewString()[:12],
		Type:          string(settlement.EventPaymentSucceeded),
		IntentID:      "pi_" + uuid.NewString()[:12],
		ReservationID: uuid.NewString(),
		ProviderID:    uuid.NewString(),
		Created:       time.Now(),
	}
}

func (b *WebhookEventBuilder) With(mutate func(*WebhookEventBuilder)) *WebhookEventBuilder {
	mutate(b)
	return b
}

// ForReservation targets res and its intent, when res has one.
func (b *WebhookEventBuilder) ForReservation(res *ReservationBuilder) *WebhookEventBuilder {
	b.ReservationID = res.ID.String()
	b.ProviderID = res.ProviderID.String()
	if res.PaymentIntentID != nil {
		b.IntentID = *res.PaymentIntentID
	}
	return b
}

func (b *WebhookEventBuilder) WithType(t settlement.EventType) *WebhookEventBuilder {
	b.Type = string(t)
	return b
}

func (b *WebhookEventBuilder) BuildMap() map[string]any {
	object := map[string]any{
		"id":     b.IntentID,
		"object": "payment_intent",
	}
	if !b.OmitMetadata {
		object["metadata"] = map[string]any{
			"reservation_id": b.ReservationID,
			"provider_id":    b.ProviderID,
		}
	}
	return map[string]any{
		"id":          b.EventID,
		"object":      "event",
		"type":        b.Type,
		"created":     b.Created.Unix(),
		"api_version": "2025-07-30.basil",
		"data": map[string]any{
			"object": object,
		},
	}
}

func (b *WebhookEventBuilder) BuildPayload() []byte {
	payload, err := json.Marshal(b.BuildMap())
	if err != nil {
		panic(err)
	}
	return payload
}

// BuildSigned returns the payload and a signature header computed with secret at signedAt.
func (b *WebhookEventBuilder) BuildSigned(secret string, signedAt time.Time) ([]byte, string) {
	payload := b.BuildPayload()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: signedAt,
	})
	return payload, signed.Header
}
