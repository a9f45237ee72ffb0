package commands

import (
	"context"

	"rental-settlement/internal/domain/user"

	"github.com/google/uuid"
)

// Intent is the processor's charge object as far as this service needs it.
type Intent struct {
	ID           string
	ClientSecret string
	Status       string
}

type CreateIntentRequest struct {
	ReservationID  uuid.UUID
	ProviderID     uuid.UUID
	AmountCents    int64
	Currency       string
	IdempotencyKey string
}

//go:generate mockgen -destination=../../../tests/mock/commands/ports_mock.go -package=commandsmock rental-settlement/internal/usecase/commands PaymentGateway,PaymentIntentCommands,WebhookCommands,LedgerCommands

// PaymentGateway is the outbound port to the payment processor. Implementations
// must bound every call with a timeout.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, req CreateIntentRequest) (*Intent, error)
	RetrieveIntent(ctx context.Context, intentID string) (*Intent, error)
}

// Caller is the authenticated principal behind a command.
type Caller struct {
	UserID uuid.UUID
	Role   user.Role
}
