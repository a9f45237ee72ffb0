package gateway

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/usecase/commands"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"
)

const (
	metadataReservationID = "reservation_id"
	metadataProviderID    = "provider_id"
)

var ErrProcessor = errs.New("payment processor error")

// StripeGateway issues and retrieves payment intents through the Stripe API.
type StripeGateway struct {
	api     *client.API
	timeout time.Duration
}

func NewStripeGateway(cfg config.PaymentConfig, logger *slog.Logger) (*StripeGateway, error) {
	if cfg.SecretKey == "" {
		return nil, errs.New("payment secret key is required")
	}

	backendCfg := &stripe.BackendConfig{
		HTTPClient:        &http.Client{Timeout: cfg.APITimeout},
		MaxNetworkRetries: stripe.Int64(cfg.MaxNetworkRetries),
		LeveledLogger:     &leveledLogger{logger: logger.With("component", "stripe")},
	}
	if cfg.APIURL != "" {
		backendCfg.URL = stripe.String(cfg.APIURL)
	}

	api := &client.API{}
	api.Init(cfg.SecretKey, stripe.NewBackendsWithConfig(backendCfg))

	return &StripeGateway{
		api:     api,
		timeout: cfg.APITimeout,
	}, nil
}

var _ commands.PaymentGateway = (*StripeGateway)(nil)

func (g *StripeGateway) CreateIntent(ctx context.Context, req commands.CreateIntentRequest) (*commands.Intent, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(req.AmountCents),
		Currency: stripe.String(req.Currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	params.AddMetadata(metadataReservationID, req.ReservationID.String())
	params.AddMetadata(metadataProviderID, req.ProviderID.String())

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, processorError(err, "create payment intent")
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) RetrieveIntent(ctx context.Context, intentID string) (*commands.Intent, error) {
	ctx, cancel := g.withTimeout(ctx)
	defer cancel()

	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, processorError(err, "retrieve payment intent")
	}
	return toIntent(pi), nil
}

func (g *StripeGateway) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if g.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, g.timeout)
}

func toIntent(pi *stripe.PaymentIntent) *commands.Intent {
	return &commands.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}
}

// processorError keeps the processor's request id and code as safe details
// without exposing them to clients.
func processorError(err error, op string) error {
	wrapped := errs.Wrap(err, op)
	var se *stripe.Error
	if errors.As(err, &se) {
		wrapped = errs.WithSafeDetail(wrapped, "stripe status=%d code=%s request_id=%s", se.HTTPStatusCode, se.Code, se.RequestID)
	}
	return errs.Mark(wrapped, ErrProcessor)
}

// leveledLogger routes the Stripe client's logging through slog.
type leveledLogger struct {
	logger *slog.Logger
}

func (l *leveledLogger) Debugf(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

// Infof carries one line per API request, too chatty for info.
func (l *leveledLogger) Infof(format string, v ...any) {
	l.logger.Debug(fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Warnf(format string, v ...any) {
	l.logger.Warn(fmt.Sprintf(format, v...))
}

func (l *leveledLogger) Errorf(format string, v ...any) {
	l.logger.Error(fmt.Sprintf(format, v...))
}
