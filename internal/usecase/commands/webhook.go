package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/domain/settlement"
	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/usecase/shared"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v82"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var ErrMalformedEvent = errs.New("malformed webhook event")

const (
	metadataReservationID = "reservation_id"
	metadataProviderID    = "provider_id"
)

// WebhookEvent is the subset of a processor event the reconciler acts on.
type WebhookEvent struct {
	ID            string
	Type          settlement.EventType
	ObjectID      string
	ReservationID uuid.UUID
	ProviderID    uuid.UUID
}

type eventObject struct {
	ID       string            `json:"id"`
	Metadata map[string]string `json:"metadata"`
}

// ParseWebhookEvent decodes a processor event. Missing or malformed required
// fields yield an error matching ErrMalformedEvent.
func ParseWebhookEvent(payload []byte) (*WebhookEvent, error) {
	var ev stripe.Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode event"), ErrMalformedEvent)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, errs.Mark(errs.New("event id and type are required"), ErrMalformedEvent)
	}
	if ev.Data == nil || len(ev.Data.Raw) == 0 {
		return nil, errs.Mark(errs.New("event data.object is required"), ErrMalformedEvent)
	}

	var obj eventObject
	if err := json.Unmarshal(ev.Data.Raw, &obj); err != nil {
		return nil, errs.Mark(errs.Wrap(err, "decode event object"), ErrMalformedEvent)
	}
	if obj.ID == "" {
		return nil, errs.Mark(errs.New("event object id is required"), ErrMalformedEvent)
	}

	reservationID, err := uuid.Parse(obj.Metadata[metadataReservationID])
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "metadata.reservation_id"), ErrMalformedEvent)
	}
	providerID, err := uuid.Parse(obj.Metadata[metadataProviderID])
	if err != nil {
		return nil, errs.Mark(errs.Wrap(err, "metadata.provider_id"), ErrMalformedEvent)
	}

	return &WebhookEvent{
		ID:            ev.ID,
		Type:          settlement.EventType(ev.Type),
		ObjectID:      obj.ID,
		ReservationID: reservationID,
		ProviderID:    providerID,
	}, nil
}

// PeekEventID extracts the top-level id without validating anything else.
func PeekEventID(payload []byte) string {
	var head struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(payload, &head); err != nil {
		return ""
	}
	return head.ID
}

type ReconcileResult struct {
	EventID  string
	Decision settlement.Decision
}

type WebhookCommands interface {
	Reconcile(ctx context.Context, payload []byte) (*ReconcileResult, error)
}

type webhookCommandsImpl struct {
	uow   shared.UnitOfWork
	clock clock.Clock
}

func NewWebhookCommands(uow shared.UnitOfWork, clock clock.Clock) WebhookCommands {
	return &webhookCommandsImpl{
		uow:   uow,
		clock: clock,
	}
}

// decisionRecord is what gets logged for every reconciled event.
type decisionRecord struct {
	event       *WebhookEvent
	priorStatus reservation.Status
	expired     bool
	conflict    bool
	replay      bool
	decision    settlement.Decision
}

func (w *webhookCommandsImpl) Reconcile(ctx context.Context, payload []byte) (*ReconcileResult, error) {
	ev, err := ParseWebhookEvent(payload)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "WebhookCommands.Reconcile", trace.WithAttributes(
		attribute.String("event.id", ev.ID),
		attribute.String("event.type", string(ev.Type)),
		attribute.String("reservation.id", ev.ReservationID.String()),
	))
	defer span.End()

	var rec decisionRecord
	err = w.uow.Within(ctx, func(ctx context.Context, tx shared.Tx) error {
		// reset on every attempt; the transaction may be retried
		rec = decisionRecord{event: ev}
		return w.reconcileInTx(ctx, tx, &rec)
	})
	if err != nil {
		slog.WarnContext(ctx, "webhook reconciliation rolled back",
			"event_id", ev.ID,
			"event_type", string(ev.Type),
			"reservation_id", ev.ReservationID.String(),
			"error", err.Error())
		return nil, recordSpanError(span, err)
	}

	logDecision(ctx, rec)
	span.SetAttributes(
		attribute.String("settlement.outcome", string(rec.decision.Outcome)),
		attribute.Int("settlement.http_status", rec.decision.HTTPStatus),
	)

	return &ReconcileResult{EventID: ev.ID, Decision: rec.decision}, nil
}

func (w *webhookCommandsImpl) reconcileInTx(ctx context.Context, tx shared.Tx, rec *decisionRecord) error {
	ev := rec.event

	inserted, err := tx.WebhookEvents().TryInsert(ctx, shared.WebhookEventRecord{
		EventID:       ev.ID,
		EventType:     string(ev.Type),
		ReservationID: ev.ReservationID,
		ProviderID:    ev.ProviderID,
		ReceivedAt:    w.clock.Now(),
	})
	if err != nil {
		return errs.Wrap(err, "failed to record webhook event")
	}
	if !inserted {
		rec.replay = true
		rec.decision = settlement.Decide(settlement.Input{EventType: ev.Type, IsReplay: true})
		return nil
	}

	res, err := tx.Reservations().LockByID(ctx, ev.ReservationID)
	if err != nil {
		return errs.Wrap(err, "failed to lock reservation")
	}
	if res == nil {
		// rolls back the ledger row so a later redelivery is not mistaken for a replay
		return ErrReservationNotFound
	}
	rec.priorStatus = res.Status()

	existing, hasIntent := res.PaymentIntentID()
	if hasIntent && existing != ev.ObjectID {
		rec.decision = settlement.MismatchedIntent()
		return nil
	}
	if !hasIntent {
		// the notification beat the issuer's commit
		if err := tx.Reservations().SetPaymentIntentID(ctx, res.ID(), ev.ObjectID); err != nil {
			return errs.Wrap(err, "failed to backfill payment intent id")
		}
	}

	now := w.clock.Now()
	rec.expired = res.IsExpired(now)
	if ev.Type == settlement.EventPaymentSucceeded && res.Status() == reservation.StatusHold && rec.expired {
		rec.conflict, err = tx.Reservations().HasOverlappingActive(ctx, res)
		if err != nil {
			return errs.Wrap(err, "failed to check for conflicting reservations")
		}
	}

	rec.decision = settlement.Decide(settlement.Input{
		EventType:     ev.Type,
		CurrentStatus: res.Status(),
		Expired:       rec.expired,
		HasConflict:   rec.conflict,
	})
	if !rec.decision.ShouldUpdate {
		return nil
	}

	var paidAt *time.Time
	if rec.decision.NextStatus == reservation.StatusConfirmed {
		t := res.PaidAtOnConfirm(now)
		paidAt = &t
	}
	if err := tx.Reservations().UpdateStatus(ctx, res.ID(), rec.decision.NextStatus, paidAt); err != nil {
		return errs.Wrap(err, "failed to apply settlement decision")
	}
	return nil
}

func logDecision(ctx context.Context, rec decisionRecord) {
	attrs := []slog.Attr{
		slog.String("event_id", rec.event.ID),
		slog.String("event_type", string(rec.event.Type)),
		slog.String("reservation_id", rec.event.ReservationID.String()),
		slog.String("prior_status", rec.priorStatus.String()),
		slog.Bool("expired", rec.expired),
		slog.Bool("conflict", rec.conflict),
		slog.Bool("replay", rec.replay),
		slog.String("outcome", string(rec.decision.Outcome)),
		slog.Int("http_status", rec.decision.HTTPStatus),
	}
	if rec.decision.ShouldUpdate {
		attrs = append(attrs, slog.String("next_status", rec.decision.NextStatus.String()))
	}
	slog.LogAttrs(ctx, slog.LevelInfo, "webhook decision", attrs...)
}
