//go:build unit

package commands_test

import (
	"context"
	"sync"

	"rental-settlement/internal/usecase/commands"
	"rental-settlement/tests/common/builder"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/mock/gomock"
)

// The package tracer binds to the first installed provider, so the recorder
// is installed once per test binary.
var (
	spanRecorder    = tracetest.NewSpanRecorder()
	installRecorder sync.Once
)

func recordSpans() *tracetest.SpanRecorder {
	installRecorder.Do(func() {
		otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spanRecorder)))
	})
	return spanRecorder
}

// seedHold stores a fresh payable hold owned by the suite member's provider.
func (s *PaymentIntentCommandsTestSuite) seedHold() uuid.UUID {
	b := builder.NewReservationBuilder(s.now)
	b.ProviderID = s.res.ProviderID
	s.store.PutReservation(b.BuildSnapshot())
	return b.ID
}

func endedSpan(rec *tracetest.SpanRecorder, name string, attr attribute.KeyValue) (sdktrace.ReadOnlySpan, bool) {
	for _, span := range rec.Ended() {
		if span.Name() != name {
			continue
		}
		for _, a := range span.Attributes() {
			if a == attr {
				return span, true
			}
		}
	}
	return nil, false
}

func (s *PaymentIntentCommandsTestSuite) TestIssue_RecordsSpan() {
	rec := recordSpans()

	s.Run("success carries the intent id", func() {
		s.mockGateway.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).
			Return(&commands.Intent{ID: "pi_span", ClientSecret: "secret"}, nil)

		_, err := s.cmds.Issue(s.ctx, s.member, s.res.ID)
		s.Require().NoError(err)

		span, ok := endedSpan(rec, "PaymentIntentCommands.Issue", attribute.String("payment_intent.id", "pi_span"))
		s.Require().True(ok, "no span recorded for the issued intent")
		s.NotEqual(codes.Error, span.Status().Code)
	})

	s.Run("processor failure marks the span as error", func() {
		other := s.seedHold()
		s.mockGateway.EXPECT().CreateIntent(gomock.Any(), gomock.Any()).
			Return(nil, context.DeadlineExceeded)

		_, err := s.cmds.Issue(s.ctx, s.member, other)
		s.Require().Error(err)

		span, ok := endedSpan(rec, "PaymentIntentCommands.Issue", attribute.String("reservation.id", other.String()))
		s.Require().True(ok, "no span recorded for the failed issue")
		s.Equal(codes.Error, span.Status().Code)
	})
}

func (s *WebhookCommandsTestSuite) TestReconcile_RecordsSpan() {
	rec := recordSpans()

	res := s.seed(builder.NewReservationBuilder(s.now).WithIntent("pi_traced"))
	event := builder.NewWebhookEventBuilder().ForReservation(res)
	s.reconcile(event.BuildPayload())

	span, ok := endedSpan(rec, "WebhookCommands.Reconcile", attribute.String("event.id", event.EventID))
	s.Require().True(ok, "no span recorded for the reconciled event")
	s.NotEqual(codes.Error, span.Status().Code)
}
