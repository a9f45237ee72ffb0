//go:build unit

package api_test

import (
	"bytes"
	"net/http"
	"strings"
	"testing"
	"time"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/domain/settlement"
	"rental-settlement/internal/handler/api"
	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/errs"
	"rental-settlement/internal/pkg/ratelimit"
	"rental-settlement/internal/pkg/signature"
	"rental-settlement/internal/usecase/commands"
	"rental-settlement/tests/common/builder"
	"rental-settlement/tests/common/httptest"
	commandsmock "rental-settlement/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

const webhookURL = "/api/webhooks/payments"

type WebhookHandlerTestSuite struct {
	suite.Suite
	router       *gin.Engine
	mockCtrl     *gomock.Controller
	mockCommands *commandsmock.MockWebhookCommands
	clock        *clock.MockClock
	cfg          config.Config
}

func (s *WebhookHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.router = gin.New()

	s.mockCtrl = gomock.NewController(s.T())
	s.mockCommands = commandsmock.NewMockWebhookCommands(s.mockCtrl)
	s.clock = clock.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	s.cfg = config.NewTestConfig()
	s.cfg.RateLimit.WebhookLimit = 2
	s.cfg.RateLimit.WebhookWindow = time.Second
	s.cfg.Server.MaxBodyBytes = 2048

	verifier := signature.NewVerifier(s.cfg.Webhook.Secret, s.cfg.Webhook.Tolerance, s.clock)
	handler := api.NewWebhookHandler(s.mockCommands, verifier, ratelimit.NewMemoryLimiter(s.clock), s.cfg)

	s.router.POST(webhookURL, middleware.BodyLimit(s.cfg.Server.MaxBodyBytes), handler.Receive)
}

func (s *WebhookHandlerTestSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func TestWebhookHandlerSuite(t *testing.T) {
	suite.Run(t, new(WebhookHandlerTestSuite))
}

func (s *WebhookHandlerTestSuite) signed(b *builder.WebhookEventBuilder) ([]byte, map[string]string) {
	payload, header := b.BuildSigned(s.cfg.Webhook.Secret, s.clock.Now())
	return payload, map[string]string{s.cfg.Webhook.SignatureHeader: header}
}

func decided(eventID string, status int, msg string, outcome settlement.Outcome) *commands.ReconcileResult {
	return &commands.ReconcileResult{
		EventID: eventID,
		Decision: settlement.Decision{
			ShouldUpdate: outcome == settlement.OutcomeConfirmed || outcome == settlement.OutcomeCancelled,
			NextStatus:   reservation.StatusConfirmed,
			HTTPStatus:   status,
			Message:      msg,
			Outcome:      outcome,
		},
	}
}

func (s *WebhookHandlerTestSuite) TestReceive() {
	s.Run("success: responds with the decision as plain text", func() {
		ev := builder.NewWebhookEventBuilder()
		payload, headers := s.signed(ev)
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), payload).
			Return(decided(ev.EventID, http.StatusOK, settlement.MsgConfirmed, settlement.OutcomeConfirmed), nil).Times(1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, headers)

		httptest.AssertTextResponse(s.T(), rec, http.StatusOK, settlement.MsgConfirmed)
		s.Equal("1", rec.Header().Get("X-RateLimit-Remaining"))
	})

	s.Run("success: a reassigned slot is answered with 409", func() {
		ev := builder.NewWebhookEventBuilder()
		payload, headers := s.signed(ev)
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), payload).
			Return(decided(ev.EventID, http.StatusConflict, settlement.MsgSlotReassigned, settlement.OutcomeCancelled), nil).Times(1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, headers)
		httptest.AssertTextResponse(s.T(), rec, http.StatusConflict, settlement.MsgSlotReassigned)
	})

	s.Run("error: 403 and no reconciliation on a tampered payload", func() {
		ev := builder.NewWebhookEventBuilder()
		payload, headers := s.signed(ev)
		tampered := bytes.Replace(payload, []byte(ev.ReservationID), []byte(ev.ProviderID), 1)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, tampered, headers)
		httptest.AssertTextResponse(s.T(), rec, http.StatusForbidden, "Invalid signature")
	})

	s.Run("error: 403 on a missing or stale signature", func() {
		ev := builder.NewWebhookEventBuilder()
		payload := ev.BuildPayload()

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, nil)
		s.Equal(http.StatusForbidden, rec.Code)

		_, staleHeader := ev.BuildSigned(s.cfg.Webhook.Secret, s.clock.Now().Add(-10*time.Minute))
		rec = httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload,
			map[string]string{s.cfg.Webhook.SignatureHeader: staleHeader})
		s.Equal(http.StatusForbidden, rec.Code)
	})

	s.Run("error: 413 on an oversized body", func() {
		ev := builder.NewWebhookEventBuilder().With(func(b *builder.WebhookEventBuilder) {
			b.IntentID = "pi_" + strings.Repeat("x", 4096)
		})
		payload, headers := s.signed(ev)

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, headers)
		s.Equal(http.StatusRequestEntityTooLarge, rec.Code)
	})

	s.Run("error: usecase failures map to status codes", func() {
		cases := []struct {
			name       string
			err        error
			expectCode int
			expectBody string
		}{
			{name: "malformed", err: errs.Mark(errs.New("reservation_id is not a uuid"), commands.ErrMalformedEvent), expectCode: http.StatusBadRequest, expectBody: "Malformed event"},
			{name: "unknown reservation", err: commands.ErrReservationNotFound, expectCode: http.StatusNotFound, expectBody: "Reservation not found"},
			{name: "storage failure", err: errs.New("lock timeout"), expectCode: http.StatusInternalServerError, expectBody: "Internal server error"},
		}
		for _, tc := range cases {
			s.Run(tc.name, func() {
				payload, headers := s.signed(builder.NewWebhookEventBuilder())
				s.mockCommands.EXPECT().Reconcile(gomock.Any(), payload).Return(nil, tc.err).Times(1)

				rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, headers)
				httptest.AssertTextResponse(s.T(), rec, tc.expectCode, tc.expectBody)
			})
		}
	})

	s.Run("error: 429 with retry metadata once the bucket is spent", func() {
		ev := builder.NewWebhookEventBuilder()
		payload, headers := s.signed(ev)
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), payload).
			Return(decided(ev.EventID, http.StatusOK, settlement.MsgReplay, settlement.OutcomeReplay), nil).Times(2)

		for range 2 {
			rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, headers)
			s.Equal(http.StatusOK, rec.Code)
		}

		rec := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, headers)
		httptest.AssertTextResponse(s.T(), rec, http.StatusTooManyRequests, "Too many requests")
		httptest.AssertHeaders(s.T(), rec, map[string]string{
			"Retry-After":           "1",
			"X-RateLimit-Remaining": "0",
			"X-RateLimit-Reset":     "1",
		})

		s.clock.Add(time.Second)
		s.mockCommands.EXPECT().Reconcile(gomock.Any(), payload).
			Return(decided(ev.EventID, http.StatusOK, settlement.MsgReplay, settlement.OutcomeReplay), nil).Times(1)
		rec = httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, webhookURL, payload, headers)
		s.Equal(http.StatusOK, rec.Code)
	})
}
