//go:build unit

package handler_test

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"rental-settlement/internal/domain/user"
	"rental-settlement/internal/handler"
	"rental-settlement/internal/handler/api"
	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/infra/telemetry"
	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/config"
	"rental-settlement/internal/pkg/jwt"
	"rental-settlement/internal/pkg/ratelimit"
	"rental-settlement/internal/pkg/signature"
	"rental-settlement/internal/usecase"
	"rental-settlement/tests/common/authtest"
	"rental-settlement/tests/common/httptest"
	commandsmock "rental-settlement/tests/mock/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type okPinger struct{}

func (okPinger) Ping(context.Context) error { return nil }

type RouterTestSuite struct {
	suite.Suite
	cfg    config.Config
	router *gin.Engine
	token  string
}

func (s *RouterTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.cfg = config.NewTestConfig()
	s.cfg.Server.MaxBodyBytes = 64

	ctrl := gomock.NewController(s.T())
	clk := clock.NewMockClock(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
	limiter := ratelimit.NewMemoryLimiter(clk)

	// no expectations: any use case call fails the test
	h := handler.Handlers{
		PaymentIntent: api.NewPaymentIntentHandler(commandsmock.NewMockPaymentIntentCommands(ctrl)),
		Webhook: api.NewWebhookHandler(commandsmock.NewMockWebhookCommands(ctrl),
			signature.NewVerifier(s.cfg.Webhook.Secret, s.cfg.Webhook.Tolerance, clk), limiter, s.cfg),
		Health: api.NewHealthHandler(okPinger{}),
	}
	mw := handler.Middlewares{
		Logger:    middleware.NewLogger(s.cfg.Log),
		Auth:      middleware.NewAuthMiddleware(usecase.NewTokenValidator(jwt.NewService(s.cfg.JWT.Secret, time.Hour))),
		RateLimit: middleware.NewRateLimitMiddleware(limiter),
		Reporter:  telemetry.NopReporter{},
	}

	s.router = gin.New()
	handler.NewRouter(s.router, s.cfg, h, mw)
	s.token = authtest.NewJWTHelper(s.cfg.JWT).GenerateToken(s.T(), uuid.New(), user.RoleMember)
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (s *RouterTestSuite) TestBodyCapAppliesToBothEndpoints() {
	oversized := map[string]string{"reservation_id": strings.Repeat("a", 128)}

	s.Run("intents", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/payments/intents", oversized, s.token)
		s.Equal(http.StatusRequestEntityTooLarge, w.Code)
	})

	s.Run("webhooks", func() {
		w := httptest.PerformRawRequest(s.T(), s.router, http.MethodPost, "/api/webhooks/payments",
			[]byte(strings.Repeat("x", 128)), nil)
		httptest.AssertTextResponse(s.T(), w, http.StatusRequestEntityTooLarge, "Payload too large")
	})
}

func (s *RouterTestSuite) TestRouteGuards() {
	s.Run("intents require a bearer token", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodPost, "/api/payments/intents",
			map[string]string{"reservation_id": uuid.NewString()}, "")
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("webhook rejects other methods", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/api/webhooks/payments", nil, "")
		s.Equal(http.StatusMethodNotAllowed, w.Code)
	})

	s.Run("health is public", func() {
		w := httptest.PerformRequest(s.T(), s.router, http.MethodGet, "/health", nil, "")
		assert.Equal(s.T(), http.StatusOK, w.Code)
	})
}
