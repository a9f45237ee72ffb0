package components

import (
	"rental-settlement/internal/handler"
	"rental-settlement/internal/handler/api"
	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewPaymentIntentHandler,
		api.NewWebhookHandler,
		NewHealthHandler,
		middleware.NewAuthMiddleware,
		middleware.NewRateLimitMiddleware,
	),
	fx.Invoke(RegisterRoutes),
)

type RouteParams struct {
	fx.In

	Engine        *gin.Engine
	Config        config.Config
	PaymentIntent *api.PaymentIntentHandler
	Webhook       *api.WebhookHandler
	Health        *api.HealthHandler
	Logger        *middleware.Logger
	Auth          *middleware.AuthMiddleware
	RateLimit     *middleware.RateLimitMiddleware
	Reporter      middleware.ErrorReporter
}

func RegisterRoutes(p RouteParams) {
	handler.NewRouter(p.Engine, p.Config,
		handler.Handlers{
			PaymentIntent: p.PaymentIntent,
			Webhook:       p.Webhook,
			Health:        p.Health,
		},
		handler.Middlewares{
			Logger:    p.Logger,
			Auth:      p.Auth,
			RateLimit: p.RateLimit,
			Reporter:  p.Reporter,
		},
	)
}

func NewHealthHandler(pool *pgxpool.Pool) *api.HealthHandler {
	return api.NewHealthHandler(pool)
}
