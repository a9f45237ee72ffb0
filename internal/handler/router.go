package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rental-settlement/internal/handler/api"
	"rental-settlement/internal/handler/middleware"
	"rental-settlement/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

type Handlers struct {
	PaymentIntent *api.PaymentIntentHandler
	Webhook       *api.WebhookHandler
	Health        *api.HealthHandler
}

type Middlewares struct {
	Logger    *middleware.Logger
	Auth      *middleware.AuthMiddleware
	RateLimit *middleware.RateLimitMiddleware
	Reporter  middleware.ErrorReporter
}

func NewRouter(engine *gin.Engine, cfg config.Config, h Handlers, mw Middlewares) {
	engine.HandleMethodNotAllowed = true
	setupMiddleware(engine, cfg, mw)
	setupRoutes(engine, cfg, h, mw)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, mw Middlewares) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery(mw.Reporter))
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(mw.Logger.LoggingMiddleware())
	engine.Use(middleware.ErrorHandler(mw.Reporter))
}

func setupRoutes(engine *gin.Engine, cfg config.Config, h Handlers, mw Middlewares) {
	engine.GET("/health", h.Health.Live)
	engine.GET("/ready", h.Health.Ready)

	rl := cfg.RateLimit
	apiGroup := engine.Group("/api")
	{
		payments := apiGroup.Group("/payments")
		payments.Use(mw.RateLimit.PerAddress("intent", rl.IntentPerAddress, rl.IntentWindow))
		payments.Use(mw.Auth.RequireAuth())
		addRoutes(payments, []route{
			{
				Method:  http.MethodPost,
				Path:    "/intents",
				Handler: h.PaymentIntent.Create,
				Mw: []gin.HandlerFunc{
					middleware.BodyLimit(cfg.Server.MaxBodyBytes),
					mw.RateLimit.PerUser("intent", rl.IntentPerUser, rl.IntentWindow),
				},
			},
		})

		// signature, not a bearer token, authenticates the processor
		webhooks := apiGroup.Group("/webhooks")
		addRoutes(webhooks, []route{
			{
				Method:  http.MethodPost,
				Path:    "/payments",
				Handler: h.Webhook.Receive,
				Mw:      []gin.HandlerFunc{middleware.BodyLimit(cfg.Server.MaxBodyBytes)},
			},
		})
	}
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		default:
			g.Handle(r.Method, r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
