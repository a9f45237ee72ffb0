package middleware

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"rental-settlement/internal/handler/httperr"
	"rental-settlement/internal/pkg/ratelimit"

	"github.com/gin-gonic/gin"
)

const (
	headerRetryAfter         = "Retry-After"
	headerRateLimitRemaining = "X-RateLimit-Remaining"
	headerRateLimitReset     = "X-RateLimit-Reset"
)

// RateLimitMiddleware throttles one route. Handlers returned here never call
// c.Next so they can be chained per route.
type RateLimitMiddleware struct {
	limiter ratelimit.Limiter
}

func NewRateLimitMiddleware(limiter ratelimit.Limiter) *RateLimitMiddleware {
	return &RateLimitMiddleware{limiter: limiter}
}

// PerAddress buckets by forwarded or connecting address.
func (m *RateLimitMiddleware) PerAddress(route string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := ratelimit.Identifier("", c.Request, c.RemoteIP())
		m.check(c, ratelimit.Key(route+":addr", id), limit, window)
	}
}

// PerUser buckets by the authenticated user and must run after RequireAuth.
func (m *RateLimitMiddleware) PerUser(route string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		explicit := ""
		if userID, ok := GetUserID(c); ok {
			explicit = userID.String()
		}
		id := ratelimit.Identifier(explicit, c.Request, c.RemoteIP())
		m.check(c, ratelimit.Key(route+":user", id), limit, window)
	}
}

func (m *RateLimitMiddleware) check(c *gin.Context, key string, limit int, window time.Duration) {
	result, err := m.limiter.Check(c.Request.Context(), key, limit, window)
	if err != nil {
		var exceeded *ratelimit.ExceededError
		if errors.As(err, &exceeded) {
			AbortRateLimited(c, exceeded, false)
			return
		}
		// the limiter only mitigates abuse, so a broken store lets traffic through
		slog.WarnContext(c.Request.Context(), "rate limiter unavailable", "key", key, "error", err.Error())
		return
	}
	SetRateLimitHeaders(c, result)
}

func SetRateLimitHeaders(c *gin.Context, result ratelimit.Result) {
	c.Header(headerRateLimitRemaining, strconv.Itoa(result.Remaining))
	c.Header(headerRateLimitReset, strconv.FormatInt(resetSeconds(result.Reset), 10))
}

// AbortRateLimited answers 429 with the retry headers, as plain text when
// asText is set and as the JSON envelope otherwise.
func AbortRateLimited(c *gin.Context, exceeded *ratelimit.ExceededError, asText bool) {
	retryAfter := exceeded.RetryAfterSeconds()
	c.Header(headerRetryAfter, strconv.FormatInt(retryAfter, 10))
	c.Header(headerRateLimitRemaining, strconv.Itoa(exceeded.Remaining))
	c.Header(headerRateLimitReset, strconv.FormatInt(retryAfter, 10))

	const msg = "Too many requests"
	if asText {
		httperr.AbortWithText(c, exceeded.StatusCode(), exceeded, msg)
		return
	}
	httperr.AbortWithError(c, exceeded.StatusCode(), exceeded, msg, nil)
}

func resetSeconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64((d + time.Second - 1) / time.Second)
}
