package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"rental-settlement/internal/handler/httperr"
	"rental-settlement/internal/pkg/errs"

	"github.com/gin-gonic/gin"
)

// ErrorReporter receives server-side failures; 4xx responses are never reported.
type ErrorReporter interface {
	Report(ctx context.Context, err error, tags map[string]string)
}

func ErrorHandler(reporter ErrorReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		writeErrorResponse(c)

		if status := c.Writer.Status(); status >= http.StatusInternalServerError && len(c.Errors) > 0 {
			reporter.Report(c.Request.Context(), c.Errors.Last().Err, requestTags(c, status))
		}
	}
}

func writeErrorResponse(c *gin.Context) {
	if c.Writer.Written() {
		return
	}
	// Search backward through the error stack
	for i := len(c.Errors) - 1; i >= 0; i-- {
		err := c.Errors[i]

		if err.IsType(gin.ErrorTypePublic) {
			switch resp := err.Meta.(type) {
			case httperr.Response:
				c.JSON(resp.Status, resp)
				return
			case httperr.TextResponse:
				c.String(resp.Status, resp.Message)
				return
			}
		}
	}
	if len(c.Errors) == 0 {
		return
	}
	if status := c.Writer.Status(); status != http.StatusOK {
		c.Status(status)
		c.Writer.WriteHeaderNow()
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": gin.H{"message": "Internal server error"}})
}

func CustomRecovery(reporter ErrorReporter) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				slog.ErrorContext(c.Request.Context(), "recovered from panic", "error", rec, "path", c.Request.URL.Path)

				err, ok := rec.(error)
				if !ok {
					err = errs.New(fmt.Sprint(rec))
				}
				reporter.Report(c.Request.Context(), errs.Wrap(err, "panic"), requestTags(c, http.StatusInternalServerError))

				resp := httperr.Response{Status: http.StatusInternalServerError}
				resp.Error.Message = "Internal server error"

				c.AbortWithStatusJSON(http.StatusInternalServerError, resp)
			}
		}()
		c.Next()
	}
}

func requestTags(c *gin.Context, status int) map[string]string {
	tags := map[string]string{
		"http.method": c.Request.Method,
		"http.route":  c.FullPath(),
		"http.status": strconv.Itoa(status),
	}
	if id := GetRequestID(c); id != "" {
		tags["request_id"] = id
	}
	return tags
}
