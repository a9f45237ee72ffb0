package httperr

import (
	"github.com/gin-gonic/gin"
)

type Response struct {
	Status int `json:"-"`
	Error  struct {
		Message string `json:"message"`
	} `json:"error"`
	Detail any `json:"detail,omitempty"`
}

// TextResponse marks an error already answered with a plain-text body.
type TextResponse struct {
	Status  int
	Message string
}

// preserves original error for monitoring
func AbortWithError(c *gin.Context, status int, err error, msg string, detail any) {
	if err == nil {
		panic("AbortWithError: err cannot be nil")
	}

	resp := Response{Status: status}
	resp.Error.Message = msg
	resp.Detail = detail

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: resp,
	})
	c.AbortWithStatusJSON(status, resp)
}

// AbortWithText is AbortWithError for endpoints whose callers expect a
// short plain-text body, such as processor webhooks.
func AbortWithText(c *gin.Context, status int, err error, msg string) {
	if err == nil {
		panic("AbortWithText: err cannot be nil")
	}

	_ = c.Error(gin.Error{
		Err:  err,
		Type: gin.ErrorTypePublic,
		Meta: TextResponse{Status: status, Message: msg},
	})
	c.Abort()
	c.String(status, msg)
}
