//go:build unit || e2e

package httptest

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

// PerformRequest sends body as JSON, with a bearer token when authToken is set.
func PerformRequest(t *testing.T, router *gin.Engine, method, path string, body any, authToken string) *httptest.ResponseRecorder {
	t.Helper()

	headers := map[string]string{}
	if authToken != "" {
		headers["Authorization"] = "Bearer " + authToken
	}
	if body == nil {
		return serve(router, method, path, nil, headers)
	}

	jsonBody, err := json.Marshal(body)
	require.NoError(t, err, "Failed to encode request body to JSON")
	headers["Content-Type"] = "application/json"
	return serve(router, method, path, bytes.NewReader(jsonBody), headers)
}

// PerformRawRequest sends the payload byte for byte, as signed webhook bodies require.
func PerformRawRequest(t *testing.T, router *gin.Engine, method, path string, payload []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	merged := map[string]string{"Content-Type": "application/json"}
	for k, v := range headers {
		merged[k] = v
	}
	return serve(router, method, path, bytes.NewReader(payload), merged)
}

func serve(router *gin.Engine, method, path string, body io.Reader, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, body)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// DecodeResponseBody fails the test when the body is not valid JSON for target.
func DecodeResponseBody(t *testing.T, body *bytes.Buffer, target any) error {
	t.Helper()

	err := json.NewDecoder(body).Decode(target)
	require.NoError(t, err, "Failed to decode response body")
	return err
}
