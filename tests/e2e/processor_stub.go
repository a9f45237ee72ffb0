//go:build e2e

package e2e

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// processorStub answers the two payment intent calls the service makes,
// honouring idempotency keys the way the real processor does.
type processorStub struct {
	server *httptest.Server

	mu      sync.Mutex
	intents map[string]map[string]any
	byKey   map[string]string
	creates int
	fail    bool
}

func newProcessorStub() *processorStub {
	p := &processorStub{
		intents: make(map[string]map[string]any),
		byKey:   make(map[string]string),
	}
	p.server = httptest.NewServer(http.HandlerFunc(p.handle))
	return p
}

func (p *processorStub) URL() string { return p.server.URL }

func (p *processorStub) Close() { p.server.Close() }

func (p *processorStub) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.intents = make(map[string]map[string]any)
	p.byKey = make(map[string]string)
	p.creates = 0
	p.fail = false
}

// Creates counts create calls that produced a new intent.
func (p *processorStub) Creates() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.creates
}

func (p *processorStub) FailRequests(fail bool) {
	p.mu.Lock()
	p.fail = fail
	p.mu.Unlock()
}

func (p *processorStub) handle(w http.ResponseWriter, r *http.Request) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fail {
		writeStubJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error": map[string]any{"type": "api_error", "message": "processor unavailable"},
		})
		return
	}

	switch {
	case r.Method == http.MethodPost && r.URL.Path == "/v1/payment_intents":
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		key := r.Header.Get("Idempotency-Key")
		if id, ok := p.byKey[key]; ok && key != "" {
			writeStubJSON(w, http.StatusOK, p.intents[id])
			return
		}
		amount, err := strconv.ParseInt(r.PostForm.Get("amount"), 10, 64)
		if err != nil {
			http.Error(w, "amount must be an integer", http.StatusBadRequest)
			return
		}
		p.creates++
		id := fmt.Sprintf("pi_stub_%d", p.creates)
		intent := map[string]any{
			"id":            id,
			"object":        "payment_intent",
			"amount":        amount,
			"currency":      r.PostForm.Get("currency"),
			"client_secret": id + "_secret_e2e",
			"status":        "requires_payment_method",
			"metadata": map[string]string{
				"reservation_id": r.PostForm.Get("metadata[reservation_id]"),
				"provider_id":    r.PostForm.Get("metadata[provider_id]"),
			},
		}
		p.intents[id] = intent
		if key != "" {
			p.byKey[key] = id
		}
		writeStubJSON(w, http.StatusOK, intent)

	case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/payment_intents/"):
		id := strings.TrimPrefix(r.URL.Path, "/v1/payment_intents/")
		intent, ok := p.intents[id]
		if !ok {
			writeStubJSON(w, http.StatusNotFound, map[string]any{
				"error": map[string]any{"type": "invalid_request_error", "code": "resource_missing"},
			})
			return
		}
		writeStubJSON(w, http.StatusOK, intent)

	default:
		http.NotFound(w, r)
	}
}

func writeStubJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
