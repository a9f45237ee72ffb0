package ratelimit

import (
	"net/http"
	"strings"
)

const unknownIdentifier = "unknown"

// Identifier picks the bucket identity: the explicit id when present, then
// the forwarded or connecting address, then "unknown".
func Identifier(explicit string, r *http.Request, remoteAddr string) string {
	if id := strings.TrimSpace(explicit); id != "" {
		return id
	}
	if r != nil {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			first, _, _ := strings.Cut(fwd, ",")
			if first = strings.TrimSpace(first); first != "" {
				return first
			}
		}
		if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
			return realIP
		}
	}
	if addr := strings.TrimSpace(remoteAddr); addr != "" {
		return addr
	}
	return unknownIdentifier
}
