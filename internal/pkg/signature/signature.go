// Package signature authenticates inbound processor notifications.
//
// The header carries comma-separated key=value pairs: one t=<unix seconds>
// and one or more v1=<hex hmac-sha256> entries. The signed string is
// "<t>.<raw body>".
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"rental-settlement/internal/pkg/clock"
	"rental-settlement/internal/pkg/errs"
)

const (
	DefaultTolerance = 300 * time.Second

	timestampKey = "t"
	schemeV1     = "v1"
)

var (
	ErrInvalidSignature = errs.New("invalid webhook signature")

	ErrMissingHeader     = errs.New("missing signature header")
	ErrMissingTimestamp  = errs.New("signature header has no timestamp")
	ErrMissingSignature  = errs.New("signature header has no v1 signature")
	ErrInvalidTimestamp  = errs.New("signature timestamp is not numeric")
	ErrTimestampTooOld   = errs.New("signature timestamp outside tolerance")
	ErrSignatureMismatch = errs.New("signature digest mismatch")
)

type Verifier struct {
	secret    []byte
	tolerance time.Duration
	clock     clock.Clock
}

func NewVerifier(secret string, tolerance time.Duration, clk clock.Clock) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{
		secret:    []byte(secret),
		tolerance: tolerance,
		clock:     clk,
	}
}

// Verify returns nil when header carries a valid signature of payload.
// Every failure matches ErrInvalidSignature under errors.Is.
func (v *Verifier) Verify(payload []byte, header string) error {
	if strings.TrimSpace(header) == "" {
		return reject(ErrMissingHeader)
	}

	ts, signatures, err := parseHeader(header)
	if err != nil {
		return reject(err)
	}

	// checked before the digest so captured requests age out on their own
	if !v.withinTolerance(ts) {
		return reject(ErrTimestampTooOld)
	}

	expected := []byte(ComputeSignature(v.secret, ts, payload))
	for _, sig := range signatures {
		if constantTimeEqual(expected, []byte(sig)) {
			return nil
		}
	}
	return reject(ErrSignatureMismatch)
}

// withinTolerance compares in whole seconds so extreme timestamps cannot
// overflow a time.Duration.
func (v *Verifier) withinTolerance(ts int64) bool {
	now := v.clock.Now().Unix()
	tol := int64(v.tolerance / time.Second)
	return ts >= now-tol && ts <= now+tol
}

func reject(reason error) error {
	return errs.Mark(reason, ErrInvalidSignature)
}

// ComputeSignature returns the hex HMAC-SHA256 of "<t>.<payload>".
func ComputeSignature(secret []byte, t int64, payload []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(strconv.FormatInt(t, 10)))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// Header builds a header value for payload signed at t.
func Header(secret []byte, t time.Time, payload []byte) string {
	ts := t.Unix()
	return timestampKey + "=" + strconv.FormatInt(ts, 10) + "," + schemeV1 + "=" + ComputeSignature(secret, ts, payload)
}

func parseHeader(header string) (int64, []string, error) {
	var (
		rawTS      string
		signatures []string
	)
	for _, pair := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok {
			continue
		}
		switch key {
		case timestampKey:
			rawTS = value
		case schemeV1:
			if value != "" {
				signatures = append(signatures, value)
			}
		}
	}

	if rawTS == "" {
		return 0, nil, ErrMissingTimestamp
	}
	if len(signatures) == 0 {
		return 0, nil, ErrMissingSignature
	}

	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return 0, nil, ErrInvalidTimestamp
	}
	return ts, signatures, nil
}

// constantTimeEqual has no early exit once lengths match.
func constantTimeEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	var diff byte
	for i := range a {
		diff |= a[i] ^ b[i]
	}
	return diff == 0
}
