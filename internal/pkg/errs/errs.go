package errs

import (
	"errors"
	"fmt"
	"strings"

	cr "github.com/cockroachdb/errors"
)

func Wrap(err error, msg string) error {
	if err == nil {
		return nil
	}
	return cr.Wrap(err, msg)
}

func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.Wrapf(err, format, args...)
}

func New(msg string) error {
	return cr.New(msg)
}

func Newf(format string, args ...any) error {
	return cr.Newf(format, args...)
}

// Mark keeps err's message and stack but makes errors.Is(err, markErr) true,
// under both the standard library and cockroachdb/errors.
func Mark(err error, markErr error) error {
	if err == nil {
		return markErr
	}
	return &markedError{inner: cr.Mark(err, markErr), mark: markErr}
}

// markedError exposes the mark through an Is method; cr.Mark alone is only
// visible to cockroachdb's own Is.
type markedError struct {
	inner error
	mark  error
}

func (e *markedError) Error() string { return e.inner.Error() }

func (e *markedError) Unwrap() error { return e.inner }

func (e *markedError) Is(target error) bool {
	return errors.Is(e.mark, target)
}

func (e *markedError) Format(s fmt.State, verb rune) {
	if f, ok := e.inner.(fmt.Formatter); ok {
		f.Format(s, verb)
		return
	}
	fmt.Fprint(s, e.inner.Error())
}

// Is and As are the cockroachdb/errors matchers, which also see marks
// attached by cr.Mark directly.
var (
	Is = cr.Is
	As = cr.As
)

// WithSafeDetail attaches a detail that is safe to ship to error telemetry.
func WithSafeDetail(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return cr.WithSafeDetails(err, format, args...)
}

func ExtractStackLines(err error, maxLines int) []string {
	if err == nil {
		return nil
	}
	s := fmt.Sprintf("%+v", err)
	lines := strings.Split(s, "\n")
	if maxLines > 0 && len(lines) > maxLines {
		lines = lines[:maxLines]
	}
	return lines
}
