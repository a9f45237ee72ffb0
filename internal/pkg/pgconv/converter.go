// Package pgconv maps between pgtype nullable columns and Go pointers.
package pgconv

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

func ptrIf[T any](v T, valid bool) *T {
	if !valid {
		return nil
	}
	return &v
}

func deref[T any](p *T) (T, bool) {
	var zero T
	if p == nil {
		return zero, false
	}
	return *p, true
}

func UUIDPtrFromPgtype(pu pgtype.UUID) *uuid.UUID {
	return ptrIf(uuid.UUID(pu.Bytes), pu.Valid)
}

func StringPtrFromPgtype(pt pgtype.Text) *string {
	return ptrIf(pt.String, pt.Valid)
}

func TimePtrFromPgtype(pt pgtype.Timestamptz) *time.Time {
	return ptrIf(pt.Time, pt.Valid)
}

func UUIDPtrToPgtype(id *uuid.UUID) pgtype.UUID {
	v, ok := deref(id)
	return pgtype.UUID{Bytes: v, Valid: ok}
}

func StringPtrToPgtype(s *string) pgtype.Text {
	v, ok := deref(s)
	return pgtype.Text{String: v, Valid: ok}
}

func TimePtrToPgtype(t *time.Time) pgtype.Timestamptz {
	v, ok := deref(t)
	return pgtype.Timestamptz{Time: v, Valid: ok}
}

// IsNoRows reports whether a single-row query matched nothing, through any wrapping.
func IsNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}
