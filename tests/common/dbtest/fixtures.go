//go:build unit || e2e

package dbtest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"rental-settlement/tests/common/builder"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

// DBLike is satisfied by both a pool and an open transaction.
type DBLike interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ReservationState is the settlement-relevant slice of a stored booking.
type ReservationState struct {
	Status          string
	PaymentIntentID *string
	PaidAt          *time.Time
}

// EnsureSlot creates the provider and inventory item a booking refers to.
func EnsureSlot(t *testing.T, db DBLike, providerID, inventoryItemID uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	_, err := db.Exec(ctx, "INSERT INTO providers (id, name) VALUES ($1, $2) ON CONFLICT (id) DO NOTHING",
		providerID, "provider-"+providerID.String()[:8])
	require.NoError(t, err)

	_, err = db.Exec(ctx, "INSERT INTO inventory_items (id, provider_id, name) VALUES ($1, $2, $3) ON CONFLICT (id) DO NOTHING",
		inventoryItemID, providerID, "item-"+inventoryItemID.String()[:8])
	require.NoError(t, err)
}

// TryInsertReservation stores b and returns the database error, if any.
func TryInsertReservation(t *testing.T, db DBLike, b *builder.ReservationBuilder) error {
	t.Helper()
	EnsureSlot(t, db, b.ProviderID, b.InventoryItemID)

	_, err := db.Exec(context.Background(), `
		INSERT INTO reservations (id, provider_id, inventory_item_id, status, start_at, end_at,
			expires_at, amount_total_cents, currency, payment_intent_id, paid_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $12)`,
		b.ID, b.ProviderID, b.InventoryItemID, string(b.Status), b.StartAt, b.EndAt,
		b.ExpiresAt, b.AmountTotalCents, b.Currency, b.PaymentIntentID, b.PaidAt, b.CreatedAt)
	return err
}

func InsertReservation(t *testing.T, db DBLike, b *builder.ReservationBuilder) {
	t.Helper()
	require.NoError(t, TryInsertReservation(t, db, b))
}

func AddProviderMember(t *testing.T, db DBLike, providerID, userID uuid.UUID) {
	t.Helper()
	_, err := db.Exec(context.Background(),
		"INSERT INTO provider_members (provider_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING",
		providerID, userID)
	require.NoError(t, err)
}

func GetReservationState(t *testing.T, db DBLike, id uuid.UUID) ReservationState {
	t.Helper()
	var st ReservationState
	err := db.QueryRow(context.Background(),
		"SELECT status, payment_intent_id, paid_at FROM reservations WHERE id = $1", id).
		Scan(&st.Status, &st.PaymentIntentID, &st.PaidAt)
	require.NoError(t, err)
	return st
}

func CountWebhookEvents(t *testing.T, db DBLike, eventID string) int {
	t.Helper()
	var n int
	err := db.QueryRow(context.Background(),
		"SELECT count(*) FROM payment_webhook_events WHERE event_id = $1", eventID).Scan(&n)
	require.NoError(t, err)
	return n
}

var (
	buildTruncateOnce sync.Once
	truncateSQL       atomic.Value // string
)

// truncates all tables
func ResetDB(pool *pgxpool.Pool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	buildTruncateOnce.Do(func() {
		rows, err := pool.Query(ctx, `
		  SELECT 'public.' || quote_ident(tablename)
		  FROM pg_tables
		  WHERE schemaname = 'public'
		    AND tablename NOT IN ('schema_migrations')`)
		if err != nil {
			truncateSQL.Store("")
			return
		}
		defer rows.Close()
		var tables []string
		for rows.Next() {
			var t string
			if err := rows.Scan(&t); err != nil {
				truncateSQL.Store("")
				return
			}
			tables = append(tables, t)
		}
		if rows.Err() != nil {
			truncateSQL.Store("")
			return
		}
		if len(tables) == 0 {
			truncateSQL.Store("SELECT 1")
			return
		}
		truncateSQL.Store("TRUNCATE " + strings.Join(tables, ", ") + " RESTART IDENTITY CASCADE;")
	})
	sqlAny := truncateSQL.Load()
	if sqlAny == nil || sqlAny.(string) == "" {
		return fmt.Errorf("failed to build TRUNCATE SQL")
	}
	_, err := pool.Exec(ctx, sqlAny.(string))
	return err
}
