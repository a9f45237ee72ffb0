package readstore

import (
	"context"
	"log/slog"

	"rental-settlement/internal/infra"
	"rental-settlement/internal/infra/db"

	"github.com/google/uuid"
)

const isProviderMemberSQL = `SELECT EXISTS (
	SELECT 1 FROM provider_members WHERE provider_id = $1 AND user_id = $2
)`

type MembershipReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewMembershipReadStore(dbtx db.DBTX, logger *slog.Logger) *MembershipReadStore {
	return &MembershipReadStore{
		db:     dbtx,
		logger: logger,
	}
}

func (r *MembershipReadStore) IsProviderMember(ctx context.Context, providerID, userID uuid.UUID) (bool, error) {
	var member bool
	if err := r.db.QueryRow(ctx, isProviderMemberSQL, providerID, userID).Scan(&member); err != nil {
		return false, infra.WrapPgErr(r.logger, "failed to check provider membership", err)
	}
	return member, nil
}
