package readstore

import (
	"context"
	"log/slog"

	"rental-settlement/internal/domain/reservation"
	"rental-settlement/internal/infra"
	"rental-settlement/internal/infra/db"
	"rental-settlement/internal/infra/repository/converter"
	"rental-settlement/internal/pkg/pgconv"

	"github.com/google/uuid"
)

const findReservationSQL = `SELECT ` + converter.ReservationColumns + `
	FROM reservations WHERE id = $1`

type ReservationReadStore struct {
	db     db.DBTX
	logger *slog.Logger
}

func NewReservationReadStore(dbtx db.DBTX, logger *slog.Logger) *ReservationReadStore {
	return &ReservationReadStore{
		db:     dbtx,
		logger: logger,
	}
}

// FindByID returns nil without error when the reservation does not exist.
func (r *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	var row converter.ReservationRow
	if err := r.db.QueryRow(ctx, findReservationSQL, id).Scan(row.ScanTargets()...); err != nil {
		if pgconv.IsNoRows(err) {
			return nil, nil
		}
		return nil, infra.WrapPgErr(r.logger, "failed to find reservation by ID", err)
	}

	res, err := converter.ReservationToDomain(row)
	if err != nil {
		return nil, infra.WrapRepoErr(r.logger, infra.KindDBFailure, "stored reservation is invalid", err)
	}
	return res, nil
}
