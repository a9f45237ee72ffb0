package components

import (
	"rental-settlement/internal/infra/uow"
	"rental-settlement/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

// Repositories and read stores are built per transaction inside the unit of
// work, so only the unit of work itself is registered here.
var PersistenceModule = fx.Module("persistence",
	fx.Provide(
		fx.Annotate(
			NewTxBeginner,
			fx.As(new(uow.TxBeginner)),
		),
		fx.Annotate(
			uow.NewPostgresUoW,
			fx.As(new(shared.UnitOfWork)),
		),
	),
)

func NewTxBeginner(pool *pgxpool.Pool) *pgxpool.Pool {
	return pool
}
