package components

import (
	"hostdash/internal/infra/db"
	"hostdash/internal/infra/readstore"
	"hostdash/internal/infra/settings"
	"hostdash/internal/infra/uow"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/config"
	"hostdash/internal/usecase/queries"
	"hostdash/internal/usecase/shared"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/fx"
)

var PersistenceModule = fx.Module("persistence",
	baseOption,
	readstoreModule,
	writeModule,
)

var baseOption = fx.Provide(
	NewDBTX,
)

var readstoreModule = fx.Module("persistence/readstore",
	fx.Provide(
		fx.Annotate(
			readstore.NewLedgerReadStore,
			fx.As(new(queries.LedgerReadStore)),
		),
		fx.Annotate(
			settings.NewPostgresSource,
			fx.As(new(settings.Source)),
		),
		NewSettingsProvider,
		func(p *settings.Provider) shared.SettingsProvider { return p },
	),
)

var writeModule = fx.Module("persistence/uow",
	fx.Provide(
		uow.NewPostgresUoW,
	),
)

func NewDBTX(pool *pgxpool.Pool) db.DBTX {
	return pool
}

func NewSettingsProvider(src settings.Source, cfg config.Config, clk clock.Clock) *settings.Provider {
	return settings.NewProvider(src, cfg.Billing, cfg.PayPal, clk)
}
