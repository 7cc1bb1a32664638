package components

import (
	"context"

	"hostdash/internal/domain/payment"
	"hostdash/internal/infra/effects"
	"hostdash/internal/pkg/clock"
	"hostdash/internal/pkg/config"
	"hostdash/internal/usecase"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/queries"
	"hostdash/internal/usecase/shared"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseQueriesModule,
	usecaseValidatorsModule,
	usecaseCommandsModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	fx.Annotate(
		payment.NewDefaultPriceCalculator,
		fx.As(new(payment.PriceCalculator)),
	),
	NewEffectDispatcher,
	func(d *effects.Dispatcher) commands.EffectDispatcher { return d },
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewGrantIssuer,
		commands.NewProvisioningUseCase,
		commands.NewPaymentUseCase,
		commands.NewWebhookUseCase,
		commands.NewRewardUseCase,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		NewServerQueries,
		queries.NewLedgerQueries,
	),
)

var usecaseValidatorsModule = fx.Module("usecase/validators",
	fx.Provide(
		usecase.NewTokenValidator,
	),
)

// NewEffectDispatcher drains in-flight audit and notification writes on shutdown.
func NewEffectDispatcher(lc fx.Lifecycle, u shared.UnitOfWork, clk clock.Clock, cfg config.Config) *effects.Dispatcher {
	d := effects.NewDispatcher(u, clk, cfg.Billing.EffectTimeout)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error { return d.Wait(ctx) },
	})
	return d
}

func NewServerQueries(u shared.UnitOfWork, panel shared.PanelClient, clk clock.Clock, cfg config.Config) queries.ServerQueries {
	return queries.NewServerQueries(u, panel, clk, cfg.Panel.Concurrency)
}
