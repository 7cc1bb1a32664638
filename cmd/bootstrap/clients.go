package bootstrap

import (
	"hostdash/internal/infra/metrics"
	"hostdash/internal/infra/panel"
	"hostdash/internal/infra/paypal"
	"hostdash/internal/pkg/config"
	"hostdash/internal/usecase/commands"
	"hostdash/internal/usecase/shared"

	"go.uber.org/fx"
)

var ClientsModule = fx.Module("clients",
	fx.Provide(
		metrics.New,
		fx.Annotate(
			func(cfg config.Config, m *metrics.Metrics) *panel.Client { return panel.NewClient(cfg.Panel, m) },
			fx.As(new(shared.PanelClient)),
		),
		fx.Annotate(
			func(cfg config.Config, m *metrics.Metrics) *paypal.Client { return paypal.NewClient(cfg.PayPal, m) },
			fx.As(new(commands.PaymentGateway)),
		),
	),
)
