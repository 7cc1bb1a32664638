package bootstrap

import (
	"context"
	"log/slog"

	"hostdash/internal/infra/metrics"
	"hostdash/internal/infra/scheduler"
	"hostdash/internal/pkg/config"
	"hostdash/internal/usecase/commands"

	"go.uber.org/fx"
)

var SchedulerModule = fx.Module("scheduler",
	fx.Invoke(StartScheduler),
)

func StartScheduler(lc fx.Lifecycle, cfg config.Config, issuer *commands.GrantIssuer, m *metrics.Metrics) error {
	if !cfg.Scheduler.Enabled {
		slog.Info("scheduler disabled")
		return nil
	}
	s, err := scheduler.New(cfg.Scheduler, issuer, m)
	if err != nil {
		return err
	}
	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.Start()
			return nil
		},
		OnStop: s.Stop,
	})
	return nil
}
