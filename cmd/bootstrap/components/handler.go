package components

import (
	"hostdash/internal/handler"
	"hostdash/internal/handler/api"
	reqdto "hostdash/internal/handler/dto/request"
	"hostdash/internal/handler/middleware"
	"hostdash/internal/infra/metrics"
	"hostdash/internal/usecase/commands"

	"go.uber.org/fx"
)

var HandlerModule = fx.Module("handler",
	fx.Provide(
		api.NewServerHandler,
		api.NewPaymentHandler,
		api.NewRewardHandler,
		api.NewLedgerHandler,
		func(cmds commands.WebhookCommands, m *metrics.Metrics) *api.WebhookHandler {
			return api.NewWebhookHandler(cmds, m)
		},
		middleware.NewAuthMiddleware,
		NewHandlers,
	),
	fx.Invoke(reqdto.RegisterValidators),
	fx.Invoke(handler.NewRouter),
)

type handlerParams struct {
	fx.In

	Servers  *api.ServerHandler
	Payments *api.PaymentHandler
	Rewards  *api.RewardHandler
	Webhooks *api.WebhookHandler
	Ledger   *api.LedgerHandler
	Auth     *middleware.AuthMiddleware
}

func NewHandlers(p handlerParams) handler.Handlers {
	return handler.Handlers{
		Servers:  p.Servers,
		Payments: p.Payments,
		Rewards:  p.Rewards,
		Webhooks: p.Webhooks,
		Ledger:   p.Ledger,
		Auth:     p.Auth,
	}
}
