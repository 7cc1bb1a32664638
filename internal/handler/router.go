package handler

import (
	"net/http"

	"hostdash/internal/handler/api"
	"hostdash/internal/handler/middleware"
	"hostdash/internal/infra/metrics"
	"hostdash/internal/pkg/config"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

// Handlers groups everything the router mounts.
type Handlers struct {
	Servers  *api.ServerHandler
	Payments *api.PaymentHandler
	Rewards  *api.RewardHandler
	Webhooks *api.WebhookHandler
	Ledger   *api.LedgerHandler
	Auth     *middleware.AuthMiddleware
}

func NewRouter(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, m *metrics.Metrics, h Handlers) {
	setupMiddleware(engine, cfg, logger, m)
	setupRoutes(engine, m, h)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config, logger *middleware.Logger, m *metrics.Metrics) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(logger.LoggingMiddleware())
	engine.Use(middleware.MetricsMiddleware(m))
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(engine *gin.Engine, m *metrics.Metrics, h Handlers) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	apiGroup := engine.Group("/api")
	{
		// signature-verified instead of bearer-authenticated
		addRoutes(apiGroup, []route{
			{Method: http.MethodPost, Path: "/webhooks/:provider", Handler: h.Webhooks.Handle},
		})

		authed := apiGroup.Group("")
		authed.Use(h.Auth.RequireAuth())
		adminOnly := []gin.HandlerFunc{h.Auth.RequireAdmin()}

		addRoutes(authed, []route{
			{Method: http.MethodGet, Path: "/servers", Handler: h.Servers.List},
			{Method: http.MethodPost, Path: "/servers", Handler: h.Servers.Create},
			{Method: http.MethodGet, Path: "/servers/:id", Handler: h.Servers.Get},
			{Method: http.MethodPatch, Path: "/servers/:id", Handler: h.Servers.Update},
			{Method: http.MethodDelete, Path: "/servers/:id", Handler: h.Servers.Delete},
			{Method: http.MethodPost, Path: "/servers/:id/suspend", Handler: h.Servers.Suspend, Mw: adminOnly},
			{Method: http.MethodPost, Path: "/servers/:id/unsuspend", Handler: h.Servers.Unsuspend, Mw: adminOnly},
			{Method: http.MethodGet, Path: "/entitlement", Handler: h.Servers.Usage},

			{Method: http.MethodGet, Path: "/payments", Handler: h.Ledger.ListPayments},
			{Method: http.MethodPost, Path: "/payments/orders", Handler: h.Payments.CreateOrder},
			{Method: http.MethodPost, Path: "/payments/orders/:orderId/capture", Handler: h.Payments.CaptureOrder},
			{Method: http.MethodPost, Path: "/payments/:id/refund", Handler: h.Payments.Refund, Mw: adminOnly},
			{Method: http.MethodPost, Path: "/payments/:id/void", Handler: h.Payments.Void, Mw: adminOnly},

			{Method: http.MethodGet, Path: "/grants", Handler: h.Ledger.ListGrants},
			{Method: http.MethodPost, Path: "/gifts/redeem", Handler: h.Rewards.RedeemGift},
			{Method: http.MethodPost, Path: "/referrals/claim", Handler: h.Rewards.ClaimReferral},
			{Method: http.MethodPost, Path: "/shop/purchases", Handler: h.Rewards.PurchaseShopItem},
		})
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		handlers := append(append([]gin.HandlerFunc{}, r.Mw...), r.Handler)
		g.Handle(r.Method, r.Path, handlers...)
	}
}
