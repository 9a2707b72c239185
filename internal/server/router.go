package server

import (
	"deposit-core/internal/handler"
	"deposit-core/pkg/monitor"
	"deposit-core/pkg/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewHTTPRouter wires the record API: registry writes, ledger reads, health
// and metrics. All deposit writes stay inside the engine.
func NewHTTPRouter(users *handler.UserHandler, wallets *handler.WalletHandler, networks *handler.NetworkHandler, deposits *handler.DepositHandler) *gin.Engine {
	monitor.Init()
	validator.Init()

	r := gin.Default()
	r.Use(monitor.PrometheusMiddleware())

	r.GET("/health", handler.HealthCheck)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		api.POST("/users", users.Create)
		api.GET("/users", users.List)

		api.POST("/networks", networks.Create)
		api.GET("/networks", networks.List)

		api.POST("/wallets", wallets.Register)
		api.GET("/wallets", wallets.List)
		api.GET("/wallets/:id", wallets.Get)
		api.GET("/wallets/:id/deposits", deposits.ListByWallet)

		api.GET("/deposits/:tx_hash", deposits.GetByTxHash)
	}

	return r
}
