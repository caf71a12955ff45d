package restapi

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes attaches the public endpoints to the router.
func RegisterRoutes(router *gin.Engine, handler *ReportHandler) {
	router.GET("/transactions/:accountId", handler.GetTransactionsHandler)
	router.GET("/health", handler.HealthHandler)
}
