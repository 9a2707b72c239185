package handler

import (
	"deposit-core/internal/handler/response"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports liveness for load balancers and probes.
func HealthCheck(c *gin.Context) {
	response.Success(c, gin.H{
		"status":  "UP",
		"service": "monitor-server",
	})
}
