package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SetupRoutes configures all API routes. metrics may be nil.
func SetupRoutes(router *gin.Engine, handler *Handler, metrics http.Handler) {
	router.GET("/ready", handler.ReadyCheck)
	if metrics != nil {
		router.GET("/metrics", gin.WrapH(metrics))
	}

	v1 := router.Group("/api/v1")
	{
		v1.POST("/predictions", handler.Predict) // POST /api/v1/predictions
		v1.POST("/advice", handler.Advise)       // POST /api/v1/advice
		v1.POST("/analyze", handler.Analyze)     // POST /api/v1/analyze
		v1.GET("/schema", handler.Schema)        // GET /api/v1/schema
		v1.GET("/model", handler.Model)          // GET /api/v1/model
	}
}
