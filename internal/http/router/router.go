package router

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"snowbridge.app/bridge/internal/http/handler"
)

func SetupRoutes(router *gin.Engine, mcpHandler *handler.MCPHandler) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/sse", mcpHandler.Stream)
	router.POST("/message", mcpHandler.Message)
}
