package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"snowbridge.app/bridge/common/logger"
	"snowbridge.app/bridge/common/otel"
	"snowbridge.app/bridge/core/config"
	"snowbridge.app/bridge/internal/http/handler"
	"snowbridge.app/bridge/internal/http/middleware"
	httprouter "snowbridge.app/bridge/internal/http/router"
	"snowbridge.app/bridge/internal/mcp"
	"snowbridge.app/bridge/internal/servicenow"
	"snowbridge.app/bridge/internal/tools"
)

func main() {
	fmt.Printf("%s\n", banner)
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		slog.ErrorContext(ctx, "failed to load config", "error", err)
		os.Exit(1)
	}

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		// Can't use slog yet — OTel failed before logger setup
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	if telemetry != nil {
		slog.InfoContext(ctx, "otel initialized", "endpoint", cfg.OTel.Endpoint)
	} else {
		slog.InfoContext(ctx, "otel disabled (no endpoint configured)")
	}

	slog.InfoContext(ctx, "bridge starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	clients := make(map[string]tools.RecordAPI, len(cfg.ServiceNow.Instances))
	for name, inst := range cfg.ServiceNow.Instances {
		client, err := servicenow.New(servicenow.Config{
			BaseURL:  inst.URL,
			Username: inst.Username,
			Password: inst.Password,
			Timeout:  time.Duration(inst.TimeoutSeconds) * time.Second,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to build instance client", "instance", name, "error", err)
			os.Exit(1)
		}
		clients[name] = client
	}
	slog.InfoContext(ctx, "instances configured",
		"count", len(clients),
		"default", cfg.ServiceNow.Default)

	instances, err := tools.NewInstanceClients(clients, cfg.ServiceNow.Default)
	if err != nil {
		slog.ErrorContext(ctx, "failed to wire instances", "error", err)
		os.Exit(1)
	}

	registry := tools.NewRegistry(instances)
	sessions := mcp.NewSessionRegistry()
	server := mcp.NewServer(registry, mcp.ServerInfo{
		Name:    cfg.OTel.ServiceName,
		Version: cfg.OTel.ServiceVersion,
	})

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, handler.NewMCPHandler(server, sessions))
	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, mcpHandler *handler.MCPHandler) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span → Recovery catches panics → Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, mcpHandler)

	return router
}

const banner = `
███████╗███╗   ██╗ ██████╗ ██╗    ██╗██████╗ ██████╗ ██╗██████╗  ██████╗ ███████╗
██╔════╝████╗  ██║██╔═══██╗██║    ██║██╔══██╗██╔══██╗██║██╔══██╗██╔════╝ ██╔════╝
███████╗██╔██╗ ██║██║   ██║██║ █╗ ██║██████╔╝██████╔╝██║██║  ██║██║  ███╗█████╗  
╚════██║██║╚██╗██║██║   ██║██║███╗██║██╔══██╗██╔══██╗██║██║  ██║██║   ██║██╔══╝  
███████║██║ ╚████║╚██████╔╝╚███╔███╔╝██████╔╝██║  ██║██║██████╔╝╚██████╔╝███████╗
╚══════╝╚═╝  ╚═══╝ ╚═════╝  ╚══╝╚══╝ ╚═════╝ ╚═╝  ╚═╝╚═╝╚═════╝  ╚═════╝ ╚══════╝
`
