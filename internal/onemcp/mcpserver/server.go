// Package mcpserver wires the orchestrator behind an MCP StreamableHTTP
// transport, following the teacher's gin-based HTTP server
// (internal/server/http_server.go) stripped to what onemcp's single tool
// actually needs: no REST API surface, no static UI, no port-busy recovery
// prompt — one tool, one optional dev console, one health check.
package mcpserver

import (
	"context"
	"net/http"
	"time"

	"onemcp/internal/onemcp/mcpserver/auth"
	"onemcp/internal/onemcp/orchestrator"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

// ServerConfig is the subset of config.Config the HTTP layer needs.
type ServerConfig struct {
	ListenAddr       string
	JWTSecret        string
	EnableDevConsole bool
}

// New builds the gin engine: CORS, optional bearer auth, /healthz, the MCP
// StreamableHTTP transport at /mcp, and an optional /ws/console websocket.
func New(cfg ServerConfig, orch *orchestrator.Orchestrator, logger *zap.Logger) *http.Server {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "Mcp-Session-Id"}
	r.Use(cors.New(corsConfig))

	r.Use(auth.BearerMiddleware(cfg.JWTSecret))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "onemcp"})
	})

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: "onemcp", Version: "1.0.0"}, &mcp.ServerOptions{
		HasTools: true,
	})
	RegisterTools(mcpServer, orch)

	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(req *http.Request) *mcp.Server { return mcpServer },
		&mcp.StreamableHTTPOptions{Stateless: false, JSONResponse: false},
	)
	r.Any("/mcp", gin.WrapH(mcpHandler))
	logger.Info("MCP HTTP transport mounted", zap.String("endpoint", "/mcp"))

	if cfg.EnableDevConsole {
		console := NewDevConsole(orch, logger)
		r.GET("/ws/console", console.Handle)
		logger.Info("dev console mounted", zap.String("endpoint", "/ws/console"))
	}

	return &http.Server{Addr: cfg.ListenAddr, Handler: r}
}

// Run starts srv and blocks until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("HTTP server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case err := <-serveErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("HTTP server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server forced to shutdown", zap.Error(err))
		return err
	}
	logger.Info("HTTP server stopped")
	return nil
}
