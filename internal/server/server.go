package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	apihttp "github.com/procheck/sessiond/internal/api/http"
	"github.com/procheck/sessiond/internal/api/middleware"
	"github.com/procheck/sessiond/internal/api/ws"
	"github.com/procheck/sessiond/internal/domain/cache"
	"github.com/procheck/sessiond/internal/domain/session"
	"github.com/procheck/sessiond/internal/domain/tabs"
	"github.com/procheck/sessiond/internal/events"
	"github.com/procheck/sessiond/internal/gateway"
	"github.com/procheck/sessiond/internal/infrastructure/config"
	"github.com/procheck/sessiond/internal/infrastructure/logging"
	"github.com/procheck/sessiond/internal/infrastructure/monitoring"
	"github.com/procheck/sessiond/internal/infrastructure/tracing"
)

// Server wires the workspace manager, its collaborators, and the HTTP
// surface together.
type Server struct {
	cfg     *config.Config
	router  *gin.Engine
	logger  *logging.Logger
	manager *tabs.Manager
	httpSrv *http.Server
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config, logger *logging.Logger) (*Server, error) {
	metrics := monitoring.NewMetrics()
	bus := events.NewBus()

	store := gateway.NewHTTPStore(cfg.Gateway.PersistenceURL)
	sender := gateway.NewHTTPSender(cfg.Gateway.GenerateURL)

	layout, err := session.NewLayoutStore(cfg.Session.StateDir, logger.Named("layout"))
	if err != nil {
		return nil, fmt.Errorf("layout store: %w", err)
	}

	saver := session.NewSaver(store, cfg.Session.UserID, cfg.Session.SaveDebounce,
		logger.Named("saver"), metrics)

	manager := tabs.NewManager(tabs.Config{
		Sender:  sender,
		Store:   store,
		Saver:   saver,
		Layout:  layout,
		Cache:   cache.New(cfg.Session.CacheCapacity).WithMetrics(metrics),
		Bus:     bus,
		Logger:  logger.Named("tabs"),
		Metrics: metrics,
		UserID:  cfg.Session.UserID,
	})

	// Bring back the previous session's workspace before any request
	// can land.
	if persisted, err := layout.Load(); err != nil {
		logger.Warn("layout restore failed, starting fresh", zap.Error(err))
	} else if persisted != nil {
		manager.Restore(persisted)
	}

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	router.Use(tracing.HTTPMiddleware(tracing.New("sessiond", logger.Named("tracing"))))
	router.Use(monitoring.Middleware(metrics))
	if cfg.RateLimit.Enabled {
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(manager, metrics)
	wsHandler := ws.NewHandler(manager, bus, logger.Named("ws"), metrics)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	router.GET("/tabs", handlers.ListTabs)
	router.POST("/tabs", handlers.CreateTab)
	router.GET("/tabs/active", handlers.ActiveTab)
	router.GET("/tabs/:id", handlers.GetTab)
	router.PATCH("/tabs/:id", handlers.UpdateTab)
	router.POST("/tabs/:id/activate", handlers.ActivateTab)
	router.POST("/tabs/:id/messages", handlers.SendMessage)
	router.DELETE("/tabs/:id", handlers.CloseTab)
	router.DELETE("/tabs", handlers.CloseAllTabs)

	router.POST("/messages/:id/retry", handlers.RetryMessage)

	router.GET("/conversations", handlers.ListConversations)
	router.POST("/conversations/:id/open", handlers.OpenConversation)
	router.PUT("/conversations/:id/title", handlers.RenameConversation)
	router.DELETE("/conversations/:id", handlers.DeleteConversation)

	router.GET("/stream", wsHandler.HandleConnection)

	return &Server{
		cfg:     cfg,
		router:  router,
		logger:  logger,
		manager: manager,
	}, nil
}

// Run serves until the context is cancelled, then shuts down
// gracefully and flushes pending workspace state.
func (s *Server) Run(ctx context.Context) error {
	addr := s.cfg.Server.Host + ":" + s.cfg.Server.Port
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", zap.String("addr", addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err := s.httpSrv.Shutdown(shutdownCtx)
	s.manager.Shutdown()
	return err
}

// Router exposes the gin engine, used by tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}
