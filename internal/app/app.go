package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xpanvictor/somniatrack/internal/config"
	"github.com/xpanvictor/somniatrack/internal/domains/chat"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/internal/handlers/websocket"
	"github.com/xpanvictor/somniatrack/internal/observability"
	"github.com/xpanvictor/somniatrack/internal/server"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
	"github.com/xpanvictor/somniatrack/pkg/assistant/router"
	"golang.org/x/sync/errgroup"
)

// App represents the application with all its dependencies
type App struct {
	Config    *config.Settings
	Logger    *Logger.Logger
	Metrics   *observability.Metrics
	LLMRouter *router.Mux

	SleepService  sleep.SleepService
	VisionService vision.VisionService
	ChatService   chat.ChatService
	Sessions      *session.Manager

	Router     *gin.Engine
	ServerDeps server.Dependencies

	stream  *websocket.StreamHandler
	closers []func() error
}

// NewApp creates a new application instance with all dependencies properly wired
func NewApp(ctx context.Context, cfg *config.Settings, logger *Logger.Logger) (*App, error) {
	app := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: observability.NewMetrics(),
	}

	if err := app.setupDependencies(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

func (a *App) setupDependencies(ctx context.Context) error {
	// 1. LLM providers
	mux, closers, err := NewLLMRouterFactory(a.Config, a.Logger.Named("llm")).CreateRouter(ctx)
	if err != nil {
		return err
	}
	a.LLMRouter = mux
	a.closers = closers

	// 2. domain services
	a.SleepService = sleep.NewSleepService(a.Config.Audio.MaxUploadBytes(), a.Metrics, a.Logger.Named("sleep"))
	a.VisionService = vision.NewVisionService(mux, vision.Config{
		Provider: a.Config.Vision.Provider,
		Model:    a.Config.Vision.Model,
	}, a.Metrics, a.Logger.Named("vision"))
	a.ChatService = chat.NewChatService(mux, chat.Config{
		Provider: a.Config.Assistant.ChatProvider,
		Model:    a.Config.Assistant.ChatModel,
	}, a.Logger.Named("chat"))

	// 3. sessions
	tokens, err := session.NewTokenIssuer(a.Config.Session.TokenSecret, a.Config.Session.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to create token issuer: %w", err)
	}
	if a.Config.Session.TokenSecret == "" {
		a.Logger.Warn("session token secret not configured, tokens will not survive a restart")
	}
	a.Sessions = session.NewManager(session.ManagerConfig{
		IdleTimeout:     a.Config.Session.IdleTimeout,
		SweepInterval:   a.Config.Session.SweepInterval,
		QueueBytes:      a.Config.Vision.QueueBytes,
		ConsumeInterval: a.Config.Vision.ConsumeInterval,
		BatchSize:       a.Config.Vision.BatchSize,
	}, a.VisionService, tokens, a.Metrics, a.Logger.Named("sessions"))

	// 4. http
	if !a.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	a.Router = gin.New()
	a.ServerDeps = server.NewServerDependencies(
		a.Config,
		a.Logger,
		a.Metrics,
		a.SleepService,
		a.VisionService,
		a.ChatService,
		a.Sessions,
	)
	a.stream = server.InitializeRoutes(a.Router, a.ServerDeps)
	return nil
}

// Run serves HTTP and sweeps idle sessions until ctx is cancelled, then
// shuts down gracefully.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.Config.Server.Addr(),
		Handler: a.Router.Handler(),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.Logger.Infof("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server exited: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		a.Sessions.RunSweeper(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
		defer cancel()
		return a.Shutdown(shutdownCtx, srv)
	})

	return g.Wait()
}

// Shutdown stops accepting requests, closes streams and ends every session.
func (a *App) Shutdown(ctx context.Context, srv *http.Server) error {
	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if a.stream != nil {
		a.stream.Connections().Shutdown()
	}
	a.Sessions.Close(ctx)
	for _, closeFn := range a.closers {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	a.Logger.Info("shutdown complete")
	return errors.Join(errs...)
}
