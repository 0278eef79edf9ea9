package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/xpanvictor/somniatrack/docs"
	"github.com/xpanvictor/somniatrack/internal/config"
	"github.com/xpanvictor/somniatrack/internal/domains/chat"
	"github.com/xpanvictor/somniatrack/internal/domains/session"
	"github.com/xpanvictor/somniatrack/internal/domains/sleep"
	"github.com/xpanvictor/somniatrack/internal/domains/vision"
	"github.com/xpanvictor/somniatrack/internal/handlers"
	"github.com/xpanvictor/somniatrack/internal/handlers/websocket"
	"github.com/xpanvictor/somniatrack/internal/observability"
	"github.com/xpanvictor/somniatrack/pkg/Logger"
)

// Dependencies are the services the HTTP surface is built on
type Dependencies struct {
	Configs         *config.Settings
	Logger          *Logger.Logger
	Metrics         *observability.Metrics
	SleepService    sleep.SleepService
	VisionService   vision.VisionService
	ChatService     chat.ChatService
	SessionsManager *session.Manager
}

func NewServerDependencies(
	cfg *config.Settings,
	logger *Logger.Logger,
	metrics *observability.Metrics,
	sleepService sleep.SleepService,
	visionService vision.VisionService,
	chatService chat.ChatService,
	sessions *session.Manager,
) Dependencies {
	return Dependencies{
		Configs:         cfg,
		Logger:          logger,
		Metrics:         metrics,
		SleepService:    sleepService,
		VisionService:   visionService,
		ChatService:     chatService,
		SessionsManager: sessions,
	}
}

// InitializeRoutes mounts every route on r and returns the stream handler
// so its connections can be closed on shutdown.
func InitializeRoutes(r *gin.Engine, dep Dependencies) *websocket.StreamHandler {
	cfg := dep.Configs
	logger := dep.Logger

	r.Use(
		handlers.ErrorHandlerMiddleware(logger.Named("recovery")),
		handlers.RequestLoggerMiddleware(logger.Named("http")),
		handlers.CORSMiddleware(cfg.Server.AllowedOrigins),
	)
	if dep.Metrics != nil {
		r.Use(dep.Metrics.Middleware())
		r.GET("/metrics", gin.WrapH(dep.Metrics.Handler()))
	}

	health := handlers.NewHealthHandler(cfg.Version, cfg.Env)
	r.GET("/", health.Health)
	r.GET("/health", health.Health)
	r.GET("/version", health.Version)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	predict := handlers.NewPredictHandler(dep.SleepService, dep.SessionsManager, cfg.Audio.MaxUploadBytes(), logger.Named("predict"))
	r.POST("/predict", predict.Predict)
	r.GET("/predict/demo", predict.Demo)
	r.GET("/tips", predict.Tips)

	if dep.VisionService != nil {
		v := handlers.NewVisionHandler(dep.VisionService, cfg.Vision.MaxFrameBytes(), logger.Named("vision"))
		r.POST("/vision/analyze", v.Analyze)
	}

	if dep.ChatService != nil {
		ch := handlers.NewChatHandler(dep.ChatService, logger.Named("chat"))
		r.POST("/chat", ch.Chat)
	}

	sh := handlers.NewSessionHandler(dep.SessionsManager, cfg.Vision.MaxFrameBytes(), logger.Named("sessions"))
	auth := handlers.SessionAuthMiddleware(dep.SessionsManager, logger.Named("auth"))

	sessions := r.Group("/sessions")
	{
		sessions.POST("", sh.CreateSession)
		sessions.GET("/:id", sh.GetSession)
		sessions.GET("/:id/summary", sh.GetSummary)

		protected := sessions.Group("/:id", auth)
		protected.POST("/start", sh.StartSession)
		protected.POST("/stop", sh.StopSession)
		protected.POST("/reset", sh.ResetSession)
		protected.DELETE("", sh.EndSession)
		protected.POST("/frames", sh.AddFrame)
		protected.POST("/summarize", sh.Summarize)
	}

	stream := websocket.NewStreamHandler(dep.SessionsManager, cfg.Vision.MaxFrameBytes(), logger.Named("stream"))
	stream.RegisterRoutes(r)

	return stream
}
