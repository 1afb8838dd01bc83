package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "datacopilot/internal/app"
	"datacopilot/internal/bootstrap"
	"datacopilot/internal/cache"
	rabbitmqClient "datacopilot/internal/platform/rabbitmq"
	"datacopilot/internal/repository"
	"datacopilot/internal/transport/http/handler"
	"datacopilot/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	turnRepo := repository.NewTurnRepository(app.DB)
	turnCache := cache.NewTurnCache(
		app.Redis,
		time.Duration(app.Config.Redis.HistoryTTLSeconds)*time.Second,
		time.Duration(app.Config.Redis.HistoryDirtyTTLSeconds)*time.Second,
	)
	turnPublisher := rabbitmqClient.NewTurnPublisher(app.MQConn, app.Config.RabbitMQ.TurnPersistQueue)

	authService := appsvc.NewAuthService(
		app.Config.Auth.PasswordHash,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	chatService := appsvc.NewChatService(
		app.Agents,
		turnPublisher,
		turnCache,
		turnRepo,
		app.Config.Chart.ArtifactPath,
	)

	authHandler := handler.NewAuthHandler(authService)
	chatHandler := handler.NewChatHandler(chatService)
	plotHandler := handler.NewPlotHandler(app.Config.Chart.ArtifactPath)
	datasetHandler := handler.NewDatasetHandler(app)

	v1 := router.Group("/api/v1")
	v1.POST("/auth/token", authHandler.Token)
	v1.GET("/plot", plotHandler.Image)
	v1.GET("/plot/base64", plotHandler.Base64)
	v1.GET("/dataset/info", datasetHandler.Info)

	authed := v1.Group("")
	authed.Use(middleware.AuthJWT(app.Config.Auth.JWTSecret))
	authed.POST("/chat", chatHandler.Ask)
	authed.GET("/chat/history", chatHandler.GetHistory)
	authed.POST("/dataset", datasetHandler.Upload)
	authed.POST("/agents/reset", datasetHandler.ResetAgents)

	return router
}
