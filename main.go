package main

import (
	"context"

	"duoqueue-dating-app/internal/config"
	"duoqueue-dating-app/internal/database"
	"duoqueue-dating-app/internal/handlers"
	"duoqueue-dating-app/internal/middleware"
	"duoqueue-dating-app/internal/redis"
	"duoqueue-dating-app/internal/services"
	"duoqueue-dating-app/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file found")
	}

	cfg := config.Load()
	gin.SetMode(cfg.GinMode)

	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to database")
	}
	if err := database.SeedDailyTasks(db); err != nil {
		log.WithError(err).Fatal("failed to seed daily tasks")
	}

	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to Redis")
	}

	fcm, err := services.NewMessagingClient(context.Background(), cfg.FirebaseCredentialsPath)
	if err != nil {
		log.WithError(err).Warn("push notifications disabled")
	}

	storage, err := services.NewStorageService(cfg)
	if err != nil {
		log.WithError(err).Fatal("failed to initialize storage")
	}

	hub := websocket.NewHub(log)
	hub.AttachBroker(context.Background(), redisClient)
	go hub.Run()

	notify := services.NewNotificationService(db, fcm, log)
	tasks := services.NewTaskService(db, log)
	ledger := services.NewLedgerService(db, log)
	feed := services.NewFeedService(db, log)
	swipes := services.NewSwipeService(db, redisClient, tasks, notify, log,
		cfg.FreeDailySwipeLimit, cfg.PremiumDailySwipeLimit)
	chat := services.NewChatService(db, ledger, hub, notify, tasks, log)

	authHandler := handlers.NewAuthHandler(db, cfg)
	profileHandler := handlers.NewProfileHandler(db, storage, cfg)
	feedHandler := handlers.NewFeedHandler(feed, cfg)
	swipeHandler := handlers.NewSwipeHandler(swipes)
	walletHandler := handlers.NewWalletHandler(ledger, chat)
	messageHandler := handlers.NewMessageHandler(chat)
	taskHandler := handlers.NewTaskHandler(tasks, ledger)
	notificationHandler := handlers.NewNotificationHandler(notify)

	handlers.RegisterValidators()

	router := setupRoutes(cfg, hub, chat,
		authHandler, profileHandler, feedHandler, swipeHandler,
		walletHandler, messageHandler, taskHandler, notificationHandler)

	log.WithField("port", cfg.Port).Info("server starting")
	if err := router.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("failed to start server")
	}
}

func setupRoutes(cfg *config.Config, hub *websocket.Hub, chat *services.ChatService,
	authHandler *handlers.AuthHandler, profileHandler *handlers.ProfileHandler,
	feedHandler *handlers.FeedHandler, swipeHandler *handlers.SwipeHandler,
	walletHandler *handlers.WalletHandler, messageHandler *handlers.MessageHandler,
	taskHandler *handlers.TaskHandler, notificationHandler *handlers.NotificationHandler) *gin.Engine {

	router := gin.Default()

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization")
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	v1 := router.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
		}

		users := v1.Group("/users")
		users.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			users.GET("/profile", profileHandler.GetProfile)
			users.PUT("/profile", profileHandler.UpdateProfile)
			users.POST("/profile/photo", profileHandler.UploadPhoto)
			users.DELETE("/profile/photo", profileHandler.DeletePhoto)
			users.GET("/filters", profileHandler.GetFilters)
			users.PUT("/filters", profileHandler.UpdateFilters)
			users.GET("/notifications", notificationHandler.List)
		}

		feed := v1.Group("/feed")
		feed.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			feed.POST("/next", feedHandler.NextBatch)
		}

		swipes := v1.Group("/swipes")
		swipes.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			swipes.POST("", swipeHandler.RecordSwipe)
			swipes.POST("/rewind", swipeHandler.Rewind)
		}

		wallet := v1.Group("/wallet")
		wallet.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			wallet.GET("", walletHandler.GetBalance)
			wallet.GET("/history", walletHandler.GetHistory)
			wallet.POST("/gift", walletHandler.SendGift)
			wallet.POST("/withdraw", walletHandler.Withdraw)
		}

		messages := v1.Group("/messages")
		messages.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			messages.GET("/conversations", messageHandler.GetConversations)
			messages.GET("/conversations/:user_id", messageHandler.GetMessages)
			messages.POST("/conversations/:user_id", messageHandler.SendMessage)
			messages.PUT("/conversations/:user_id/read", messageHandler.MarkAsRead)
		}

		tasksGroup := v1.Group("/tasks")
		tasksGroup.Use(middleware.AuthRequired(cfg.JWTSecret))
		{
			tasksGroup.GET("/today", taskHandler.ListToday)
			tasksGroup.POST("/:task_id/collect", taskHandler.Collect)
		}

		v1.GET("/ws", middleware.AuthRequired(cfg.JWTSecret), func(c *gin.Context) {
			websocket.HandleWebSocket(hub, chat.SendText, c)
		})
	}

	return router
}
