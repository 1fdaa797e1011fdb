// File: careai/cmd/member/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"

	"careai/config"
	"careai/database"
	archiveRepo "careai/database/repository/archive"
	queueRepo "careai/database/repository/queue"
	"careai/handlers"
	"careai/routes"
	"careai/services/conversation"
	"careai/services/handoff"
	ai "careai/services/intelligence"
	"careai/services/tasks"
	"careai/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitSessionCache()
	utils.InitQueueCache()
	utils.StartHealthMonitor(
		[]*redis.Client{utils.GetSessionCacheClient(), utils.GetQueueCacheClient()},
		database.MongoClient,
	)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	// AI backend: Gemini when a key is configured, local keyword fallback
	// otherwise.
	var aiService ai.AIService
	if key := config.AppConfig.GeminiAPIKey; key != "" {
		gemini, err := ai.NewGeminiAIService(key)
		if err != nil {
			logger.Sugar().Fatalf("main: failed to initialize Gemini client: %v", err)
		}
		aiService = gemini
	} else {
		logger.Sugar().Warn("main: no Gemini API key configured, using keyword fallback")
		aiService = ai.NewKeywordAIService()
	}

	queue := queueRepo.NewRedisRepo(utils.GetQueueCacheClient(), utils.HandoffQueueKey)
	sessionStore := conversation.NewRedisSessionStore(utils.GetSessionCacheClient(), config.SessionTTL())
	archive := archiveRepo.NewMongoArchiveRepo()

	menu := conversation.DefaultMenuConfig()
	coordinator := handoff.NewCoordinator(queue, menu.HandoffIntents)

	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisReminderQueueDB,
	})
	defer asynqClient.Close()

	convSvc := conversation.NewDefaultService(sessionStore, aiService, coordinator, queue,
		conversation.WithMenuConfig(menu),
		conversation.WithArchive(archive),
		conversation.WithReminderScheduler(tasks.NewAsynqScheduler(asynqClient), 24*time.Hour),
	)

	// Member-side read-back: refresh waiting sessions on the queue poll
	// cadence so agent replies and terminal statuses reach the widget.
	syncCtx, stopSync := context.WithCancel(context.Background())
	defer stopSync()
	go func() {
		ticker := time.NewTicker(config.PollInterval())
		defer ticker.Stop()
		for {
			select {
			case <-syncCtx.Done():
				return
			case <-ticker.C:
				if err := convSvc.SyncHandoffs(syncCtx); err != nil {
					logger.Sugar().Warnf("main: handoff sync cycle: %v", err)
				}
			}
		}
	}()

	handlerBundle := &handlers.HandlerBundle{
		Conversation: convSvc,
	}
	routes.RegisterMemberRoutes(router, handlerBundle)

	port := config.AppConfig.MemberPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting member API on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
