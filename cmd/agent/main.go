// File: careai/cmd/agent/main.go
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

	"careai/config"
	"careai/cron"
	queueRepo "careai/database/repository/queue"
	"careai/handlers"
	"careai/routes"
	"careai/services/handoff"
	"careai/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitQueueCache()
	utils.StartHealthMonitor([]*redis.Client{utils.GetQueueCacheClient()}, nil)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	queue := queueRepo.NewRedisRepo(utils.GetQueueCacheClient(), utils.HandoffQueueKey)
	console := handoff.NewConsoleService(queue)

	poller := handoff.NewPoller(queue, config.PollInterval())
	pollCtx, stopPoll := context.WithCancel(context.Background())
	defer stopPoll()
	go poller.Run(pollCtx)

	// The agent process also hosts the reminder worker so scheduled
	// appointment reminders fire without a third deployment.
	cron.InitReminderWorker()

	handlerBundle := &handlers.HandlerBundle{
		Console: console,
		Poller:  poller,
	}
	routes.RegisterAgentRoutes(router, handlerBundle)

	port := config.AppConfig.AgentPort
	if port == "" {
		port = "8081"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting agent console API on %s...", srv.Addr)
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
