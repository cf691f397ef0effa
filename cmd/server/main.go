package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	contracts "pacekeeper/contracts/mq"
	"pacekeeper/internal/handler"
	"pacekeeper/internal/httpserver"
	"pacekeeper/internal/mqhandler"
	"pacekeeper/internal/repository"
	"pacekeeper/internal/service"
	"pacekeeper/pkg/config"
	"pacekeeper/pkg/db"
	"pacekeeper/pkg/logger"
	"pacekeeper/pkg/mq"
	"pacekeeper/pkg/redis"
	"pacekeeper/pkg/util"
)

func main() {
	cfg := config.Load()

	log := logger.NewLogger()
	defer log.Sync()

	log.Info("Starting pacekeeper server...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.String("mq_url", cfg.MQ.URL),
	)

	// DB
	log.Info("Initializing database connection...")
	dbConn, err := db.NewConnection(cfg.DB, log)
	if err != nil {
		log.Fatal("Failed to init DB", zap.Error(err))
	}
	defer dbConn.Close()
	log.Info("Database connection established successfully")

	// Redis
	rdb := redis.NewClient(cfg.Redis)
	defer rdb.Close()

	// MQ Publisher
	publisher, err := mq.NewPublisher(cfg.MQ.URL)
	if err != nil {
		log.Fatal("Failed to init MQ publisher", zap.Error(err))
	}
	defer publisher.Close()

	// Repositories
	goalRepo := repository.NewGoalRepository(dbConn, log)
	milestoneRepo := repository.NewMilestoneRepository(dbConn, log)
	checkInRepo := repository.NewCheckInRepository(dbConn, log)

	// Services
	behaviorLog := service.NewBehaviorLog(cfg.Engine.BehaviorLogCapacity)
	analyzer := service.NewBehaviorAnalyzer(checkInRepo, log)
	generator := service.NewScheduleGenerator(log)
	stressDetector := service.NewStressDetector(checkInRepo, behaviorLog, cfg.Engine, log)
	forecastService := service.NewForecastService(goalRepo, milestoneRepo, checkInRepo, rdb, cfg.Engine, log)
	goalService := service.NewGoalService(
		goalRepo, milestoneRepo, checkInRepo,
		analyzer, generator, forecastService,
		behaviorLog, publisher, log,
	)
	streakService := service.NewStreakService(checkInRepo, log)
	nudgeService := service.NewNudgeService()
	insightService := service.NewInsightService(goalRepo, milestoneRepo, checkInRepo, log)

	// On-demand adjustments share the engine and lock with the worker.
	engine := service.NewAdjustmentEngine(milestoneRepo, stressDetector, behaviorLog, cfg.Engine, log)
	goalLock := util.NewGoalLock(rdb, 2*time.Minute, log)
	sweeper := service.NewSweeper(goalRepo, milestoneRepo, engine, goalLock, publisher, log)

	// MQ Consumer: checkin.created -> nudges
	deduper := util.NewDeduper(rdb, 24*time.Hour, log)
	checkInHandlerMQ := mqhandler.NewCheckInCreatedHandler(
		goalRepo, streakService, nudgeService, deduper, publisher, log,
	)
	consumer, err := mq.NewConsumer(cfg.MQ.URL, checkInHandlerMQ.Queue(), contracts.RoutingKeyCheckInCreated, log)
	if err != nil {
		log.Fatal("Failed to init MQ consumer", zap.Error(err))
	}
	defer consumer.Close()
	consumer.SetHandler(checkInHandlerMQ.Handle)

	go func() {
		if err := consumer.StartConsuming(); err != nil {
			log.Error("Consumer stopped", zap.Error(err))
		}
	}()

	// HTTP
	goalHandler := handler.NewGoalHandler(goalService, sweeper, stressDetector, forecastService, log)
	checkInHandler := handler.NewCheckInHandler(goalService, log)
	insightHandler := handler.NewInsightHandler(insightService, streakService, log)

	router := httpserver.NewRouter(goalHandler, checkInHandler, insightHandler, log, dbConn, consumer)
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("pacekeeper server is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down pacekeeper server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	consumer.Close()
	publisher.Close()
	dbConn.Close()

	log.Info("pacekeeper server shutdown complete")
}
