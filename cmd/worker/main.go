package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

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

	log.Info("Starting pacekeeper worker...",
		zap.String("db_host", cfg.DB.Host),
		zap.Int("db_port", cfg.DB.Port),
		zap.Int("sweep_interval_minutes", cfg.Worker.SweepIntervalMinutes),
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

	// Adjustment pipeline
	behaviorLog := service.NewBehaviorLog(cfg.Engine.BehaviorLogCapacity)
	stressDetector := service.NewStressDetector(checkInRepo, behaviorLog, cfg.Engine, log)
	engine := service.NewAdjustmentEngine(milestoneRepo, stressDetector, behaviorLog, cfg.Engine, log)
	goalLock := util.NewGoalLock(rdb, 2*time.Minute, log)
	sweeper := service.NewSweeper(goalRepo, milestoneRepo, engine, goalLock, publisher, log)

	// Adjustment sweeper
	interval := time.Duration(cfg.Worker.SweepIntervalMinutes) * time.Minute
	log.Info("Starting adjustment sweeper...", zap.Duration("interval", interval))
	sweepCtx, sweepCancel := context.WithCancel(context.Background())
	defer sweepCancel()

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		// Run immediately on startup
		if _, err := sweeper.Sweep(sweepCtx); err != nil {
			log.Error("Adjustment sweep failed", zap.Error(err))
		}

		for {
			select {
			case <-sweepCtx.Done():
				log.Info("Adjustment sweeper stopped")
				return
			case <-ticker.C:
				if _, err := sweeper.Sweep(sweepCtx); err != nil {
					log.Error("Adjustment sweep failed", zap.Error(err))
				}
			}
		}
	}()

	// HTTP server for health checks and metrics
	router := gin.Default()
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	router.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := dbConn.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}
		if !publisher.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}
		c.JSON(200, gin.H{"status": "ready"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	port := cfg.Worker.Port
	if port == "" {
		port = "8084"
	}
	if _, err := strconv.Atoi(port); err != nil {
		log.Fatal("Invalid worker port", zap.String("port", port))
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	log.Info("pacekeeper worker is fully initialized and running")

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down pacekeeper worker gracefully...")

	sweepCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", zap.Error(err))
	} else {
		log.Info("HTTP server stopped")
	}

	publisher.Close()
	dbConn.Close()

	log.Info("pacekeeper worker shutdown complete")
}
