package httpserver

import (
	"context"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"pacekeeper/internal/handler"
	"pacekeeper/pkg/metrics"
	"pacekeeper/pkg/mq"
)

func NewRouter(
	goalHandler *handler.GoalHandler,
	checkInHandler *handler.CheckInHandler,
	insightHandler *handler.InsightHandler,
	logger *zap.Logger,
	db *pgxpool.Pool,
	consumer *mq.Consumer,
) *gin.Engine {
	r := gin.Default()

	// Request logging middleware
	r.Use(func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		logger.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
		metrics.RecordHTTPRequestDuration(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(c.Writer.Status()),
			latency,
		)
	})

	// Health endpoints
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.HEAD("/healthz", func(c *gin.Context) {
		c.Status(200)
	})

	r.GET("/readyz", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c, 1*time.Second)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			c.JSON(500, gin.H{"status": "db_not_ready", "error": err.Error()})
			return
		}

		if consumer != nil && !consumer.IsConnected() {
			c.JSON(500, gin.H{"status": "mq_not_ready"})
			return
		}

		c.JSON(200, gin.H{"status": "ready"})
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	{
		api.POST("/schedule/preview", goalHandler.PreviewSchedule)

		api.POST("/goals", goalHandler.CreateGoal)
		api.GET("/goals", goalHandler.ListGoals)
		api.GET("/goals/:id", goalHandler.GetGoal)
		api.PATCH("/goals/:id", goalHandler.UpdateGoalStatus)
		api.GET("/goals/:id/milestones", goalHandler.ListMilestones)
		api.POST("/goals/:id/adjustments", goalHandler.RunAdjustments)
		api.GET("/goals/:id/stress", goalHandler.GetStress)
		api.GET("/goals/:id/forecast", goalHandler.GetForecast)

		api.PATCH("/milestones/:id", checkInHandler.UpdateMilestone)

		api.POST("/checkins", checkInHandler.CreateCheckIn)
		api.GET("/checkins", checkInHandler.ListCheckIns)

		api.GET("/streak", insightHandler.Streak)
		api.GET("/insights/mood-correlation", insightHandler.MoodCorrelation)
		api.GET("/insights/milestone-impact", insightHandler.MilestoneMoodImpacts)
		api.GET("/stats/dashboard", insightHandler.Dashboard)
	}

	return r
}
