package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pacekeeper/internal/service"
)

type InsightHandler struct {
	insights *service.InsightService
	streaks  *service.StreakService
	logger   *zap.Logger
}

func NewInsightHandler(insights *service.InsightService, streaks *service.StreakService, logger *zap.Logger) *InsightHandler {
	return &InsightHandler{insights: insights, streaks: streaks, logger: logger}
}

// insightRange parses the optional goal_id, start and end query parameters.
// The range defaults to the trailing 30 days.
func (h *InsightHandler) insightRange(c *gin.Context) (goalID *int, start, end time.Time, ok bool) {
	end = time.Now()
	start = end.AddDate(0, 0, -30)

	if raw := c.Query("goal_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal_id"})
			return nil, start, end, false
		}
		goalID = &id
	}
	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "start must be YYYY-MM-DD"})
			return nil, start, end, false
		}
		start = t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "end must be YYYY-MM-DD"})
			return nil, start, end, false
		}
		// Make the end date inclusive.
		end = t.AddDate(0, 0, 1).Add(-time.Second)
	}
	return goalID, start, end, true
}

func (h *InsightHandler) MoodCorrelation(c *gin.Context) {
	goalID, start, end, ok := h.insightRange(c)
	if !ok {
		return
	}

	points, err := h.insights.MoodCorrelation(c.Request.Context(), goalID, start, end)
	if err != nil {
		h.logger.Error("MoodCorrelation: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate mood correlation data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"points": points})
}

func (h *InsightHandler) MilestoneMoodImpacts(c *gin.Context) {
	goalID, start, end, ok := h.insightRange(c)
	if !ok {
		return
	}

	impacts, err := h.insights.MilestoneMoodImpacts(c.Request.Context(), goalID, start, end)
	if err != nil {
		h.logger.Error("MilestoneMoodImpacts: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate milestone analytics"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"impacts": impacts})
}

func (h *InsightHandler) Dashboard(c *gin.Context) {
	stats, err := h.insights.Dashboard(c.Request.Context())
	if err != nil {
		h.logger.Error("Dashboard: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to calculate dashboard stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *InsightHandler) Streak(c *gin.Context) {
	summary, err := h.streaks.Summary(c.Request.Context())
	if err != nil {
		h.logger.Error("Streak: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to calculate streak"})
		return
	}
	c.JSON(http.StatusOK, summary)
}
