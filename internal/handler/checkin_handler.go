package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
	"pacekeeper/internal/repository"
	"pacekeeper/internal/service"
)

type CheckInHandler struct {
	goals  *service.GoalService
	logger *zap.Logger
}

func NewCheckInHandler(goals *service.GoalService, logger *zap.Logger) *CheckInHandler {
	return &CheckInHandler{goals: goals, logger: logger}
}

type checkInRequest struct {
	GoalID              *int   `json:"goal_id"`
	Date                string `json:"date"` // YYYY-MM-DD, defaults to today
	Mood                int    `json:"mood"`
	MoodLabel           string `json:"mood_label"`
	Note                string `json:"note"`
	CompletedMilestones []int  `json:"completed_milestones"`
}

func (h *CheckInHandler) CreateCheckIn(c *gin.Context) {
	var req checkInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("CreateCheckIn: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	checkIn := &model.CheckIn{
		GoalID:              req.GoalID,
		Mood:                req.Mood,
		MoodLabel:           req.MoodLabel,
		Note:                req.Note,
		CompletedMilestones: req.CompletedMilestones,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
		checkIn.Date = date
	}

	created, err := h.goals.CreateCheckIn(c.Request.Context(), checkIn)
	if err != nil {
		if errors.Is(err, service.ErrInvalidMood) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("CreateCheckIn: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create check-in"})
		return
	}

	h.logger.Info("CreateCheckIn: success",
		zap.Int("checkin_id", created.ID),
		zap.Int("mood", created.Mood),
	)
	c.JSON(http.StatusCreated, created)
}

func (h *CheckInHandler) ListCheckIns(c *gin.Context) {
	checkIns, err := h.goals.ListCheckIns(c.Request.Context())
	if err != nil {
		h.logger.Error("ListCheckIns: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch check-ins"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"checkins": checkIns})
}

type milestoneUpdateRequest struct {
	Completed *bool `json:"completed"`
}

// UpdateMilestone toggles completion; the stored goal progress follows.
func (h *CheckInHandler) UpdateMilestone(c *gin.Context) {
	idStr := c.Param("id")
	milestoneID, err := strconv.Atoi(idStr)
	if err != nil {
		h.logger.Warn("UpdateMilestone: invalid milestone id", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid milestone id"})
		return
	}

	var req milestoneUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Completed == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "completed is required"})
		return
	}

	milestone, err := h.goals.ToggleMilestone(c.Request.Context(), milestoneID, *req.Completed)
	if err != nil {
		if errors.Is(err, repository.ErrMilestoneNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "milestone not found"})
			return
		}
		h.logger.Error("UpdateMilestone: failed",
			zap.Int("milestone_id", milestoneID),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update milestone"})
		return
	}

	h.logger.Info("UpdateMilestone: success",
		zap.Int("milestone_id", milestoneID),
		zap.Bool("completed", milestone.Completed),
	)
	c.JSON(http.StatusOK, milestone)
}
