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

type GoalHandler struct {
	goals     *service.GoalService
	sweeper   *service.Sweeper
	stress    *service.StressDetector
	forecasts *service.ForecastService
	logger    *zap.Logger
}

func NewGoalHandler(
	goals *service.GoalService,
	sweeper *service.Sweeper,
	stress *service.StressDetector,
	forecasts *service.ForecastService,
	logger *zap.Logger,
) *GoalHandler {
	return &GoalHandler{
		goals:     goals,
		sweeper:   sweeper,
		stress:    stress,
		forecasts: forecasts,
		logger:    logger,
	}
}

type goalDraftRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	TargetDate  string `json:"target_date"` // YYYY-MM-DD
}

func (r goalDraftRequest) toDraft() (model.GoalDraft, error) {
	draft := model.GoalDraft{
		Title:       r.Title,
		Description: r.Description,
		Category:    r.Category,
	}
	if r.TargetDate != "" {
		t, err := time.Parse("2006-01-02", r.TargetDate)
		if err != nil {
			return draft, err
		}
		draft.TargetDate = t
	}
	return draft, nil
}

func (h *GoalHandler) CreateGoal(c *gin.Context) {
	var req goalDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("CreateGoal: invalid request body", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		h.logger.Warn("CreateGoal: invalid target_date", zap.String("target_date", req.TargetDate))
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
		return
	}

	goal, milestones, err := h.goals.CreateGoal(c.Request.Context(), draft)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("CreateGoal: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create goal"})
		return
	}

	h.logger.Info("CreateGoal: success",
		zap.Int("goal_id", goal.ID),
		zap.Int("milestone_count", len(milestones)),
	)
	c.JSON(http.StatusCreated, gin.H{
		"goal":       goal,
		"milestones": milestones,
	})
}

// PreviewSchedule generates a milestone ladder without persisting anything.
func (h *GoalHandler) PreviewSchedule(c *gin.Context) {
	var req goalDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	draft, err := req.toDraft()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
		return
	}

	drafts, err := h.goals.PreviewSchedule(c.Request.Context(), draft)
	if err != nil {
		if isValidationError(err) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("PreviewSchedule: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": drafts})
}

func (h *GoalHandler) ListGoals(c *gin.Context) {
	goals, err := h.goals.ListGoals(c.Request.Context())
	if err != nil {
		h.logger.Error("ListGoals: failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch goals"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"goals": goals})
}

func (h *GoalHandler) GetGoal(c *gin.Context) {
	goalID, ok := h.goalID(c)
	if !ok {
		return
	}

	goal, err := h.goals.GetGoal(c.Request.Context(), goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
			return
		}
		h.logger.Error("GetGoal: failed", zap.Int("goal_id", goalID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch goal"})
		return
	}
	c.JSON(http.StatusOK, goal)
}

type goalStatusRequest struct {
	Status string `json:"status"`
}

func (h *GoalHandler) UpdateGoalStatus(c *gin.Context) {
	goalID, ok := h.goalID(c)
	if !ok {
		return
	}

	var req goalStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	if err := h.goals.UpdateGoalStatus(c.Request.Context(), goalID, req.Status); err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidStatus):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, repository.ErrGoalNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		default:
			h.logger.Error("UpdateGoalStatus: failed", zap.Int("goal_id", goalID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update goal"})
		}
		return
	}

	h.logger.Info("UpdateGoalStatus: success",
		zap.Int("goal_id", goalID),
		zap.String("status", req.Status),
	)
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *GoalHandler) ListMilestones(c *gin.Context) {
	goalID, ok := h.goalID(c)
	if !ok {
		return
	}

	milestones, err := h.goals.ListMilestones(c.Request.Context(), goalID)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
			return
		}
		h.logger.Error("ListMilestones: failed", zap.Int("goal_id", goalID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch milestones"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// RunAdjustments triggers an on-demand adjustment pass for one goal.
func (h *GoalHandler) RunAdjustments(c *gin.Context) {
	goalID, ok := h.goalID(c)
	if !ok {
		return
	}

	if _, err := h.goals.GetGoal(c.Request.Context(), goalID); err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
			return
		}
		h.logger.Error("RunAdjustments: failed to load goal", zap.Int("goal_id", goalID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch goal"})
		return
	}

	adjustments, err := h.sweeper.AdjustGoal(c.Request.Context(), goalID)
	if err != nil {
		if errors.Is(err, service.ErrGoalBusy) {
			c.JSON(http.StatusConflict, gin.H{"error": "adjustment already in progress"})
			return
		}
		h.logger.Error("RunAdjustments: failed", zap.Int("goal_id", goalID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to apply adjustments"})
		return
	}

	h.logger.Info("RunAdjustments: success",
		zap.Int("goal_id", goalID),
		zap.Int("adjustment_count", len(adjustments)),
	)
	c.JSON(http.StatusOK, gin.H{"adjustments": adjustments})
}

func (h *GoalHandler) GetStress(c *gin.Context) {
	goalID, ok := h.goalID(c)
	if !ok {
		return
	}

	if _, err := h.goals.GetGoal(c.Request.Context(), goalID); err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
			return
		}
		h.logger.Error("GetStress: failed to load goal", zap.Int("goal_id", goalID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch goal"})
		return
	}

	assessment := h.stress.Analyze(c.Request.Context(), goalID)
	c.JSON(http.StatusOK, assessment)
}

func (h *GoalHandler) GetForecast(c *gin.Context) {
	goalID, ok := h.goalID(c)
	if !ok {
		return
	}

	includeFactors := c.Query("include_confidence_factors") == "1" ||
		c.Query("include_confidence_factors") == "true"

	forecast, err := h.forecasts.ProgressForecast(c.Request.Context(), goalID, includeFactors)
	if err != nil {
		if errors.Is(err, repository.ErrGoalNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
			return
		}
		h.logger.Error("GetForecast: failed", zap.Int("goal_id", goalID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate forecast"})
		return
	}
	c.JSON(http.StatusOK, forecast)
}

func (h *GoalHandler) goalID(c *gin.Context) (int, bool) {
	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil {
		h.logger.Warn("Invalid goal id format", zap.String("id", idStr))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return 0, false
	}
	return id, true
}

func isValidationError(err error) bool {
	return errors.Is(err, service.ErrTitleRequired) ||
		errors.Is(err, service.ErrInvalidCategory) ||
		errors.Is(err, service.ErrTargetDateRequired) ||
		errors.Is(err, service.ErrInvalidMood) ||
		errors.Is(err, service.ErrInvalidStatus)
}
