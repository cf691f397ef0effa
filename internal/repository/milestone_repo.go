package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

const milestoneColumns = `
        id, goal_id, title, description, due_date, completed, completed_at,
        difficulty, weekend_friendly, adjusted_by, adjustment_reason, created_at, updated_at`

type MilestoneRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewMilestoneRepository(db *pgxpool.Pool, logger *zap.Logger) *MilestoneRepository {
	return &MilestoneRepository{db: db, logger: logger}
}

// InsertBatch persists a generated milestone ladder for a goal in one
// transaction and returns the persisted rows in ladder order.
func (r *MilestoneRepository) InsertBatch(ctx context.Context, goalID int, drafts []model.MilestoneDraft) ([]model.Milestone, error) {
	r.logger.Debug("Inserting milestone ladder",
		zap.Int("goal_id", goalID),
		zap.Int("count", len(drafts)),
	)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin milestone insert tx", zap.Error(err))
		return nil, err
	}
	defer tx.Rollback(ctx)

	query := `
        INSERT INTO milestones (goal_id, title, description, due_date, difficulty, weekend_friendly)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING ` + milestoneColumns

	milestones := make([]model.Milestone, 0, len(drafts))
	for _, d := range drafts {
		var m model.Milestone
		err := tx.QueryRow(ctx, query,
			goalID,
			d.Title,
			d.Description,
			d.DueDate,
			d.Difficulty,
			d.WeekendFriendly,
		).Scan(scanTargets(&m)...)
		if err != nil {
			r.logger.Error("Failed to insert milestone",
				zap.Int("goal_id", goalID),
				zap.String("title", d.Title),
				zap.Error(err),
			)
			return nil, err
		}
		milestones = append(milestones, m)
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit milestone ladder", zap.Error(err))
		return nil, err
	}

	r.logger.Info("Milestone ladder inserted successfully",
		zap.Int("goal_id", goalID),
		zap.Int("count", len(milestones)),
	)
	return milestones, nil
}

func (r *MilestoneRepository) FindByID(ctx context.Context, id int) (*model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE id = $1`

	var m model.Milestone
	err := r.db.QueryRow(ctx, query, id).Scan(scanTargets(&m)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrMilestoneNotFound
		}
		r.logger.Error("Failed to find milestone", zap.Int("milestone_id", id), zap.Error(err))
		return nil, err
	}
	return &m, nil
}

func (r *MilestoneRepository) FindByGoalID(ctx context.Context, goalID int) ([]model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones WHERE goal_id = $1 ORDER BY due_date ASC`

	rows, err := r.db.Query(ctx, query, goalID)
	if err != nil {
		r.logger.Error("Failed to query milestones", zap.Int("goal_id", goalID), zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanMilestones(rows)
}

func (r *MilestoneRepository) ListAll(ctx context.Context) ([]model.Milestone, error) {
	query := `SELECT ` + milestoneColumns + ` FROM milestones ORDER BY goal_id, due_date ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query all milestones", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanMilestones(rows)
}

// SetCompletion toggles the completed flag, keeping the invariant that
// completed_at is non-null iff completed is true. Only a real transition
// updates the row; setting an unchanged flag preserves completed_at and
// reports changed = false.
func (r *MilestoneRepository) SetCompletion(ctx context.Context, id int, completed bool, completedAt *time.Time) (*model.Milestone, bool, error) {
	if completed && completedAt == nil {
		now := time.Now()
		completedAt = &now
	}
	if !completed {
		completedAt = nil
	}

	query := `
        UPDATE milestones
        SET completed = $2, completed_at = $3, updated_at = NOW()
        WHERE id = $1 AND completed <> $2
        RETURNING ` + milestoneColumns

	var m model.Milestone
	err := r.db.QueryRow(ctx, query, id, completed, completedAt).Scan(scanTargets(&m)...)
	if err == nil {
		return &m, true, nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		// Either the milestone is missing or the flag already holds this
		// value; FindByID distinguishes the two.
		current, findErr := r.FindByID(ctx, id)
		if findErr != nil {
			return nil, false, findErr
		}
		return current, false, nil
	}

	r.logger.Error("Failed to set milestone completion",
		zap.Int("milestone_id", id),
		zap.Bool("completed", completed),
		zap.Error(err),
	)
	return nil, false, err
}

// ApplyAdjustments persists engine mutations in a single transaction, so a
// failed pass leaves every milestone unmodified.
func (r *MilestoneRepository) ApplyAdjustments(ctx context.Context, adjusted []model.Milestone) error {
	if len(adjusted) == 0 {
		return nil
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		r.logger.Error("Failed to begin adjustment tx", zap.Error(err))
		return err
	}
	defer tx.Rollback(ctx)

	query := `
        UPDATE milestones
        SET title = $2, due_date = $3, difficulty = $4, weekend_friendly = $5,
            adjusted_by = $6, adjustment_reason = $7, updated_at = NOW()
        WHERE id = $1
    `
	for _, m := range adjusted {
		tag, err := tx.Exec(ctx, query,
			m.ID,
			m.Title,
			m.DueDate,
			m.Difficulty,
			m.WeekendFriendly,
			m.AdjustedBy,
			m.AdjustmentReason,
		)
		if err != nil {
			r.logger.Error("Failed to apply milestone adjustment",
				zap.Int("milestone_id", m.ID),
				zap.Error(err),
			)
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrMilestoneNotFound
		}
	}

	if err := tx.Commit(ctx); err != nil {
		r.logger.Error("Failed to commit adjustments", zap.Error(err))
		return err
	}

	r.logger.Info("Milestone adjustments applied",
		zap.Int("count", len(adjusted)),
	)
	return nil
}

func scanTargets(m *model.Milestone) []any {
	return []any{
		&m.ID,
		&m.GoalID,
		&m.Title,
		&m.Description,
		&m.DueDate,
		&m.Completed,
		&m.CompletedAt,
		&m.Difficulty,
		&m.WeekendFriendly,
		&m.AdjustedBy,
		&m.AdjustmentReason,
		&m.CreatedAt,
		&m.UpdatedAt,
	}
}

func scanMilestones(rows pgx.Rows) ([]model.Milestone, error) {
	milestones := []model.Milestone{}
	for rows.Next() {
		var m model.Milestone
		if err := rows.Scan(scanTargets(&m)...); err != nil {
			return nil, err
		}
		milestones = append(milestones, m)
	}
	return milestones, rows.Err()
}
