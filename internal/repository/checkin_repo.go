package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

const checkInColumns = `
        id, goal_id, date, mood, mood_label, note, completed_milestones, created_at`

type CheckInRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewCheckInRepository(db *pgxpool.Pool, logger *zap.Logger) *CheckInRepository {
	return &CheckInRepository{db: db, logger: logger}
}

func (r *CheckInRepository) Insert(ctx context.Context, c *model.CheckIn) (int, error) {
	r.logger.Debug("Inserting check-in",
		zap.Int("mood", c.Mood),
		zap.Int("completed_count", len(c.CompletedMilestones)),
	)

	query := `
        INSERT INTO checkins (goal_id, date, mood, mood_label, note, completed_milestones)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at
    `
	err := r.db.QueryRow(ctx, query,
		c.GoalID,
		c.Date,
		c.Mood,
		c.MoodLabel,
		c.Note,
		c.CompletedMilestones,
	).Scan(&c.ID, &c.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert check-in", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Check-in inserted successfully", zap.Int("checkin_id", c.ID))
	return c.ID, nil
}

// ListAll returns the full check-in history, newest first.
func (r *CheckInRepository) ListAll(ctx context.Context) ([]model.CheckIn, error) {
	query := `SELECT ` + checkInColumns + ` FROM checkins ORDER BY date DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to query check-ins", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanCheckIns(rows)
}

// ListRecent returns the most recent check-ins, newest first. When goalID is
// non-nil, goal-tagged and general (untagged) check-ins both qualify.
func (r *CheckInRepository) ListRecent(ctx context.Context, goalID *int, limit int) ([]model.CheckIn, error) {
	query := `
        SELECT ` + checkInColumns + `
        FROM checkins
        WHERE $1::int IS NULL OR goal_id = $1 OR goal_id IS NULL
        ORDER BY date DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, goalID, limit)
	if err != nil {
		r.logger.Error("Failed to query recent check-ins", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	return scanCheckIns(rows)
}

func scanCheckIns(rows pgx.Rows) ([]model.CheckIn, error) {
	checkIns := []model.CheckIn{}
	for rows.Next() {
		var c model.CheckIn
		if err := rows.Scan(
			&c.ID,
			&c.GoalID,
			&c.Date,
			&c.Mood,
			&c.MoodLabel,
			&c.Note,
			&c.CompletedMilestones,
			&c.CreatedAt,
		); err != nil {
			return nil, err
		}
		checkIns = append(checkIns, c)
	}
	return checkIns, rows.Err()
}
