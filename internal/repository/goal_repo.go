package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"pacekeeper/internal/model"
)

type GoalRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewGoalRepository(db *pgxpool.Pool, logger *zap.Logger) *GoalRepository {
	return &GoalRepository{db: db, logger: logger}
}

func (r *GoalRepository) Insert(ctx context.Context, g *model.Goal) (int, error) {
	r.logger.Debug("Inserting goal",
		zap.String("title", g.Title),
		zap.String("category", g.Category),
	)

	query := `
        INSERT INTO goals (title, description, category, status, progress, target_date)
        VALUES ($1, $2, $3, $4, $5, $6)
        RETURNING id, created_at, updated_at
    `
	err := r.db.QueryRow(ctx, query,
		g.Title,
		g.Description,
		g.Category,
		g.Status,
		g.Progress,
		g.TargetDate,
	).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		r.logger.Error("Failed to insert goal", zap.Error(err))
		return 0, err
	}

	r.logger.Info("Goal inserted successfully",
		zap.Int("goal_id", g.ID),
		zap.String("category", g.Category),
	)
	return g.ID, nil
}

func (r *GoalRepository) FindByID(ctx context.Context, id int) (*model.Goal, error) {
	query := `
        SELECT id, title, description, category, status, progress, target_date, created_at, updated_at
        FROM goals
        WHERE id = $1
    `
	var g model.Goal
	err := r.db.QueryRow(ctx, query, id).Scan(
		&g.ID,
		&g.Title,
		&g.Description,
		&g.Category,
		&g.Status,
		&g.Progress,
		&g.TargetDate,
		&g.CreatedAt,
		&g.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrGoalNotFound
		}
		r.logger.Error("Failed to find goal", zap.Int("goal_id", id), zap.Error(err))
		return nil, err
	}
	return &g, nil
}

func (r *GoalRepository) ListAll(ctx context.Context) ([]model.Goal, error) {
	query := `
        SELECT id, title, description, category, status, progress, target_date, created_at, updated_at
        FROM goals
        ORDER BY created_at DESC
    `
	return r.queryGoals(ctx, query)
}

func (r *GoalRepository) ListActive(ctx context.Context) ([]model.Goal, error) {
	query := `
        SELECT id, title, description, category, status, progress, target_date, created_at, updated_at
        FROM goals
        WHERE status = 'active'
        ORDER BY created_at DESC
    `
	return r.queryGoals(ctx, query)
}

func (r *GoalRepository) queryGoals(ctx context.Context, query string, args ...any) ([]model.Goal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to query goals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	goals := []model.Goal{}
	for rows.Next() {
		var g model.Goal
		if err := rows.Scan(
			&g.ID,
			&g.Title,
			&g.Description,
			&g.Category,
			&g.Status,
			&g.Progress,
			&g.TargetDate,
			&g.CreatedAt,
			&g.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan goal", zap.Error(err))
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

func (r *GoalRepository) UpdateProgress(ctx context.Context, id, progress int) error {
	query := `
        UPDATE goals
        SET progress = $2, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, progress)
	if err != nil {
		r.logger.Error("Failed to update goal progress",
			zap.Int("goal_id", id),
			zap.Error(err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}

func (r *GoalRepository) UpdateStatus(ctx context.Context, id int, status string) error {
	query := `
        UPDATE goals
        SET status = $2, updated_at = NOW()
        WHERE id = $1
    `
	tag, err := r.db.Exec(ctx, query, id, status)
	if err != nil {
		r.logger.Error("Failed to update goal status",
			zap.Int("goal_id", id),
			zap.String("status", status),
			zap.Error(err),
		)
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrGoalNotFound
	}
	return nil
}
