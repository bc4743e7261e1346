package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beq-project/beq/pkg/models"
)

// PostgresBricks implements Bricks over database/sql.
type PostgresBricks struct {
	db    *sql.DB
	clock models.Clock
}

// NewPostgresBricks creates a Postgres-backed brick repository.
func NewPostgresBricks(db *sql.DB, clock models.Clock) *PostgresBricks {
	return &PostgresBricks{db: db, clock: clock}
}

const brickColumns = `id, user_id, title, description, category, priority, status,
	estimated_duration_minutes, target_date, deadline, created_at, updated_at`

func (r *PostgresBricks) Create(ctx context.Context, req models.CreateBrickRequest) (*models.Brick, error) {
	now := r.clock.Now()
	brick := &models.Brick{
		ID:                       models.NewID(),
		UserID:                   req.UserID,
		Title:                    req.Title,
		Description:              req.Description,
		Category:                 req.Category,
		Priority:                 req.Priority,
		Status:                   models.StatusNotStarted,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		TargetDate:               req.TargetDate,
		Deadline:                 req.Deadline,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := brick.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bricks (`+brickColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		brick.ID, brick.UserID, brick.Title, brick.Description, brick.Category,
		brick.Priority, brick.Status, brick.EstimatedDurationMinutes,
		brick.TargetDate, brick.Deadline, brick.CreatedAt, brick.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create brick: %w", err)
	}
	return brick, nil
}

func (r *PostgresBricks) Get(ctx context.Context, userID, brickID string) (*models.Brick, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+brickColumns+` FROM bricks WHERE id = $1 AND user_id = $2`,
		brickID, userID)
	return scanBrick(row)
}

func (r *PostgresBricks) Update(ctx context.Context, userID, brickID string, req models.UpdateBrickRequest) (*models.Brick, error) {
	brick, err := r.Get(ctx, userID, brickID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		brick.Title = *req.Title
	}
	if req.Description != nil {
		brick.Description = *req.Description
	}
	if req.Status != nil {
		brick.Status = *req.Status
	}
	if req.Priority != nil {
		brick.Priority = *req.Priority
	}
	brick.UpdatedAt = r.clock.Now()

	if err := brick.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE bricks SET title = $1, description = $2, status = $3, priority = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7`,
		brick.Title, brick.Description, brick.Status, brick.Priority, brick.UpdatedAt,
		brickID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update brick: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrNotFound
	}
	return brick, nil
}

func (r *PostgresBricks) Delete(ctx context.Context, userID, brickID string, cascade bool) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if cascade {
		if _, err := tx.ExecContext(ctx, `
			DELETE FROM quantas WHERE brick_id IN (
				SELECT id FROM bricks WHERE id = $1 AND user_id = $2)`,
			brickID, userID); err != nil {
			return fmt.Errorf("failed to delete quantas: %w", err)
		}
	} else {
		var count int
		err := tx.QueryRowContext(ctx, `
			SELECT COUNT(*) FROM quantas q
			JOIN bricks b ON b.id = q.brick_id
			WHERE b.id = $1 AND b.user_id = $2`,
			brickID, userID).Scan(&count)
		if err != nil {
			return fmt.Errorf("failed to count quantas: %w", err)
		}
		if count > 0 {
			return NewValidationError("delete_quantas", fmt.Sprintf("brick has %d quantas; pass delete_quantas=true to cascade", count))
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM bricks WHERE id = $1 AND user_id = $2`, brickID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete brick: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}
	return nil
}

func (r *PostgresBricks) List(ctx context.Context, userID string, filters models.BrickFilters) ([]*models.Brick, error) {
	query := `SELECT ` + brickColumns + ` FROM bricks WHERE user_id = $1`
	args := []any{userID}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filters.Category != "" {
		args = append(args, filters.Category)
		query += fmt.Sprintf(" AND category = $%d", len(args))
	}
	query += " ORDER BY created_at"
	if filters.Limit > 0 {
		args = append(args, filters.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list bricks: %w", err)
	}
	defer rows.Close()

	var bricks []*models.Brick
	for rows.Next() {
		b, err := scanBrick(rows)
		if err != nil {
			return nil, err
		}
		bricks = append(bricks, b)
	}
	return bricks, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBrick(row rowScanner) (*models.Brick, error) {
	var b models.Brick
	var target, deadline sql.NullTime
	err := row.Scan(&b.ID, &b.UserID, &b.Title, &b.Description, &b.Category,
		&b.Priority, &b.Status, &b.EstimatedDurationMinutes,
		&target, &deadline, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan brick: %w", err)
	}
	if target.Valid {
		t := target.Time.UTC()
		b.TargetDate = &t
	}
	if deadline.Valid {
		d := deadline.Time.UTC()
		b.Deadline = &d
	}
	b.CreatedAt = b.CreatedAt.UTC()
	b.UpdatedAt = b.UpdatedAt.UTC()
	return &b, nil
}
