package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/beq-project/beq/pkg/models"
)

// PostgresQuantas implements Quantas over database/sql. Every operation is
// scoped through the owning brick's user_id so a caller can only reach their
// own quantas.
type PostgresQuantas struct {
	db    *sql.DB
	clock models.Clock
}

// NewPostgresQuantas creates a Postgres-backed quanta repository.
func NewPostgresQuantas(db *sql.DB, clock models.Clock) *PostgresQuantas {
	return &PostgresQuantas{db: db, clock: clock}
}

const quantaColumns = `q.id, q.brick_id, q.title, q.description, q.status,
	q.estimated_duration_minutes, q.order_index, q.created_at, q.updated_at`

func (r *PostgresQuantas) Create(ctx context.Context, userID string, req models.CreateQuantaRequest) (*models.Quanta, error) {
	// The brick must exist and belong to the caller at commit time.
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM bricks WHERE id = $1 AND user_id = $2)`,
		req.BrickID, userID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("failed to check brick ownership: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: brick %s", ErrNotFound, req.BrickID)
	}

	now := r.clock.Now()
	quanta := &models.Quanta{
		ID:                       models.NewID(),
		BrickID:                  req.BrickID,
		Title:                    req.Title,
		Description:              req.Description,
		Status:                   models.StatusNotStarted,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		OrderIndex:               req.OrderIndex,
		CreatedAt:                now,
		UpdatedAt:                now,
	}
	if err := quanta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO quantas (id, brick_id, title, description, status,
			estimated_duration_minutes, order_index, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		quanta.ID, quanta.BrickID, quanta.Title, quanta.Description, quanta.Status,
		quanta.EstimatedDurationMinutes, quanta.OrderIndex, quanta.CreatedAt, quanta.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create quanta: %w", err)
	}
	return quanta, nil
}

func (r *PostgresQuantas) Get(ctx context.Context, userID, quantaID string) (*models.Quanta, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+quantaColumns+` FROM quantas q
		JOIN bricks b ON b.id = q.brick_id
		WHERE q.id = $1 AND b.user_id = $2`,
		quantaID, userID)
	return scanQuanta(row)
}

func (r *PostgresQuantas) Update(ctx context.Context, userID, quantaID string, req models.UpdateQuantaRequest) (*models.Quanta, error) {
	quanta, err := r.Get(ctx, userID, quantaID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quanta.Title = *req.Title
	}
	if req.Description != nil {
		quanta.Description = *req.Description
	}
	if req.Status != nil {
		quanta.Status = *req.Status
	}
	if req.EstimatedDurationMinutes != nil {
		quanta.EstimatedDurationMinutes = *req.EstimatedDurationMinutes
	}
	if req.OrderIndex != nil {
		quanta.OrderIndex = *req.OrderIndex
	}
	quanta.UpdatedAt = r.clock.Now()

	if err := quanta.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err)
	}

	_, err = r.db.ExecContext(ctx, `
		UPDATE quantas SET title = $1, description = $2, status = $3,
			estimated_duration_minutes = $4, order_index = $5, updated_at = $6
		WHERE id = $7`,
		quanta.Title, quanta.Description, quanta.Status,
		quanta.EstimatedDurationMinutes, quanta.OrderIndex, quanta.UpdatedAt,
		quantaID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update quanta: %w", err)
	}
	return quanta, nil
}

func (r *PostgresQuantas) Delete(ctx context.Context, userID, quantaID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM quantas WHERE id = $1 AND brick_id IN (
			SELECT id FROM bricks WHERE user_id = $2)`,
		quantaID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete quanta: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresQuantas) List(ctx context.Context, userID string, filters models.QuantaFilters) ([]*models.Quanta, error) {
	query := `SELECT ` + quantaColumns + ` FROM quantas q
		JOIN bricks b ON b.id = q.brick_id
		WHERE b.user_id = $1`
	args := []any{userID}
	if filters.BrickID != "" {
		args = append(args, filters.BrickID)
		query += fmt.Sprintf(" AND q.brick_id = $%d", len(args))
	}
	if filters.Status != "" {
		args = append(args, filters.Status)
		query += fmt.Sprintf(" AND q.status = $%d", len(args))
	}
	query += " ORDER BY q.brick_id, q.order_index"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list quantas: %w", err)
	}
	defer rows.Close()

	var quantas []*models.Quanta
	for rows.Next() {
		q, err := scanQuanta(rows)
		if err != nil {
			return nil, err
		}
		quantas = append(quantas, q)
	}
	return quantas, rows.Err()
}

func scanQuanta(row rowScanner) (*models.Quanta, error) {
	var q models.Quanta
	err := row.Scan(&q.ID, &q.BrickID, &q.Title, &q.Description, &q.Status,
		&q.EstimatedDurationMinutes, &q.OrderIndex, &q.CreatedAt, &q.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan quanta: %w", err)
	}
	q.CreatedAt = q.CreatedAt.UTC()
	q.UpdatedAt = q.UpdatedAt.UTC()
	return &q, nil
}
