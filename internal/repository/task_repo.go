package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"smarttasks/internal/model"
)

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{
		db:     db,
		logger: logger,
	}
}

func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	query := `
        INSERT INTO tasks (id, tenant_id, project_id, title, description, due_date, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, NOW())
        RETURNING created_at
    `
	err := r.db.QueryRow(ctx, query,
		t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, t.DueDate,
	).Scan(&t.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert task", zap.Error(err))
		return err
	}

	r.logger.Info("Task inserted",
		zap.String("id", t.ID),
		zap.String("project_id", t.ProjectID),
	)
	return nil
}

// FindByID returns a task scoped to the tenant, or ErrNotFound.
func (r *TaskRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Task, error) {
	query := `
        SELECT id, tenant_id, project_id, title, description, due_date, created_at
        FROM tasks
        WHERE id = $1 AND tenant_id = $2
    `
	var t model.Task
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &t.DueDate, &t.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListByProject returns one page of a project's tasks plus the total count.
func (r *TaskRepository) ListByProject(ctx context.Context, tenantID, projectID string, page, size int) ([]model.Task, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE tenant_id = $1 AND project_id = $2`,
		tenantID, projectID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, tenant_id, project_id, title, description, due_date, created_at
        FROM tasks
        WHERE tenant_id = $1 AND project_id = $2
        ORDER BY created_at, id
        LIMIT $3 OFFSET $4
    `
	rows, err := r.db.Query(ctx, query, tenantID, projectID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &t.DueDate, &t.CreatedAt); err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	return tasks, total, rows.Err()
}

func (r *TaskRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE tenant_id = $1`, tenantID,
	).Scan(&total)
	return total, err
}

// CountOverdue counts the tenant's tasks whose due date has passed.
func (r *TaskRepository) CountOverdue(ctx context.Context, tenantID string, now time.Time) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE tenant_id = $1 AND due_date IS NOT NULL AND due_date < $2`,
		tenantID, now,
	).Scan(&total)
	return total, err
}
