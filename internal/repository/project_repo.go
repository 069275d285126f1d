package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"smarttasks/internal/model"
)

// ErrNotFound is returned when a tenant-scoped lookup matches nothing.
var ErrNotFound = errors.New("not found")

type ProjectRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewProjectRepository(db *pgxpool.Pool, logger *zap.Logger) *ProjectRepository {
	return &ProjectRepository{
		db:     db,
		logger: logger,
	}
}

func (r *ProjectRepository) Insert(ctx context.Context, p *model.Project) error {
	query := `
        INSERT INTO projects (id, tenant_id, name, created_at)
        VALUES ($1, $2, $3, NOW())
        RETURNING created_at
    `
	err := r.db.QueryRow(ctx, query, p.ID, p.TenantID, p.Name).Scan(&p.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert project", zap.Error(err))
		return err
	}

	r.logger.Info("Project inserted",
		zap.String("id", p.ID),
		zap.String("tenant_id", p.TenantID),
	)
	return nil
}

// FindByID returns a project scoped to the tenant, or ErrNotFound.
func (r *ProjectRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Project, error) {
	query := `
        SELECT id, tenant_id, name, created_at
        FROM projects
        WHERE id = $1 AND tenant_id = $2
    `
	var p model.Project
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&p.ID, &p.TenantID, &p.Name, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListByTenant returns one page of the tenant's projects plus the total count.
func (r *ProjectRepository) ListByTenant(ctx context.Context, tenantID string, page, size int) ([]model.Project, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE tenant_id = $1`, tenantID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, tenant_id, name, created_at
        FROM projects
        WHERE tenant_id = $1
        ORDER BY created_at, id
        LIMIT $2 OFFSET $3
    `
	rows, err := r.db.Query(ctx, query, tenantID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt); err != nil {
			return nil, 0, err
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

func (r *ProjectRepository) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	var total int64
	err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE tenant_id = $1`, tenantID,
	).Scan(&total)
	return total, err
}

// FindLatest returns the tenant's most recently created projects, newest first.
func (r *ProjectRepository) FindLatest(ctx context.Context, tenantID string, limit int) ([]model.Project, error) {
	query := `
        SELECT id, tenant_id, name, created_at
        FROM projects
        WHERE tenant_id = $1
        ORDER BY created_at DESC, id DESC
        LIMIT $2
    `
	rows, err := r.db.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
