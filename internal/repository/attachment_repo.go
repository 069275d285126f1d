package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"smarttasks/internal/model"
)

type AttachmentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewAttachmentRepository(db *pgxpool.Pool, logger *zap.Logger) *AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger,
	}
}

func (r *AttachmentRepository) Insert(ctx context.Context, a *model.Attachment) error {
	query := `
        INSERT INTO attachments (id, tenant_id, task_id, original_name, size, mime_type, object_key, created_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        RETURNING created_at
    `
	err := r.db.QueryRow(ctx, query,
		a.ID, a.TenantID, a.TaskID, a.OriginalName, a.Size, a.MimeType, a.ObjectKey,
	).Scan(&a.CreatedAt)
	if err != nil {
		r.logger.Error("Failed to insert attachment", zap.Error(err))
		return err
	}

	r.logger.Info("Attachment inserted",
		zap.String("id", a.ID),
		zap.String("task_id", a.TaskID),
		zap.Int64("size", a.Size),
	)
	return nil
}

// FindByID returns an attachment scoped to the tenant, or ErrNotFound.
func (r *AttachmentRepository) FindByID(ctx context.Context, tenantID, id string) (*model.Attachment, error) {
	query := `
        SELECT id, tenant_id, task_id, original_name, size, mime_type, object_key, created_at
        FROM attachments
        WHERE id = $1 AND tenant_id = $2
    `
	var a model.Attachment
	err := r.db.QueryRow(ctx, query, id, tenantID).Scan(
		&a.ID, &a.TenantID, &a.TaskID, &a.OriginalName, &a.Size, &a.MimeType, &a.ObjectKey, &a.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListByTask returns one page of a task's attachments plus the total count.
func (r *AttachmentRepository) ListByTask(ctx context.Context, tenantID, taskID string, page, size int) ([]model.Attachment, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM attachments WHERE tenant_id = $1 AND task_id = $2`,
		tenantID, taskID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
        SELECT id, tenant_id, task_id, original_name, size, mime_type, object_key, created_at
        FROM attachments
        WHERE tenant_id = $1 AND task_id = $2
        ORDER BY created_at, id
        LIMIT $3 OFFSET $4
    `
	rows, err := r.db.Query(ctx, query, tenantID, taskID, size, page*size)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var attachments []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.TenantID, &a.TaskID, &a.OriginalName, &a.Size, &a.MimeType, &a.ObjectKey, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		attachments = append(attachments, a)
	}
	return attachments, total, rows.Err()
}
