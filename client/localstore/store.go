package localstore

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"mime"
	"net/http"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarttasks/client"
	"smarttasks/internal/model"
)

var _ client.Service = (*Store)(nil)

// Store implements the client service against a local sqlite file. The
// tenant is read per call, so a tenant switch on the session takes effect
// immediately without reopening the store.
type Store struct {
	db     *sql.DB
	tenant func() string
	logger *zap.Logger
}

// New wraps an opened database. tenant supplies the active tenant id on
// every operation; typically session.Store.TenantID.
func New(db *sql.DB, tenant func() string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{db: db, tenant: tenant, logger: logger}
}

// notFound mirrors the remote API's shape for a missing parent entity, so
// error handling upstream does not care which implementation it talks to.
func notFound() error {
	return &client.RequestError{Status: http.StatusNotFound, Body: "resource not found"}
}

func (s *Store) ListProjects(ctx context.Context, page, size int) (model.Page[model.Project], error) {
	page, size = model.ClampPageSize(page, size)
	tenant := s.tenant()

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM projects WHERE tenant_id = ?`, tenant).Scan(&total); err != nil {
		return model.Page[model.Project]{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, tenant_id, name, created_at FROM projects
	WHERE tenant_id = ?
	ORDER BY created_at, id
	LIMIT ? OFFSET ?`, tenant, size, page*size)
	if err != nil {
		return model.Page[model.Project]{}, err
	}
	defer rows.Close()

	var out []model.Project
	for rows.Next() {
		var p model.Project
		if err := rows.Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt); err != nil {
			return model.Page[model.Project]{}, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Project]{}, err
	}
	return model.NewPage(out, page, size, total), nil
}

func (s *Store) GetProject(ctx context.Context, id string) (*model.Project, error) {
	var p model.Project
	err := s.db.QueryRowContext(ctx, `
	SELECT id, tenant_id, name, created_at FROM projects
	WHERE tenant_id = ? AND id = ?`, s.tenant(), id).
		Scan(&p.ID, &p.TenantID, &p.Name, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) CreateProject(ctx context.Context, name string) (*model.Project, error) {
	p := model.Project{
		ID:        uuid.NewString(),
		TenantID:  s.tenant(),
		Name:      name,
		CreatedAt: now(),
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO projects(id, tenant_id, name, created_at)
	VALUES (?, ?, ?, ?)`, p.ID, p.TenantID, p.Name, p.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Project created locally", zap.String("project_id", p.ID))
	return &p, nil
}

func (s *Store) ListTasks(ctx context.Context, projectID string, page, size int) (model.Page[model.Task], error) {
	page, size = model.ClampPageSize(page, size)
	tenant := s.tenant()

	if p, err := s.GetProject(ctx, projectID); err != nil {
		return model.Page[model.Task]{}, err
	} else if p == nil {
		return model.Page[model.Task]{}, notFound()
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE tenant_id = ? AND project_id = ?`,
		tenant, projectID).Scan(&total); err != nil {
		return model.Page[model.Task]{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, project_id, title, description, due_date, created_at FROM tasks
	WHERE tenant_id = ? AND project_id = ?
	ORDER BY created_at, id
	LIMIT ? OFFSET ?`, tenant, projectID, size, page*size)
	if err != nil {
		return model.Page[model.Task]{}, err
	}
	defer rows.Close()

	var out []model.Task
	for rows.Next() {
		var t model.Task
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.DueDate, &t.CreatedAt); err != nil {
			return model.Page[model.Task]{}, err
		}
		t.TenantID = tenant
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Task]{}, err
	}
	return model.NewPage(out, page, size, total), nil
}

func (s *Store) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var t model.Task
	err := s.db.QueryRowContext(ctx, `
	SELECT id, tenant_id, project_id, title, description, due_date, created_at FROM tasks
	WHERE tenant_id = ? AND id = ?`, s.tenant(), id).
		Scan(&t.ID, &t.TenantID, &t.ProjectID, &t.Title, &t.Description, &t.DueDate, &t.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) CreateTask(ctx context.Context, projectID string, req client.TaskCreate) (*model.Task, error) {
	if p, err := s.GetProject(ctx, projectID); err != nil {
		return nil, err
	} else if p == nil {
		return nil, notFound()
	}

	t := model.Task{
		ID:          uuid.NewString(),
		TenantID:    s.tenant(),
		ProjectID:   projectID,
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		CreatedAt:   now(),
	}
	_, err := s.db.ExecContext(ctx, `
	INSERT INTO tasks(id, tenant_id, project_id, title, description, due_date, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.TenantID, t.ProjectID, t.Title, t.Description, t.DueDate, t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *Store) ListAttachments(ctx context.Context, taskID string, page, size int) (model.Page[model.Attachment], error) {
	page, size = model.ClampPageSize(page, size)
	tenant := s.tenant()

	if t, err := s.GetTask(ctx, taskID); err != nil {
		return model.Page[model.Attachment]{}, err
	} else if t == nil {
		return model.Page[model.Attachment]{}, notFound()
	}

	var total int64
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM attachments WHERE tenant_id = ? AND task_id = ?`,
		tenant, taskID).Scan(&total); err != nil {
		return model.Page[model.Attachment]{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
	SELECT id, task_id, original_name, mime_type, size, created_at FROM attachments
	WHERE tenant_id = ? AND task_id = ?
	ORDER BY created_at, id
	LIMIT ? OFFSET ?`, tenant, taskID, size, page*size)
	if err != nil {
		return model.Page[model.Attachment]{}, err
	}
	defer rows.Close()

	var out []model.Attachment
	for rows.Next() {
		var a model.Attachment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.OriginalName, &a.MimeType, &a.Size, &a.CreatedAt); err != nil {
			return model.Page[model.Attachment]{}, err
		}
		a.TenantID = tenant
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Attachment]{}, err
	}
	return model.NewPage(out, page, size, total), nil
}

func (s *Store) UploadAttachment(ctx context.Context, taskID, filename string, r io.Reader) (*model.Attachment, error) {
	if t, err := s.GetTask(ctx, taskID); err != nil {
		return nil, err
	} else if t == nil {
		return nil, notFound()
	}

	payload, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	mimeType := mime.TypeByExtension(filepath.Ext(filename))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	a := model.Attachment{
		ID:           uuid.NewString(),
		TenantID:     s.tenant(),
		TaskID:       taskID,
		OriginalName: filename,
		MimeType:     mimeType,
		Size:         int64(len(payload)),
		CreatedAt:    now(),
	}
	_, err = s.db.ExecContext(ctx, `
	INSERT INTO attachments(id, tenant_id, task_id, original_name, mime_type, size, payload, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.TenantID, a.TaskID, a.OriginalName, a.MimeType, a.Size, payload, a.CreatedAt)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("Attachment stored locally",
		zap.String("attachment_id", a.ID), zap.Int64("size", a.Size))
	return &a, nil
}

func (s *Store) OpenAttachment(ctx context.Context, id string) (*client.Download, error) {
	var (
		name, mimeType string
		size           int64
		payload        []byte
	)
	err := s.db.QueryRowContext(ctx, `
	SELECT original_name, mime_type, size, payload FROM attachments
	WHERE tenant_id = ? AND id = ?`, s.tenant(), id).
		Scan(&name, &mimeType, &size, &payload)
	if err == sql.ErrNoRows {
		return nil, notFound()
	}
	if err != nil {
		return nil, err
	}
	return &client.Download{
		Content:      io.NopCloser(bytes.NewReader(payload)),
		OriginalName: name,
		MimeType:     mimeType,
		Size:         size,
	}, nil
}
