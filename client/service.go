package client

import (
	"context"
	"io"
	"time"

	"smarttasks/internal/model"
)

// TaskCreate is the request body for creating a task.
type TaskCreate struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
}

// Download is an attachment payload stream plus the metadata needed to
// save or display it. The caller owns Content.
type Download struct {
	Content      io.ReadCloser
	OriginalName string
	MimeType     string
	Size         int64
}

// Service is the operation surface pages and commands program against.
// Two implementations exist: the remote API client and the sqlite local
// store, the project's earlier storage stage. Detail fetches (GetProject,
// GetTask) tolerate absence: a missing entity is (nil, nil), not an error.
type Service interface {
	ListProjects(ctx context.Context, page, size int) (model.Page[model.Project], error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	CreateProject(ctx context.Context, name string) (*model.Project, error)

	ListTasks(ctx context.Context, projectID string, page, size int) (model.Page[model.Task], error)
	GetTask(ctx context.Context, id string) (*model.Task, error)
	CreateTask(ctx context.Context, projectID string, req TaskCreate) (*model.Task, error)

	ListAttachments(ctx context.Context, taskID string, page, size int) (model.Page[model.Attachment], error)
	UploadAttachment(ctx context.Context, taskID, filename string, r io.Reader) (*model.Attachment, error)
	OpenAttachment(ctx context.Context, id string) (*Download, error)
}
