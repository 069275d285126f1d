package events

import "time"

// Routing keys on the smarttasks.events topic exchange.
const (
	ProjectCreated     = "project.created"
	TaskCreated        = "task.created"
	AttachmentUploaded = "attachment.uploaded"
)

type ProjectCreatedPayload struct {
	ProjectID string    `json:"project_id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type TaskCreatedPayload struct {
	TaskID    string     `json:"task_id"`
	ProjectID string     `json:"project_id"`
	TenantID  string     `json:"tenant_id"`
	Title     string     `json:"title"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

type AttachmentUploadedPayload struct {
	AttachmentID string    `json:"attachment_id"`
	TaskID       string    `json:"task_id"`
	TenantID     string    `json:"tenant_id"`
	OriginalName string    `json:"original_name"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mime_type"`
	CreatedAt    time.Time `json:"created_at"`
}
