package model

import "time"

type Attachment struct {
	ID           string    `json:"id"`
	TenantID     string    `json:"tenantId"`
	TaskID       string    `json:"taskId"`
	OriginalName string    `json:"originalName"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimeType"`
	DownloadURL  string    `json:"downloadUrl"`
	CreatedAt    time.Time `json:"createdAt"`

	// ObjectKey locates the payload in the configured storage backend.
	// It is a server-side reference and never leaves the API.
	ObjectKey string `json:"-"`
}
