package model

import "time"

type Task struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenantId"`
	ProjectID   string     `json:"projectId"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}
