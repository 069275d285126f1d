package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"smarttasks/internal/model"
)

// latestProjectsLimit caps the recent-projects list on the dashboard.
const latestProjectsLimit = 5

// ProjectStats is the slice of the project repository the dashboard reads.
// *repository.ProjectRepository satisfies it.
type ProjectStats interface {
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	FindLatest(ctx context.Context, tenantID string, limit int) ([]model.Project, error)
}

// TaskStats is the slice of the task repository the dashboard reads.
// *repository.TaskRepository satisfies it.
type TaskStats interface {
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
	CountOverdue(ctx context.Context, tenantID string, now time.Time) (int64, error)
}

// Dashboard is the tenant-wide summary served at GET /api/dashboard.
type Dashboard struct {
	ActiveProjectsCount int64           `json:"activeProjectsCount"`
	TotalTasksCount     int64           `json:"totalTasksCount"`
	OverdueTasksCount   int64           `json:"overdueTasksCount"`
	LatestProjects      []model.Project `json:"latestProjects"`
}

type DashboardService struct {
	projects ProjectStats
	tasks    TaskStats
	logger   *zap.Logger
}

func NewDashboardService(projects ProjectStats, tasks TaskStats, logger *zap.Logger) *DashboardService {
	return &DashboardService{
		projects: projects,
		tasks:    tasks,
		logger:   logger,
	}
}

func (s *DashboardService) Summary(ctx context.Context, tenantID string) (*Dashboard, error) {
	activeProjects, err := s.projects.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	totalTasks, err := s.tasks.CountByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	overdueTasks, err := s.tasks.CountOverdue(ctx, tenantID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	latest, err := s.projects.FindLatest(ctx, tenantID, latestProjectsLimit)
	if err != nil {
		return nil, err
	}
	if latest == nil {
		latest = []model.Project{}
	}

	return &Dashboard{
		ActiveProjectsCount: activeProjects,
		TotalTasksCount:     totalTasks,
		OverdueTasksCount:   overdueTasks,
		LatestProjects:      latest,
	}, nil
}
