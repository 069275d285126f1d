package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"smarttasks/internal/model"
)

type memProjectStats struct {
	projects []model.Project
}

func (m *memProjectStats) CountByTenant(_ context.Context, tenantID string) (int64, error) {
	var n int64
	for _, p := range m.projects {
		if p.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (m *memProjectStats) FindLatest(_ context.Context, tenantID string, limit int) ([]model.Project, error) {
	var out []model.Project
	for i := len(m.projects) - 1; i >= 0 && len(out) < limit; i-- {
		if m.projects[i].TenantID == tenantID {
			out = append(out, m.projects[i])
		}
	}
	return out, nil
}

type memTaskStats struct {
	tasks []model.Task
}

func (m *memTaskStats) CountByTenant(_ context.Context, tenantID string) (int64, error) {
	var n int64
	for _, t := range m.tasks {
		if t.TenantID == tenantID {
			n++
		}
	}
	return n, nil
}

func (m *memTaskStats) CountOverdue(_ context.Context, tenantID string, now time.Time) (int64, error) {
	var n int64
	for _, t := range m.tasks {
		if t.TenantID == tenantID && t.DueDate != nil && t.DueDate.Before(now) {
			n++
		}
	}
	return n, nil
}

func TestDashboardSummary(t *testing.T) {
	projects := &memProjectStats{}
	for i := 0; i < 7; i++ {
		projects.projects = append(projects.projects, model.Project{
			ID:       string(rune('a' + i)),
			TenantID: "tenant_a",
			Name:     "Project",
		})
	}
	projects.projects = append(projects.projects, model.Project{ID: "other", TenantID: "tenant_b"})

	past := time.Now().UTC().Add(-24 * time.Hour)
	future := time.Now().UTC().Add(24 * time.Hour)
	tasks := &memTaskStats{tasks: []model.Task{
		{ID: "t1", TenantID: "tenant_a", DueDate: &past},
		{ID: "t2", TenantID: "tenant_a", DueDate: &future},
		{ID: "t3", TenantID: "tenant_a"},
		{ID: "t4", TenantID: "tenant_b", DueDate: &past},
	}}

	svc := NewDashboardService(projects, tasks, zap.NewNop())
	summary, err := svc.Summary(context.Background(), "tenant_a")
	require.NoError(t, err)

	require.EqualValues(t, 7, summary.ActiveProjectsCount)
	require.EqualValues(t, 3, summary.TotalTasksCount)
	require.EqualValues(t, 1, summary.OverdueTasksCount)
	require.Len(t, summary.LatestProjects, 5)
	require.Equal(t, "g", summary.LatestProjects[0].ID)
}

func TestDashboardSummaryEmptyTenant(t *testing.T) {
	svc := NewDashboardService(&memProjectStats{}, &memTaskStats{}, zap.NewNop())
	summary, err := svc.Summary(context.Background(), "tenant_a")
	require.NoError(t, err)

	require.Zero(t, summary.ActiveProjectsCount)
	require.Zero(t, summary.TotalTasksCount)
	require.Zero(t, summary.OverdueTasksCount)
	require.NotNil(t, summary.LatestProjects)
	require.Empty(t, summary.LatestProjects)
}
