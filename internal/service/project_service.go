package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarttasks/internal/events"
	"smarttasks/internal/model"
	"smarttasks/internal/repository"
	"smarttasks/pkg/metrics"
	"smarttasks/pkg/mq"
)

type ProjectService struct {
	projectRepo *repository.ProjectRepository
	publisher   *mq.Publisher
	logger      *zap.Logger
}

func NewProjectService(projectRepo *repository.ProjectRepository, publisher *mq.Publisher, logger *zap.Logger) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

func (s *ProjectService) Create(ctx context.Context, tenantID, name string) (*model.Project, error) {
	p := &model.Project{
		ID:       uuid.NewString(),
		TenantID: tenantID,
		Name:     name,
	}
	if err := s.projectRepo.Insert(ctx, p); err != nil {
		return nil, err
	}

	metrics.EntityCreatedCount.WithLabelValues("project").Inc()
	s.publish(events.ProjectCreated, events.ProjectCreatedPayload{
		ProjectID: p.ID,
		TenantID:  p.TenantID,
		Name:      p.Name,
		CreatedAt: p.CreatedAt,
	})
	return p, nil
}

func (s *ProjectService) Get(ctx context.Context, tenantID, id string) (*model.Project, error) {
	return s.projectRepo.FindByID(ctx, tenantID, id)
}

func (s *ProjectService) List(ctx context.Context, tenantID string, page, size int) (model.Page[model.Project], error) {
	page, size = model.ClampPageSize(page, size)
	projects, total, err := s.projectRepo.ListByTenant(ctx, tenantID, page, size)
	if err != nil {
		return model.Page[model.Project]{}, err
	}
	return model.NewPage(projects, page, size, total), nil
}

// publish sends a domain event, best effort. Event delivery never fails a
// request.
func (s *ProjectService) publish(routingKey string, payload any) {
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
