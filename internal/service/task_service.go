package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarttasks/internal/events"
	"smarttasks/internal/model"
	"smarttasks/internal/repository"
	"smarttasks/pkg/metrics"
	"smarttasks/pkg/mq"
)

type TaskService struct {
	taskRepo    *repository.TaskRepository
	projectRepo *repository.ProjectRepository
	publisher   *mq.Publisher
	logger      *zap.Logger
}

func NewTaskService(taskRepo *repository.TaskRepository, projectRepo *repository.ProjectRepository, publisher *mq.Publisher, logger *zap.Logger) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		publisher:   publisher,
		logger:      logger,
	}
}

// Create inserts a task under an existing project. A missing project
// surfaces as repository.ErrNotFound.
func (s *TaskService) Create(ctx context.Context, tenantID, projectID, title, description string, dueDate *time.Time) (*model.Task, error) {
	if _, err := s.projectRepo.FindByID(ctx, tenantID, projectID); err != nil {
		return nil, err
	}

	t := &model.Task{
		ID:          uuid.NewString(),
		TenantID:    tenantID,
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		DueDate:     dueDate,
	}
	if err := s.taskRepo.Insert(ctx, t); err != nil {
		return nil, err
	}

	metrics.EntityCreatedCount.WithLabelValues("task").Inc()
	s.publish(events.TaskCreated, events.TaskCreatedPayload{
		TaskID:    t.ID,
		ProjectID: t.ProjectID,
		TenantID:  t.TenantID,
		Title:     t.Title,
		DueDate:   t.DueDate,
		CreatedAt: t.CreatedAt,
	})
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, tenantID, id string) (*model.Task, error) {
	return s.taskRepo.FindByID(ctx, tenantID, id)
}

func (s *TaskService) ListByProject(ctx context.Context, tenantID, projectID string, page, size int) (model.Page[model.Task], error) {
	if _, err := s.projectRepo.FindByID(ctx, tenantID, projectID); err != nil {
		return model.Page[model.Task]{}, err
	}

	page, size = model.ClampPageSize(page, size)
	tasks, total, err := s.taskRepo.ListByProject(ctx, tenantID, projectID, page, size)
	if err != nil {
		return model.Page[model.Task]{}, err
	}
	return model.NewPage(tasks, page, size, total), nil
}

func (s *TaskService) publish(routingKey string, payload any) {
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
