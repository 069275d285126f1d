package service

import (
	"context"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"smarttasks/internal/events"
	"smarttasks/internal/model"
	"smarttasks/internal/repository"
	"smarttasks/internal/storage"
	"smarttasks/pkg/metrics"
	"smarttasks/pkg/mq"
)

// Download bundles an attachment payload stream with the metadata a caller
// needs to serve or save it.
type Download struct {
	Content      io.ReadCloser
	OriginalName string
	MimeType     string
	Size         int64
}

type AttachmentService struct {
	attachmentRepo *repository.AttachmentRepository
	taskRepo       *repository.TaskRepository
	store          storage.Store
	publisher      *mq.Publisher
	logger         *zap.Logger
}

func NewAttachmentService(
	attachmentRepo *repository.AttachmentRepository,
	taskRepo *repository.TaskRepository,
	store storage.Store,
	publisher *mq.Publisher,
	logger *zap.Logger,
) *AttachmentService {
	return &AttachmentService{
		attachmentRepo: attachmentRepo,
		taskRepo:       taskRepo,
		store:          store,
		publisher:      publisher,
		logger:         logger,
	}
}

// Upload stores the payload under a fresh object key and records the
// attachment against an existing task.
func (s *AttachmentService) Upload(ctx context.Context, tenantID, taskID, originalName, mimeType string, size int64, r io.Reader) (*model.Attachment, error) {
	if _, err := s.taskRepo.FindByID(ctx, tenantID, taskID); err != nil {
		return nil, err
	}

	objectKey := uuid.NewString()
	if err := s.store.Save(ctx, objectKey, mimeType, size, r); err != nil {
		return nil, fmt.Errorf("save attachment payload: %w", err)
	}

	a := &model.Attachment{
		ID:           uuid.NewString(),
		TenantID:     tenantID,
		TaskID:       taskID,
		OriginalName: originalName,
		Size:         size,
		MimeType:     mimeType,
		ObjectKey:    objectKey,
	}
	if err := s.attachmentRepo.Insert(ctx, a); err != nil {
		return nil, err
	}
	a.DownloadURL = DownloadPath(a.ID)

	metrics.EntityCreatedCount.WithLabelValues("attachment").Inc()
	metrics.AttachmentBytes.WithLabelValues("upload").Add(float64(size))
	s.publish(events.AttachmentUploaded, events.AttachmentUploadedPayload{
		AttachmentID: a.ID,
		TaskID:       a.TaskID,
		TenantID:     a.TenantID,
		OriginalName: a.OriginalName,
		Size:         a.Size,
		MimeType:     a.MimeType,
		CreatedAt:    a.CreatedAt,
	})
	return a, nil
}

func (s *AttachmentService) ListByTask(ctx context.Context, tenantID, taskID string, page, size int) (model.Page[model.Attachment], error) {
	if _, err := s.taskRepo.FindByID(ctx, tenantID, taskID); err != nil {
		return model.Page[model.Attachment]{}, err
	}

	page, size = model.ClampPageSize(page, size)
	attachments, total, err := s.attachmentRepo.ListByTask(ctx, tenantID, taskID, page, size)
	if err != nil {
		return model.Page[model.Attachment]{}, err
	}
	for i := range attachments {
		attachments[i].DownloadURL = DownloadPath(attachments[i].ID)
	}
	return model.NewPage(attachments, page, size, total), nil
}

// OpenDownload resolves an attachment and opens its payload stream. The
// caller owns the stream.
func (s *AttachmentService) OpenDownload(ctx context.Context, tenantID, id string) (*Download, error) {
	a, err := s.attachmentRepo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	content, err := s.store.Open(ctx, a.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("open attachment payload: %w", err)
	}

	metrics.AttachmentBytes.WithLabelValues("download").Add(float64(a.Size))
	return &Download{
		Content:      content,
		OriginalName: a.OriginalName,
		MimeType:     a.MimeType,
		Size:         a.Size,
	}, nil
}

// DownloadPath is the API path serving an attachment's payload.
func DownloadPath(attachmentID string) string {
	return "/api/attachments/" + attachmentID + "/download"
}

func (s *AttachmentService) publish(routingKey string, payload any) {
	if err := s.publisher.Publish(routingKey, payload); err != nil {
		s.logger.Warn("Failed to publish event",
			zap.String("routing_key", routingKey),
			zap.Error(err),
		)
	}
}
