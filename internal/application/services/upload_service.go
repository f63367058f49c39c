package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// ErrUploadCancelled is returned when an in-flight upload is cancelled by
// its "{taskID}-{slotIndex}" key.
var ErrUploadCancelled = errors.New("upload cancelled")

type inflightUpload struct {
	cancel  context.CancelFunc
	percent int
}

// UploadService streams slot files through the upload transport, tracking
// per-key progress and supporting explicit cancellation. A cancelled
// upload removes its progress entry and applies nothing; a completed one
// replaces the slot's link through the task service, which resets the
// slot's approval for the new version.
type UploadService struct {
	transport    ports.UploadTransport
	taskService  *TaskService
	taskRepo     ports.TaskRepository
	userRepo     ports.UserRepository
	campaignRepo ports.CampaignRepository
	logger       *logger.Logger

	mu      sync.Mutex
	uploads map[string]*inflightUpload
}

// NewUploadService creates a new upload service
func NewUploadService(transport ports.UploadTransport, taskService *TaskService, taskRepo ports.TaskRepository, userRepo ports.UserRepository, campaignRepo ports.CampaignRepository, logger *logger.Logger) *UploadService {
	return &UploadService{
		transport:    transport,
		taskService:  taskService,
		taskRepo:     taskRepo,
		userRepo:     userRepo,
		campaignRepo: campaignRepo,
		logger:       logger,
		uploads:      make(map[string]*inflightUpload),
	}
}

// UploadKey builds the progress key for a (taskID, slotIndex) pair.
func UploadKey(taskID, slotIndex int) string {
	return fmt.Sprintf("%d-%d", taskID, slotIndex)
}

// Upload streams one slot's file to storage and, on success, replaces the
// slot's link. The assignee and reviewers may upload. The transfer runs on
// the caller's goroutine; CancelUpload aborts it from another.
func (s *UploadService) Upload(ctx context.Context, actor *entities.User, taskID, slotIndex int, fileName, contentType string, size int64, body io.Reader) (*entities.Task, error) {
	if slotIndex < 0 {
		return nil, fmt.Errorf("invalid slot index %d", slotIndex)
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if actor.ID != task.AssigneeID && !actor.Role.IsAdmin() {
		return nil, entities.ErrUnauthorized
	}

	// Reference gaps degrade: the transport can name objects without a
	// campaign or assignee record.
	campaign, err := s.campaignRepo.GetByID(ctx, task.CampaignID)
	if err != nil {
		campaign = nil
	}
	assignee, err := s.userRepo.GetByID(ctx, task.AssigneeID)
	if err != nil {
		assignee = nil
	}

	key := UploadKey(taskID, slotIndex)
	uploadCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	entry := &inflightUpload{cancel: cancel}
	s.mu.Lock()
	if _, exists := s.uploads[key]; exists {
		s.mu.Unlock()
		return nil, fmt.Errorf("upload already in flight for %s", key)
	}
	s.uploads[key] = entry
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.uploads, key)
		s.mu.Unlock()
	}()

	req := ports.UploadRequest{
		TaskID:      taskID,
		SlotIndex:   slotIndex,
		FileName:    fileName,
		Size:        size,
		ContentType: contentType,
		Body:        body,
		Task:        task,
		Assignee:    assignee,
		Campaign:    campaign,
		PreviousURL: task.SlotAt(slotIndex).Link,
	}

	url, err := s.transport.Upload(uploadCtx, req, func(percent int) {
		s.mu.Lock()
		entry.percent = percent
		s.mu.Unlock()
	})
	if err != nil {
		if uploadCtx.Err() != nil {
			s.logger.Info("Upload cancelled", "key", key)
			return nil, ErrUploadCancelled
		}
		return nil, fmt.Errorf("upload failed: %w", err)
	}

	updated, err := s.taskService.SetSlotLink(ctx, taskID, slotIndex, url)
	if err != nil {
		return nil, fmt.Errorf("failed to record uploaded link: %w", err)
	}

	s.logger.Info("Slot file uploaded", "key", key, "url", url, "uploaded_by", actor.ID)

	return updated, nil
}

// CancelUpload aborts the in-flight upload for the given key and drops its
// progress entry. No partial result is applied.
func (s *UploadService) CancelUpload(key string) error {
	s.mu.Lock()
	entry, ok := s.uploads[key]
	if ok {
		delete(s.uploads, key)
	}
	s.mu.Unlock()

	if !ok {
		return entities.ErrUploadNotFound
	}

	entry.cancel()
	return nil
}

// Progress reports the current percentage for one key.
func (s *UploadService) Progress(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.uploads[key]
	if !ok {
		return 0, false
	}
	return entry.percent, true
}

// ListProgress snapshots all in-flight uploads.
func (s *UploadService) ListProgress() []ports.UploadStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses := make([]ports.UploadStatus, 0, len(s.uploads))
	for key, entry := range s.uploads {
		statuses = append(statuses, ports.UploadStatus{Key: key, Percent: entry.percent})
	}
	return statuses
}
