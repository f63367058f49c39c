package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// TaskService owns the entity-store mutation surface for tasks: the task
// status state machine, per-slot approvals, comments, and checklists.
// Role policy is applied here, once per mutator, rather than being left to
// each caller. Validation rejections (empty submission content, empty
// revision feedback, approving a slot with no link) deliberately change
// nothing and return the task unchanged instead of failing.
type TaskService struct {
	taskRepo     ports.TaskRepository
	campaignRepo ports.CampaignRepository
	userRepo     ports.UserRepository
	logger       *logger.Logger
}

// NewTaskService creates a new task service
func NewTaskService(taskRepo ports.TaskRepository, campaignRepo ports.CampaignRepository, userRepo ports.UserRepository, logger *logger.Logger) *TaskService {
	return &TaskService{
		taskRepo:     taskRepo,
		campaignRepo: campaignRepo,
		userRepo:     userRepo,
		logger:       logger,
	}
}

// CreateTask creates a new task assigned to a team member. Managers and
// super admins only.
func (s *TaskService) CreateTask(ctx context.Context, actor *entities.User, req ports.CreateTaskRequest) (*entities.Task, error) {
	if !actor.Role.IsAdmin() {
		return nil, entities.ErrUnauthorized
	}

	campaign, err := s.campaignRepo.GetByID(ctx, req.CampaignID)
	if err != nil {
		return nil, fmt.Errorf("campaign not found: %w", err)
	}
	if !campaign.CanAddTask() {
		return nil, fmt.Errorf("campaign %d is %s: %w", campaign.ID, campaign.Status, entities.ErrInvalidStatus)
	}

	if _, err := s.userRepo.GetByID(ctx, req.AssigneeID); err != nil {
		return nil, fmt.Errorf("assignee not found: %w", err)
	}

	quantity := req.Quantity
	if quantity == "" {
		quantity = "1x"
	}

	checklist := make([]entities.ChecklistItem, len(req.Checklist))
	copy(checklist, req.Checklist)
	for i := range checklist {
		checklist[i].ID = i + 1
	}

	task := &entities.Task{
		CampaignID:  req.CampaignID,
		AssigneeID:  req.AssigneeID,
		Type:        req.Type,
		Priority:    req.Priority,
		Quantity:    quantity,
		Status:      entities.TaskStatusNotStarted,
		Title:       req.Title,
		Description: req.Description,
		Checklist:   checklist,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.logger.Info("Task created", "task_id", task.ID, "campaign_id", task.CampaignID, "assignee_id", task.AssigneeID, "created_by", actor.ID)

	return task, nil
}

// GetTask retrieves a task by ID
func (s *TaskService) GetTask(ctx context.Context, id int) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	return task, nil
}

// UpdateTask shallow-merges the given fields into the task. A non-nil
// Slots field replaces the whole slot slice; single-index patches are not
// part of the contract.
func (s *TaskService) UpdateTask(ctx context.Context, actor *entities.User, id int, req ports.UpdateTaskRequest) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if !actor.Role.IsAdmin() && actor.ID != task.AssigneeID {
		return nil, entities.ErrUnauthorized
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = req.Description
	}
	if req.Priority != nil {
		task.Priority = *req.Priority
	}
	if req.Quantity != nil {
		task.Quantity = *req.Quantity
	}
	if req.CopyWritten != nil {
		task.CopyWritten = *req.CopyWritten
	}
	if req.Slots != nil {
		slots := make([]entities.Slot, len(req.Slots))
		copy(slots, req.Slots)
		task.Slots = slots
	}

	task.UpdatedAt = time.Now()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.logger.Info("Task updated", "task_id", task.ID, "updated_by", actor.ID)

	return task, nil
}

// DeleteTask soft-deletes a task. Managers and super admins only.
func (s *TaskService) DeleteTask(ctx context.Context, actor *entities.User, id int) error {
	if !actor.Role.IsAdmin() {
		return entities.ErrUnauthorized
	}

	if _, err := s.taskRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("task not found: %w", err)
	}

	if err := s.taskRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.logger.Info("Task deleted", "task_id", id, "deleted_by", actor.ID)

	return nil
}

// ListTasks retrieves tasks with filtering and pagination
func (s *TaskService) ListTasks(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, int, error) {
	tasks, err := s.taskRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	total, err := s.taskRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	return tasks, int(total), nil
}

// UpdateTaskStatus drives the task status state machine:
//
//	not_started → in_progress           (assignee)
//	submitted   → approved              (reviewer, optional feedback)
//	submitted   → needs_revision        (reviewer, feedback required)
//
// Submission itself goes through SubmitTask since it carries content.
// A transition the current state does not allow, or a needs_revision
// without feedback, leaves the task untouched.
func (s *TaskService) UpdateTaskStatus(ctx context.Context, actor *entities.User, taskID int, status entities.TaskStatus, feedback string) (*entities.Task, error) {
	if !status.IsValid() {
		return nil, entities.ErrInvalidStatus
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	now := time.Now()
	changed := false

	switch status {
	case entities.TaskStatusInProgress:
		if actor.ID != task.AssigneeID && !actor.Role.IsAdmin() {
			return nil, entities.ErrUnauthorized
		}
		changed = task.Start()
	case entities.TaskStatusApproved:
		if !actor.Role.IsAdmin() {
			return nil, entities.ErrUnauthorized
		}
		changed = task.Approve(actor.ID, feedback, now)
	case entities.TaskStatusNeedsRevision:
		if !actor.Role.IsAdmin() {
			return nil, entities.ErrUnauthorized
		}
		changed = task.RequestRevision(actor.ID, feedback, now)
	default:
		// submitted and not_started are not reachable through the
		// status endpoint
		return task, nil
	}

	if !changed {
		return task, nil
	}

	task.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task status: %w", err)
	}

	s.logger.Info("Task status updated", "task_id", task.ID, "status", task.Status, "actor_id", actor.ID)

	return task, nil
}

// SubmitTask records the assignee's work and moves the task to submitted.
// Empty or whitespace-only content is a no-op.
func (s *TaskService) SubmitTask(ctx context.Context, actor *entities.User, taskID int, content string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if actor.ID != task.AssigneeID && !actor.Role.IsAdmin() {
		return nil, entities.ErrUnauthorized
	}

	now := time.Now()
	if !task.Submit(content, now) {
		return task, nil
	}

	task.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to submit task: %w", err)
	}

	s.logger.Info("Task submitted", "task_id", task.ID, "assignee_id", actor.ID)

	return task, nil
}

// ApproveSlot marks one slot approved. Reviewers only. The slot slice is
// copied, padded, and written back whole. Approving a slot with no link,
// or one already approved, changes nothing observable beyond padding.
func (s *TaskService) ApproveSlot(ctx context.Context, actor *entities.User, taskID, slotIndex int) (*entities.Task, error) {
	if !actor.Role.IsAdmin() {
		return nil, entities.ErrUnauthorized
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	now := time.Now()
	if !task.ApproveSlot(slotIndex, now) {
		return task, nil
	}

	task.UpdatedAt = now
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to approve slot: %w", err)
	}

	s.logger.Info("Slot approved", "task_id", task.ID, "slot_index", slotIndex, "reviewer_id", actor.ID)

	return task, nil
}

// RequestSlotRevision flags one slot needs_review with feedback attached.
// Reviewers only; empty feedback is a no-op.
func (s *TaskService) RequestSlotRevision(ctx context.Context, actor *entities.User, taskID, slotIndex int, feedback string) (*entities.Task, error) {
	if !actor.Role.IsAdmin() {
		return nil, entities.ErrUnauthorized
	}

	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	if !task.FlagSlot(slotIndex, feedback) {
		return task, nil
	}

	task.UpdatedAt = time.Now()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to flag slot: %w", err)
	}

	s.logger.Info("Slot flagged for revision", "task_id", task.ID, "slot_index", slotIndex, "reviewer_id", actor.ID)

	return task, nil
}

// AddComment appends a comment to the task's discussion.
func (s *TaskService) AddComment(ctx context.Context, actor *entities.User, taskID int, text string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	now := time.Now()
	comment := task.AddComment(actor.ID, text, now)
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	s.logger.Info("Comment added", "task_id", task.ID, "comment_id", comment.ID, "user_id", actor.ID)

	return task, nil
}

// ToggleChecklistItem flips one checklist item's completed flag.
func (s *TaskService) ToggleChecklistItem(ctx context.Context, actor *entities.User, taskID, itemID int) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}
	if actor.ID != task.AssigneeID && !actor.Role.IsAdmin() {
		return nil, entities.ErrUnauthorized
	}

	if !task.ToggleChecklistItem(itemID) {
		return nil, entities.ErrChecklistItemNotFound
	}

	task.UpdatedAt = time.Now()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to toggle checklist item: %w", err)
	}

	return task, nil
}

// SetSlotLink replaces one slot's asset link after a completed upload and
// resets its approval. Called by the upload manager, not exposed over HTTP
// directly.
func (s *TaskService) SetSlotLink(ctx context.Context, taskID, slotIndex int, link string) (*entities.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	if !task.SetSlotLink(slotIndex, link) {
		return task, nil
	}

	task.UpdatedAt = time.Now()
	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to set slot link: %w", err)
	}

	s.logger.Info("Slot link replaced", "task_id", task.ID, "slot_index", slotIndex)

	return task, nil
}

// GetUserTasks gets all tasks assigned to a user
func (s *TaskService) GetUserTasks(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	tasks, err := s.taskRepo.GetByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user tasks: %w", err)
	}
	return tasks, nil
}
