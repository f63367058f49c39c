package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// SlotService derives the discrete ad slots a user's tasks represent and
// their campaign-scoped display numbering. Numbering is positional: a
// task's ad-number offset is the sum of declared quantities of the tasks
// preceding it in the same campaign group, so changing an earlier task's
// quantity renumbers later tasks in that campaign. That shift is accepted
// behavior.
type SlotService struct {
	taskRepo ports.TaskRepository
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewSlotService creates a new slot service
func NewSlotService(taskRepo ports.TaskRepository, userRepo ports.UserRepository, logger *logger.Logger) *SlotService {
	return &SlotService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// ResolveSlots expands an ordered task list into raw slots with ad numbers
// and format labels. Dual-format departments occupy two raw slots per
// declared unit: slot i maps to ad number offset + i/2 + 1 and alternates
// primary/secondary by parity. Single-format departments map slot i to
// offset + i + 1 with no label. Positions are not assigned here; see
// BuildReviewQueue.
func ResolveSlots(tasks []*entities.Task, dualFormat bool) []ports.ResolvedSlot {
	offsets := make(map[int]int)
	var resolved []ports.ResolvedSlot

	for _, task := range tasks {
		quantity := task.DeclaredQuantity()
		offset := offsets[task.CampaignID]
		offsets[task.CampaignID] = offset + quantity

		rawCount := quantity
		if dualFormat {
			rawCount = quantity * 2
		}

		for i := 0; i < rawCount; i++ {
			slot := task.SlotAt(i)
			rs := ports.ResolvedSlot{
				TaskID:     task.ID,
				SlotIndex:  i,
				CampaignID: task.CampaignID,
				Link:       slot.Link,
				Approval:   slot.Approval,
				Position:   -1,
			}
			if dualFormat {
				rs.AdNumber = offset + i/2 + 1
				if i%2 == 0 {
					rs.Format = ports.SlotFormatPrimary
				} else {
					rs.Format = ports.SlotFormatSecondary
				}
			} else {
				rs.AdNumber = offset + i + 1
			}
			resolved = append(resolved, rs)
		}
	}

	return resolved
}

// BuildReviewQueue flattens the populated slots of an ordered task list
// into the sequential review queue, assigning each slot its position.
func BuildReviewQueue(tasks []*entities.Task, dualFormat bool) []ports.ResolvedSlot {
	var queue []ports.ResolvedSlot
	for _, rs := range ResolveSlots(tasks, dualFormat) {
		if rs.Link == "" {
			continue
		}
		rs.Position = len(queue)
		queue = append(queue, rs)
	}
	return queue
}

// QueuePosition locates a slot's flat position in the queue by its
// (taskID, slotIndex) pair, or -1 if the slot is not queued.
func QueuePosition(queue []ports.ResolvedSlot, taskID, slotIndex int) int {
	for _, rs := range queue {
		if rs.TaskID == taskID && rs.SlotIndex == slotIndex {
			return rs.Position
		}
	}
	return -1
}

// GetReviewQueue builds the review queue for all of a user's tasks,
// ordered as the store returns them (creation order).
func (s *SlotService) GetReviewQueue(ctx context.Context, userID uuid.UUID) ([]ports.ResolvedSlot, error) {
	tasks, err := s.taskRepo.GetByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user tasks: %w", err)
	}

	return BuildReviewQueue(tasks, s.assigneeDualFormat(ctx, userID)), nil
}

// GetTaskSlots resolves all raw slots of a single task within its
// campaign group, so the numbering matches what the full queue shows.
func (s *SlotService) GetTaskSlots(ctx context.Context, taskID int) ([]ports.ResolvedSlot, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("task not found: %w", err)
	}

	tasks, err := s.taskRepo.GetByAssignee(ctx, task.AssigneeID)
	if err != nil {
		return nil, fmt.Errorf("failed to get assignee tasks: %w", err)
	}

	var own []ports.ResolvedSlot
	for _, rs := range ResolveSlots(tasks, s.assigneeDualFormat(ctx, task.AssigneeID)) {
		if rs.TaskID == taskID {
			own = append(own, rs)
		}
	}
	return own, nil
}

// assigneeDualFormat reports whether the assignee's department uses dual
// formats. A task can outlive its assignee, so a missing user resolves as
// single format rather than failing the view.
func (s *SlotService) assigneeDualFormat(ctx context.Context, userID uuid.UUID) bool {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		s.logger.Warn("slot resolution with missing assignee", "user_id", userID, "error", err)
		return false
	}
	return user.Department.IsDualFormat()
}
