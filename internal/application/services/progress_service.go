package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// ProgressService computes weekly completion per campaign+week bucket.
// Media-buyer-like departments count a task complete when its copy-written
// flag is set; creative departments require at least one populated slot
// with every populated slot approved. The asymmetry is intentional:
// media-buyer completion is about authoring the copy artifact, creative
// completion is about full slot-level sign-off.
type ProgressService struct {
	taskRepo ports.TaskRepository
	userRepo ports.UserRepository
	logger   *logger.Logger
}

// NewProgressService creates a new progress service
func NewProgressService(taskRepo ports.TaskRepository, userRepo ports.UserRepository, logger *logger.Logger) *ProgressService {
	return &ProgressService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		logger:   logger,
	}
}

// GetUserProgress builds a user's weekly progress report across all their
// tasks.
func (s *ProgressService) GetUserProgress(ctx context.Context, userID uuid.UUID) (*ports.ProgressReport, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("user not found: %w", err)
	}

	tasks, err := s.taskRepo.GetByAssignee(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user tasks: %w", err)
	}

	return &ports.ProgressReport{
		UserID:     user.ID,
		Department: user.Department,
		Weeks:      AggregateWeekly(tasks, user.Department),
	}, nil
}

// AggregateWeekly groups tasks by campaign+week and counts completions
// under the department's completion rule.
func AggregateWeekly(tasks []*entities.Task, department entities.Department) []ports.WeeklyProgress {
	type bucketKey struct {
		campaignID int
		week       string
	}

	buckets := make(map[bucketKey]*ports.WeeklyProgress)
	var order []bucketKey

	for _, task := range tasks {
		key := bucketKey{campaignID: task.CampaignID, week: task.Week()}
		bucket, ok := buckets[key]
		if !ok {
			bucket = &ports.WeeklyProgress{CampaignID: key.campaignID, Week: key.week}
			buckets[key] = bucket
			order = append(order, key)
		}
		bucket.Total++
		if taskComplete(task, department) {
			bucket.Completed++
		}
	}

	weeks := make([]ports.WeeklyProgress, 0, len(order))
	for _, key := range order {
		weeks = append(weeks, *buckets[key])
	}
	sort.SliceStable(weeks, func(i, j int) bool {
		if weeks[i].Week != weeks[j].Week {
			return weeks[i].Week > weeks[j].Week
		}
		return weeks[i].CampaignID < weeks[j].CampaignID
	})

	return weeks
}

func taskComplete(task *entities.Task, department entities.Department) bool {
	if department.IsMediaBuyerLike() {
		return task.CopyWritten
	}
	return task.IsFullyApproved()
}
