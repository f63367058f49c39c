package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/creativetrack/core/internal/adapters/repository"
	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

type taskFixture struct {
	store    *repository.MemoryStore
	svc      *TaskService
	manager  *entities.User
	assignee *entities.User
	campaign *entities.Campaign
}

func newTaskFixture(t *testing.T) *taskFixture {
	t.Helper()

	store := repository.NewMemoryStore()
	ctx := context.Background()

	manager := &entities.User{
		Email:      "manager@agency.test",
		Username:   "manager",
		Name:       "Manager",
		Role:       entities.UserRoleManager,
		Department: entities.DepartmentDesign,
		IsActive:   true,
	}
	assignee := &entities.User{
		Email:      "designer@agency.test",
		Username:   "designer",
		Name:       "Designer",
		Role:       entities.UserRoleTeamMember,
		Department: entities.DepartmentDesign,
		IsActive:   true,
	}
	for _, u := range []*entities.User{manager, assignee} {
		if err := store.Users().Create(ctx, u); err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	campaign := &entities.Campaign{
		Name:   "Summer Sale",
		Client: "Acme",
		Status: entities.CampaignStatusActive,
	}
	if err := store.Campaigns().Create(ctx, campaign); err != nil {
		t.Fatalf("create campaign: %v", err)
	}

	return &taskFixture{
		store:    store,
		svc:      NewTaskService(store.Tasks(), store.Campaigns(), store.Users(), logger.NewNop()),
		manager:  manager,
		assignee: assignee,
		campaign: campaign,
	}
}

func (f *taskFixture) createTask(t *testing.T, checklist []entities.ChecklistItem) *entities.Task {
	t.Helper()
	task, err := f.svc.CreateTask(context.Background(), f.manager, ports.CreateTaskRequest{
		Title:      "Launch banner",
		CampaignID: f.campaign.ID,
		AssigneeID: f.assignee.ID,
		Type:       entities.TaskTypeImage,
		Priority:   entities.TaskPriorityNormal,
		Quantity:   "3x",
		Checklist:  checklist,
	})
	if err != nil {
		t.Fatalf("CreateTask() error = %v", err)
	}
	return task
}

func (f *taskFixture) reload(t *testing.T, id int) *entities.Task {
	t.Helper()
	task, err := f.store.Tasks().GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("reload task %d: %v", id, err)
	}
	return task
}

func TestCreateTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	t.Run("normalizes checklist ids and defaults", func(t *testing.T) {
		task := f.createTask(t, []entities.ChecklistItem{
			{ID: 99, Text: "export at 2x"},
			{ID: 99, Text: "check safe margins"},
		})
		if task.Status != entities.TaskStatusNotStarted {
			t.Errorf("status = %q, want not_started", task.Status)
		}
		if task.Checklist[0].ID != 1 || task.Checklist[1].ID != 2 {
			t.Errorf("checklist ids = %d, %d, want 1, 2", task.Checklist[0].ID, task.Checklist[1].ID)
		}
	})

	t.Run("empty quantity defaults to one", func(t *testing.T) {
		task, err := f.svc.CreateTask(ctx, f.manager, ports.CreateTaskRequest{
			Title:      "Single ad",
			CampaignID: f.campaign.ID,
			AssigneeID: f.assignee.ID,
			Type:       entities.TaskTypeImage,
			Priority:   entities.TaskPriorityLow,
		})
		if err != nil {
			t.Fatalf("CreateTask() error = %v", err)
		}
		if task.Quantity != "1x" {
			t.Errorf("quantity = %q, want 1x", task.Quantity)
		}
	})

	t.Run("team member cannot create", func(t *testing.T) {
		_, err := f.svc.CreateTask(ctx, f.assignee, ports.CreateTaskRequest{
			Title:      "Rogue task",
			CampaignID: f.campaign.ID,
			AssigneeID: f.assignee.ID,
			Type:       entities.TaskTypeImage,
			Priority:   entities.TaskPriorityNormal,
		})
		if !errors.Is(err, entities.ErrUnauthorized) {
			t.Fatalf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("completed campaign rejects tasks", func(t *testing.T) {
		closed := &entities.Campaign{Name: "Done", Client: "Acme", Status: entities.CampaignStatusCompleted}
		if err := f.store.Campaigns().Create(ctx, closed); err != nil {
			t.Fatalf("create campaign: %v", err)
		}
		_, err := f.svc.CreateTask(ctx, f.manager, ports.CreateTaskRequest{
			Title:      "Late task",
			CampaignID: closed.ID,
			AssigneeID: f.assignee.ID,
			Type:       entities.TaskTypeImage,
			Priority:   entities.TaskPriorityNormal,
		})
		if !errors.Is(err, entities.ErrInvalidStatus) {
			t.Fatalf("error = %v, want ErrInvalidStatus", err)
		}
	})
}

func TestTaskStatusTransitions(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	t.Run("assignee starts work", func(t *testing.T) {
		task := f.createTask(t, nil)
		updated, err := f.svc.UpdateTaskStatus(ctx, f.assignee, task.ID, entities.TaskStatusInProgress, "")
		if err != nil {
			t.Fatalf("UpdateTaskStatus() error = %v", err)
		}
		if updated.Status != entities.TaskStatusInProgress {
			t.Errorf("status = %q, want in_progress", updated.Status)
		}
	})

	t.Run("approve before submission is a no-op", func(t *testing.T) {
		task := f.createTask(t, nil)
		updated, err := f.svc.UpdateTaskStatus(ctx, f.manager, task.ID, entities.TaskStatusApproved, "")
		if err != nil {
			t.Fatalf("UpdateTaskStatus() error = %v", err)
		}
		if updated.Status != entities.TaskStatusNotStarted {
			t.Errorf("status = %q, want unchanged not_started", updated.Status)
		}
	})

	t.Run("submit then approve", func(t *testing.T) {
		task := f.createTask(t, nil)
		if _, err := f.svc.SubmitTask(ctx, f.assignee, task.ID, "drafts in the drive folder"); err != nil {
			t.Fatalf("SubmitTask() error = %v", err)
		}
		updated, err := f.svc.UpdateTaskStatus(ctx, f.manager, task.ID, entities.TaskStatusApproved, "ship it")
		if err != nil {
			t.Fatalf("UpdateTaskStatus() error = %v", err)
		}
		if updated.Status != entities.TaskStatusApproved {
			t.Errorf("status = %q, want approved", updated.Status)
		}
		if updated.ApprovedBy == nil || *updated.ApprovedBy != f.manager.ID {
			t.Errorf("approved_by = %v, want manager", updated.ApprovedBy)
		}
	})

	t.Run("revision requires feedback", func(t *testing.T) {
		task := f.createTask(t, nil)
		if _, err := f.svc.SubmitTask(ctx, f.assignee, task.ID, "first pass"); err != nil {
			t.Fatalf("SubmitTask() error = %v", err)
		}
		updated, err := f.svc.UpdateTaskStatus(ctx, f.manager, task.ID, entities.TaskStatusNeedsRevision, "   ")
		if err != nil {
			t.Fatalf("UpdateTaskStatus() error = %v", err)
		}
		if updated.Status != entities.TaskStatusSubmitted {
			t.Errorf("status = %q, want unchanged submitted", updated.Status)
		}

		updated, err = f.svc.UpdateTaskStatus(ctx, f.manager, task.ID, entities.TaskStatusNeedsRevision, "wrong aspect ratio")
		if err != nil {
			t.Fatalf("UpdateTaskStatus() error = %v", err)
		}
		if updated.Status != entities.TaskStatusNeedsRevision {
			t.Errorf("status = %q, want needs_revision", updated.Status)
		}
		if updated.Feedback != "wrong aspect ratio" {
			t.Errorf("feedback = %q", updated.Feedback)
		}
	})

	t.Run("team member cannot review", func(t *testing.T) {
		task := f.createTask(t, nil)
		if _, err := f.svc.SubmitTask(ctx, f.assignee, task.ID, "work"); err != nil {
			t.Fatalf("SubmitTask() error = %v", err)
		}
		_, err := f.svc.UpdateTaskStatus(ctx, f.assignee, task.ID, entities.TaskStatusApproved, "")
		if !errors.Is(err, entities.ErrUnauthorized) {
			t.Fatalf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("invalid status rejected", func(t *testing.T) {
		task := f.createTask(t, nil)
		_, err := f.svc.UpdateTaskStatus(ctx, f.manager, task.ID, entities.TaskStatus("archived"), "")
		if !errors.Is(err, entities.ErrInvalidStatus) {
			t.Fatalf("error = %v, want ErrInvalidStatus", err)
		}
	})
}

func TestSubmitTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	t.Run("whitespace content changes nothing", func(t *testing.T) {
		task := f.createTask(t, nil)
		updated, err := f.svc.SubmitTask(ctx, f.assignee, task.ID, "   \n\t")
		if err != nil {
			t.Fatalf("SubmitTask() error = %v", err)
		}
		if updated.Status != entities.TaskStatusNotStarted || updated.SubmittedAt != nil {
			t.Errorf("task = %q/%v, want untouched", updated.Status, updated.SubmittedAt)
		}
	})

	t.Run("foreign team member rejected", func(t *testing.T) {
		task := f.createTask(t, nil)
		stranger := &entities.User{ID: uuid.New(), Role: entities.UserRoleTeamMember}
		_, err := f.svc.SubmitTask(ctx, stranger, task.ID, "not my task")
		if !errors.Is(err, entities.ErrUnauthorized) {
			t.Fatalf("error = %v, want ErrUnauthorized", err)
		}
	})
}

func TestSlotReview(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	t.Run("approve persists", func(t *testing.T) {
		task := f.createTask(t, nil)
		if _, err := f.svc.SetSlotLink(ctx, task.ID, 0, "https://cdn/a.png"); err != nil {
			t.Fatalf("SetSlotLink() error = %v", err)
		}
		updated, err := f.svc.ApproveSlot(ctx, f.manager, task.ID, 0)
		if err != nil {
			t.Fatalf("ApproveSlot() error = %v", err)
		}
		if updated.SlotAt(0).Approval != entities.SlotApproved {
			t.Errorf("approval = %q, want approved", updated.SlotAt(0).Approval)
		}

		stored := f.reload(t, task.ID)
		if stored.SlotAt(0).Approval != entities.SlotApproved {
			t.Error("approval did not persist")
		}
	})

	t.Run("team member cannot approve", func(t *testing.T) {
		task := f.createTask(t, nil)
		_, err := f.svc.ApproveSlot(ctx, f.assignee, task.ID, 0)
		if !errors.Is(err, entities.ErrUnauthorized) {
			t.Fatalf("error = %v, want ErrUnauthorized", err)
		}
	})

	t.Run("revision attaches slot feedback", func(t *testing.T) {
		task := f.createTask(t, nil)
		if _, err := f.svc.SetSlotLink(ctx, task.ID, 1, "https://cdn/b.png"); err != nil {
			t.Fatalf("SetSlotLink() error = %v", err)
		}
		updated, err := f.svc.RequestSlotRevision(ctx, f.manager, task.ID, 1, "colors off brand")
		if err != nil {
			t.Fatalf("RequestSlotRevision() error = %v", err)
		}
		slot := updated.SlotAt(1)
		if slot.Approval != entities.SlotNeedsReview || slot.Feedback != "colors off brand" {
			t.Errorf("slot = %+v", slot)
		}
	})

	t.Run("new upload resets approval", func(t *testing.T) {
		task := f.createTask(t, nil)
		if _, err := f.svc.SetSlotLink(ctx, task.ID, 0, "https://cdn/v1.png"); err != nil {
			t.Fatalf("SetSlotLink() error = %v", err)
		}
		if _, err := f.svc.ApproveSlot(ctx, f.manager, task.ID, 0); err != nil {
			t.Fatalf("ApproveSlot() error = %v", err)
		}
		updated, err := f.svc.SetSlotLink(ctx, task.ID, 0, "https://cdn/v2.png")
		if err != nil {
			t.Fatalf("SetSlotLink() error = %v", err)
		}
		slot := updated.SlotAt(0)
		if slot.Link != "https://cdn/v2.png" || slot.Approval != entities.SlotNotDone || slot.ApprovedAt != nil {
			t.Errorf("slot after replacement = %+v", slot)
		}
	})
}

func TestAddCommentAndChecklist(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	t.Run("comment ids increment", func(t *testing.T) {
		task := f.createTask(t, nil)
		if _, err := f.svc.AddComment(ctx, f.assignee, task.ID, "first draft up"); err != nil {
			t.Fatalf("AddComment() error = %v", err)
		}
		updated, err := f.svc.AddComment(ctx, f.manager, task.ID, "looks good")
		if err != nil {
			t.Fatalf("AddComment() error = %v", err)
		}
		if len(updated.Comments) != 2 {
			t.Fatalf("comments = %d, want 2", len(updated.Comments))
		}
		if updated.Comments[0].ID != 1 || updated.Comments[1].ID != 2 {
			t.Errorf("comment ids = %d, %d, want 1, 2", updated.Comments[0].ID, updated.Comments[1].ID)
		}
	})

	t.Run("toggle flips and persists", func(t *testing.T) {
		task := f.createTask(t, []entities.ChecklistItem{{Text: "export at 2x"}})
		updated, err := f.svc.ToggleChecklistItem(ctx, f.assignee, task.ID, 1)
		if err != nil {
			t.Fatalf("ToggleChecklistItem() error = %v", err)
		}
		if !updated.Checklist[0].Completed {
			t.Error("item not completed after toggle")
		}

		stored := f.reload(t, task.ID)
		if !stored.Checklist[0].Completed {
			t.Error("toggle did not persist")
		}
	})

	t.Run("unknown item", func(t *testing.T) {
		task := f.createTask(t, nil)
		_, err := f.svc.ToggleChecklistItem(ctx, f.assignee, task.ID, 42)
		if !errors.Is(err, entities.ErrChecklistItemNotFound) {
			t.Fatalf("error = %v, want ErrChecklistItemNotFound", err)
		}
	})
}

func TestDeleteTask(t *testing.T) {
	f := newTaskFixture(t)
	ctx := context.Background()

	task := f.createTask(t, nil)

	if err := f.svc.DeleteTask(ctx, f.assignee, task.ID); !errors.Is(err, entities.ErrUnauthorized) {
		t.Fatalf("team member delete error = %v, want ErrUnauthorized", err)
	}

	if err := f.svc.DeleteTask(ctx, f.manager, task.ID); err != nil {
		t.Fatalf("DeleteTask() error = %v", err)
	}
	if _, err := f.store.Tasks().GetByID(ctx, task.ID); !errors.Is(err, entities.ErrTaskNotFound) {
		t.Fatalf("GetByID after delete error = %v, want ErrTaskNotFound", err)
	}
}
