package services

import (
	"context"
	"testing"

	"github.com/creativetrack/core/internal/adapters/repository"
	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

func TestResolveSlotsSingleFormat(t *testing.T) {
	// Three tasks in one campaign with quantities 2, 1, 3. Ad numbers run
	// sequentially through the campaign group: [1,2], [3], [4,5,6].
	tasks := []*entities.Task{
		{ID: 1, CampaignID: 10, Quantity: "2x"},
		{ID: 2, CampaignID: 10, Quantity: "1x"},
		{ID: 3, CampaignID: 10, Quantity: "3x"},
	}

	resolved := ResolveSlots(tasks, false)

	wantAdNumbers := []int{1, 2, 3, 4, 5, 6}
	if len(resolved) != len(wantAdNumbers) {
		t.Fatalf("resolved %d slots, want %d", len(resolved), len(wantAdNumbers))
	}
	for i, rs := range resolved {
		if rs.AdNumber != wantAdNumbers[i] {
			t.Errorf("slot %d ad number = %d, want %d", i, rs.AdNumber, wantAdNumbers[i])
		}
		if rs.Format != ports.SlotFormatNone {
			t.Errorf("slot %d format = %q, want none", i, rs.Format)
		}
		if rs.Position != -1 {
			t.Errorf("slot %d position = %d, want -1 before queueing", i, rs.Position)
		}
	}
}

func TestResolveSlotsNumbersPerCampaign(t *testing.T) {
	// Numbering restarts for each campaign group.
	tasks := []*entities.Task{
		{ID: 1, CampaignID: 10, Quantity: "2x"},
		{ID: 2, CampaignID: 20, Quantity: "2x"},
		{ID: 3, CampaignID: 10, Quantity: "1x"},
	}

	resolved := ResolveSlots(tasks, false)

	want := []struct {
		taskID   int
		adNumber int
	}{
		{1, 1}, {1, 2},
		{2, 1}, {2, 2},
		{3, 3},
	}
	if len(resolved) != len(want) {
		t.Fatalf("resolved %d slots, want %d", len(resolved), len(want))
	}
	for i, w := range want {
		if resolved[i].TaskID != w.taskID || resolved[i].AdNumber != w.adNumber {
			t.Errorf("slot %d = task %d ad %d, want task %d ad %d",
				i, resolved[i].TaskID, resolved[i].AdNumber, w.taskID, w.adNumber)
		}
	}
}

func TestResolveSlotsDualFormat(t *testing.T) {
	// A dual-format task with quantity 2 occupies four raw slots: ad
	// numbers [1,1,2,2] alternating primary/secondary.
	tasks := []*entities.Task{
		{ID: 1, CampaignID: 10, Quantity: "2x"},
	}

	resolved := ResolveSlots(tasks, true)

	want := []struct {
		adNumber int
		format   ports.SlotFormat
	}{
		{1, ports.SlotFormatPrimary},
		{1, ports.SlotFormatSecondary},
		{2, ports.SlotFormatPrimary},
		{2, ports.SlotFormatSecondary},
	}
	if len(resolved) != len(want) {
		t.Fatalf("resolved %d slots, want %d", len(resolved), len(want))
	}
	for i, w := range want {
		if resolved[i].AdNumber != w.adNumber || resolved[i].Format != w.format {
			t.Errorf("slot %d = ad %d %s, want ad %d %s",
				i, resolved[i].AdNumber, resolved[i].Format, w.adNumber, w.format)
		}
		if resolved[i].SlotIndex != i {
			t.Errorf("slot %d index = %d", i, resolved[i].SlotIndex)
		}
	}
}

func TestResolveSlotsQuantityChangeRenumbers(t *testing.T) {
	tasks := []*entities.Task{
		{ID: 1, CampaignID: 10, Quantity: "1x"},
		{ID: 2, CampaignID: 10, Quantity: "1x"},
	}

	before := ResolveSlots(tasks, false)
	if before[1].AdNumber != 2 {
		t.Fatalf("task 2 ad number = %d, want 2", before[1].AdNumber)
	}

	// Growing the first task shifts everything after it.
	tasks[0].Quantity = "3x"
	after := ResolveSlots(tasks, false)
	if after[len(after)-1].AdNumber != 4 {
		t.Errorf("task 2 ad number after change = %d, want 4", after[len(after)-1].AdNumber)
	}
}

func TestBuildReviewQueue(t *testing.T) {
	tasks := []*entities.Task{
		{ID: 1, CampaignID: 10, Quantity: "2x", Slots: []entities.Slot{
			{Link: "https://cdn/a.png"},
			{}, // not uploaded yet
		}},
		{ID: 2, CampaignID: 10, Quantity: "2x", Slots: []entities.Slot{
			{Link: "https://cdn/b.png"},
			{Link: "https://cdn/c.png"},
		}},
	}

	queue := BuildReviewQueue(tasks, false)

	if len(queue) != 3 {
		t.Fatalf("queue length = %d, want 3 (empty slots excluded)", len(queue))
	}
	for i, rs := range queue {
		if rs.Position != i {
			t.Errorf("queue[%d].Position = %d", i, rs.Position)
		}
		if rs.Link == "" {
			t.Errorf("queue[%d] has no link", i)
		}
	}

	if got := QueuePosition(queue, 2, 1); got != 2 {
		t.Errorf("QueuePosition(task 2, slot 1) = %d, want 2", got)
	}
	if got := QueuePosition(queue, 1, 1); got != -1 {
		t.Errorf("QueuePosition for unpopulated slot = %d, want -1", got)
	}
	if got := QueuePosition(queue, 99, 0); got != -1 {
		t.Errorf("QueuePosition for unknown task = %d, want -1", got)
	}
}

func TestSlotViewsSurviveDeletedAssignee(t *testing.T) {
	store := repository.NewMemoryStore()
	ctx := context.Background()

	editor := &entities.User{
		Email:      "editor@agency.test",
		Username:   "editor",
		Name:       "Editor",
		Role:       entities.UserRoleTeamMember,
		Department: entities.DepartmentVideoEditing,
		IsActive:   true,
	}
	if err := store.Users().Create(ctx, editor); err != nil {
		t.Fatalf("create user: %v", err)
	}

	task := &entities.Task{
		Title:      "Cutdown reel",
		CampaignID: 1,
		AssigneeID: editor.ID,
		Type:       entities.TaskTypeVideo,
		Status:     entities.TaskStatusInProgress,
		Quantity:   "2x",
		Slots: []entities.Slot{
			{Link: "https://cdn/a.mp4"},
			{Link: "https://cdn/b.mp4"},
		},
	}
	if err := store.Tasks().Create(ctx, task); err != nil {
		t.Fatalf("create task: %v", err)
	}

	svc := NewSlotService(store.Tasks(), store.Users(), logger.NewNop())

	before, err := svc.GetTaskSlots(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskSlots() error = %v", err)
	}
	if len(before) != 4 {
		t.Fatalf("resolved %d slots for video editor, want 4", len(before))
	}

	if err := store.Users().Delete(ctx, editor.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}

	// The task now points at a missing user. The view still resolves,
	// falling back to single-format numbering.
	after, err := svc.GetTaskSlots(ctx, task.ID)
	if err != nil {
		t.Fatalf("GetTaskSlots() after assignee deletion error = %v", err)
	}
	if len(after) != 2 {
		t.Errorf("resolved %d slots after assignee deletion, want 2", len(after))
	}
	for i, rs := range after {
		if rs.Format != ports.SlotFormatNone {
			t.Errorf("slot %d format = %q, want none", i, rs.Format)
		}
		if rs.AdNumber != i+1 {
			t.Errorf("slot %d ad number = %d, want %d", i, rs.AdNumber, i+1)
		}
	}

	queue, err := svc.GetReviewQueue(ctx, editor.ID)
	if err != nil {
		t.Fatalf("GetReviewQueue() after assignee deletion error = %v", err)
	}
	if len(queue) != 2 {
		t.Errorf("queue length after assignee deletion = %d, want 2", len(queue))
	}
}
