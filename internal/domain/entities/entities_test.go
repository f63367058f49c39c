package entities

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestDeclaredQuantity(t *testing.T) {
	tests := []struct {
		name     string
		quantity string
		want     int
	}{
		{"suffixed", "3x", 3},
		{"bare number", "5", 5},
		{"uppercase suffix", "2X", 2},
		{"padded", " 4x ", 4},
		{"empty", "", 1},
		{"garbage", "many", 1},
		{"zero", "0x", 1},
		{"negative", "-2x", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{Quantity: tt.quantity}
			if got := task.DeclaredQuantity(); got != tt.want {
				t.Errorf("DeclaredQuantity() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	now := time.Now()
	reviewer := uuid.New()

	t.Run("start from not_started", func(t *testing.T) {
		task := Task{Status: TaskStatusNotStarted}
		if !task.Start() {
			t.Fatal("Start() = false, want true")
		}
		if task.Status != TaskStatusInProgress {
			t.Errorf("status = %s, want in_progress", task.Status)
		}
	})

	t.Run("start is a no-op elsewhere", func(t *testing.T) {
		for _, status := range []TaskStatus{TaskStatusInProgress, TaskStatusSubmitted, TaskStatusApproved, TaskStatusNeedsRevision} {
			task := Task{Status: status}
			if task.Start() {
				t.Errorf("Start() from %s = true, want false", status)
			}
			if task.Status != status {
				t.Errorf("status changed from %s to %s", status, task.Status)
			}
		}
	})

	t.Run("submit records content and timestamp", func(t *testing.T) {
		task := Task{Status: TaskStatusInProgress}
		if !task.Submit("final copy v2", now) {
			t.Fatal("Submit() = false, want true")
		}
		if task.Status != TaskStatusSubmitted {
			t.Errorf("status = %s, want submitted", task.Status)
		}
		if task.SubmittedContent != "final copy v2" {
			t.Errorf("content = %q", task.SubmittedContent)
		}
		if task.SubmittedAt == nil || !task.SubmittedAt.Equal(now) {
			t.Error("submitted_at not stamped")
		}
	})

	t.Run("submit rejects whitespace content", func(t *testing.T) {
		task := Task{Status: TaskStatusInProgress}
		if task.Submit("   \t\n", now) {
			t.Fatal("Submit() with whitespace = true, want false")
		}
		if task.Status != TaskStatusInProgress {
			t.Errorf("status changed to %s", task.Status)
		}
		if task.SubmittedAt != nil {
			t.Error("submitted_at stamped on rejected submit")
		}
	})

	t.Run("resubmit after revision", func(t *testing.T) {
		task := Task{Status: TaskStatusNeedsRevision}
		if !task.Submit("revised copy", now) {
			t.Fatal("Submit() after revision = false, want true")
		}
		if task.Status != TaskStatusSubmitted {
			t.Errorf("status = %s, want submitted", task.Status)
		}
	})

	t.Run("approve only from submitted", func(t *testing.T) {
		task := Task{Status: TaskStatusSubmitted}
		if !task.Approve(reviewer, "nice work", now) {
			t.Fatal("Approve() = false, want true")
		}
		if task.Status != TaskStatusApproved {
			t.Errorf("status = %s, want approved", task.Status)
		}
		if task.ApprovedBy == nil || *task.ApprovedBy != reviewer {
			t.Error("approved_by not stamped")
		}
		if task.ReviewedAt == nil {
			t.Error("reviewed_at not stamped")
		}

		fresh := Task{Status: TaskStatusInProgress}
		if fresh.Approve(reviewer, "", now) {
			t.Error("Approve() from in_progress = true, want false")
		}
	})

	t.Run("revision requires feedback", func(t *testing.T) {
		task := Task{Status: TaskStatusSubmitted}
		if task.RequestRevision(reviewer, "  ", now) {
			t.Fatal("RequestRevision() with blank feedback = true, want false")
		}
		if task.Status != TaskStatusSubmitted {
			t.Errorf("status changed to %s", task.Status)
		}

		if !task.RequestRevision(reviewer, "logo is off-brand", now) {
			t.Fatal("RequestRevision() = false, want true")
		}
		if task.Status != TaskStatusNeedsRevision {
			t.Errorf("status = %s, want needs_revision", task.Status)
		}
		if task.Feedback != "logo is off-brand" {
			t.Errorf("feedback = %q", task.Feedback)
		}
	})
}

func TestSlotAt(t *testing.T) {
	task := Task{Slots: []Slot{{Link: "https://cdn/a.png", Approval: SlotApproved}}}

	got := task.SlotAt(0)
	if got.Link != "https://cdn/a.png" || got.Approval != SlotApproved {
		t.Errorf("SlotAt(0) = %+v", got)
	}

	// Indexes past the stored slice default to an empty not_done slot.
	for _, i := range []int{1, 5, -1} {
		got := task.SlotAt(i)
		if got.Link != "" || got.Approval != SlotNotDone {
			t.Errorf("SlotAt(%d) = %+v, want empty not_done", i, got)
		}
	}
}

func TestApproveSlot(t *testing.T) {
	now := time.Now()

	t.Run("approves a populated slot", func(t *testing.T) {
		task := Task{Slots: []Slot{{Link: "https://cdn/a.png"}}}
		if !task.ApproveSlot(0, now) {
			t.Fatal("ApproveSlot() = false, want true")
		}
		if task.Slots[0].Approval != SlotApproved {
			t.Errorf("approval = %s", task.Slots[0].Approval)
		}
		if task.Slots[0].ApprovedAt == nil {
			t.Error("approved_at not stamped")
		}
	})

	t.Run("no link is a no-op", func(t *testing.T) {
		task := Task{Slots: []Slot{{}}}
		if task.ApproveSlot(0, now) {
			t.Error("ApproveSlot() on empty slot = true, want false")
		}
	})

	t.Run("out of range is a no-op", func(t *testing.T) {
		task := Task{Slots: []Slot{{Link: "https://cdn/a.png"}}}
		if task.ApproveSlot(3, now) || task.ApproveSlot(-1, now) {
			t.Error("ApproveSlot() out of range = true, want false")
		}
	})

	t.Run("idempotent re-approval keeps the original stamp", func(t *testing.T) {
		task := Task{Slots: []Slot{{Link: "https://cdn/a.png"}}}
		first := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
		second := first.Add(48 * time.Hour)

		task.ApproveSlot(0, first)
		task.ApproveSlot(0, second)

		if !task.Slots[0].ApprovedAt.Equal(first) {
			t.Errorf("approved_at = %v, want original %v", task.Slots[0].ApprovedAt, first)
		}
	})

	t.Run("approval preserves later slots", func(t *testing.T) {
		task := Task{Slots: []Slot{
			{Link: "https://cdn/a.png"},
			{Link: "https://cdn/b.png", Approval: SlotApproved},
			{Link: "https://cdn/c.png", Approval: SlotNeedsReview, Feedback: "crop tighter"},
		}}
		task.ApproveSlot(0, now)

		if task.Slots[1].Approval != SlotApproved {
			t.Errorf("slot 1 approval = %s", task.Slots[1].Approval)
		}
		if task.Slots[2].Approval != SlotNeedsReview || task.Slots[2].Feedback != "crop tighter" {
			t.Errorf("slot 2 = %+v", task.Slots[2])
		}
		if len(task.Slots) != 3 {
			t.Errorf("slot count = %d, want 3", len(task.Slots))
		}
	})

	t.Run("mutation does not alias the previous slice", func(t *testing.T) {
		original := []Slot{{Link: "https://cdn/a.png"}}
		task := Task{Slots: original}
		task.ApproveSlot(0, now)

		if original[0].Approval == SlotApproved {
			t.Error("ApproveSlot mutated the caller's slice in place")
		}
	})
}

func TestFlagSlot(t *testing.T) {
	task := Task{Slots: []Slot{{Link: "https://cdn/a.png", Approval: SlotApproved}}}

	if task.FlagSlot(0, "") {
		t.Error("FlagSlot() with empty feedback = true, want false")
	}

	if !task.FlagSlot(0, "wrong aspect ratio") {
		t.Fatal("FlagSlot() = false, want true")
	}
	if task.Slots[0].Approval != SlotNeedsReview {
		t.Errorf("approval = %s", task.Slots[0].Approval)
	}
	if task.Slots[0].Feedback != "wrong aspect ratio" {
		t.Errorf("feedback = %q", task.Slots[0].Feedback)
	}
	if task.Slots[0].ApprovedAt != nil {
		t.Error("approved_at kept after flagging")
	}

	empty := Task{Slots: []Slot{{}}}
	if empty.FlagSlot(0, "feedback") {
		t.Error("FlagSlot() on empty slot = true, want false")
	}
}

func TestSetSlotLink(t *testing.T) {
	t.Run("pads shorter slices", func(t *testing.T) {
		task := Task{}
		if !task.SetSlotLink(2, "https://cdn/c.png") {
			t.Fatal("SetSlotLink() = false, want true")
		}
		if len(task.Slots) != 3 {
			t.Fatalf("slot count = %d, want 3", len(task.Slots))
		}
		if task.Slots[0].Approval != SlotNotDone || task.Slots[1].Approval != SlotNotDone {
			t.Error("padding slots not defaulted to not_done")
		}
		if task.Slots[2].Link != "https://cdn/c.png" {
			t.Errorf("link = %q", task.Slots[2].Link)
		}
	})

	t.Run("new version resets approval", func(t *testing.T) {
		stamp := time.Now()
		task := Task{Slots: []Slot{{Link: "https://cdn/v1.png", Approval: SlotApproved, ApprovedAt: &stamp}}}
		task.SetSlotLink(0, "https://cdn/v2.png")

		if task.Slots[0].Approval != SlotNotDone {
			t.Errorf("approval = %s, want not_done", task.Slots[0].Approval)
		}
		if task.Slots[0].ApprovedAt != nil {
			t.Error("approved_at kept for the new version")
		}
	})

	t.Run("empty link rejected", func(t *testing.T) {
		task := Task{}
		if task.SetSlotLink(0, "") {
			t.Error("SetSlotLink() with empty link = true, want false")
		}
	})
}

func TestIsFullyApproved(t *testing.T) {
	tests := []struct {
		name  string
		slots []Slot
		want  bool
	}{
		{"no slots", nil, false},
		{"empty slots only", []Slot{{}, {}}, false},
		{"one approved", []Slot{{Link: "a", Approval: SlotApproved}}, true},
		{"one pending of two", []Slot{{Link: "a", Approval: SlotApproved}, {Link: "b", Approval: SlotNotDone}}, false},
		{"empty slots ignored", []Slot{{Link: "a", Approval: SlotApproved}, {}}, true},
		{"needs review blocks", []Slot{{Link: "a", Approval: SlotNeedsReview}}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{Slots: tt.slots}
			if got := task.IsFullyApproved(); got != tt.want {
				t.Errorf("IsFullyApproved() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddComment(t *testing.T) {
	task := Task{}
	userID := uuid.New()
	now := time.Now()

	first := task.AddComment(userID, "looks good", now)
	second := task.AddComment(userID, "one more thing", now)

	if first.ID != 1 || second.ID != 2 {
		t.Errorf("comment ids = %d, %d, want 1, 2", first.ID, second.ID)
	}
	if len(task.Comments) != 2 {
		t.Errorf("comment count = %d", len(task.Comments))
	}
}

func TestToggleChecklistItem(t *testing.T) {
	task := Task{Checklist: []ChecklistItem{
		{ID: 1, Text: "draft hook", Completed: false},
		{ID: 2, Text: "add CTA", Completed: true},
	}}

	if !task.ToggleChecklistItem(1) {
		t.Fatal("ToggleChecklistItem(1) = false, want true")
	}
	if !task.Checklist[0].Completed {
		t.Error("item 1 not flipped")
	}
	if !task.Checklist[1].Completed {
		t.Error("item 2 changed")
	}

	if task.ToggleChecklistItem(99) {
		t.Error("ToggleChecklistItem(99) = true, want false")
	}
}

func TestWeek(t *testing.T) {
	tests := []struct {
		name    string
		created time.Time
		want    string
	}{
		{"mid-year", time.Date(2025, 7, 30, 12, 0, 0, 0, time.UTC), "2025-W31"},
		{"single-digit week pads", time.Date(2025, 1, 20, 0, 0, 0, 0, time.UTC), "2025-W04"},
		{"year boundary belongs to previous iso year", time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), "2026-W53"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := Task{CreatedAt: tt.created}
			if got := task.Week(); got != tt.want {
				t.Errorf("Week() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRolePermissions(t *testing.T) {
	tests := []struct {
		role    UserRole
		isAdmin bool
		isSuper bool
	}{
		{UserRoleTeamMember, false, false},
		{UserRoleManager, true, false},
		{UserRoleSuperAdmin, true, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.role), func(t *testing.T) {
			if got := tt.role.IsAdmin(); got != tt.isAdmin {
				t.Errorf("IsAdmin() = %v, want %v", got, tt.isAdmin)
			}
			if got := tt.role.IsSuperAdmin(); got != tt.isSuper {
				t.Errorf("IsSuperAdmin() = %v, want %v", got, tt.isSuper)
			}
		})
	}

	if !UserRoleSuperAdmin.HasPermission(UserRoleManager) {
		t.Error("super_admin should satisfy manager requirement")
	}
	if UserRoleTeamMember.HasPermission(UserRoleManager) {
		t.Error("team_member should not satisfy manager requirement")
	}
}

func TestDepartments(t *testing.T) {
	if !DepartmentVideoEditing.IsDualFormat() {
		t.Error("video_editing should be dual-format")
	}
	if DepartmentDesign.IsDualFormat() {
		t.Error("design should not be dual-format")
	}
	if !DepartmentMediaBuying.IsMediaBuyerLike() {
		t.Error("media_buying should be media-buyer-like")
	}
	if DepartmentCopywriting.IsMediaBuyerLike() {
		t.Error("copywriting should not be media-buyer-like")
	}
}
