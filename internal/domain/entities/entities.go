package entities

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrTaskNotFound          = errors.New("task not found")
	ErrCampaignNotFound      = errors.New("campaign not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrChecklistItemNotFound = errors.New("checklist item not found")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrUploadNotFound        = errors.New("no upload in flight for key")
)

// Enums and types
type UserRole string

const (
	UserRoleSuperAdmin UserRole = "super_admin"
	UserRoleManager    UserRole = "manager"
	UserRoleTeamMember UserRole = "team_member"
)

type CampaignStatus string

const (
	CampaignStatusPlanning  CampaignStatus = "planning"
	CampaignStatusActive    CampaignStatus = "active"
	CampaignStatusCompleted CampaignStatus = "completed"
)

type TaskStatus string

const (
	TaskStatusNotStarted    TaskStatus = "not_started"
	TaskStatusInProgress    TaskStatus = "in_progress"
	TaskStatusSubmitted     TaskStatus = "submitted"
	TaskStatusApproved      TaskStatus = "approved"
	TaskStatusNeedsRevision TaskStatus = "needs_revision"
)

type TaskType string

const (
	TaskTypeCopy   TaskType = "copy"
	TaskTypeImage  TaskType = "image"
	TaskTypeVideo  TaskType = "video"
	TaskTypeScript TaskType = "script"
)

type TaskPriority string

const (
	TaskPriorityUrgent TaskPriority = "urgent"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityNormal TaskPriority = "normal"
	TaskPriorityLow    TaskPriority = "low"
)

// SlotApproval is the per-slot review state, independent of task status.
type SlotApproval string

const (
	SlotNotDone     SlotApproval = "not_done"
	SlotApproved    SlotApproval = "approved"
	SlotNeedsReview SlotApproval = "needs_review"
)

// User represents a team member, manager, or admin
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	PasswordHash string     `json:"-" db:"password_hash"`
	Name         string     `json:"name" db:"name"`
	AvatarLabel  string     `json:"avatar_label" db:"avatar_label"`
	Role         UserRole   `json:"role" db:"role"`
	Department   Department `json:"department" db:"department"`
	IsActive     bool       `json:"is_active" db:"is_active"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt    *time.Time `json:"deleted_at" db:"deleted_at"`
}

// Campaign represents an advertising campaign tasks belong to
type Campaign struct {
	ID        int            `json:"id" db:"id"`
	Name      string         `json:"name" db:"name"`
	Client    string         `json:"client" db:"client"`
	Platform  string         `json:"platform" db:"platform"`
	Status    CampaignStatus `json:"status" db:"status"`
	Budget    *float64       `json:"budget" db:"budget"`
	StartDate *time.Time     `json:"start_date" db:"start_date"`
	EndDate   *time.Time     `json:"end_date" db:"end_date"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt time.Time      `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time     `json:"deleted_at" db:"deleted_at"`
}

// Slot is one deliverable unit of a task. Slots are index-aligned with the
// task's declared quantity; entries missing from the slice default to an
// empty link with SlotNotDone.
type Slot struct {
	Link       string       `json:"link"`
	Approval   SlotApproval `json:"approval"`
	Feedback   string       `json:"feedback"`
	ApprovedAt *time.Time   `json:"approved_at"`
}

// ChecklistItem is one entry of a task's optional checklist
type ChecklistItem struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Comment is a per-task discussion entry. IDs are monotonic per task
// (current length + 1), not globally unique.
type Comment struct {
	ID        int       `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// Task represents one content assignment within a campaign
type Task struct {
	ID               int             `json:"id" db:"id"`
	CampaignID       int             `json:"campaign_id" db:"campaign_id"`
	AssigneeID       uuid.UUID       `json:"assignee_id" db:"assignee_id"`
	Type             TaskType        `json:"type" db:"type"`
	Priority         TaskPriority    `json:"priority" db:"priority"`
	Quantity         string          `json:"quantity" db:"quantity"`
	Status           TaskStatus      `json:"status" db:"status"`
	Title            string          `json:"title" db:"title"`
	Description      *string         `json:"description" db:"description"`
	SubmittedContent string          `json:"submitted_content" db:"submitted_content"`
	Feedback         string          `json:"feedback" db:"feedback"`
	Slots            []Slot          `json:"slots"`
	Checklist        []ChecklistItem `json:"checklist"`
	Comments         []Comment       `json:"comments"`
	CopyWritten      bool            `json:"copy_written" db:"copy_written"`
	SubmittedAt      *time.Time      `json:"submitted_at" db:"submitted_at"`
	ReviewedAt       *time.Time      `json:"reviewed_at" db:"reviewed_at"`
	ReviewedBy       *uuid.UUID      `json:"reviewed_by" db:"reviewed_by"`
	ApprovedAt       *time.Time      `json:"approved_at" db:"approved_at"`
	ApprovedBy       *uuid.UUID      `json:"approved_by" db:"approved_by"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt        *time.Time      `json:"deleted_at" db:"deleted_at"`
}

// Business logic methods for Campaign
func (c *Campaign) IsActive() bool {
	return c.Status == CampaignStatusActive
}

func (c *Campaign) CanAddTask() bool {
	return c.Status == CampaignStatusPlanning || c.Status == CampaignStatusActive
}

// Business logic methods for Task

// DeclaredQuantity parses the textual quantity ("3x", "3") into a slot
// count. Anything unparseable or nonpositive counts as a single deliverable.
func (t *Task) DeclaredQuantity() int {
	q := strings.TrimSuffix(strings.ToLower(strings.TrimSpace(t.Quantity)), "x")
	n, err := strconv.Atoi(strings.TrimSpace(q))
	if err != nil || n <= 0 {
		return 1
	}
	return n
}

// SlotAt returns the slot at index i, defaulting gaps to an empty
// not_done slot.
func (t *Task) SlotAt(i int) Slot {
	if i < 0 || i >= len(t.Slots) {
		return Slot{Approval: SlotNotDone}
	}
	s := t.Slots[i]
	if s.Approval == "" {
		s.Approval = SlotNotDone
	}
	return s
}

// PopulatedSlotCount counts slots with a non-empty link.
func (t *Task) PopulatedSlotCount() int {
	n := 0
	for _, s := range t.Slots {
		if s.Link != "" {
			n++
		}
	}
	return n
}

// IsFullyApproved reports whether the task has at least one populated slot
// and every populated slot has been approved. A task with no uploaded work
// is never considered complete.
func (t *Task) IsFullyApproved() bool {
	populated := 0
	for _, s := range t.Slots {
		if s.Link == "" {
			continue
		}
		populated++
		if s.Approval != SlotApproved {
			return false
		}
	}
	return populated > 0
}

// Start moves the task from not_started to in_progress. Any other
// starting state is left untouched.
func (t *Task) Start() bool {
	if t.Status != TaskStatusNotStarted {
		return false
	}
	t.Status = TaskStatusInProgress
	return true
}

// Submit records the assignee's work and moves the task to submitted.
// Empty or whitespace-only content is rejected with no state change.
func (t *Task) Submit(content string, now time.Time) bool {
	if strings.TrimSpace(content) == "" {
		return false
	}
	t.Status = TaskStatusSubmitted
	t.SubmittedContent = content
	t.SubmittedAt = &now
	return true
}

// Approve records a reviewer's approval of the whole submission cycle.
func (t *Task) Approve(reviewer uuid.UUID, feedback string, now time.Time) bool {
	if t.Status != TaskStatusSubmitted {
		return false
	}
	t.Status = TaskStatusApproved
	t.Feedback = feedback
	t.ReviewedAt = &now
	t.ReviewedBy = &reviewer
	t.ApprovedAt = &now
	t.ApprovedBy = &reviewer
	return true
}

// RequestRevision sends a submission back to the assignee. Feedback is
// mandatory; without it nothing changes.
func (t *Task) RequestRevision(reviewer uuid.UUID, feedback string, now time.Time) bool {
	if t.Status != TaskStatusSubmitted || strings.TrimSpace(feedback) == "" {
		return false
	}
	t.Status = TaskStatusNeedsRevision
	t.Feedback = feedback
	t.ReviewedAt = &now
	t.ReviewedBy = &reviewer
	return true
}

// slotsCopyThrough returns a fresh copy of the slot slice padded with
// not_done defaults so that index i exists. Slot mutations always go
// through a full copy: a reader holding the previous slice never observes
// a partial write, and writes against divergent lengths cannot truncate
// later approvals.
func (t *Task) slotsCopyThrough(i int) []Slot {
	n := len(t.Slots)
	if i+1 > n {
		n = i + 1
	}
	slots := make([]Slot, n)
	copy(slots, t.Slots)
	for j := range slots {
		if slots[j].Approval == "" {
			slots[j].Approval = SlotNotDone
		}
	}
	return slots
}

// ApproveSlot marks slot i approved. Approving a slot with no uploaded
// link is a no-op, as is an out-of-range index. Re-approving an approved
// slot keeps its original stamp.
func (t *Task) ApproveSlot(i int, now time.Time) bool {
	if i < 0 || i >= len(t.Slots) || t.Slots[i].Link == "" {
		return false
	}
	slots := t.slotsCopyThrough(i)
	if slots[i].Approval != SlotApproved {
		slots[i].Approval = SlotApproved
		slots[i].Feedback = ""
		slots[i].ApprovedAt = &now
	}
	t.Slots = slots
	return true
}

// FlagSlot marks slot i needs_review with the given feedback. Empty
// feedback or a slot without a link leaves the task untouched.
func (t *Task) FlagSlot(i int, feedback string) bool {
	if i < 0 || i >= len(t.Slots) || t.Slots[i].Link == "" {
		return false
	}
	if strings.TrimSpace(feedback) == "" {
		return false
	}
	slots := t.slotsCopyThrough(i)
	slots[i].Approval = SlotNeedsReview
	slots[i].Feedback = feedback
	slots[i].ApprovedAt = nil
	t.Slots = slots
	return true
}

// SetSlotLink replaces the link of slot i (padding shorter slices) and
// resets its approval, since the new version has not been reviewed yet.
func (t *Task) SetSlotLink(i int, link string) bool {
	if i < 0 || link == "" {
		return false
	}
	slots := t.slotsCopyThrough(i)
	slots[i].Link = link
	slots[i].Approval = SlotNotDone
	slots[i].Feedback = ""
	slots[i].ApprovedAt = nil
	t.Slots = slots
	return true
}

// AddComment appends a comment with a per-task monotonic id.
func (t *Task) AddComment(userID uuid.UUID, text string, now time.Time) Comment {
	comment := Comment{
		ID:        len(t.Comments) + 1,
		UserID:    userID,
		Text:      text,
		Timestamp: now,
	}
	t.Comments = append(t.Comments, comment)
	return comment
}

// ToggleChecklistItem flips a checklist item's completed flag. The
// checklist is rebuilt rather than patched in place.
func (t *Task) ToggleChecklistItem(itemID int) bool {
	found := false
	items := make([]ChecklistItem, len(t.Checklist))
	copy(items, t.Checklist)
	for j := range items {
		if items[j].ID == itemID {
			items[j].Completed = !items[j].Completed
			found = true
		}
	}
	if found {
		t.Checklist = items
	}
	return found
}

// Week returns the ISO week label the task belongs to for progress
// reporting, e.g. "2025-W31".
func (t *Task) Week() string {
	year, week := t.CreatedAt.UTC().ISOWeek()
	return strconv.Itoa(year) + "-W" + pad2(week)
}

func pad2(n int) string {
	if n < 10 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}

// Utility methods
func (ur UserRole) IsValid() bool {
	switch ur {
	case UserRoleSuperAdmin, UserRoleManager, UserRoleTeamMember:
		return true
	default:
		return false
	}
}

func (cs CampaignStatus) IsValid() bool {
	switch cs {
	case CampaignStatusPlanning, CampaignStatusActive, CampaignStatusCompleted:
		return true
	default:
		return false
	}
}

func (ts TaskStatus) IsValid() bool {
	switch ts {
	case TaskStatusNotStarted, TaskStatusInProgress, TaskStatusSubmitted, TaskStatusApproved, TaskStatusNeedsRevision:
		return true
	default:
		return false
	}
}

func (tt TaskType) IsValid() bool {
	switch tt {
	case TaskTypeCopy, TaskTypeImage, TaskTypeVideo, TaskTypeScript:
		return true
	default:
		return false
	}
}

func (tp TaskPriority) IsValid() bool {
	switch tp {
	case TaskPriorityUrgent, TaskPriorityHigh, TaskPriorityNormal, TaskPriorityLow:
		return true
	default:
		return false
	}
}

func (sa SlotApproval) IsValid() bool {
	switch sa {
	case SlotNotDone, SlotApproved, SlotNeedsReview:
		return true
	default:
		return false
	}
}
