package ports

import (
	"context"
	"io"
	"time"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/google/uuid"
)

// AuthService interface for authentication operations
type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req LoginRequest) (*AuthResponse, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// UserService interface for user management operations
type UserService interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*entities.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*entities.User, error)
	UpdateUser(ctx context.Context, id uuid.UUID, req UpdateUserRequest) (*entities.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) error
	ListUsers(ctx context.Context, filter UserFilter) ([]*entities.User, int, error)
}

// CampaignService interface for campaign management operations
type CampaignService interface {
	CreateCampaign(ctx context.Context, req CreateCampaignRequest) (*entities.Campaign, error)
	GetCampaign(ctx context.Context, id int) (*entities.Campaign, error)
	UpdateCampaign(ctx context.Context, id int, req UpdateCampaignRequest) (*entities.Campaign, error)
	DeleteCampaign(ctx context.Context, id int) error
	ListCampaigns(ctx context.Context, filter CampaignFilter) ([]*entities.Campaign, int, error)
	GetCampaignTasks(ctx context.Context, campaignID int) ([]*entities.Task, error)
}

// TaskService carries the entity-store mutation surface: the approval
// state machine for task status, the per-slot approval transitions, and
// the small per-task collections (comments, checklist). Every mutator
// takes the acting user and applies the role policy itself.
type TaskService interface {
	CreateTask(ctx context.Context, actor *entities.User, req CreateTaskRequest) (*entities.Task, error)
	GetTask(ctx context.Context, id int) (*entities.Task, error)
	UpdateTask(ctx context.Context, actor *entities.User, id int, req UpdateTaskRequest) (*entities.Task, error)
	DeleteTask(ctx context.Context, actor *entities.User, id int) error
	ListTasks(ctx context.Context, filter TaskFilter) ([]*entities.Task, int, error)
	UpdateTaskStatus(ctx context.Context, actor *entities.User, taskID int, status entities.TaskStatus, feedback string) (*entities.Task, error)
	SubmitTask(ctx context.Context, actor *entities.User, taskID int, content string) (*entities.Task, error)
	ApproveSlot(ctx context.Context, actor *entities.User, taskID, slotIndex int) (*entities.Task, error)
	RequestSlotRevision(ctx context.Context, actor *entities.User, taskID, slotIndex int, feedback string) (*entities.Task, error)
	AddComment(ctx context.Context, actor *entities.User, taskID int, text string) (*entities.Task, error)
	ToggleChecklistItem(ctx context.Context, actor *entities.User, taskID, itemID int) (*entities.Task, error)
}

// HistoryProvider is the remote creative-history collaborator. A single
// decode step turns the remote payload's four index-aligned arrays into a
// tagged entry list; the aggregator adds the current-asset entry and sorts.
type HistoryProvider interface {
	FetchHistory(ctx context.Context, creativeURL, requestedBy string) (*HistoryRecord, error)
}

// HistoryRecord is the decoded remote history payload for one asset URL.
type HistoryRecord struct {
	CurrentURL string
	UpdatedAt  time.Time
	CreatedAt  time.Time
	Entries    []TimelineEntry
}

// UploadTransport streams one slot's file to storage, reporting whole
// percentages through the progress callback, and returns the stored
// object's URL. Cancelling the context aborts the transfer.
type UploadTransport interface {
	Upload(ctx context.Context, req UploadRequest, progress func(percent int)) (string, error)
}

// TimelineEntryType tags a version-timeline entry
type TimelineEntryType string

const (
	TimelineEntryCreative TimelineEntryType = "creative"
	TimelineEntryFeedback TimelineEntryType = "feedback"
)

// TimelineEntry is one row of a slot's merged version timeline
type TimelineEntry struct {
	Type      TimelineEntryType `json:"type"`
	URL       string            `json:"url,omitempty"`
	Feedback  string            `json:"feedback,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	IsCurrent bool              `json:"is_current"`
}

// SlotFormat labels a resolved slot's artifact format. Single-format
// departments carry no label.
type SlotFormat string

const (
	SlotFormatNone      SlotFormat = ""
	SlotFormatPrimary   SlotFormat = "primary"
	SlotFormatSecondary SlotFormat = "secondary"
)

// ResolvedSlot is one derived (task, index) deliverable with its
// campaign-scoped ad number and flat review-queue position.
type ResolvedSlot struct {
	TaskID     int                   `json:"task_id"`
	SlotIndex  int                   `json:"slot_index"`
	CampaignID int                   `json:"campaign_id"`
	AdNumber   int                   `json:"ad_number"`
	Format     SlotFormat            `json:"format,omitempty"`
	Link       string                `json:"link"`
	Approval   entities.SlotApproval `json:"approval"`
	Position   int                   `json:"position"`
}

// WeeklyProgress is one campaign+week completion bucket
type WeeklyProgress struct {
	CampaignID int    `json:"campaign_id"`
	Week       string `json:"week"`
	Completed  int    `json:"completed"`
	Total      int    `json:"total"`
}

// ProgressReport is a user's weekly completion summary
type ProgressReport struct {
	UserID     uuid.UUID           `json:"user_id"`
	Department entities.Department `json:"department"`
	Weeks      []WeeklyProgress    `json:"weeks"`
}

// UploadRequest carries everything the transport needs to store one
// slot's file under a stable, human-navigable object path.
type UploadRequest struct {
	TaskID      int
	SlotIndex   int
	FileName    string
	Size        int64
	ContentType string
	Body        io.Reader
	Task        *entities.Task
	Assignee    *entities.User
	Campaign    *entities.Campaign
	PreviousURL string
}

// Request/Response Types

// Auth related types
type RegisterRequest struct {
	Email      string              `json:"email" validate:"required,email"`
	Username   string              `json:"username" validate:"required,min=3,max=50"`
	Password   string              `json:"password" validate:"required,min=8"`
	Name       string              `json:"name" validate:"required,max=200"`
	Role       entities.UserRole   `json:"role" validate:"required"`
	Department entities.Department `json:"department" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	AccessToken string         `json:"access_token"`
	TokenType   string         `json:"token_type"`
	ExpiresIn   int64          `json:"expires_in"`
	User        *entities.User `json:"user"`
}

type Claims struct {
	UserID string            `json:"user_id"`
	Email  string            `json:"email"`
	Role   entities.UserRole `json:"role"`
}

// User related types
type CreateUserRequest struct {
	Email      string              `json:"email" validate:"required,email"`
	Username   string              `json:"username" validate:"required,min=3,max=50"`
	Password   string              `json:"password" validate:"required,min=8"`
	Name       string              `json:"name" validate:"required,max=200"`
	Role       entities.UserRole   `json:"role" validate:"required"`
	Department entities.Department `json:"department" validate:"required"`
	IsActive   bool                `json:"is_active"`
}

type UpdateUserRequest struct {
	Email      *string              `json:"email" validate:"omitempty,email"`
	Username   *string              `json:"username" validate:"omitempty,min=3,max=50"`
	Name       *string              `json:"name" validate:"omitempty,max=200"`
	Role       *entities.UserRole   `json:"role" validate:"omitempty"`
	Department *entities.Department `json:"department" validate:"omitempty"`
	IsActive   *bool                `json:"is_active"`
}

// Campaign related types
type CreateCampaignRequest struct {
	Name      string                  `json:"name" validate:"required,max=200"`
	Client    string                  `json:"client" validate:"required,max=200"`
	Platform  string                  `json:"platform" validate:"omitempty,max=100"`
	Status    entities.CampaignStatus `json:"status" validate:"required"`
	Budget    *float64                `json:"budget" validate:"omitempty,min=0"`
	StartDate *time.Time              `json:"start_date"`
	EndDate   *time.Time              `json:"end_date"`
}

type UpdateCampaignRequest struct {
	Name      *string                  `json:"name" validate:"omitempty,max=200"`
	Client    *string                  `json:"client" validate:"omitempty,max=200"`
	Platform  *string                  `json:"platform" validate:"omitempty,max=100"`
	Status    *entities.CampaignStatus `json:"status" validate:"omitempty"`
	Budget    *float64                 `json:"budget" validate:"omitempty,min=0"`
	StartDate *time.Time               `json:"start_date"`
	EndDate   *time.Time               `json:"end_date"`
}

// Task related types
type CreateTaskRequest struct {
	Title       string                   `json:"title" validate:"required,max=500"`
	Description *string                  `json:"description" validate:"omitempty,max=2000"`
	CampaignID  int                      `json:"campaign_id" validate:"required"`
	AssigneeID  uuid.UUID                `json:"assignee_id" validate:"required"`
	Type        entities.TaskType        `json:"type" validate:"required"`
	Priority    entities.TaskPriority    `json:"priority" validate:"required"`
	Quantity    string                   `json:"quantity" validate:"omitempty,max=10"`
	Checklist   []entities.ChecklistItem `json:"checklist"`
}

type UpdateTaskRequest struct {
	Title       *string                `json:"title" validate:"omitempty,max=500"`
	Description *string                `json:"description" validate:"omitempty,max=2000"`
	Priority    *entities.TaskPriority `json:"priority" validate:"omitempty"`
	Quantity    *string                `json:"quantity" validate:"omitempty,max=10"`
	CopyWritten *bool                  `json:"copy_written"`
	Slots       []entities.Slot        `json:"slots"`
}

type UpdateTaskStatusRequest struct {
	Status   entities.TaskStatus `json:"status" validate:"required"`
	Feedback string              `json:"feedback"`
}

type SubmitTaskRequest struct {
	Content string `json:"content"`
}

type SlotRevisionRequest struct {
	Feedback string `json:"feedback"`
}

type AddCommentRequest struct {
	Text string `json:"text" validate:"required,max=2000"`
}

type ProgressReportRequest struct {
	UserID uuid.UUID `json:"user_id"`
}

// Response types for pagination and common structures
type PaginatedResponse[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// ReviewQueueResponse is the flat, navigable list of a user's populated
// slots across all tasks.
type ReviewQueueResponse struct {
	Slots []ResolvedSlot `json:"slots"`
	Total int            `json:"total"`
}

// UploadStatus reports an in-flight upload's progress for one
// "{taskID}-{slotIndex}" key.
type UploadStatus struct {
	Key     string `json:"key"`
	Percent int    `json:"percent"`
}
