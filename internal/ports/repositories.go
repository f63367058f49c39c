package ports

import (
	"context"
	"time"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/google/uuid"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	Update(ctx context.Context, user *entities.User) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context, filter UserFilter) ([]*entities.User, error)
	Count(ctx context.Context, filter UserFilter) (int64, error)
}

// CampaignRepository defines the interface for campaign data operations
type CampaignRepository interface {
	Create(ctx context.Context, campaign *entities.Campaign) error
	GetByID(ctx context.Context, id int) (*entities.Campaign, error)
	Update(ctx context.Context, campaign *entities.Campaign) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter CampaignFilter) ([]*entities.Campaign, error)
	Count(ctx context.Context, filter CampaignFilter) (int64, error)
}

// TaskRepository defines the interface for task data operations. Update
// replaces the whole task record, slots included; there is no partial
// per-index write, so a lost-update between two slot operations cannot
// truncate the slot slice.
type TaskRepository interface {
	Create(ctx context.Context, task *entities.Task) error
	GetByID(ctx context.Context, id int) (*entities.Task, error)
	Update(ctx context.Context, task *entities.Task) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, filter TaskFilter) ([]*entities.Task, error)
	Count(ctx context.Context, filter TaskFilter) (int64, error)
	GetByAssignee(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error)
	GetByCampaign(ctx context.Context, campaignID int) ([]*entities.Task, error)
}

// CacheRepository defines the interface for caching operations
type CacheRepository interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// Filter types for repository queries
type UserFilter struct {
	Role       *entities.UserRole
	Department *entities.Department
	IsActive   *bool
	Search     *string
	Limit      int
	Offset     int
}

type CampaignFilter struct {
	Status *entities.CampaignStatus
	Client *string
	Search *string
	Limit  int
	Offset int
}

type TaskFilter struct {
	CampaignID *int
	AssigneeID *uuid.UUID
	Status     *entities.TaskStatus
	Type       *entities.TaskType
	Priority   *entities.TaskPriority
	Search     *string
	Limit      int
	Offset     int
}
