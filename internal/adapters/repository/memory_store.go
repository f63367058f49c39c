package repository

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/ports"
)

// MemoryStore is an in-process implementation of the user, campaign and
// task repositories. Reads hand out deep copies and writes replace whole
// records under a single lock, so callers never share mutable state with
// the store. Useful for development mode and for service tests.
type MemoryStore struct {
	mu sync.RWMutex

	users     map[uuid.UUID]*entities.User
	userOrder []uuid.UUID

	campaigns      map[int]*entities.Campaign
	campaignOrder  []int
	nextCampaignID int

	tasks     map[int]*entities.Task
	taskOrder []int
	nextTasks int
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:          make(map[uuid.UUID]*entities.User),
		campaigns:      make(map[int]*entities.Campaign),
		tasks:          make(map[int]*entities.Task),
		nextCampaignID: 1,
		nextTasks:      1,
	}
}

// Users returns the store as a UserRepository
func (s *MemoryStore) Users() ports.UserRepository { return (*memoryUsers)(s) }

// Campaigns returns the store as a CampaignRepository
func (s *MemoryStore) Campaigns() ports.CampaignRepository { return (*memoryCampaigns)(s) }

// Tasks returns the store as a TaskRepository
func (s *MemoryStore) Tasks() ports.TaskRepository { return (*memoryTasks)(s) }

// --- users ---

type memoryUsers MemoryStore

func (s *memoryUsers) Create(ctx context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	s.users[user.ID] = copyUser(user)
	s.userOrder = append(s.userOrder, user.ID)
	return nil
}

func (s *memoryUsers) GetByID(ctx context.Context, id uuid.UUID) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return nil, entities.ErrUserNotFound
	}
	return copyUser(u), nil
}

func (s *memoryUsers) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.userOrder {
		u := s.users[id]
		if u.DeletedAt == nil && u.Email == email {
			return copyUser(u), nil
		}
	}
	return nil, entities.ErrUserNotFound
}

func (s *memoryUsers) Update(ctx context.Context, user *entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[user.ID]
	if !ok || existing.DeletedAt != nil {
		return entities.ErrUserNotFound
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *memoryUsers) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok || u.DeletedAt != nil {
		return entities.ErrUserNotFound
	}
	now := time.Now()
	u.DeletedAt = &now
	return nil
}

func (s *memoryUsers) List(ctx context.Context, filter ports.UserFilter) ([]*entities.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*entities.User
	for _, id := range s.userOrder {
		u := s.users[id]
		if u.DeletedAt != nil {
			continue
		}
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		if filter.Department != nil && u.Department != *filter.Department {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		matched = append(matched, copyUser(u))
	}
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (s *memoryUsers) Count(ctx context.Context, filter ports.UserFilter) (int64, error) {
	all, err := s.List(ctx, ports.UserFilter{Role: filter.Role, Department: filter.Department, IsActive: filter.IsActive, Limit: 1 << 30})
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

// --- campaigns ---

type memoryCampaigns MemoryStore

func (s *memoryCampaigns) Create(ctx context.Context, campaign *entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	campaign.ID = s.nextCampaignID
	s.nextCampaignID++
	now := time.Now()
	campaign.CreatedAt = now
	campaign.UpdatedAt = now

	s.campaigns[campaign.ID] = copyCampaign(campaign)
	s.campaignOrder = append(s.campaignOrder, campaign.ID)
	return nil
}

func (s *memoryCampaigns) GetByID(ctx context.Context, id int) (*entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.campaigns[id]
	if !ok || c.DeletedAt != nil {
		return nil, entities.ErrCampaignNotFound
	}
	return copyCampaign(c), nil
}

func (s *memoryCampaigns) Update(ctx context.Context, campaign *entities.Campaign) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.campaigns[campaign.ID]
	if !ok || existing.DeletedAt != nil {
		return entities.ErrCampaignNotFound
	}
	campaign.CreatedAt = existing.CreatedAt
	campaign.UpdatedAt = time.Now()
	s.campaigns[campaign.ID] = copyCampaign(campaign)
	return nil
}

func (s *memoryCampaigns) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok || c.DeletedAt != nil {
		return entities.ErrCampaignNotFound
	}
	now := time.Now()
	c.DeletedAt = &now
	return nil
}

func (s *memoryCampaigns) List(ctx context.Context, filter ports.CampaignFilter) ([]*entities.Campaign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*entities.Campaign
	for _, id := range s.campaignOrder {
		c := s.campaigns[id]
		if c.DeletedAt != nil {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		if filter.Client != nil && c.Client != *filter.Client {
			continue
		}
		matched = append(matched, copyCampaign(c))
	}
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (s *memoryCampaigns) Count(ctx context.Context, filter ports.CampaignFilter) (int64, error) {
	all, err := s.List(ctx, ports.CampaignFilter{Status: filter.Status, Client: filter.Client, Limit: 1 << 30})
	if err != nil {
		return 0, err
	}
	return int64(len(all)), nil
}

// --- tasks ---

type memoryTasks MemoryStore

func (s *memoryTasks) Create(ctx context.Context, task *entities.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task.ID = s.nextTasks
	s.nextTasks++
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	s.tasks[task.ID] = copyTask(task)
	s.taskOrder = append(s.taskOrder, task.ID)
	return nil
}

func (s *memoryTasks) GetByID(ctx context.Context, id int) (*entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok || t.DeletedAt != nil {
		return nil, entities.ErrTaskNotFound
	}
	return copyTask(t), nil
}

func (s *memoryTasks) Update(ctx context.Context, task *entities.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok || existing.DeletedAt != nil {
		return entities.ErrTaskNotFound
	}
	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = time.Now()
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (s *memoryTasks) Delete(ctx context.Context, id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.DeletedAt != nil {
		return entities.ErrTaskNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}

func (s *memoryTasks) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	s.mu.RLock()
	matched := s.collect(filter)
	s.mu.RUnlock()
	return paginate(matched, filter.Limit, filter.Offset), nil
}

func (s *memoryTasks) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return int64(len(s.collect(filter))), nil
}

func (s *memoryTasks) GetByAssignee(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(ports.TaskFilter{AssigneeID: &userID}), nil
}

func (s *memoryTasks) GetByCampaign(ctx context.Context, campaignID int) ([]*entities.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(ports.TaskFilter{CampaignID: &campaignID}), nil
}

// collect must be called with the lock held.
func (s *memoryTasks) collect(filter ports.TaskFilter) []*entities.Task {
	var matched []*entities.Task
	for _, id := range s.taskOrder {
		t := s.tasks[id]
		if t.DeletedAt != nil {
			continue
		}
		if filter.CampaignID != nil && t.CampaignID != *filter.CampaignID {
			continue
		}
		if filter.AssigneeID != nil && t.AssigneeID != *filter.AssigneeID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		if filter.Type != nil && t.Type != *filter.Type {
			continue
		}
		if filter.Priority != nil && t.Priority != *filter.Priority {
			continue
		}
		matched = append(matched, copyTask(t))
	}
	return matched
}

// --- copy helpers ---

func copyUser(u *entities.User) *entities.User {
	cp := *u
	return &cp
}

func copyCampaign(c *entities.Campaign) *entities.Campaign {
	cp := *c
	return &cp
}

func copyTask(t *entities.Task) *entities.Task {
	cp := *t
	if t.Slots != nil {
		cp.Slots = make([]entities.Slot, len(t.Slots))
		copy(cp.Slots, t.Slots)
	}
	if t.Checklist != nil {
		cp.Checklist = make([]entities.ChecklistItem, len(t.Checklist))
		copy(cp.Checklist, t.Checklist)
	}
	if t.Comments != nil {
		cp.Comments = make([]entities.Comment, len(t.Comments))
		copy(cp.Comments, t.Comments)
	}
	return &cp
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit <= 0 {
		limit = 20
	}
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
