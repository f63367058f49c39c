package services

import (
	"context"
	"fmt"
	"time"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// CampaignService handles campaign management operations
type CampaignService struct {
	campaignRepo ports.CampaignRepository
	taskRepo     ports.TaskRepository
	logger       *logger.Logger
}

// NewCampaignService creates a new campaign service
func NewCampaignService(campaignRepo ports.CampaignRepository, taskRepo ports.TaskRepository, logger *logger.Logger) *CampaignService {
	return &CampaignService{
		campaignRepo: campaignRepo,
		taskRepo:     taskRepo,
		logger:       logger,
	}
}

// CreateCampaign creates a new campaign
func (s *CampaignService) CreateCampaign(ctx context.Context, req ports.CreateCampaignRequest) (*entities.Campaign, error) {
	campaign := &entities.Campaign{
		Name:      req.Name,
		Client:    req.Client,
		Platform:  req.Platform,
		Status:    req.Status,
		Budget:    req.Budget,
		StartDate: req.StartDate,
		EndDate:   req.EndDate,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := s.campaignRepo.Create(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to create campaign: %w", err)
	}

	s.logger.Info("Campaign created", "campaign_id", campaign.ID, "name", campaign.Name, "client", campaign.Client)

	return campaign, nil
}

// GetCampaign retrieves a campaign by ID
func (s *CampaignService) GetCampaign(ctx context.Context, id int) (*entities.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("campaign not found: %w", err)
	}
	return campaign, nil
}

// UpdateCampaign updates a campaign's information
func (s *CampaignService) UpdateCampaign(ctx context.Context, id int, req ports.UpdateCampaignRequest) (*entities.Campaign, error) {
	campaign, err := s.campaignRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("campaign not found: %w", err)
	}

	if req.Name != nil {
		campaign.Name = *req.Name
	}
	if req.Client != nil {
		campaign.Client = *req.Client
	}
	if req.Platform != nil {
		campaign.Platform = *req.Platform
	}
	if req.Status != nil {
		campaign.Status = *req.Status
	}
	if req.Budget != nil {
		campaign.Budget = req.Budget
	}
	if req.StartDate != nil {
		campaign.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		campaign.EndDate = req.EndDate
	}

	campaign.UpdatedAt = time.Now()

	if err := s.campaignRepo.Update(ctx, campaign); err != nil {
		return nil, fmt.Errorf("failed to update campaign: %w", err)
	}

	s.logger.Info("Campaign updated", "campaign_id", campaign.ID)

	return campaign, nil
}

// DeleteCampaign soft-deletes a campaign. Campaigns with active tasks are
// kept; deletion is an explicit manager action.
func (s *CampaignService) DeleteCampaign(ctx context.Context, id int) error {
	if _, err := s.campaignRepo.GetByID(ctx, id); err != nil {
		return fmt.Errorf("campaign not found: %w", err)
	}

	if err := s.campaignRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}

	s.logger.Info("Campaign deleted", "campaign_id", id)
	return nil
}

// ListCampaigns retrieves campaigns with filtering and pagination
func (s *CampaignService) ListCampaigns(ctx context.Context, filter ports.CampaignFilter) ([]*entities.Campaign, int, error) {
	campaigns, err := s.campaignRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list campaigns: %w", err)
	}

	total, err := s.campaignRepo.Count(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count campaigns: %w", err)
	}

	return campaigns, int(total), nil
}

// GetCampaignTasks gets all tasks belonging to a campaign
func (s *CampaignService) GetCampaignTasks(ctx context.Context, campaignID int) ([]*entities.Task, error) {
	if _, err := s.campaignRepo.GetByID(ctx, campaignID); err != nil {
		return nil, fmt.Errorf("campaign not found: %w", err)
	}

	tasks, err := s.taskRepo.GetByCampaign(ctx, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to get campaign tasks: %w", err)
	}

	return tasks, nil
}
