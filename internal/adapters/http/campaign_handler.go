package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/creativetrack/core/internal/application/services"
	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// CampaignHandler handles campaign-related requests
type CampaignHandler struct {
	campaignService *services.CampaignService
	logger          *logger.Logger
}

// NewCampaignHandler creates a new campaign handler
func NewCampaignHandler(campaignService *services.CampaignService, logger *logger.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaignService: campaignService,
		logger:          logger,
	}
}

// CreateCampaign handles campaign creation
func (h *CampaignHandler) CreateCampaign(c echo.Context) error {
	var req ports.CreateCampaignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	campaign, err := h.campaignService.CreateCampaign(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("Create campaign failed", "error", err)
		return domainError(err, "Failed to create campaign")
	}

	return c.JSON(http.StatusCreated, campaign)
}

// GetCampaign handles getting a campaign by ID
func (h *CampaignHandler) GetCampaign(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	campaign, err := h.campaignService.GetCampaign(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("Get campaign failed", "error", err, "campaign_id", id)
		return domainError(err, "Campaign not found")
	}

	return c.JSON(http.StatusOK, campaign)
}

// UpdateCampaign handles updating a campaign
func (h *CampaignHandler) UpdateCampaign(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateCampaignRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	campaign, err := h.campaignService.UpdateCampaign(c.Request().Context(), id, req)
	if err != nil {
		h.logger.Error("Update campaign failed", "error", err, "campaign_id", id)
		return domainError(err, "Failed to update campaign")
	}

	return c.JSON(http.StatusOK, campaign)
}

// DeleteCampaign handles deleting a campaign
func (h *CampaignHandler) DeleteCampaign(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.campaignService.DeleteCampaign(c.Request().Context(), id); err != nil {
		h.logger.Error("Delete campaign failed", "error", err, "campaign_id", id)
		return domainError(err, "Failed to delete campaign")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Campaign deleted successfully"})
}

// ListCampaigns handles listing campaigns
func (h *CampaignHandler) ListCampaigns(c echo.Context) error {
	filter := ports.CampaignFilter{}

	if status := c.QueryParam("status"); status != "" {
		campaignStatus := entities.CampaignStatus(status)
		filter.Status = &campaignStatus
	}
	if client := c.QueryParam("client"); client != "" {
		filter.Client = &client
	}

	var err error
	filter.Limit, filter.Offset, err = paginationParams(c)
	if err != nil {
		return err
	}

	campaigns, total, err := h.campaignService.ListCampaigns(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List campaigns failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve campaigns")
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.Campaign]{
		Data:   campaigns,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// GetCampaignTasks handles listing a campaign's tasks
func (h *CampaignHandler) GetCampaignTasks(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	tasks, err := h.campaignService.GetCampaignTasks(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("Get campaign tasks failed", "error", err, "campaign_id", id)
		return domainError(err, "Failed to retrieve campaign tasks")
	}

	return c.JSON(http.StatusOK, tasks)
}
