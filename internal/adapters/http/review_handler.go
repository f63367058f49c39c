package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/creativetrack/core/internal/application/services"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// ReviewHandler serves the flat review queue and weekly progress reports
type ReviewHandler struct {
	slotService     *services.SlotService
	progressService *services.ProgressService
	logger          *logger.Logger
}

// NewReviewHandler creates a new review handler
func NewReviewHandler(slotService *services.SlotService, progressService *services.ProgressService, logger *logger.Logger) *ReviewHandler {
	return &ReviewHandler{
		slotService:     slotService,
		progressService: progressService,
		logger:          logger,
	}
}

// GetReviewQueue returns the acting user's populated slots across all
// tasks, in queue order with positions. Admins may inspect another
// user's queue via ?user_id.
func (h *ReviewHandler) GetReviewQueue(c echo.Context) error {
	actor := actorFromContext(c)
	if actor == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	userID := actor.ID
	if idStr := c.QueryParam("user_id"); idStr != "" {
		if !actor.Role.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
		parsed, err := uuid.Parse(idStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user_id parameter")
		}
		userID = parsed
	}

	queue, err := h.slotService.GetReviewQueue(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get review queue failed", "error", err, "user_id", userID)
		return domainError(err, "Failed to build review queue")
	}

	return c.JSON(http.StatusOK, ports.ReviewQueueResponse{
		Slots: queue,
		Total: len(queue),
	})
}

// GetTaskSlots returns one task's resolved slots with campaign-scoped ad
// numbers and format labels
func (h *ReviewHandler) GetTaskSlots(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	slots, err := h.slotService.GetTaskSlots(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("Get task slots failed", "error", err, "task_id", id)
		return domainError(err, "Failed to resolve task slots")
	}

	return c.JSON(http.StatusOK, slots)
}

// GetProgressReport returns weekly completion buckets for the acting
// user, or for another user when an admin passes ?user_id
func (h *ReviewHandler) GetProgressReport(c echo.Context) error {
	actor := actorFromContext(c)
	if actor == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	userID := actor.ID
	if idStr := c.QueryParam("user_id"); idStr != "" {
		if !actor.Role.IsAdmin() {
			return echo.NewHTTPError(http.StatusForbidden, "Insufficient permissions")
		}
		parsed, err := uuid.Parse(idStr)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid user_id parameter")
		}
		userID = parsed
	}

	report, err := h.progressService.GetUserProgress(c.Request().Context(), userID)
	if err != nil {
		h.logger.Error("Get progress report failed", "error", err, "user_id", userID)
		return domainError(err, "Failed to build progress report")
	}

	return c.JSON(http.StatusOK, report)
}
