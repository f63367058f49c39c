package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/creativetrack/core/internal/application/services"
	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/infrastructure/logger"
	"github.com/creativetrack/core/internal/ports"
)

// TaskHandler handles task-related requests: CRUD, the review lifecycle,
// per-slot approvals, version history and slot uploads.
type TaskHandler struct {
	taskService    *services.TaskService
	historyService *services.HistoryService
	uploadService  *services.UploadService
	logger         *logger.Logger
}

// NewTaskHandler creates a new task handler
func NewTaskHandler(taskService *services.TaskService, historyService *services.HistoryService, uploadService *services.UploadService, logger *logger.Logger) *TaskHandler {
	return &TaskHandler{
		taskService:    taskService,
		historyService: historyService,
		uploadService:  uploadService,
		logger:         logger,
	}
}

// CreateTask handles task creation
func (h *TaskHandler) CreateTask(c echo.Context) error {
	var req ports.CreateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.CreateTask(c.Request().Context(), actorFromContext(c), req)
	if err != nil {
		h.logger.Error("Create task failed", "error", err)
		return domainError(err, "Failed to create task")
	}

	return c.JSON(http.StatusCreated, task)
}

// GetTask handles getting a task by ID
func (h *TaskHandler) GetTask(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		h.logger.Error("Get task failed", "error", err, "task_id", id)
		return domainError(err, "Task not found")
	}

	return c.JSON(http.StatusOK, task)
}

// UpdateTask handles partial task updates, including whole slot-array
// replacement
func (h *TaskHandler) UpdateTask(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTask(c.Request().Context(), actorFromContext(c), id, req)
	if err != nil {
		h.logger.Error("Update task failed", "error", err, "task_id", id)
		return domainError(err, "Failed to update task")
	}

	return c.JSON(http.StatusOK, task)
}

// DeleteTask handles task deletion
func (h *TaskHandler) DeleteTask(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.taskService.DeleteTask(c.Request().Context(), actorFromContext(c), id); err != nil {
		h.logger.Error("Delete task failed", "error", err, "task_id", id)
		return domainError(err, "Failed to delete task")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Task deleted successfully"})
}

// ListTasks handles listing tasks
func (h *TaskHandler) ListTasks(c echo.Context) error {
	filter := ports.TaskFilter{}

	if status := c.QueryParam("status"); status != "" {
		taskStatus := entities.TaskStatus(status)
		filter.Status = &taskStatus
	}
	if taskType := c.QueryParam("type"); taskType != "" {
		t := entities.TaskType(taskType)
		filter.Type = &t
	}
	if campaignIDStr := c.QueryParam("campaign_id"); campaignIDStr != "" {
		campaignID, err := intQueryParam(c, "campaign_id")
		if err != nil {
			return err
		}
		filter.CampaignID = &campaignID
	}

	var err error
	filter.Limit, filter.Offset, err = paginationParams(c)
	if err != nil {
		return err
	}

	tasks, total, err := h.taskService.ListTasks(c.Request().Context(), filter)
	if err != nil {
		h.logger.Error("List tasks failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to retrieve tasks")
	}

	return c.JSON(http.StatusOK, ports.PaginatedResponse[*entities.Task]{
		Data:   tasks,
		Total:  total,
		Limit:  filter.Limit,
		Offset: filter.Offset,
	})
}

// UpdateTaskStatus handles lifecycle transitions. Invalid transitions are
// silent no-ops and return the unchanged task.
func (h *TaskHandler) UpdateTaskStatus(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTaskStatusRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.UpdateTaskStatus(c.Request().Context(), actorFromContext(c), id, req.Status, req.Feedback)
	if err != nil {
		h.logger.Error("Update task status failed", "error", err, "task_id", id, "status", req.Status)
		return domainError(err, "Failed to update task status")
	}

	return c.JSON(http.StatusOK, task)
}

// SubmitTask handles content submission. Empty content is a silent no-op.
func (h *TaskHandler) SubmitTask(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.SubmitTaskRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.SubmitTask(c.Request().Context(), actorFromContext(c), id, req.Content)
	if err != nil {
		h.logger.Error("Submit task failed", "error", err, "task_id", id)
		return domainError(err, "Failed to submit task")
	}

	return c.JSON(http.StatusOK, task)
}

// AddComment handles appending a task comment
func (h *TaskHandler) AddComment(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.AddCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	task, err := h.taskService.AddComment(c.Request().Context(), actorFromContext(c), id, req.Text)
	if err != nil {
		h.logger.Error("Add comment failed", "error", err, "task_id", id)
		return domainError(err, "Failed to add comment")
	}

	return c.JSON(http.StatusOK, task)
}

// ToggleChecklistItem flips one checklist item's completed flag
func (h *TaskHandler) ToggleChecklistItem(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	itemID, err := intParam(c, "itemID")
	if err != nil {
		return err
	}

	task, err := h.taskService.ToggleChecklistItem(c.Request().Context(), actorFromContext(c), id, itemID)
	if err != nil {
		h.logger.Error("Toggle checklist item failed", "error", err, "task_id", id, "item_id", itemID)
		return domainError(err, "Failed to toggle checklist item")
	}

	return c.JSON(http.StatusOK, task)
}

// ApproveSlot approves one slot. Approving an empty or out-of-range slot
// is a silent no-op.
func (h *TaskHandler) ApproveSlot(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}

	task, err := h.taskService.ApproveSlot(c.Request().Context(), actorFromContext(c), id, index)
	if err != nil {
		h.logger.Error("Approve slot failed", "error", err, "task_id", id, "slot_index", index)
		return domainError(err, "Failed to approve slot")
	}

	return c.JSON(http.StatusOK, task)
}

// RequestSlotRevision flags one slot for revision with feedback
func (h *TaskHandler) RequestSlotRevision(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}

	var req ports.SlotRevisionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	task, err := h.taskService.RequestSlotRevision(c.Request().Context(), actorFromContext(c), id, index, req.Feedback)
	if err != nil {
		h.logger.Error("Request slot revision failed", "error", err, "task_id", id, "slot_index", index)
		return domainError(err, "Failed to request slot revision")
	}

	return c.JSON(http.StatusOK, task)
}

// GetSlotHistory returns the merged version timeline for one slot's
// current asset. Remote failures resolve to an empty timeline, never an
// error response.
func (h *TaskHandler) GetSlotHistory(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}

	actor := actorFromContext(c)
	if actor == nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "Authentication required")
	}

	task, err := h.taskService.GetTask(c.Request().Context(), id)
	if err != nil {
		return domainError(err, "Task not found")
	}

	timeline := h.historyService.GetTimeline(c.Request().Context(), task.SlotAt(index).Link, actor.Email)
	return c.JSON(http.StatusOK, timeline)
}

// UploadSlotFile streams a multipart file into slot storage and replaces
// the slot link on success
func (h *TaskHandler) UploadSlotFile(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Missing file upload")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Failed to open file upload")
	}
	defer file.Close()

	task, err := h.uploadService.Upload(
		c.Request().Context(),
		actorFromContext(c),
		id, index,
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		fileHeader.Size,
		file,
	)
	if err != nil {
		if errors.Is(err, services.ErrUploadCancelled) {
			return echo.NewHTTPError(http.StatusConflict, "Upload cancelled")
		}
		h.logger.Error("Slot upload failed", "error", err, "task_id", id, "slot_index", index)
		return domainError(err, "Failed to upload file")
	}

	return c.JSON(http.StatusOK, task)
}

// CancelSlotUpload aborts an in-flight upload for one slot
func (h *TaskHandler) CancelSlotUpload(c echo.Context) error {
	id, err := intParam(c, "id")
	if err != nil {
		return err
	}
	index, err := intParam(c, "index")
	if err != nil {
		return err
	}

	key := services.UploadKey(id, index)
	if err := h.uploadService.CancelUpload(key); err != nil {
		return domainError(err, "Failed to cancel upload")
	}

	return c.JSON(http.StatusOK, ports.MessageResponse{Message: "Upload cancelled"})
}

// ListUploadProgress reports every in-flight upload's percentage
func (h *TaskHandler) ListUploadProgress(c echo.Context) error {
	return c.JSON(http.StatusOK, h.uploadService.ListProgress())
}

func intQueryParam(c echo.Context, name string) (int, error) {
	n, err := strconv.Atoi(c.QueryParam(name))
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "Invalid "+name+" parameter")
	}
	return n, nil
}
