package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/creativetrack/core/internal/domain/entities"
	"github.com/creativetrack/core/internal/ports"
)

// TaskRepositoryImpl implements the TaskRepository interface on Postgres.
// Slots, checklist and comments live in JSONB columns so every Update
// replaces the full task record in one statement.
type TaskRepositoryImpl struct {
	db *sqlx.DB
}

// NewTaskRepository creates a new task repository
func NewTaskRepository(db *sqlx.DB) ports.TaskRepository {
	return &TaskRepositoryImpl{db: db}
}

const taskColumns = `id, campaign_id, assignee_id, type, priority, quantity, status,
	title, description, submitted_content, feedback, slots, checklist, comments,
	copy_written, submitted_at, reviewed_at, reviewed_by, approved_at, approved_by,
	created_at, updated_at`

func (r *TaskRepositoryImpl) Create(ctx context.Context, task *entities.Task) error {
	slots, checklist, comments, err := marshalTaskJSON(task)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO tasks (campaign_id, assignee_id, type, priority, quantity, status,
			title, description, submitted_content, feedback, slots, checklist, comments,
			copy_written, submitted_at, reviewed_at, reviewed_by, approved_at, approved_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`

	err = r.db.QueryRowContext(ctx, query,
		task.CampaignID, task.AssigneeID, task.Type, task.Priority, task.Quantity,
		task.Status, task.Title, task.Description, task.SubmittedContent, task.Feedback,
		slots, checklist, comments, task.CopyWritten,
		task.SubmittedAt, task.ReviewedAt, task.ReviewedBy, task.ApprovedAt, task.ApprovedBy,
	).Scan(&task.ID, &task.CreatedAt, &task.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) GetByID(ctx context.Context, id int) (*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND deleted_at IS NULL`

	task, err := scanTask(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, entities.ErrTaskNotFound
		}
		return nil, fmt.Errorf("get task by id: %w", err)
	}

	return task, nil
}

func (r *TaskRepositoryImpl) Update(ctx context.Context, task *entities.Task) error {
	slots, checklist, comments, err := marshalTaskJSON(task)
	if err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET campaign_id = $2, assignee_id = $3, type = $4, priority = $5, quantity = $6,
			status = $7, title = $8, description = $9, submitted_content = $10,
			feedback = $11, slots = $12, checklist = $13, comments = $14,
			copy_written = $15, submitted_at = $16, reviewed_at = $17, reviewed_by = $18,
			approved_at = $19, approved_by = $20, updated_at = CURRENT_TIMESTAMP
		WHERE id = $1 AND deleted_at IS NULL
		RETURNING updated_at`

	err = r.db.QueryRowContext(ctx, query,
		task.ID, task.CampaignID, task.AssigneeID, task.Type, task.Priority,
		task.Quantity, task.Status, task.Title, task.Description, task.SubmittedContent,
		task.Feedback, slots, checklist, comments, task.CopyWritten,
		task.SubmittedAt, task.ReviewedAt, task.ReviewedBy, task.ApprovedAt, task.ApprovedBy,
	).Scan(&task.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return entities.ErrTaskNotFound
		}
		return fmt.Errorf("update task: %w", err)
	}

	return nil
}

func (r *TaskRepositoryImpl) Delete(ctx context.Context, id int) error {
	query := `UPDATE tasks SET deleted_at = CURRENT_TIMESTAMP WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return entities.ErrTaskNotFound
	}

	return nil
}

func (r *TaskRepositoryImpl) List(ctx context.Context, filter ports.TaskFilter) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filter.CampaignID != nil {
		args = append(args, *filter.CampaignID)
		query += fmt.Sprintf(" AND campaign_id = $%d", len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if filter.Type != nil {
		args = append(args, *filter.Type)
		query += fmt.Sprintf(" AND type = $%d", len(args))
	}
	if filter.Priority != nil {
		args = append(args, *filter.Priority)
		query += fmt.Sprintf(" AND priority = $%d", len(args))
	}

	query += " ORDER BY created_at ASC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	args = append(args, limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, filter.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.queryTasks(ctx, query, args...)
}

func (r *TaskRepositoryImpl) Count(ctx context.Context, filter ports.TaskFilter) (int64, error) {
	query := `SELECT COUNT(*) FROM tasks WHERE deleted_at IS NULL`
	args := []interface{}{}

	if filter.CampaignID != nil {
		args = append(args, *filter.CampaignID)
		query += fmt.Sprintf(" AND campaign_id = $%d", len(args))
	}
	if filter.AssigneeID != nil {
		args = append(args, *filter.AssigneeID)
		query += fmt.Sprintf(" AND assignee_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var count int64
	if err := r.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}

	return count, nil
}

func (r *TaskRepositoryImpl) GetByAssignee(ctx context.Context, userID uuid.UUID) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE assignee_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	return r.queryTasks(ctx, query, userID)
}

func (r *TaskRepositoryImpl) GetByCampaign(ctx context.Context, campaignID int) ([]*entities.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE campaign_id = $1 AND deleted_at IS NULL
		ORDER BY created_at ASC`

	return r.queryTasks(ctx, query, campaignID)
}

func (r *TaskRepositoryImpl) queryTasks(ctx context.Context, query string, args ...interface{}) ([]*entities.Task, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*entities.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tasks: %w", err)
	}

	return tasks, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanTask(row rowScanner) (*entities.Task, error) {
	var task entities.Task
	var slots, checklist, comments []byte

	err := row.Scan(
		&task.ID, &task.CampaignID, &task.AssigneeID, &task.Type, &task.Priority,
		&task.Quantity, &task.Status, &task.Title, &task.Description,
		&task.SubmittedContent, &task.Feedback, &slots, &checklist, &comments,
		&task.CopyWritten, &task.SubmittedAt, &task.ReviewedAt, &task.ReviewedBy,
		&task.ApprovedAt, &task.ApprovedBy, &task.CreatedAt, &task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(slots) > 0 {
		if err := json.Unmarshal(slots, &task.Slots); err != nil {
			return nil, fmt.Errorf("unmarshal slots: %w", err)
		}
	}
	if len(checklist) > 0 {
		if err := json.Unmarshal(checklist, &task.Checklist); err != nil {
			return nil, fmt.Errorf("unmarshal checklist: %w", err)
		}
	}
	if len(comments) > 0 {
		if err := json.Unmarshal(comments, &task.Comments); err != nil {
			return nil, fmt.Errorf("unmarshal comments: %w", err)
		}
	}

	return &task, nil
}

func marshalTaskJSON(task *entities.Task) (slots, checklist, comments []byte, err error) {
	if slots, err = json.Marshal(orEmptySlots(task.Slots)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal slots: %w", err)
	}
	if checklist, err = json.Marshal(orEmptyChecklist(task.Checklist)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal checklist: %w", err)
	}
	if comments, err = json.Marshal(orEmptyComments(task.Comments)); err != nil {
		return nil, nil, nil, fmt.Errorf("marshal comments: %w", err)
	}
	return slots, checklist, comments, nil
}

func orEmptySlots(s []entities.Slot) []entities.Slot {
	if s == nil {
		return []entities.Slot{}
	}
	return s
}

func orEmptyChecklist(s []entities.ChecklistItem) []entities.ChecklistItem {
	if s == nil {
		return []entities.ChecklistItem{}
	}
	return s
}

func orEmptyComments(s []entities.Comment) []entities.Comment {
	if s == nil {
		return []entities.Comment{}
	}
	return s
}
