// Package repository provides data access for facility tasks and meter logs.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rentops_backend/platform/apperr"
)

// Task statuses.
const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
	StatusVerified   = "verified"
	StatusArchived   = "archived"
)

// Well-known task types. task_type is free-form; these are the ones the
// orchestration layers create and match on.
const (
	TypeEinzug   = "Einzug"
	TypeAuszug   = "Auszug"
	TypeTransfer = "Transfer"
)

// Meter log entry types.
const (
	MeterInitial  = "Initial"
	MeterCheckIn  = "Check-In"
	MeterCheckOut = "Check-Out"
	MeterInterim  = "Interim"
)

// Task is a facility work item. BookingID is a plain string that may hold a
// UUID, a legacy integer, or a numeric string; callers compare it through
// platform/ident. Description may embed a JSON payload for transfer tasks.
type Task struct {
	ID          string  `json:"id"`
	TaskType    string  `json:"taskType"`
	PropertyID  *string `json:"propertyId"`
	BookingID   *string `json:"bookingId"`
	Status      string  `json:"status"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
	CreatedAt   string  `json:"createdAt"`
	UpdatedAt   string  `json:"updatedAt"`
}

// MeterLogEntry is a utility meter reading for a property.
type MeterLogEntry struct {
	ID          string  `json:"id"`
	PropertyID  string  `json:"propertyId"`
	BookingID   *string `json:"bookingId"`
	EntryType   string  `json:"entryType"`
	EntryDate   string  `json:"entryDate"`
	Electricity float64 `json:"electricity"`
	Water       float64 `json:"water"`
	Gas         float64 `json:"gas"`
	CreatedAt   string  `json:"createdAt"`
}

// TaskFilter narrows ListTasks. Zero values mean "no constraint".
type TaskFilter struct {
	TaskType   string
	Status     string
	PropertyID string
	HasBooking bool
}

// CreateTaskParams carries the fields for a new task.
type CreateTaskParams struct {
	TaskType    string
	PropertyID  *string
	BookingID   *string
	Status      string
	Title       string
	Description string
	DueDate     *string
}

// UpdateTaskParams carries a partial task update. Nil fields are unchanged.
type UpdateTaskParams struct {
	Status      *string
	Title       *string
	Description *string
	DueDate     *string
}

// CreateMeterLogParams carries the fields for a new meter log entry.
type CreateMeterLogParams struct {
	PropertyID  string
	BookingID   *string
	EntryType   string
	EntryDate   string
	Electricity float64
	Water       float64
	Gas         float64
}

// Repository defines data access for facility tasks and meter logs.
type Repository interface {
	ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error)
	GetTask(ctx context.Context, id string) (Task, error)
	CreateTask(ctx context.Context, params CreateTaskParams) (Task, error)
	UpdateTask(ctx context.Context, id string, params UpdateTaskParams) (Task, error)
	ListMeterLogs(ctx context.Context, propertyID string) ([]MeterLogEntry, error)
	CreateMeterLog(ctx context.Context, params CreateMeterLogParams) (MeterLogEntry, error)
}

// Repo is the pgx implementation of Repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new facility repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

const taskColumns = `id, task_type, property_id, booking_id, status, title, description, due_date, created_at, updated_at`

func scanTask(scan func(dest ...any) error) (Task, error) {
	var task Task
	var createdAt, updatedAt time.Time
	err := scan(
		&task.ID, &task.TaskType, &task.PropertyID, &task.BookingID, &task.Status,
		&task.Title, &task.Description, &task.DueDate, &createdAt, &updatedAt,
	)
	if err != nil {
		return Task{}, err
	}
	task.CreatedAt = createdAt.Format(time.RFC3339)
	task.UpdatedAt = updatedAt.Format(time.RFC3339)
	return task, nil
}

// ListTasks returns tasks matching the filter, newest first.
func (r *Repo) ListTasks(ctx context.Context, filter TaskFilter) ([]Task, error) {
	var conds []string
	var args []any

	addCond := func(cond string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.TaskType != "" {
		addCond("task_type = $%d", filter.TaskType)
	}
	if filter.Status != "" {
		addCond("status = $%d", filter.Status)
	}
	if filter.PropertyID != "" {
		addCond("property_id = $%d", filter.PropertyID)
	}
	if filter.HasBooking {
		conds = append(conds, "booking_id IS NOT NULL")
	}

	query := fmt.Sprintf(`SELECT %s FROM facility_tasks`, taskColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		task, err := scanTask(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// GetTask returns a single task by id.
func (r *Repo) GetTask(ctx context.Context, id string) (Task, error) {
	query := fmt.Sprintf(`SELECT %s FROM facility_tasks WHERE id = $1`, taskColumns)

	task, err := scanTask(r.pool.QueryRow(ctx, query, id).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, apperr.NotFound("task not found")
		}
		return Task{}, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// CreateTask inserts a new task.
func (r *Repo) CreateTask(ctx context.Context, params CreateTaskParams) (Task, error) {
	status := params.Status
	if status == "" {
		status = StatusOpen
	}

	query := fmt.Sprintf(`
		INSERT INTO facility_tasks (id, task_type, property_id, booking_id, status, title, description, due_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, taskColumns)

	task, err := scanTask(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.TaskType, params.PropertyID, params.BookingID,
		status, params.Title, params.Description, params.DueDate,
	).Scan)
	if err != nil {
		return Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// UpdateTask applies a partial update to a task.
func (r *Repo) UpdateTask(ctx context.Context, id string, params UpdateTaskParams) (Task, error) {
	query := fmt.Sprintf(`
		UPDATE facility_tasks SET
			status = COALESCE($2, status),
			title = COALESCE($3, title),
			description = COALESCE($4, description),
			due_date = COALESCE($5, due_date),
			updated_at = now()
		WHERE id = $1
		RETURNING %s`, taskColumns)

	task, err := scanTask(r.pool.QueryRow(ctx, query,
		id, params.Status, params.Title, params.Description, params.DueDate,
	).Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Task{}, apperr.NotFound("task not found")
		}
		return Task{}, fmt.Errorf("update task: %w", err)
	}
	return task, nil
}

const meterColumns = `id, property_id, booking_id, entry_type, entry_date, electricity, water, gas, created_at`

func scanMeterLog(scan func(dest ...any) error) (MeterLogEntry, error) {
	var entry MeterLogEntry
	var createdAt time.Time
	err := scan(
		&entry.ID, &entry.PropertyID, &entry.BookingID, &entry.EntryType,
		&entry.EntryDate, &entry.Electricity, &entry.Water, &entry.Gas, &createdAt,
	)
	if err != nil {
		return MeterLogEntry{}, err
	}
	entry.CreatedAt = createdAt.Format(time.RFC3339)
	return entry, nil
}

// ListMeterLogs returns a property's meter log, newest entry date first.
func (r *Repo) ListMeterLogs(ctx context.Context, propertyID string) ([]MeterLogEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM meter_log_entries
		WHERE property_id = $1
		ORDER BY entry_date DESC, created_at DESC`, meterColumns)

	rows, err := r.pool.Query(ctx, query, propertyID)
	if err != nil {
		return nil, fmt.Errorf("list meter logs: %w", err)
	}
	defer rows.Close()

	var entries []MeterLogEntry
	for rows.Next() {
		entry, err := scanMeterLog(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan meter log: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// CreateMeterLog inserts a new meter log entry.
func (r *Repo) CreateMeterLog(ctx context.Context, params CreateMeterLogParams) (MeterLogEntry, error) {
	query := fmt.Sprintf(`
		INSERT INTO meter_log_entries (id, property_id, booking_id, entry_type, entry_date, electricity, water, gas)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING %s`, meterColumns)

	entry, err := scanMeterLog(r.pool.QueryRow(ctx, query,
		uuid.New().String(), params.PropertyID, params.BookingID, params.EntryType,
		params.EntryDate, params.Electricity, params.Water, params.Gas,
	).Scan)
	if err != nil {
		return MeterLogEntry{}, fmt.Errorf("create meter log: %w", err)
	}
	return entry, nil
}
