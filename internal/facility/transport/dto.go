// Package transport defines request DTOs for the facility HTTP API.
package transport

// CreateTaskRequest is the payload for creating a facility task.
type CreateTaskRequest struct {
	TaskType    string  `json:"taskType" binding:"required"`
	PropertyID  *string `json:"propertyId"`
	BookingID   *string `json:"bookingId"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	DueDate     *string `json:"dueDate"`
}

// UpdateTaskRequest is a partial task update. Nil fields are unchanged.
type UpdateTaskRequest struct {
	Status      *string `json:"status" validate:"omitempty,oneof=open in_progress completed verified archived"`
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"dueDate"`
}

// CreateMeterLogRequest is the payload for recording a meter reading.
type CreateMeterLogRequest struct {
	PropertyID  string  `json:"propertyId" binding:"required"`
	BookingID   *string `json:"bookingId"`
	EntryType   string  `json:"entryType" binding:"required"`
	EntryDate   string  `json:"entryDate" binding:"required"`
	Electricity float64 `json:"electricity"`
	Water       float64 `json:"water"`
	Gas         float64 `json:"gas"`
}

// TaskListQuery filters the task list endpoint.
type TaskListQuery struct {
	TaskType   string `form:"taskType"`
	Status     string `form:"status" validate:"omitempty,oneof=open in_progress completed verified archived"`
	PropertyID string `form:"propertyId"`
}
