// Package scheduler carries the asynq task vocabulary plus the client and
// worker around it. Queued tasks are safety nets: the handlers republish
// idempotent reconciliation events, so a task firing after the work is
// already done is a no-op.
package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskEnsureBookingTasks = "booking.ensure_tasks"

const TaskTransferExecuteCheck = "transfer.execute_check"

type EnsureBookingTasksPayload struct {
	BookingID string `json:"bookingId"`
}

type TransferExecuteCheckPayload struct {
	TaskID string `json:"taskId"`
}

func NewEnsureBookingTasksTask(payload EnsureBookingTasksPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskEnsureBookingTasks, data), nil
}

func ParseEnsureBookingTasksPayload(task *asynq.Task) (EnsureBookingTasksPayload, error) {
	var payload EnsureBookingTasksPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return EnsureBookingTasksPayload{}, err
	}
	return payload, nil
}

func NewTransferExecuteCheckTask(payload TransferExecuteCheckPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTransferExecuteCheck, data), nil
}

func ParseTransferExecuteCheckPayload(task *asynq.Task) (TransferExecuteCheckPayload, error) {
	var payload TransferExecuteCheckPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return TransferExecuteCheckPayload{}, err
	}
	return payload, nil
}
