package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskRemindersReconcile = "reminders.reconcile"

const TaskRemindersDispatch = "reminders.dispatch"

// ReconcilePayload is carried by on-demand reconcile tasks. Periodic runs use
// the zero value.
type ReconcilePayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

// DispatchPayload is carried by on-demand dispatch tasks.
type DispatchPayload struct {
	RequestedBy string `json:"requestedBy,omitempty"`
}

func NewReconcileTask(payload ReconcilePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRemindersReconcile, data), nil
}

func ParseReconcilePayload(task *asynq.Task) (ReconcilePayload, error) {
	var payload ReconcilePayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return ReconcilePayload{}, err
	}
	return payload, nil
}

func NewDispatchTask(payload DispatchPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRemindersDispatch, data), nil
}

func ParseDispatchPayload(task *asynq.Task) (DispatchPayload, error) {
	var payload DispatchPayload
	if len(task.Payload()) == 0 {
		return payload, nil
	}
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return DispatchPayload{}, err
	}
	return payload, nil
}
