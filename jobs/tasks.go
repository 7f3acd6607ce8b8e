package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuthEvent is the task type for recording one auth event.
	TaskTypeAuthEvent = "auth:event"
	// TaskTypePruneAuthEvents is the task type for the retention sweep.
	TaskTypePruneAuthEvents = "auth:event:prune"
)

// AuthEventPayload describes one register or login attempt observed by the
// API, destined for the audit trail.
type AuthEventPayload struct {
	Kind    string    `json:"kind"`
	Outcome string    `json:"outcome"`
	Email   string    `json:"email"`
	UserID  int64     `json:"user_id"`
	At      time.Time `json:"at"`
}

// NewAuthEventTask constructs an Asynq task carrying one auth event.
func NewAuthEventTask(payload AuthEventPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuthEvent, data), nil
}

// NewPruneAuthEventsTask constructs the retention sweep task.
func NewPruneAuthEventsTask() *asynq.Task {
	return asynq.NewTask(TaskTypePruneAuthEvents, nil)
}
