// Package jobs holds the Asynq task definitions and the worker runtime.
package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskRegisterRefresh rebuilds the denormalised cash register totals.
	TaskRegisterRefresh = "register:refresh"
	// TaskSequenceAudit scans document number scopes for anomalies.
	TaskSequenceAudit = "numbering:audit"
)

// RegisterRefreshPayload carries scheduling metadata.
type RegisterRefreshPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewRegisterRefreshTask constructs an Asynq task for register totals refresh.
func NewRegisterRefreshTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(RegisterRefreshPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskRegisterRefresh, body, asynq.Queue(QueueDefault)), nil
}

// SequenceAuditPayload selects which day to audit. A zero day means today.
type SequenceAuditPayload struct {
	Day time.Time `json:"day"`
}

// NewSequenceAuditTask constructs an Asynq task for the numbering audit.
func NewSequenceAuditTask(day time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(SequenceAuditPayload{Day: day})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSequenceAudit, body, asynq.Queue(QueueDefault)), nil
}
