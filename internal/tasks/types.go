package tasks

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// Task type names
const (
	TypeEmailSync     = "sync:email"
	TypeSchedulerTick = "scheduler:tick"
)

// EmailSyncPayload contains the data for a Gmail sync task
type EmailSyncPayload struct {
	CredentialID uuid.UUID `json:"credential_id"`
	Query        string    `json:"query"`
}

func NewEmailSyncTask(payload EmailSyncPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEmailSync, data), nil
}

// SchedulerTickPayload is empty - the tick checks every enabled schedule
type SchedulerTickPayload struct{}

func NewSchedulerTickTask() *asynq.Task {
	return asynq.NewTask(TypeSchedulerTick, nil)
}
