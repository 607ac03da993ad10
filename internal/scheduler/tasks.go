package scheduler

import (
	"encoding/json"

	"leadedge_backend/internal/events"

	"github.com/hibiken/asynq"
)

const TaskLeadNotify = "leads.notify"

// LeadNotifyPayload is the stored lead event, so the worker can deliver
// without reading the database.
type LeadNotifyPayload = events.LeadSubmitted

func NewLeadNotifyTask(payload LeadNotifyPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLeadNotify, data), nil
}

func ParseLeadNotifyPayload(task *asynq.Task) (LeadNotifyPayload, error) {
	var payload LeadNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return LeadNotifyPayload{}, err
	}
	return payload, nil
}
