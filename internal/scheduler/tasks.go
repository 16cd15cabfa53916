package scheduler

import (
	"encoding/json"
	"fmt"

	"nirvana_backend/internal/intake/domain"

	"github.com/hibiken/asynq"
)

const TaskInboundMessage = "intake.inbound_message"

type InboundMessagePayload struct {
	Event domain.InboundEvent `json:"event"`
}

func NewInboundMessageTask(evt domain.InboundEvent) (*asynq.Task, error) {
	data, err := json.Marshal(InboundMessagePayload{Event: evt})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskInboundMessage, data), nil
}

func ParseInboundMessagePayload(task *asynq.Task) (InboundMessagePayload, error) {
	var payload InboundMessagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return InboundMessagePayload{}, err
	}
	if payload.Event.SenderID == "" {
		return InboundMessagePayload{}, fmt.Errorf("inbound message task has no sender")
	}
	return payload, nil
}
