package domain

import "time"

// EventType is the kind of inbound message.
type EventType string

const (
	EventText     EventType = "text"
	EventImage    EventType = "image"
	EventLocation EventType = "location"
	EventAudio    EventType = "audio"
)

// InboundEvent is one message received from a sender.
type InboundEvent struct {
	MessageID  string       `json:"message_id,omitempty"`
	SenderID   string       `json:"sender_id" validate:"required,max=32"`
	Type       EventType    `json:"type" validate:"required,oneof=text image location audio"`
	Text       string       `json:"text,omitempty" validate:"max=4096"`
	MediaID    string       `json:"media_id,omitempty" validate:"required_if=Type image,required_if=Type audio"`
	MIMEType   string       `json:"mime_type,omitempty"`
	Location   *Coordinates `json:"location,omitempty" validate:"required_if=Type location"`
	ReceivedAt time.Time    `json:"received_at"`
}

// Reply is the text sent back to the sender for one inbound event.
type Reply struct {
	To   string
	Text string
}
