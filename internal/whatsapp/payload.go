package whatsapp

import (
	"strconv"
	"strings"
	"time"

	"nirvana_backend/internal/intake/domain"
)

// WebhookPayload is the envelope POSTed by the Cloud API.
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Field string      `json:"field"`
	Value ChangeValue `json:"value"`
}

type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
	Statuses         []Status  `json:"statuses"`
}

type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

type Status struct {
	ID          string `json:"id"`
	Status      string `json:"status"`
	RecipientID string `json:"recipient_id"`
}

type Message struct {
	From      string         `json:"from"`
	ID        string         `json:"id"`
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	Text      *TextContent   `json:"text,omitempty"`
	Image     *MediaContent  `json:"image,omitempty"`
	Audio     *MediaContent  `json:"audio,omitempty"`
	Location  *LocationField `json:"location,omitempty"`
	Button    *ButtonContent `json:"button,omitempty"`
}

type TextContent struct {
	Body string `json:"body"`
}

type MediaContent struct {
	ID       string `json:"id"`
	MIMEType string `json:"mime_type"`
	Caption  string `json:"caption,omitempty"`
	Voice    bool   `json:"voice,omitempty"`
}

type LocationField struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Name      string  `json:"name,omitempty"`
	Address   string  `json:"address,omitempty"`
}

type ButtonContent struct {
	Text    string `json:"text"`
	Payload string `json:"payload"`
}

// Unsupported is a message whose type the intake cannot process.
type Unsupported struct {
	SenderID string
	Type     string
}

// Extract flattens a webhook payload into inbound events. Delivery status
// callbacks are ignored; message types other than text, image, audio and
// location are returned separately so the sender can be told.
func Extract(p WebhookPayload) ([]domain.InboundEvent, []Unsupported) {
	var (
		events      []domain.InboundEvent
		unsupported []Unsupported
	)
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			if change.Field != "" && change.Field != "messages" {
				continue
			}
			for _, msg := range change.Value.Messages {
				evt, ok := toEvent(msg)
				if !ok {
					unsupported = append(unsupported, Unsupported{SenderID: msg.From, Type: msg.Type})
					continue
				}
				events = append(events, evt)
			}
		}
	}
	return events, unsupported
}

func toEvent(msg Message) (domain.InboundEvent, bool) {
	evt := domain.InboundEvent{
		MessageID:  msg.ID,
		SenderID:   msg.From,
		ReceivedAt: parseTimestamp(msg.Timestamp),
	}
	if msg.From == "" {
		return evt, false
	}

	switch msg.Type {
	case "text":
		if msg.Text == nil {
			return evt, false
		}
		evt.Type = domain.EventText
		evt.Text = msg.Text.Body
	case "button":
		if msg.Button == nil {
			return evt, false
		}
		evt.Type = domain.EventText
		evt.Text = msg.Button.Text
	case "image":
		if msg.Image == nil || msg.Image.ID == "" {
			return evt, false
		}
		evt.Type = domain.EventImage
		evt.MediaID = msg.Image.ID
		evt.MIMEType = msg.Image.MIMEType
	case "audio", "voice":
		if msg.Audio == nil || msg.Audio.ID == "" {
			return evt, false
		}
		evt.Type = domain.EventAudio
		evt.MediaID = msg.Audio.ID
		evt.MIMEType = msg.Audio.MIMEType
	case "location":
		if msg.Location == nil {
			return evt, false
		}
		evt.Type = domain.EventLocation
		evt.Location = &domain.Coordinates{
			Latitude:  msg.Location.Latitude,
			Longitude: msg.Location.Longitude,
		}
	default:
		return evt, false
	}
	return evt, true
}

func parseTimestamp(ts string) time.Time {
	secs, err := strconv.ParseInt(strings.TrimSpace(ts), 10, 64)
	if err != nil || secs <= 0 {
		return time.Now().UTC()
	}
	return time.Unix(secs, 0).UTC()
}
