// Package command recognises the stage-independent commands a citizen can
// send at any point of the conversation.
package command

import (
	"strings"

	"nirvana_backend/internal/intake/domain"
)

// MinComplaintIDLength is the shortest token treated as a record ID prefix.
const MinComplaintIDLength = 8

var historyPhrases = map[string]struct{}{
	"history":        {},
	"my complaints":  {},
	"complaints":     {},
	"all complaints": {},
}

var cancelWords = map[string]struct{}{
	"cancel":  {},
	"abort":   {},
	"stop":    {},
	"quit":    {},
	"restart": {},
	"reset":   {},
	"exit":    {},
}

// Detect classifies a text message. Matching is case-insensitive and ignores
// surrounding whitespace and trailing punctuation. Anything that is not a
// command returns Kind == CommandNone.
func Detect(text string) domain.Command {
	normalized := normalize(text)
	if normalized == "" {
		return domain.Command{Kind: domain.CommandNone}
	}

	if _, ok := cancelWords[normalized]; ok {
		return domain.Command{Kind: domain.CommandCancel}
	}
	if _, ok := historyPhrases[normalized]; ok {
		return domain.Command{Kind: domain.CommandHistory}
	}

	fields := strings.Fields(normalized)
	if fields[0] == "status" || fields[0] == "track" {
		cmd := domain.Command{Kind: domain.CommandStatus}
		if len(fields) >= 2 && len(fields[1]) >= MinComplaintIDLength {
			cmd.ComplaintID = fields[1]
		}
		return cmd
	}

	return domain.Command{Kind: domain.CommandNone}
}

// FromEvent inspects only text events; other event types are never commands.
func FromEvent(evt domain.InboundEvent) domain.Command {
	if evt.Type != domain.EventText {
		return domain.Command{Kind: domain.CommandNone}
	}
	return Detect(evt.Text)
}

func normalize(text string) string {
	s := strings.ToLower(strings.TrimSpace(text))
	s = strings.TrimRight(s, ".!?")
	return strings.Join(strings.Fields(s), " ")
}
