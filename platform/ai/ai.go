// Package ai holds the instructions shared by the generative backends in its
// subpackages. Provider-specific clients live in platform/ai/gemini and
// platform/ai/openai.
package ai

import (
	"strings"
)

// LabelInstruction asks a vision model for the salient objects in a photo.
const LabelInstruction = `List the main objects or scene visible in this photo as a short comma-separated list of lowercase nouns, most prominent first (for example: "pothole, road, car").
Use at most 8 terms. Do not describe colours or write sentences.
If nothing recognisable is visible, reply with exactly NONE.`

// TranscribeInstruction asks a model for a verbatim transcript of a voice note.
const TranscribeInstruction = `Transcribe this voice message verbatim in the language it is spoken.
Reply with the transcript only: no quotes, no speaker labels, no commentary.
If there is no intelligible speech, reply with exactly NONE.`

const none = "NONE"

// ParseLabel normalises a vision answer into a comma-separated label.
// NONE and empty answers become "".
func ParseLabel(answer string) string {
	answer = strings.TrimSpace(answer)
	answer = strings.Trim(answer, "`\"'.")
	if answer == "" || strings.EqualFold(answer, none) {
		return ""
	}

	fields := strings.FieldsFunc(answer, func(r rune) bool { return r == ',' || r == '\n' || r == ';' })
	labels := make([]string, 0, len(fields))
	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		term := strings.ToLower(strings.TrimSpace(strings.TrimLeft(f, "-*• ")))
		term = strings.Trim(term, ".\"'")
		if term == "" || term == strings.ToLower(none) {
			continue
		}
		if _, dup := seen[term]; dup {
			continue
		}
		seen[term] = struct{}{}
		labels = append(labels, term)
	}
	return strings.Join(labels, ", ")
}

// ParseTranscript trims a transcription answer; NONE becomes "".
func ParseTranscript(answer string) string {
	answer = strings.TrimSpace(answer)
	if strings.EqualFold(answer, none) {
		return ""
	}
	return answer
}
