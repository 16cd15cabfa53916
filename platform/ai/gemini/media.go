package gemini

import (
	"context"
	"fmt"
	"strings"

	"nirvana_backend/platform/ai"

	"google.golang.org/genai"
)

// MediaModel sends inline image or audio data to a multimodal model.
// It backs both the Labeler and the Transcriber.
type MediaModel struct {
	client    *genai.Client
	modelName string
}

// NewMediaModel creates a genai client for the Gemini API.
func NewMediaModel(ctx context.Context, apiKey, modelName string) (*MediaModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &MediaModel{client: client, modelName: modelName}, nil
}

// Label returns a comma-separated list of the objects visible in image,
// or "" when the model recognises nothing.
func (m *MediaModel) Label(ctx context.Context, image []byte, mimeType string) (string, error) {
	answer, err := m.generate(ctx, image, mimeType, ai.LabelInstruction)
	if err != nil {
		return "", fmt.Errorf("gemini label: %w", err)
	}
	return ai.ParseLabel(answer), nil
}

// Transcribe returns the spoken text of a voice note.
func (m *MediaModel) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	answer, err := m.generate(ctx, audio, audioMIMEType(mimeType), ai.TranscribeInstruction)
	if err != nil {
		return "", fmt.Errorf("gemini transcribe: %w", err)
	}
	return ai.ParseTranscript(answer), nil
}

func (m *MediaModel) generate(ctx context.Context, data []byte, mimeType, instruction string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("no media data")
	}

	contents := []*genai.Content{{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{InlineData: &genai.Blob{MIMEType: mimeType, Data: data}},
			genai.NewPartFromText(instruction),
		},
	}}

	temp := float32(0)
	cfg := &genai.GenerateContentConfig{
		Temperature:     &temp,
		MaxOutputTokens: 2048,
	}

	res, err := m.client.Models.GenerateContent(ctx, m.modelName, contents, cfg)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// WhatsApp voice notes arrive as "audio/ogg; codecs=opus"; the model only
// accepts the bare media type.
func audioMIMEType(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.TrimSpace(strings.ToLower(base))
	if base == "" {
		return "audio/ogg"
	}
	return base
}
