// Package openai adapts OpenAI-compatible chat, vision and transcription
// endpoints to the intake collaborators.
package openai

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"nirvana_backend/platform/ai"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	systemPrompt       = "You analyse civic complaints for a city administration. Follow the requested answer format exactly and never add commentary."
	transcriptionModel = "whisper-1"
)

// Config configures the OpenAI client.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Client implements text completion, image labelling and transcription.
type Client struct {
	client openai.Client
	model  string
}

// NewClient creates a client. BaseURL may point at any OpenAI-compatible API.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is empty")
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}

	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")+"/"))
	}

	return &Client{
		client: openai.NewClient(opts...),
		model:  cfg.Model,
	}, nil
}

// Complete sends prompt as a single user turn.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", fmt.Errorf("openai completion: %w", err)
	}
	return firstChoice(resp)
}

// Label asks a vision-capable chat model for the objects in image.
func (c *Client) Label(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("openai label: no image data")
	}
	dataURL := "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(image)

	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
				openai.TextContentPart(ai.LabelInstruction),
			}),
		},
		Temperature: openai.Float(0),
	})
	if err != nil {
		return "", fmt.Errorf("openai label: %w", err)
	}

	answer, err := firstChoice(resp)
	if err != nil {
		return "", err
	}
	return ai.ParseLabel(answer), nil
}

// Transcribe uploads audio to the transcription endpoint.
func (c *Client) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("openai transcribe: no audio data")
	}

	resp, err := c.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(transcriptionModel),
		File:  openai.File(bytes.NewReader(audio), "voice"+audioExtension(mimeType), mimeType),
	})
	if err != nil {
		return "", fmt.Errorf("openai transcribe: %w", err)
	}
	return ai.ParseTranscript(resp.Text), nil
}

func firstChoice(resp *openai.ChatCompletion) (string, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai returned no choices")
	}
	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("openai returned empty text")
	}
	return text, nil
}

// The transcription endpoint infers the container from the file name.
func audioExtension(mimeType string) string {
	base, _, _ := strings.Cut(strings.ToLower(mimeType), ";")
	switch strings.TrimSpace(base) {
	case "audio/mpeg", "audio/mp3":
		return ".mp3"
	case "audio/mp4", "audio/m4a", "audio/aac":
		return ".m4a"
	case "audio/wav", "audio/x-wav":
		return ".wav"
	case "audio/webm":
		return ".webm"
	default:
		return ".ogg"
	}
}
