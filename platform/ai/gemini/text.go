// Package gemini adapts Google's Gemini models to the intake collaborators:
// text generation through an ADK agent runner, image labels and speech
// transcription through the genai client.
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	adkgemini "google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const textAppName = "complaint-intake"

// TextGenerator answers single-turn prompts. Each call runs in its own
// throwaway session so concurrent senders never share history.
type TextGenerator struct {
	runner         *runner.Runner
	sessionService session.Service
	appName        string
}

// NewTextGenerator creates a tool-less agent on the given model.
func NewTextGenerator(ctx context.Context, apiKey, modelName string) (*TextGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is empty")
	}

	llm, err := adkgemini.NewModel(ctx, modelName, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini model: %w", err)
	}

	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "ComplaintAnalyst",
		Model:       llm,
		Description: "Classifies and rewrites civic complaints reported by citizens.",
		Instruction: "You analyse civic complaints for a city administration. Follow the requested answer format exactly and never add commentary.",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create complaint agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        textAppName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create complaint runner: %w", err)
	}

	return &TextGenerator{
		runner:         r,
		sessionService: sessionService,
		appName:        textAppName,
	}, nil
}

// Complete runs prompt through the agent and returns the concatenated text.
func (g *TextGenerator) Complete(ctx context.Context, prompt string) (string, error) {
	userID := "intake"
	sessionID := uuid.New().String()

	if _, err := g.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   g.appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("gemini: create session: %w", err)
	}
	defer func() {
		_ = g.sessionService.Delete(context.WithoutCancel(ctx), &session.DeleteRequest{
			AppName:   g.appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: prompt}},
	}
	runConfig := agent.RunConfig{StreamingMode: agent.StreamingModeNone}

	var output strings.Builder
	for event, err := range g.runner.Run(ctx, userID, sessionID, userMessage, runConfig) {
		if err != nil {
			return "", fmt.Errorf("gemini: run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			output.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(output.String())
	if text == "" {
		return "", fmt.Errorf("gemini: empty response")
	}
	return text, nil
}
