package intake

import (
	"context"

	"nirvana_backend/platform/ai/gemini"
	"nirvana_backend/platform/ai/openai"
	"nirvana_backend/platform/config"
	"nirvana_backend/platform/logger"
)

// NewAICollaborators builds the generative, vision and speech adapters for
// the configured provider. Construction failures are logged and leave the
// affected collaborator nil so the keyword fallbacks take over.
func NewAICollaborators(ctx context.Context, cfg config.AIConfig, log *logger.Logger) Collaborators {
	var collab Collaborators
	if !cfg.IsAIEnabled() {
		log.Warn("no AI provider key configured; intake runs on keyword fallbacks only", "provider", cfg.GetLLMProvider())
		return collab
	}

	switch cfg.GetLLMProvider() {
	case config.ProviderOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:  cfg.GetOpenAIAPIKey(),
			BaseURL: cfg.GetOpenAIBaseURL(),
			Model:   cfg.GetOpenAIModel(),
		})
		if err != nil {
			log.Error("failed to initialize openai client", "error", err)
			return collab
		}
		collab.Completer = client
		collab.Labeler = client
		collab.Transcriber = client

	default:
		text, err := gemini.NewTextGenerator(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiModel())
		if err != nil {
			log.Error("failed to initialize gemini text generator", "error", err)
		} else {
			collab.Completer = text
		}

		media, err := gemini.NewMediaModel(ctx, cfg.GetGeminiAPIKey(), cfg.GetGeminiVisionModel())
		if err != nil {
			log.Error("failed to initialize gemini media model", "error", err)
		} else {
			collab.Labeler = media
			collab.Transcriber = media
		}
	}

	log.Info("AI collaborators initialized",
		"provider", cfg.GetLLMProvider(),
		"completer", collab.Completer != nil,
		"labeler", collab.Labeler != nil,
		"transcriber", collab.Transcriber != nil,
	)
	return collab
}
