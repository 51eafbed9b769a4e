package app

import (
	"context"
	"log/slog"

	"NewsAggregator/internal/config"
	"NewsAggregator/internal/infrastructure/llm"
	"NewsAggregator/internal/infrastructure/ml"
	"NewsAggregator/internal/infrastructure/resilient"
	"NewsAggregator/internal/ports"
)

// buildDelegates resolves the configured AI provider. Missing credentials fall back to the
// heuristic strategies, signalled by nil delegates.
func buildDelegates(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (ports.SummarizationDelegate, ports.BiasDelegate, func() error) {
	log := logger.With("component", "delegates", "provider", cfg.Provider)
	settings := func(name string) resilient.Settings {
		return resilient.Settings{
			Name:        name,
			Timeout:     cfg.Timeout,
			MaxFailures: cfg.BreakerFailures,
			OpenTimeout: cfg.BreakerOpen,
		}
	}

	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := llm.NewGeminiClient(ctx, cfg.Gemini)
		if err != nil {
			log.Warn("gemini unavailable, using heuristics", "error", err)
			return nil, nil, nil
		}
		guard := resilient.NewGuard(client, client, settings(config.ProviderGemini), log)
		log.Info("model delegates ready")
		return guard, guard, client.Close

	case config.ProviderOpenAI:
		client := llm.NewChatGPTClient(cfg.ChatGPT)
		if !client.Configured() {
			log.Warn("openai endpoint or key missing, using heuristics")
			return nil, nil, nil
		}
		guard := resilient.NewGuard(client, client, settings(config.ProviderOpenAI), log)
		log.Info("model delegates ready")
		return guard, guard, nil

	case config.ProviderInference:
		client := ml.NewClient(cfg.ML.InferenceURL, cfg.ML.APIKey)
		if !client.Configured() {
			log.Warn("inference url missing, using heuristics")
			return nil, nil, nil
		}
		guard := resilient.NewGuard(client, client, settings(config.ProviderInference), log)
		log.Info("model delegates ready")
		return guard, guard, nil

	case config.ProviderHeuristic, "":
		log.Info("using heuristic summarization and bias scoring")
		return nil, nil, nil

	default:
		log.Warn("unknown ai provider, using heuristics")
		return nil, nil, nil
	}
}
