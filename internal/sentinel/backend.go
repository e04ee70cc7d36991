package sentinel

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sentinel/internal/analyze"
	"sentinel/internal/config"
	"sentinel/internal/observe"
)

// ResolveBackend builds the analysis backend the config asks for, applying
// the startup dependency rules: a missing cloud CLI falls back to ollama
// with a warning, an unreachable ollama that the config requires is fatal.
// The returned observation, when non-nil, documents a fallback and is
// recorded right after the session header.
func ResolveBackend(ctx context.Context, cfg *config.Config, logger *zap.Logger) (analyze.Backend, *observe.Observation, error) {
	prompt, err := analyze.LoadSystemPrompt(cfg.Analysis.PromptFile)
	if err != nil {
		return nil, nil, err
	}
	timeout := cfg.GetAnalysisTimeout()
	cloud := analyze.NewCloudCLI(cfg.Analysis.CloudModel, prompt, timeout)
	local := analyze.NewOllama(cfg.Analysis.OllamaURL, cfg.Analysis.OllamaModel, prompt, timeout)

	switch cfg.Analysis.Backend {
	case config.BackendCloud:
		cloudErr := cloud.Available()
		if cloudErr == nil {
			return cloud, nil, nil
		}
		if pingErr := local.Ping(ctx); pingErr != nil {
			return nil, nil, fmt.Errorf("cloud backend unavailable (%v) and ollama fallback failed: %w", cloudErr, pingErr)
		}
		logger.Warn("cloud backend unavailable, falling back to ollama", zap.Error(cloudErr))
		return local, fallbackNote(cloudErr, local.Name()), nil

	case config.BackendOllama:
		if err := local.Ping(ctx); err != nil {
			return nil, nil, err
		}
		return local, nil, nil

	case config.BackendBoth:
		cloudErr := cloud.Available()
		localErr := local.Ping(ctx)
		switch {
		case cloudErr == nil && localErr == nil:
			return analyze.NewDual(cloud, local), nil, nil
		case cloudErr != nil && localErr == nil:
			logger.Warn("cloud backend unavailable, running local only", zap.Error(cloudErr))
			return local, fallbackNote(cloudErr, local.Name()), nil
		case cloudErr == nil && localErr != nil:
			logger.Warn("ollama unreachable, running cloud only", zap.Error(localErr))
			return cloud, fallbackNote(localErr, cloud.Name()), nil
		default:
			return nil, nil, fmt.Errorf("no backend available: cloud: %v; ollama: %w", cloudErr, localErr)
		}
	}
	return nil, nil, fmt.Errorf("unknown backend %q", cfg.Analysis.Backend)
}

func fallbackNote(cause error, using string) *observe.Observation {
	return &observe.Observation{
		Time:     time.Now(),
		Severity: observe.SeverityWarn,
		Category: observe.CategorySentinel,
		Message:  fmt.Sprintf("Backend fallback: %v; using %s for this session.", cause, using),
	}
}
