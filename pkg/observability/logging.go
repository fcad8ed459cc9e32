package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/wikisophy/pkg/domain"
)

// LoggingHooks returns lifecycle hooks writing one structured record per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStart: func(ctx context.Context, e *domain.JourneyEvent) {
			logger.InfoContext(ctx, "journey_start", "title", e.Title)
		},
		OnStep: func(ctx context.Context, e *domain.StepEvent) {
			logger.DebugContext(ctx, "journey_step",
				"from", e.From,
				"to", e.To,
				"step", e.Step,
				"duration", e.Duration,
			)
		},
		OnFinish: func(ctx context.Context, e *domain.JourneyEvent) {
			logger.InfoContext(ctx, "journey_finish",
				"title", e.Title,
				"outcome", e.Outcome,
				"path_length", e.PathLength,
			)
		},
	}
}
