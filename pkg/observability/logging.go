package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/weft/pkg/domain"
)

// LogHooks returns lifecycle hooks that log render and action events.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnRender: func(ctx context.Context, e *domain.RenderEvent) {
			if e.Err != nil {
				logger.ErrorContext(ctx, "render_failed",
					"thread", e.Thread,
					"coordinate", e.Coordinate.String(),
					"err", e.Err)
				return
			}
			logger.InfoContext(ctx, "render",
				"thread", e.Thread,
				"coordinate", e.Coordinate.String(),
				"mode", string(e.Mode),
				"actions", e.Actions,
				"duration", e.Duration)
		},
		OnAction: func(ctx context.Context, e *domain.ActionEvent) {
			if e.Err != nil {
				logger.WarnContext(ctx, "action_failed", "thread", e.Thread, "action", e.Action, "err", e.Err)
				return
			}
			logger.InfoContext(ctx, "action",
				"thread", e.Thread,
				"action", e.Action,
				"outcome", string(e.Outcome),
				"duration", e.Duration)
		},
	}
}
