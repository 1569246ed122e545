package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/arcade/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that write one structured line per event.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnStateEnter: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_enter",
				"session_id", e.SessionID,
				"state", e.StateID,
				"speaker", e.Speaker,
			)
		},
		OnStateLeave: func(ctx context.Context, e *domain.StateEvent) {
			logger.DebugContext(ctx, "state_leave", "session_id", e.SessionID, "state", e.StateID)
		},
		OnMacroCall: func(ctx context.Context, e *domain.MacroEvent) {
			logger.DebugContext(ctx, "macro_call",
				"session_id", e.SessionID,
				"state", e.StateID,
				"macro", e.Macro,
				"args", e.Args,
			)
		},
		OnMacroReturn: func(ctx context.Context, e *domain.MacroEvent) {
			level := slog.LevelDebug
			if e.IsError {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "macro_return",
				"session_id", e.SessionID,
				"macro", e.Macro,
				"is_error", e.IsError,
				"duration", e.Duration,
			)
		},
		OnNoMatch: func(ctx context.Context, e *domain.NoMatchEvent) {
			logger.InfoContext(ctx, "no_match",
				"session_id", e.SessionID,
				"state", e.StateID,
				"utterance", e.Utterance,
				"fallback", e.Fallback,
			)
		},
	}
}
