package analyzer

import (
	"context"
	"time"
)

// Telemetry receives analyzer lifecycle signals. It is handed to the
// Controller explicitly so the core does not depend on a metrics backend.
type Telemetry interface {
	SessionStarted(ctx context.Context, sessionID string)
	TickSkipped(ctx context.Context, sessionID string)
	SessionStopped(ctx context.Context, sessionID string, final VoiceMetrics, elapsed time.Duration)
	ReleaseFailed(ctx context.Context, sessionID string)
}

type NoOpTelemetry struct{}

func (NoOpTelemetry) SessionStarted(context.Context, string)                              {}
func (NoOpTelemetry) TickSkipped(context.Context, string)                                 {}
func (NoOpTelemetry) SessionStopped(context.Context, string, VoiceMetrics, time.Duration) {}
func (NoOpTelemetry) ReleaseFailed(context.Context, string)                               {}
