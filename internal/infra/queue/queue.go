package queue

import (
	"context"

	"github.com/yanqian/jobfit/internal/domain/tailor"
)

// HandlerQueue supports setting a handler for job delivery.
type HandlerQueue interface {
	tailor.JobQueue
	SetHandler(handler Handler)
	Close()
}

// Handler executes a delivered job.
type Handler func(ctx context.Context, name string, payload map[string]any)

func asPayload(payload any) map[string]any {
	typed, ok := payload.(map[string]any)
	if !ok {
		return map[string]any{}
	}
	return typed
}
