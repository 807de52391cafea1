package progress

import (
	"fmt"
	"time"
)

func newState(requestID, ownerID string, steps []StepDefinition, now time.Time) State {
	state := State{
		RequestID:     requestID,
		OwnerID:       ownerID,
		TotalSteps:    len(steps),
		OverallStatus: StatusRunning,
		Steps:         make([]Step, len(steps)),
		StartedAt:     now,
		UpdatedAt:     now,
	}
	for i, def := range steps {
		state.Steps[i] = Step{Step: i + 1, StepName: def.Name, Status: StepWaiting, Message: def.Message}
	}
	return state
}

// apply folds ev into state. The caller has already checked the state is not terminal.
func apply(state State, ev Event) (State, error) {
	switch ev.Type {
	case EventStepStart, EventStepComplete, EventStepError:
		if ev.Step < 1 || ev.Step > len(state.Steps) {
			return state, fmt.Errorf("step %d out of range 1..%d", ev.Step, len(state.Steps))
		}
	case EventCompleted, EventError:
	default:
		return state, fmt.Errorf("unknown event type %q", ev.Type)
	}

	steps := append([]Step(nil), state.Steps...)
	state.Steps = steps
	switch ev.Type {
	case EventStepStart:
		state.CurrentStep = ev.Step
		step := &steps[ev.Step-1]
		step.Status = StepRunning
		step.Message = ev.Message
	case EventStepComplete:
		step := &steps[ev.Step-1]
		step.Status = StepCompleted
		step.Message = ev.Message
		step.DurationMs = ev.DurationMs
		step.Content = ev.Content
		step.Tokens = ev.Tokens
		if ev.Tokens != nil {
			state.TotalTokens = state.TotalTokens.Add(*ev.Tokens)
		}
	case EventStepError:
		step := &steps[ev.Step-1]
		step.Status = StepError
		step.Message = ev.Message
		state.OverallStatus = StatusError
	case EventCompleted:
		state.OverallStatus = StatusCompleted
		state.TotalDurationMs = ev.At.Sub(state.StartedAt).Milliseconds()
		if ev.Tokens != nil {
			state.TotalTokens = *ev.Tokens
		}
	case EventError:
		state.OverallStatus = StatusError
	}
	state.UpdatedAt = ev.At
	return state, nil
}
