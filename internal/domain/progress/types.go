package progress

import (
	"context"
	"time"

	"github.com/yanqian/jobfit/pkg/metrics"
)

// StepStatus is the lifecycle of a single step.
type StepStatus string

const (
	StepWaiting   StepStatus = "waiting"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepError     StepStatus = "error"
)

// OverallStatus is the lifecycle of a whole request.
type OverallStatus string

const (
	StatusIdle      OverallStatus = "idle"
	StatusRunning   OverallStatus = "running"
	StatusCompleted OverallStatus = "completed"
	StatusError     OverallStatus = "error"
)

// Terminal reports whether no further events are accepted.
func (s OverallStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusError
}

// EventType enumerates the events a writer may append.
type EventType string

const (
	EventStepStart    EventType = "step_start"
	EventStepComplete EventType = "step_complete"
	EventStepError    EventType = "step_error"
	EventCompleted    EventType = "completed"
	EventError        EventType = "error"
)

// FrameConnected is the type of the first frame sent to every watcher.
const FrameConnected = "connected"

// StepDefinition names a step before it runs.
type StepDefinition struct {
	Name    string
	Message string
}

// Step is the materialized status of one step.
type Step struct {
	Step       int                 `json:"step"`
	StepName   string              `json:"stepName"`
	Status     StepStatus          `json:"status"`
	Message    string              `json:"message"`
	DurationMs int64               `json:"duration,omitempty"`
	Content    string              `json:"content,omitempty"`
	Tokens     *metrics.TokenUsage `json:"tokens,omitempty"`
}

// State is the folded view of a request's event log.
type State struct {
	RequestID       string             `json:"requestId"`
	OwnerID         string             `json:"ownerId,omitempty"`
	CurrentStep     int                `json:"currentStep"`
	TotalSteps      int                `json:"totalSteps"`
	OverallStatus   OverallStatus      `json:"overallStatus"`
	Steps           []Step             `json:"steps"`
	TotalTokens     metrics.TokenUsage `json:"totalTokens"`
	TotalDurationMs int64              `json:"totalDuration"`
	StartedAt       time.Time          `json:"startTime"`
	UpdatedAt       time.Time          `json:"updatedAt"`
}

// Event is one entry of the append-only log.
type Event struct {
	Seq        int                 `json:"seq"`
	Type       EventType           `json:"type"`
	Step       int                 `json:"step,omitempty"`
	StepName   string              `json:"stepName,omitempty"`
	Message    string              `json:"message"`
	DurationMs int64               `json:"duration,omitempty"`
	Content    string              `json:"content,omitempty"`
	Tokens     *metrics.TokenUsage `json:"tokens,omitempty"`
	At         time.Time           `json:"timestamp"`
}

// Record is what a Store persists for one request.
type Record struct {
	State  State   `json:"state"`
	Events []Event `json:"events"`
}

// Frame is one server-sent message delivered to a watcher.
type Frame struct {
	Type  string `json:"type"`
	Event *Event `json:"event,omitempty"`
	State *State `json:"state,omitempty"`
}

// Store keeps progress records with a time to live.
type Store interface {
	Load(ctx context.Context, requestID string) (Record, bool, error)
	Save(ctx context.Context, record Record, ttl time.Duration) error
	Delete(ctx context.Context, requestID string) error
}

// Config controls record lifetime and watcher cadence.
type Config struct {
	TTL          time.Duration
	TerminalTTL  time.Duration
	PollInterval time.Duration
}

func (c Config) withDefaults() Config {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Minute
	}
	if c.TerminalTTL <= 0 {
		c.TerminalTTL = 2 * time.Minute
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 500 * time.Millisecond
	}
	return c
}
