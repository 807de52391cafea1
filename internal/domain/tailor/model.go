package tailor

import (
	"context"
	"time"

	"github.com/yanqian/jobfit/pkg/metrics"
)

// JobName identifies tailoring jobs on the queue.
const JobName = "tailor_resume"

// Config drives the tailoring workflow.
type Config struct {
	Model             string
	Temperature       float32
	JobTimeout        time.Duration
	MaxDescriptionLen int
	ClassifierPrompt  string
	CustomizerPrompt  string
	ReviewerPrompt    string
}

// Request captures a tailoring submission.
type Request struct {
	RequestID      string         `json:"requestId"`
	JobTitle       string         `json:"jobTitle"`
	JobDescription string         `json:"jobDescription"`
	WorkExperience string         `json:"workExperience"`
	PersonalInfo   map[string]any `json:"personalInfo"`
}

// StartResponse acknowledges a queued job.
type StartResponse struct {
	RequestID string `json:"requestId"`
	Status    string `json:"status"`
}

// Message mirrors a simplified chat payload.
type Message struct {
	Role    string
	Content string
}

// Completion is the text and token usage of one chat call.
type Completion struct {
	Content string
	Usage   metrics.TokenUsage
}

// ChatClient runs a single chat completion.
type ChatClient interface {
	Complete(ctx context.Context, model string, temperature float32, messages []Message) (Completion, error)
}

// JobQueue schedules background work.
type JobQueue interface {
	Enqueue(ctx context.Context, name string, payload any) error
}
