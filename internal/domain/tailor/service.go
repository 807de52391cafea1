package tailor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/jobfit/internal/domain/progress"
	apperrors "github.com/yanqian/jobfit/pkg/errors"
	"github.com/yanqian/jobfit/pkg/metrics"
	"github.com/yanqian/jobfit/pkg/util"
)

// Steps lists the workflow stages in execution order.
var Steps = []progress.StepDefinition{
	{Name: "Role Classification", Message: "Analyzing job description..."},
	{Name: "Content Customization", Message: "Customizing work experience and personal info..."},
	{Name: "Quality Review", Message: "Reviewing and finalizing..."},
}

// Service exposes the resume tailoring workflow.
type Service interface {
	Start(ctx context.Context, userID string, req Request) (StartResponse, error)
	Status(ctx context.Context, userID, requestID string) (progress.State, error)
	Events(ctx context.Context, userID, requestID string) (<-chan progress.Frame, error)
	HandleJob(ctx context.Context, name string, payload map[string]any)
}

type service struct {
	cfg     Config
	chat    ChatClient
	queue   JobQueue
	tracker *progress.Tracker
	metrics *metrics.Collectors
	logger  *slog.Logger
}

// NewService constructs the tailoring service.
func NewService(cfg Config, chat ChatClient, queue JobQueue, tracker *progress.Tracker, collectors *metrics.Collectors, logger *slog.Logger) Service {
	return &service{
		cfg:     withDefaults(cfg),
		chat:    chat,
		queue:   queue,
		tracker: tracker,
		metrics: collectors,
		logger:  logger.With("component", "tailor.service"),
	}
}

func withDefaults(cfg Config) Config {
	if cfg.JobTimeout <= 0 {
		cfg.JobTimeout = 3 * time.Minute
	}
	if cfg.MaxDescriptionLen <= 0 {
		cfg.MaxDescriptionLen = 20000
	}
	if cfg.ClassifierPrompt == "" {
		cfg.ClassifierPrompt = defaultClassifierPrompt
	}
	if cfg.CustomizerPrompt == "" {
		cfg.CustomizerPrompt = defaultCustomizerPrompt
	}
	if cfg.ReviewerPrompt == "" {
		cfg.ReviewerPrompt = defaultReviewerPrompt
	}
	return cfg
}

func (s *service) Start(ctx context.Context, userID string, req Request) (StartResponse, error) {
	if strings.TrimSpace(userID) == "" {
		return StartResponse{}, apperrors.Wrap("unauthorized", "user id is required", nil)
	}
	req.JobTitle = strings.TrimSpace(req.JobTitle)
	req.JobDescription = strings.TrimSpace(req.JobDescription)
	req.WorkExperience = strings.TrimSpace(req.WorkExperience)
	if req.JobDescription == "" {
		return StartResponse{}, apperrors.Wrap("invalid_input", "job description cannot be empty", nil)
	}
	if len([]rune(req.JobDescription)) > s.cfg.MaxDescriptionLen {
		return StartResponse{}, apperrors.Wrap("invalid_input", fmt.Sprintf("job description exceeds %d characters", s.cfg.MaxDescriptionLen), nil)
	}
	if req.WorkExperience == "" {
		return StartResponse{}, apperrors.Wrap("invalid_input", "work experience cannot be empty", nil)
	}
	requestID := strings.TrimSpace(req.RequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}

	if _, err := s.tracker.Init(ctx, requestID, userID, Steps); err != nil {
		return StartResponse{}, err
	}
	personal, err := json.Marshal(req.PersonalInfo)
	if err != nil {
		return StartResponse{}, apperrors.Wrap("invalid_input", "personal info is not serializable", err)
	}
	payload := map[string]any{
		"requestId":      requestID,
		"userId":         userID,
		"jobTitle":       req.JobTitle,
		"jobDescription": req.JobDescription,
		"workExperience": req.WorkExperience,
		"personalInfo":   string(personal),
	}
	if err := s.queue.Enqueue(ctx, JobName, payload); err != nil {
		_, _ = s.tracker.Append(context.WithoutCancel(ctx), requestID, progress.Event{Type: progress.EventError, Message: "failed to queue job"})
		return StartResponse{}, apperrors.Wrap("queue_error", "failed to enqueue tailoring job", err)
	}
	s.logger.Info("tailoring job queued", "request_id", requestID, "user_id", userID)
	return StartResponse{RequestID: requestID, Status: string(progress.StatusRunning)}, nil
}

func (s *service) Status(ctx context.Context, userID, requestID string) (progress.State, error) {
	state, err := s.tracker.Get(ctx, requestID)
	if err != nil {
		return progress.State{}, err
	}
	if state.OwnerID != "" && state.OwnerID != userID {
		return progress.State{}, apperrors.Wrap("not_found", "progress not found", nil)
	}
	return state, nil
}

func (s *service) Events(ctx context.Context, userID, requestID string) (<-chan progress.Frame, error) {
	if _, err := s.Status(ctx, userID, requestID); err != nil {
		return nil, err
	}
	return s.tracker.Watch(ctx, requestID)
}

// HandleJob runs a queued tailoring job. It is registered as the queue handler.
func (s *service) HandleJob(ctx context.Context, name string, payload map[string]any) {
	if name != JobName {
		s.logger.Warn("ignoring unknown job", "name", name)
		return
	}
	job := jobFromPayload(payload)
	if job.requestID == "" {
		s.logger.Error("tailoring job missing request id")
		return
	}
	ctx, cancel := context.WithTimeout(ctx, s.cfg.JobTimeout)
	defer cancel()
	s.run(ctx, job)
}

type job struct {
	requestID      string
	userID         string
	jobTitle       string
	jobDescription string
	workExperience string
	personalInfo   string
}

func jobFromPayload(payload map[string]any) job {
	str := func(key string) string {
		v, _ := payload[key].(string)
		return v
	}
	return job{
		requestID:      str("requestId"),
		userID:         str("userId"),
		jobTitle:       str("jobTitle"),
		jobDescription: str("jobDescription"),
		workExperience: str("workExperience"),
		personalInfo:   str("personalInfo"),
	}
}

func (s *service) run(ctx context.Context, j job) {
	logger := s.logger.With("request_id", j.requestID)
	var (
		total   metrics.TokenUsage
		outputs = make([]string, 0, len(Steps))
	)
	for i := range Steps {
		step := i + 1
		if _, err := s.tracker.Append(ctx, j.requestID, progress.Event{Type: progress.EventStepStart, Step: step, Message: Steps[i].Message}); err != nil {
			logger.Error("append step start failed", "step", step, "error", err)
			return
		}
		start := time.Now()
		completion, err := s.chat.Complete(ctx, s.cfg.Model, s.cfg.Temperature, s.messagesFor(step, j, outputs))
		if err != nil {
			logger.Error("tailoring step failed", "step", step, "error", err)
			_, _ = s.tracker.Append(context.WithoutCancel(ctx), j.requestID, progress.Event{
				Type:    progress.EventStepError,
				Step:    step,
				Message: fmt.Sprintf("%s failed: %v", Steps[i].Name, err),
			})
			return
		}
		usage := completion.Usage
		total = total.Add(usage)
		s.metrics.ObserveTokens(usage)
		content := strings.TrimSpace(completion.Content)
		outputs = append(outputs, content)
		if _, err := s.tracker.Append(ctx, j.requestID, progress.Event{
			Type:       progress.EventStepComplete,
			Step:       step,
			Message:    Steps[i].Name + " completed",
			DurationMs: util.ElapsedMs(start),
			Content:    content,
			Tokens:     &usage,
		}); err != nil {
			logger.Error("append step complete failed", "step", step, "error", err)
			return
		}
	}
	if _, err := s.tracker.Append(ctx, j.requestID, progress.Event{
		Type:    progress.EventCompleted,
		Message: "Resume tailored",
		Content: outputs[len(outputs)-1],
		Tokens:  &total,
	}); err != nil {
		logger.Error("append completion failed", "error", err)
		return
	}
	logger.Info("tailoring job completed", "total_tokens", total.TotalTokens)
}

func (s *service) messagesFor(step int, j job, outputs []string) []Message {
	jd := fmt.Sprintf("Job Title: %s\n\nJob Description:\n%s", j.jobTitle, j.jobDescription)
	switch step {
	case 1:
		return []Message{
			{Role: "system", Content: s.cfg.ClassifierPrompt},
			{Role: "user", Content: jd},
		}
	case 2:
		return []Message{
			{Role: "system", Content: s.cfg.CustomizerPrompt},
			{Role: "user", Content: fmt.Sprintf("%s\n\nRole Classification:\n%s\n\nWork Experience:\n%s", jd, outputs[0], j.workExperience)},
		}
	default:
		return []Message{
			{Role: "system", Content: s.cfg.ReviewerPrompt},
			{Role: "user", Content: fmt.Sprintf("%s\n\nPersonal Info (JSON):\n%s\n\nCustomized Work Experience:\n%s", jd, j.personalInfo, outputs[1])},
		}
	}
}

const (
	defaultClassifierPrompt = "You are a recruiting analyst. Classify the role described by the job posting. Respond in plain text with the role type on the first line, then up to 9 keywords grouped in three themes, then three short insights about what the hiring manager values."
	defaultCustomizerPrompt = "You are a resume writer. Rewrite the candidate's work experience so it emphasizes the keywords and themes from the role classification. Keep every fact truthful, keep the original employers and dates, and use concise achievement oriented bullet points in plain text."
	defaultReviewerPrompt   = "You are a senior resume reviewer. Check the customized work experience for accuracy against the job description, tighten the wording, fix grammar and return the final work experience in plain text without commentary."
)
