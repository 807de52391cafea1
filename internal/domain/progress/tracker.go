package progress

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	apperrors "github.com/yanqian/jobfit/pkg/errors"
	"github.com/yanqian/jobfit/pkg/metrics"
	"github.com/yanqian/jobfit/pkg/util"
)

// Tracker owns the per-request event logs. Each request has a single writer and any
// number of watchers.
type Tracker struct {
	cfg     Config
	store   Store
	metrics *metrics.Collectors
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex
}

// NewTracker constructs a Tracker. collectors may be nil.
func NewTracker(cfg Config, store Store, collectors *metrics.Collectors, logger *slog.Logger) *Tracker {
	return &Tracker{
		cfg:     cfg.withDefaults(),
		store:   store,
		metrics: collectors,
		logger:  logger.With("component", "progress.tracker"),
		now:     util.NowUTC,
	}
}

// Init starts a fresh log for requestID. A request that is still running cannot be restarted.
func (t *Tracker) Init(ctx context.Context, requestID, ownerID string, steps []StepDefinition) (State, error) {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return State{}, apperrors.Wrap("invalid_input", "request id is required", nil)
	}
	if len(steps) == 0 {
		return State{}, apperrors.Wrap("invalid_input", "at least one step is required", nil)
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, found, err := t.store.Load(ctx, requestID)
	if err != nil {
		return State{}, apperrors.Wrap("progress_error", "failed to load progress", err)
	}
	if found && !existing.State.OverallStatus.Terminal() {
		return State{}, apperrors.Wrap("conflict", "request is already running", nil)
	}
	record := Record{State: newState(requestID, ownerID, steps, t.now()), Events: []Event{}}
	if err := t.store.Save(ctx, record, t.cfg.TTL); err != nil {
		return State{}, apperrors.Wrap("progress_error", "failed to save progress", err)
	}
	t.logger.Info("progress initialized", "request_id", requestID, "steps", len(steps))
	return record.State, nil
}

// Append adds ev to the log and returns the updated state. Sequence numbers and
// timestamps are assigned here.
func (t *Tracker) Append(ctx context.Context, requestID string, ev Event) (State, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	record, found, err := t.store.Load(ctx, requestID)
	if err != nil {
		return State{}, apperrors.Wrap("progress_error", "failed to load progress", err)
	}
	if !found {
		return State{}, apperrors.Wrap("not_found", "progress not found", nil)
	}
	if record.State.OverallStatus.Terminal() {
		return State{}, apperrors.Wrap("conflict", "request already finished", nil)
	}
	ev.Seq = len(record.Events) + 1
	if ev.At.IsZero() {
		ev.At = t.now()
	}
	if ev.StepName == "" && ev.Step >= 1 && ev.Step <= len(record.State.Steps) {
		ev.StepName = record.State.Steps[ev.Step-1].StepName
	}
	state, err := apply(record.State, ev)
	if err != nil {
		return State{}, apperrors.Wrap("invalid_input", err.Error(), nil)
	}
	record.State = state
	record.Events = append(record.Events, ev)

	ttl := t.cfg.TTL
	if state.OverallStatus.Terminal() {
		ttl = t.cfg.TerminalTTL
	}
	if err := t.store.Save(ctx, record, ttl); err != nil {
		return State{}, apperrors.Wrap("progress_error", "failed to save progress", err)
	}
	t.metrics.ObserveProgress(string(ev.Type))
	t.logger.Debug("progress event appended", "request_id", requestID, "type", ev.Type, "step", ev.Step, "seq", ev.Seq)
	return state, nil
}

// Get returns the current state of requestID.
func (t *Tracker) Get(ctx context.Context, requestID string) (State, error) {
	record, err := t.load(ctx, requestID)
	if err != nil {
		return State{}, err
	}
	return record.State, nil
}

// Evict drops the log for requestID immediately.
func (t *Tracker) Evict(ctx context.Context, requestID string) error {
	if err := t.store.Delete(ctx, requestID); err != nil {
		return apperrors.Wrap("progress_error", "failed to evict progress", err)
	}
	return nil
}

// Watch streams a connected frame followed by every event of requestID, polling the
// store. The channel closes after a terminal event, when the record disappears or when
// ctx is done.
func (t *Tracker) Watch(ctx context.Context, requestID string) (<-chan Frame, error) {
	record, err := t.load(ctx, requestID)
	if err != nil {
		return nil, err
	}
	frames := make(chan Frame, 8)
	go t.watch(ctx, requestID, record, frames)
	return frames, nil
}

func (t *Tracker) watch(ctx context.Context, requestID string, record Record, frames chan<- Frame) {
	defer close(frames)

	send := func(frame Frame) bool {
		select {
		case frames <- frame:
			return true
		case <-ctx.Done():
			return false
		}
	}

	snapshot := record.State
	if !send(Frame{Type: FrameConnected, State: &snapshot}) {
		return
	}
	sent := 0
	ticker := time.NewTicker(t.cfg.PollInterval)
	defer ticker.Stop()
	for {
		for sent < len(record.Events) {
			ev := record.Events[sent]
			if !send(Frame{Type: string(ev.Type), Event: &ev}) {
				return
			}
			sent++
		}
		if record.State.OverallStatus.Terminal() {
			return
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		next, found, err := t.store.Load(ctx, requestID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Warn("progress poll failed", "request_id", requestID, "error", err)
			continue
		}
		if !found {
			t.logger.Info("progress record expired during watch", "request_id", requestID)
			return
		}
		record = next
	}
}

func (t *Tracker) load(ctx context.Context, requestID string) (Record, error) {
	record, found, err := t.store.Load(ctx, requestID)
	if err != nil {
		return Record{}, apperrors.Wrap("progress_error", "failed to load progress", err)
	}
	if !found {
		return Record{}, apperrors.Wrap("not_found", "progress not found", nil)
	}
	return record, nil
}
