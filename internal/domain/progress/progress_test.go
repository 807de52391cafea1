package progress

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	apperrors "github.com/yanqian/jobfit/pkg/errors"
	"github.com/yanqian/jobfit/pkg/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

var testSteps = []StepDefinition{
	{Name: "Role Classification", Message: "Analyzing job description..."},
	{Name: "Content Customization", Message: "Customizing work experience..."},
	{Name: "Quality Review", Message: "Reviewing and finalizing..."},
}

func newTrackerUnderTest(t *testing.T) (*Tracker, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	tracker := NewTracker(Config{PollInterval: 5 * time.Millisecond}, store, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return tracker, store
}

func TestTracker_FoldsEventsLikeTheWorkflow(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx := context.Background()

	state, err := tracker.Init(ctx, "req-1", "user-1", testSteps)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, state.OverallStatus)
	require.Equal(t, 3, state.TotalSteps)
	for _, step := range state.Steps {
		require.Equal(t, StepWaiting, step.Status)
	}

	_, err = tracker.Append(ctx, "req-1", Event{Type: EventStepStart, Step: 1, Message: "classifying"})
	require.NoError(t, err)
	state, err = tracker.Append(ctx, "req-1", Event{
		Type:       EventStepComplete,
		Step:       1,
		Message:    "classified",
		DurationMs: 1200,
		Content:    "backend",
		Tokens:     &metrics.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120},
	})
	require.NoError(t, err)
	require.Equal(t, 1, state.CurrentStep)
	require.Equal(t, StepCompleted, state.Steps[0].Status)
	require.Equal(t, "backend", state.Steps[0].Content)
	require.Equal(t, metrics.TokenUsage{PromptTokens: 100, CompletionTokens: 20, TotalTokens: 120}, state.TotalTokens)

	_, err = tracker.Append(ctx, "req-1", Event{Type: EventStepStart, Step: 2, Message: "customizing"})
	require.NoError(t, err)
	state, err = tracker.Append(ctx, "req-1", Event{
		Type:   EventStepComplete,
		Step:   2,
		Tokens: &metrics.TokenUsage{PromptTokens: 50, CompletionTokens: 30, TotalTokens: 80},
	})
	require.NoError(t, err)
	require.Equal(t, metrics.TokenUsage{PromptTokens: 150, CompletionTokens: 50, TotalTokens: 200}, state.TotalTokens)
	require.Equal(t, StepWaiting, state.Steps[2].Status)

	state, err = tracker.Append(ctx, "req-1", Event{Type: EventCompleted, Message: "done"})
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, state.OverallStatus)
	require.GreaterOrEqual(t, state.TotalDurationMs, int64(0))

	_, err = tracker.Append(ctx, "req-1", Event{Type: EventError, Message: "late"})
	require.True(t, apperrors.IsCode(err, "conflict"))
}

func TestTracker_StepErrorFailsRequest(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx := context.Background()
	_, err := tracker.Init(ctx, "req-err", "", testSteps)
	require.NoError(t, err)

	state, err := tracker.Append(ctx, "req-err", Event{Type: EventStepError, Step: 2, Message: "model timeout"})
	require.NoError(t, err)
	require.Equal(t, StatusError, state.OverallStatus)
	require.Equal(t, StepError, state.Steps[1].Status)
	require.Equal(t, "model timeout", state.Steps[1].Message)
}

func TestTracker_CompletedEventOverridesTotals(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx := context.Background()
	_, err := tracker.Init(ctx, "req-tot", "", testSteps)
	require.NoError(t, err)

	final := metrics.TokenUsage{PromptTokens: 9, CompletionTokens: 1, TotalTokens: 10}
	state, err := tracker.Append(ctx, "req-tot", Event{Type: EventCompleted, Tokens: &final})
	require.NoError(t, err)
	require.Equal(t, final, state.TotalTokens)
}

func TestTracker_Validation(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx := context.Background()

	_, err := tracker.Init(ctx, " ", "", testSteps)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
	_, err = tracker.Init(ctx, "req", "", nil)
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = tracker.Append(ctx, "missing", Event{Type: EventError})
	require.True(t, apperrors.IsCode(err, "not_found"))

	_, err = tracker.Init(ctx, "req", "", testSteps)
	require.NoError(t, err)
	_, err = tracker.Init(ctx, "req", "", testSteps)
	require.True(t, apperrors.IsCode(err, "conflict"))

	_, err = tracker.Append(ctx, "req", Event{Type: EventStepStart, Step: 4})
	require.True(t, apperrors.IsCode(err, "invalid_input"))
	_, err = tracker.Append(ctx, "req", Event{Type: "bogus"})
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = tracker.Get(ctx, "missing")
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestTracker_RestartAfterTerminal(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx := context.Background()
	_, err := tracker.Init(ctx, "req", "", testSteps)
	require.NoError(t, err)
	_, err = tracker.Append(ctx, "req", Event{Type: EventError, Message: "boom"})
	require.NoError(t, err)

	state, err := tracker.Init(ctx, "req", "", testSteps)
	require.NoError(t, err)
	require.Equal(t, StatusRunning, state.OverallStatus)
}

func TestTracker_WatchStreamsUntilTerminal(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx := context.Background()
	_, err := tracker.Init(ctx, "req-watch", "", testSteps)
	require.NoError(t, err)
	_, err = tracker.Append(ctx, "req-watch", Event{Type: EventStepStart, Step: 1})
	require.NoError(t, err)

	frames, err := tracker.Watch(ctx, "req-watch")
	require.NoError(t, err)

	go func() {
		for step := 1; step <= 3; step++ {
			if step > 1 {
				_, _ = tracker.Append(ctx, "req-watch", Event{Type: EventStepStart, Step: step})
			}
			time.Sleep(2 * time.Millisecond)
			_, _ = tracker.Append(ctx, "req-watch", Event{Type: EventStepComplete, Step: step})
		}
		_, _ = tracker.Append(ctx, "req-watch", Event{Type: EventCompleted})
	}()

	var got []Frame
	for frame := range frames {
		got = append(got, frame)
	}
	require.Len(t, got, 8)
	require.Equal(t, FrameConnected, got[0].Type)
	require.NotNil(t, got[0].State)
	for i, frame := range got[1:] {
		require.NotNil(t, frame.Event)
		require.Equal(t, i+1, frame.Event.Seq)
	}
	require.Equal(t, string(EventCompleted), got[len(got)-1].Type)
}

func TestTracker_WatchStopsOnCancel(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx, cancel := context.WithCancel(context.Background())
	_, err := tracker.Init(ctx, "req-cancel", "", testSteps)
	require.NoError(t, err)

	frames, err := tracker.Watch(ctx, "req-cancel")
	require.NoError(t, err)
	first := <-frames
	require.Equal(t, FrameConnected, first.Type)

	cancel()
	for range frames {
	}
}

func TestTracker_WatchUnknownRequest(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	_, err := tracker.Watch(context.Background(), "nope")
	require.True(t, apperrors.IsCode(err, "not_found"))
}

func TestTracker_WatchEndsWhenRecordEvicted(t *testing.T) {
	tracker, _ := newTrackerUnderTest(t)
	ctx := context.Background()
	_, err := tracker.Init(ctx, "req-evict", "", testSteps)
	require.NoError(t, err)

	frames, err := tracker.Watch(ctx, "req-evict")
	require.NoError(t, err)
	<-frames
	require.NoError(t, tracker.Evict(ctx, "req-evict"))
	for range frames {
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	store := NewMemoryStore()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, Record{State: State{RequestID: "a"}}, time.Minute))
	require.NoError(t, store.Save(ctx, Record{State: State{RequestID: "b"}}, 0))

	_, found, err := store.Load(ctx, "a")
	require.NoError(t, err)
	require.True(t, found)

	now = now.Add(2 * time.Minute)
	_, found, err = store.Load(ctx, "a")
	require.NoError(t, err)
	require.False(t, found)

	_, found, err = store.Load(ctx, "b")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, 1, store.Len())
}
