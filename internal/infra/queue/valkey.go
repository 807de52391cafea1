package queue

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"
)

type jobEnvelope struct {
	Name       string         `json:"name"`
	Payload    map[string]any `json:"payload"`
	EnqueuedAt time.Time      `json:"enqueuedAt"`
}

// ValkeyQueue persists jobs in a Valkey list and delivers them to a handler.
type ValkeyQueue struct {
	client      valkey.Client
	queueKey    string
	handler     Handler
	logger      *slog.Logger
	pollTimeout time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewValkeyQueue constructs a Valkey-backed queue.
func NewValkeyQueue(client valkey.Client, queueKey string, logger *slog.Logger) *ValkeyQueue {
	if queueKey == "" {
		queueKey = "jobfit:jobs"
	}
	return &ValkeyQueue{
		client:      client,
		queueKey:    queueKey,
		logger:      logger.With("component", "queue.valkey"),
		pollTimeout: 5 * time.Second,
		done:        make(chan struct{}),
	}
}

// SetHandler starts the worker loop that pops jobs and invokes the handler.
func (q *ValkeyQueue) SetHandler(handler Handler) {
	if handler == nil {
		return
	}
	q.startOnce.Do(func() {
		q.handler = handler
		ctx, cancel := context.WithCancel(context.Background())
		q.cancel = cancel
		go q.consume(ctx)
	})
}

// Enqueue pushes a job onto the queue.
func (q *ValkeyQueue) Enqueue(ctx context.Context, name string, payload any) error {
	encoded, err := json.Marshal(jobEnvelope{Name: name, Payload: asPayload(payload), EnqueuedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	cmd := q.client.B().Lpush().Key(q.queueKey).Element(string(encoded)).Build()
	return q.client.Do(ctx, cmd).Error()
}

// Close stops the worker loop and waits for the current job to finish.
func (q *ValkeyQueue) Close() {
	q.stopOnce.Do(func() {
		if q.cancel == nil {
			close(q.done)
			return
		}
		q.cancel()
		<-q.done
	})
}

func (q *ValkeyQueue) consume(ctx context.Context) {
	defer close(q.done)
	for {
		if ctx.Err() != nil {
			return
		}
		resp := q.client.Do(ctx, q.client.B().Brpop().Key(q.queueKey).Timeout(q.pollTimeout.Seconds()).Build())
		values, err := resp.ToArray()
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if !valkey.IsValkeyNil(err) {
				q.logger.Warn("valkey queue pop failed", "error", err)
				time.Sleep(time.Second)
			}
			continue
		}
		if len(values) < 2 {
			continue
		}
		raw, err := values[1].ToString()
		if err != nil {
			q.logger.Warn("valkey queue payload decode failed", "error", err)
			continue
		}
		job, err := decodeEnvelope(raw)
		if err != nil {
			q.logger.Warn("valkey queue unmarshal failed", "error", err)
			continue
		}
		q.logger.Debug("job received", "name", job.Name, "queued_for", time.Since(job.EnqueuedAt).String())
		q.handler(context.WithoutCancel(ctx), job.Name, job.Payload)
	}
}

func decodeEnvelope(raw string) (jobEnvelope, error) {
	var job jobEnvelope
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		return jobEnvelope{}, err
	}
	if job.Payload == nil {
		job.Payload = map[string]any{}
	}
	return job, nil
}

var _ HandlerQueue = (*ValkeyQueue)(nil)
