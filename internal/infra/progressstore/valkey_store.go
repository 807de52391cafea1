package progressstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/yanqian/jobfit/internal/domain/progress"
)

// ValkeyStore persists progress records in Valkey so every instance sees the
// same event log.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore constructs a new store backed by Valkey.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = "progress"
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

func (s *ValkeyStore) Load(ctx context.Context, requestID string) (progress.Record, bool, error) {
	if requestID == "" {
		return progress.Record{}, false, nil
	}
	cmd := s.client.B().Get().Key(s.recordKey(requestID)).Build()
	payload, err := s.client.Do(ctx, cmd).ToString()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return progress.Record{}, false, nil
		}
		return progress.Record{}, false, err
	}
	record, err := decodeRecord(payload)
	if err != nil {
		return progress.Record{}, false, err
	}
	return record, true, nil
}

func (s *ValkeyStore) Save(ctx context.Context, record progress.Record, ttl time.Duration) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.setString(ctx, s.recordKey(record.State.RequestID), string(payload), ttl)
}

func (s *ValkeyStore) Delete(ctx context.Context, requestID string) error {
	return s.client.Do(ctx, s.client.B().Del().Key(s.recordKey(requestID)).Build()).Error()
}

func (s *ValkeyStore) setString(ctx context.Context, key, value string, ttl time.Duration) error {
	builder := s.client.B().Set().Key(key).Value(value)
	var cmd valkey.Completed
	if ttl > 0 {
		cmd = builder.Ex(roundTTL(ttl)).Build()
	} else {
		cmd = builder.Build()
	}
	return s.client.Do(ctx, cmd).Error()
}

func (s *ValkeyStore) recordKey(requestID string) string {
	return fmt.Sprintf("%s:%s", s.prefix, requestID)
}

// roundTTL keeps sub-second values from being truncated to zero by EX.
func roundTTL(ttl time.Duration) time.Duration {
	if ttl < time.Second {
		return time.Second
	}
	return ttl
}

func decodeRecord(payload string) (progress.Record, error) {
	var record progress.Record
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return progress.Record{}, fmt.Errorf("decode progress record: %w", err)
	}
	if record.Events == nil {
		record.Events = []progress.Event{}
	}
	return record, nil
}

var _ progress.Store = (*ValkeyStore)(nil)
