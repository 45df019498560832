package draft

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Store keeps drafts per exam. Each exam has a latest draft plus one copy
// per attempt, and an index of the per-attempt keys so ClearAll can find
// them.
type Store struct {
	kv  KV
	now func() time.Time
}

func NewStore(kv KV) *Store {
	return &Store{kv: kv, now: time.Now}
}

func latestKey(examID string) string { return "draft:" + examID }

func indexKey(examID string) string { return "draft:" + examID + ":keys" }

func attemptKey(examID, attemptID string) string {
	return "draft:" + examID + ":attempt:" + attemptID
}

// Load returns the latest draft for examID, or nil when there is none.
func (s *Store) Load(ctx context.Context, examID string) (*Draft, error) {
	data, ok, err := s.kv.Get(ctx, latestKey(examID))
	if err != nil {
		return nil, fmt.Errorf("load draft: %w", err)
	}
	if !ok {
		return nil, nil
	}
	d, err := Unmarshal(data)
	if err != nil {
		return nil, fmt.Errorf("load draft for exam %s: %w", examID, err)
	}
	return d, nil
}

// Save overwrites the latest draft for examID. SavedAt is stamped here.
func (s *Store) Save(ctx context.Context, examID string, d *Draft) error {
	d.ExamID = examID
	d.SavedAt = s.now().UTC()

	data, err := Marshal(d)
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	if d.AttemptID != "" {
		key := attemptKey(examID, d.AttemptID)
		if err := s.kv.Set(ctx, key, data); err != nil {
			return fmt.Errorf("save draft: %w", err)
		}
		if err := s.addToIndex(ctx, examID, key); err != nil {
			return err
		}
	}

	if err := s.kv.Set(ctx, latestKey(examID), data); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// ClearAll removes every draft stored for examID.
func (s *Store) ClearAll(ctx context.Context, examID string) error {
	keys, err := s.index(ctx, examID)
	if err != nil {
		return err
	}
	keys = append(keys, indexKey(examID), latestKey(examID))
	if err := s.kv.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("clear drafts: %w", err)
	}
	return nil
}

// Keys lists the per-attempt draft keys recorded for examID.
func (s *Store) Keys(ctx context.Context, examID string) ([]string, error) {
	return s.index(ctx, examID)
}

func (s *Store) index(ctx context.Context, examID string) ([]string, error) {
	data, ok, err := s.kv.Get(ctx, indexKey(examID))
	if err != nil {
		return nil, fmt.Errorf("read draft index: %w", err)
	}
	if !ok {
		return nil, nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, fmt.Errorf("decode draft index: %w", err)
	}
	return keys, nil
}

func (s *Store) addToIndex(ctx context.Context, examID, key string) error {
	keys, err := s.index(ctx, examID)
	if err != nil {
		return err
	}
	if slices.Contains(keys, key) {
		return nil
	}
	data, err := json.Marshal(append(keys, key))
	if err != nil {
		return fmt.Errorf("encode draft index: %w", err)
	}
	if err := s.kv.Set(ctx, indexKey(examID), data); err != nil {
		return fmt.Errorf("write draft index: %w", err)
	}
	return nil
}
