package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
)

// KV is a string-keyed blob table.
type KV struct {
	db *sql.DB
}

// Set stores value under key, replacing any previous value.
func (k *KV) Set(ctx context.Context, key string, value []byte) error {
	query, args := builder().Insert("kv").
		Columns("key", "value", "updated_at").
		Values(key, value, toMillis(time.Now())).
		OnConflict(
			entsql.ConflictColumns("key"),
			entsql.ResolveWithNewValues(),
		).
		Query()
	if _, err := k.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	return nil
}

// Get returns the value stored under key. The bool is false when the key is
// absent.
func (k *KV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b := builder()
	query, args := b.Select("value").
		From(b.Table("kv")).
		Where(entsql.EQ("key", key)).
		Query()

	var value []byte
	err := k.db.QueryRowContext(ctx, query, args...).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, err)
	}
	return value, true, nil
}

// Delete removes the given keys. Missing keys are ignored.
func (k *KV) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = key
	}
	query, qargs := builder().Delete("kv").
		Where(entsql.In("key", args...)).
		Query()
	if _, err := k.db.ExecContext(ctx, query, qargs...); err != nil {
		return fmt.Errorf("delete keys: %w", err)
	}
	return nil
}
