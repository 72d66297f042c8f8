package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"questHuntAPI/internal/storage"
)

// getJSON loads and decodes the record at key into out. Returns false when
// the record does not exist.
func getJSON(ctx context.Context, tx storage.Tx, key string, out any) (bool, error) {
	raw, ok, err := tx.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("corrupt record at %s: %w", key, err)
	}
	return true, nil
}

func putJSON(ctx context.Context, tx storage.Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record for %s: %w", key, err)
	}
	return tx.Put(ctx, key, raw)
}

func appendJSON(ctx context.Context, tx storage.Tx, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode list entry for %s: %w", key, err)
	}
	return tx.Append(ctx, key, raw)
}

// nextSeq increments the counter at key and returns the previous value, so a
// fresh counter hands out 0, 1, 2, ...
func nextSeq(ctx context.Context, tx storage.Tx, key string) (uint64, error) {
	raw, ok, err := tx.Get(ctx, key)
	if err != nil {
		return 0, err
	}
	var current uint64
	if ok {
		current, err = strconv.ParseUint(string(raw), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("corrupt counter at %s: %w", key, err)
		}
	}
	if err := tx.Put(ctx, key, []byte(strconv.FormatUint(current+1, 10))); err != nil {
		return 0, err
	}
	return current, nil
}

func u64(n uint64) string { return strconv.FormatUint(n, 10) }

func parseU64(s string) (uint64, error) { return strconv.ParseUint(s, 10, 64) }
