package storage

import (
	"context"
	"encoding/json"
	"fmt"
)

// loadJSON decodes the value under key into v. It reports false, leaving v
// untouched, when the key is absent.
func loadJSON(ctx context.Context, kv KeyValueStore, key string, v interface{}) (bool, error) {
	raw, found, err := kv.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !found || raw == "" {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

// saveJSON replaces the value under key with the JSON encoding of v
func saveJSON(ctx context.Context, kv KeyValueStore, key string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return kv.Set(ctx, key, string(data))
}
