// Package repository is the data access layer. Services talk to the
// interfaces declared here; the sqlite_* files hold the SQLite
// implementations. Constructors take a database.TxQuerier so the same repo
// works on *sql.DB and inside a transaction.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
)

// StoreRepository is the device-local key/value store. Values are JSON
// documents; the typed helpers LoadJSON and SaveJSON sit on top of it.
type StoreRepository interface {
	// Get returns the raw value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Keys lists keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// LoadJSON decodes the value at key into a T. A missing key, a null value,
// a read failure or a value that does not decode all yield fallback: a
// corrupt blob degrades to the default instead of failing the caller.
func LoadJSON[T any](ctx context.Context, store StoreRepository, key string, fallback T) T {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		log.Printf("[store] read %q failed, using default: %v", key, err)
		return fallback
	}
	if !ok || raw == "" || raw == "null" {
		return fallback
	}

	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		log.Printf("[store] corrupt value at %q, using default: %v", key, err)
		return fallback
	}
	return v
}

// SaveJSON encodes v and stores it at key.
func SaveJSON(ctx context.Context, store StoreRepository, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", key, err)
	}
	return store.Set(ctx, key, string(data))
}
