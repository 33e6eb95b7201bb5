package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"gorm.io/gorm"
)

// ErrNotFound is returned by Load when nothing was saved under a key
var ErrNotFound = errors.New("key not found")

// KV is the load/save capability stores persist their state through.
type KV interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, value []byte) error
}

// KVStore keeps documents in the kv_entries table
type KVStore struct {
	db *gorm.DB
}

// NewKVStore wraps an open database
func NewKVStore(gdb *gorm.DB) *KVStore {
	return &KVStore{db: gdb}
}

// Load returns the bytes saved under key
func (s *KVStore) Load(ctx context.Context, key string) ([]byte, error) {
	var entry KVEntry
	err := s.db.WithContext(ctx).Where("entry_key = ?", key).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", key, err)
	}
	return entry.Value, nil
}

// Save upserts the bytes under key
func (s *KVStore) Save(ctx context.Context, key string, value []byte) error {
	entry := KVEntry{Key: key, Value: value}
	if err := s.db.WithContext(ctx).Save(&entry).Error; err != nil {
		return fmt.Errorf("saving %s: %w", key, err)
	}
	return nil
}

// MemoryKV is a process-local KV
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryKV returns an empty MemoryKV
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string][]byte)}
}

func (m *MemoryKV) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v, ok := m.data[key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), v...), nil
}

func (m *MemoryKV) Save(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = append([]byte(nil), value...)
	return nil
}

// Document persists one JSON value under a fixed key
type Document[T any] struct {
	kv  KV
	key string
}

// NewDocument binds a key. A nil kv keeps the document in memory only.
func NewDocument[T any](kv KV, key string) Document[T] {
	return Document[T]{kv: kv, key: key}
}

// Load decodes the stored value. found is false when nothing was saved yet.
func (d Document[T]) Load(ctx context.Context) (v T, found bool, err error) {
	if d.kv == nil {
		return v, false, nil
	}
	data, err := d.kv.Load(ctx, d.key)
	if errors.Is(err, ErrNotFound) {
		return v, false, nil
	}
	if err != nil {
		return v, false, err
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, false, fmt.Errorf("decoding %s: %w", d.key, err)
	}
	return v, true, nil
}

// Save encodes and stores v
func (d Document[T]) Save(ctx context.Context, v T) error {
	if d.kv == nil {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", d.key, err)
	}
	return d.kv.Save(ctx, d.key, data)
}

// Clone deep-copies v through its JSON form
func Clone[T any](v T) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
