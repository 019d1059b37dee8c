package limiter

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
)

// Storage is a flat string key/value store shaped like browser local storage.
type Storage interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}

type MemoryStorage struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{values: map[string]string{}}
}

func (m *MemoryStorage) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok
}

func (m *MemoryStorage) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MemoryStorage) Remove(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
}

// FileStorage keeps the values in memory and rewrites a JSON file on every
// change. Write failures are logged and the in-memory value still wins.
type FileStorage struct {
	mem  *MemoryStorage
	path string
	log  *zap.Logger
	wmu  sync.Mutex
}

func OpenFileStorage(path string, log *zap.Logger) (*FileStorage, error) {
	fs := &FileStorage{mem: NewMemoryStorage(), path: path, log: log}
	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return fs, nil
	case err != nil:
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fs.mem.values); err != nil {
			return nil, fmt.Errorf("decode state file: %w", err)
		}
	}
	if fs.mem.values == nil {
		fs.mem.values = map[string]string{}
	}
	return fs, nil
}

func (f *FileStorage) Get(key string) (string, bool) {
	return f.mem.Get(key)
}

func (f *FileStorage) Set(key, value string) {
	f.mem.Set(key, value)
	f.persist()
}

func (f *FileStorage) Remove(key string) {
	if _, ok := f.mem.Get(key); !ok {
		return
	}
	f.mem.Remove(key)
	f.persist()
}

func (f *FileStorage) persist() {
	if err := f.Flush(); err != nil {
		f.log.Warn("state file write failed", zap.String("path", f.path), zap.Error(err))
	}
}

// Flush writes the current values through a temp file and rename.
func (f *FileStorage) Flush() error {
	f.wmu.Lock()
	defer f.wmu.Unlock()

	f.mem.mu.RLock()
	raw, err := json.MarshalIndent(f.mem.values, "", "  ")
	f.mem.mu.RUnlock()
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".state-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
