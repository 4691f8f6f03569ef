package cache

import (
	"fmt"
	"time"
)

// Store backends accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open creates the Store named by backend.
func Open(backend, path string, ttl time.Duration) (Store, error) {
	switch backend {
	case "", BackendMemory:
		return NewMemory(ttl), nil
	case BackendSQLite:
		return OpenSQLite(path, ttl)
	default:
		return nil, fmt.Errorf("unknown cache backend: %q", backend)
	}
}
