package memory

import (
	"fmt"

	"go.uber.org/zap"
)

// Open builds the configured store backend.
func Open(backend, path string, log *zap.Logger) (Store, error) {
	switch backend {
	case "", "file":
		return NewFileStore(path, log)
	case "sqlite":
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown memory backend %q", backend)
	}
}
