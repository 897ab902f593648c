package storage

import (
	"fmt"

	"github.com/lgulliver/galleon/pkg/config"
)

// NewStorage creates a BlobStorage from configuration.
func NewStorage(cfg *config.StorageConfig) (BlobStorage, error) {
	switch cfg.Type {
	case "local", "":
		return NewLocalStorage(cfg.LocalPath)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
