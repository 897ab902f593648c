// Package gallery is the consistency core of the registry: it owns the
// lifecycle of package registrations and their versioned releases,
// keeping metadata rows and stored artifacts in lockstep. Every public
// operation runs inside a single database transaction and either fully
// commits or leaves no visible effect.
package gallery

import (
	"context"
	"time"

	"github.com/lgulliver/galleon/internal/common"
	"github.com/lgulliver/galleon/internal/storage"
	"github.com/rs/zerolog/log"
)

// latestCacheKey holds the cached latest-published listing.
const latestCacheKey = "gallery:latest"

// Service handles registration, ingest, retrieval, publish and delete
// of package versions.
type Service struct {
	DB      *common.Database
	Storage storage.BlobStorage
	Hasher  Hasher

	// Cache, when set, backs ListLatestPublished. A nil cache disables
	// caching entirely.
	Cache    *common.Cache
	CacheTTL time.Duration
}

// NewService creates a gallery service over the given metadata and blob
// stores.
func NewService(db *common.Database, blobs storage.BlobStorage) *Service {
	return &Service{
		DB:      db,
		Storage: blobs,
		Hasher:  SHA512Hasher{},
	}
}

// WithCache enables the latest-published listing cache.
func (s *Service) WithCache(cache *common.Cache, ttl time.Duration) *Service {
	s.Cache = cache
	s.CacheTTL = ttl
	return s
}

// invalidateLatestCache drops the cached listing after any mutation
// that can change it. Cache failures are logged, never surfaced.
func (s *Service) invalidateLatestCache(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.Delete(ctx, latestCacheKey); err != nil {
		log.Warn().Err(err).Msg("failed to invalidate latest-published cache")
	}
}
