package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/lgulliver/galleon/internal/common"
	"github.com/lgulliver/galleon/pkg/types"
	"github.com/lgulliver/galleon/pkg/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// FindRegistration looks up a registration by package name with its
// owners loaded. Returns ErrNotFound when the name is unclaimed.
func (s *Service) FindRegistration(ctx context.Context, name string) (*types.PackageRegistration, error) {
	var reg types.PackageRegistration
	err := s.DB.WithContext(ctx).
		Preload("Owners").
		Preload("Packages", packageInsertionOrder).
		Where("LOWER(name) = ?", utils.NormalizePackageName(name)).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to look up registration: %w", err)
	}
	return &reg, nil
}

// FindPackage resolves a package by name and optional version. An
// empty version selects the greatest version by parsed value. All
// sibling versions are fetched in one query and attached to the
// returned package's Registration.Packages, so callers can list
// siblings without a second round trip. The attached set is a
// per-call view, nothing is persisted.
func (s *Service) FindPackage(ctx context.Context, name, version string) (*types.Package, error) {
	return s.findPackage(ctx, s.DB.DB, name, version)
}

func (s *Service) findPackage(ctx context.Context, q *gorm.DB, name, version string) (*types.Package, error) {
	var reg types.PackageRegistration
	err := q.WithContext(ctx).
		Preload("Owners").
		Where("LOWER(name) = ?", utils.NormalizePackageName(name)).
		First(&reg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, fmt.Errorf("failed to look up registration: %w", err)
	}

	var pkgs []types.Package
	err = q.WithContext(ctx).
		Where("registration_id = ?", reg.ID).
		Preload("Authors", authorOrdinalOrder).
		Preload("Dependencies", dependencyOrdinalOrder).
		Preload("Reviews").
		Order("packages.created_at, packages.id").
		Find(&pkgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load package versions: %w", err)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	var chosen *types.Package
	if version == "" {
		// Greatest parsed version. Versions that tie at the maximum
		// value under distinct strings resolve to the first in scan
		// order; identical strings cannot occur under one registration.
		max := utils.MaxVersion(versionStrings(pkgs))
		for i := range pkgs {
			if pkgs[i].Version == max {
				chosen = &pkgs[i]
				break
			}
		}
	} else {
		for i := range pkgs {
			if pkgs[i].Version == version {
				chosen = &pkgs[i]
				break
			}
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("%w: %s %s", ErrNotFound, name, version)
	}

	// Read-time population of the aggregate view: the chosen package
	// carries its registration with the full sibling set attached.
	siblings := make([]types.Package, len(pkgs))
	copy(siblings, pkgs)
	reg.Packages = siblings
	chosen.Registration = reg
	return chosen, nil
}

// ListLatestPublished returns every published package currently
// flagged latest, fully populated with registration, owners, sibling
// versions, authors and reviews. The result is served from the cache
// when one is configured.
func (s *Service) ListLatestPublished(ctx context.Context) ([]types.Package, error) {
	if s.Cache != nil {
		var cached []types.Package
		err := s.Cache.Get(ctx, latestCacheKey, &cached)
		if err == nil {
			return cached, nil
		}
		if !errors.Is(err, common.ErrCacheMiss) {
			log.Warn().Err(err).Msg("latest-published cache read failed")
		}
	}

	var pkgs []types.Package
	err := s.DB.WithContext(ctx).
		Where("published IS NOT NULL AND is_latest = ?", true).
		Preload("Registration").
		Preload("Registration.Owners").
		Preload("Registration.Packages", packageInsertionOrder).
		Preload("Authors", authorOrdinalOrder).
		Preload("Reviews").
		Find(&pkgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list latest published packages: %w", err)
	}

	if s.Cache != nil {
		if err := s.Cache.Set(ctx, latestCacheKey, pkgs, s.CacheTTL); err != nil {
			log.Warn().Err(err).Msg("latest-published cache write failed")
		}
	}
	return pkgs, nil
}

// FindByOwner returns every package version belonging to a
// registration the user owns, with the registration loaded.
func (s *Service) FindByOwner(ctx context.Context, user *types.User) ([]types.Package, error) {
	var pkgs []types.Package
	err := s.DB.WithContext(ctx).
		Select("packages.*").
		Joins("JOIN registration_owners ON registration_owners.package_registration_id = packages.registration_id").
		Where("registration_owners.user_id = ?", user.ID).
		Preload("Registration").
		Order("packages.created_at, packages.id").
		Find(&pkgs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list packages by owner: %w", err)
	}
	return pkgs, nil
}

// ListVersions returns all version strings under a package name,
// newest first.
func (s *Service) ListVersions(ctx context.Context, name string) ([]string, error) {
	reg, err := s.FindRegistration(ctx, name)
	if err != nil {
		return nil, err
	}
	return utils.SortVersionsDescending(versionStrings(reg.Packages)), nil
}

// Download resolves a package version and opens its artifact for
// reading, incrementing the download counter.
func (s *Service) Download(ctx context.Context, name, version string) (*types.Package, io.ReadCloser, error) {
	pkg, err := s.FindPackage(ctx, name, version)
	if err != nil {
		return nil, nil, err
	}

	content, err := s.Storage.Retrieve(ctx, utils.ArtifactPath(pkg.Registration.Name, pkg.Version))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrArtifactIO, err)
	}

	if err := s.DB.WithContext(ctx).Model(&types.Package{}).
		Where("id = ?", pkg.ID).
		Update("downloads", gorm.Expr("downloads + ?", 1)).Error; err != nil {
		log.Warn().Err(err).Str("package", name).Msg("failed to increment download counter")
	}

	return pkg, content, nil
}

func versionStrings(pkgs []types.Package) []string {
	versions := make([]string, len(pkgs))
	for i, p := range pkgs {
		versions[i] = p.Version
	}
	return versions
}

func authorOrdinalOrder(db *gorm.DB) *gorm.DB {
	return db.Order("package_authors.ordinal")
}

func dependencyOrdinalOrder(db *gorm.DB) *gorm.DB {
	return db.Order("package_dependencies.ordinal")
}
