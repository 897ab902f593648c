package gallery

import (
	"context"
	"errors"
	"fmt"

	"github.com/lgulliver/galleon/pkg/types"
	"github.com/lgulliver/galleon/pkg/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// getOrCreateRegistration resolves the registration for a package name
// inside the caller's transaction. An existing registration is only
// returned when the user is one of its owners; a missing one is staged
// for insert with the user as sole owner and becomes visible when the
// enclosing transaction commits.
func (s *Service) getOrCreateRegistration(ctx context.Context, tx *gorm.DB, user *types.User, name string) (*types.PackageRegistration, error) {
	var reg types.PackageRegistration
	err := tx.WithContext(ctx).
		Preload("Owners").
		Preload("Packages", packageInsertionOrder).
		Where("LOWER(name) = ?", utils.NormalizePackageName(name)).
		First(&reg).Error

	if err == nil {
		if !reg.IsOwnedBy(user) {
			return nil, fmt.Errorf("%w: %s is owned by another user", ErrIdentityConflict, name)
		}
		return &reg, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up registration: %w", err)
	}

	reg = types.PackageRegistration{
		Name:   name,
		Owners: []types.User{*user},
	}
	if err := tx.WithContext(ctx).Create(&reg).Error; err != nil {
		return nil, commitError(err)
	}

	log.Info().
		Str("package", name).
		Str("owner", user.Username).
		Msg("package name claimed")

	return &reg, nil
}

// packageInsertionOrder keeps sibling version sets in insertion order.
func packageInsertionOrder(db *gorm.DB) *gorm.DB {
	return db.Order("packages.created_at, packages.id")
}
