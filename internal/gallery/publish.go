package gallery

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lgulliver/galleon/pkg/types"
	"github.com/lgulliver/galleon/pkg/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Publish marks a version published and recomputes the single latest
// flag across its siblings, all inside one transaction. The latest
// sibling is the one whose version string carries the greatest parsed
// value; publishing an older version can therefore leave the flag on a
// newer, even unpublished, sibling.
func (s *Service) Publish(ctx context.Context, name, version string) error {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pkg, err := s.findPackage(ctx, tx, name, version)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		if err := tx.WithContext(ctx).Model(&types.Package{}).
			Where("id = ?", pkg.ID).
			Update("published", now).Error; err != nil {
			return commitError(err)
		}

		return recomputeLatest(ctx, tx, pkg.RegistrationID, pkg.Registration.Packages)
	})
	if err != nil {
		return err
	}

	log.Info().Str("package", name).Str("version", version).Msg("package published")
	s.invalidateLatestCache(ctx)
	return nil
}

// recomputeLatest clears every sibling's latest flag and sets it on
// the single sibling holding the maximum parsed version. Two siblings
// matching the winning version string would mean the uniqueness
// invariant is broken, which aborts the transaction.
func recomputeLatest(ctx context.Context, tx *gorm.DB, registrationID uuid.UUID, siblings []types.Package) error {
	if len(siblings) == 0 {
		return nil
	}

	max := utils.MaxVersion(versionStrings(siblings))
	var winner uuid.UUID
	matches := 0
	for _, sib := range siblings {
		if sib.Version == max {
			winner = sib.ID
			matches++
		}
	}
	if matches != 1 {
		return fmt.Errorf("%w: %d siblings match version %s", ErrLatestConflict, matches, max)
	}

	if err := tx.WithContext(ctx).Model(&types.Package{}).
		Where("registration_id = ?", registrationID).
		Update("is_latest", false).Error; err != nil {
		return commitError(err)
	}
	if err := tx.WithContext(ctx).Model(&types.Package{}).
		Where("id = ?", winner).
		Update("is_latest", true).Error; err != nil {
		return commitError(err)
	}
	return nil
}
