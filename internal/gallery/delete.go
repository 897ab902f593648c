package gallery

import (
	"context"
	"fmt"

	"github.com/lgulliver/galleon/pkg/types"
	"github.com/lgulliver/galleon/pkg/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Delete removes a package version, its artifact, and, when this was
// the registration's last version, the registration itself. The
// metadata removal commits first and the blob is deleted after: a blob
// store failure can leave an orphaned blob but never metadata pointing
// at a missing artifact, and because deleting an absent blob succeeds
// the failure is safe to retry.
func (s *Service) Delete(ctx context.Context, name, version string) error {
	if version == "" {
		return fmt.Errorf("version is required")
	}

	var blobPath string
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		pkg, err := s.findPackage(ctx, tx, name, version)
		if err != nil {
			return err
		}
		siblings := pkg.Registration.Packages
		blobPath = utils.ArtifactPath(pkg.Registration.Name, pkg.Version)

		for _, child := range []interface{}{
			&types.PackageAuthor{},
			&types.PackageDependency{},
			&types.PackageReview{},
		} {
			if err := tx.WithContext(ctx).Where("package_id = ?", pkg.ID).Delete(child).Error; err != nil {
				return commitError(err)
			}
		}
		if err := tx.WithContext(ctx).Where("id = ?", pkg.ID).Delete(&types.Package{}).Error; err != nil {
			return commitError(err)
		}

		if len(siblings) == 1 {
			// Last version gone: the registration is garbage-collected
			// and the name becomes claimable again.
			if err := tx.WithContext(ctx).
				Exec("DELETE FROM registration_owners WHERE package_registration_id = ?", pkg.RegistrationID).Error; err != nil {
				return commitError(err)
			}
			if err := tx.WithContext(ctx).
				Where("id = ?", pkg.RegistrationID).
				Delete(&types.PackageRegistration{}).Error; err != nil {
				return commitError(err)
			}
		} else if pkg.IsLatest {
			remaining := make([]types.Package, 0, len(siblings)-1)
			for _, sib := range siblings {
				if sib.ID != pkg.ID {
					remaining = append(remaining, sib)
				}
			}
			if err := recomputeLatest(ctx, tx, pkg.RegistrationID, remaining); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}
	s.invalidateLatestCache(ctx)

	if err := s.Storage.Delete(ctx, blobPath); err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactIO, err)
	}

	log.Info().Str("package", name).Str("version", version).Msg("package deleted")
	return nil
}
