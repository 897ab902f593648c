package gallery

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/lgulliver/galleon/pkg/types"
	"github.com/lgulliver/galleon/pkg/utils"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Ingest creates a new immutable package version from a submission.
// The registration is created or validated for ownership, the content
// is read once and hashed, and the metadata insert and blob write
// share one transactional boundary: if the blob write fails the
// metadata rolls back, and if the commit fails after the blob was
// written the blob is removed again.
func (s *Service) Ingest(ctx context.Context, submitted *types.SubmittedPackage, user *types.User) (*types.Package, error) {
	if submitted.Name == "" || submitted.Version == "" {
		return nil, fmt.Errorf("package name and version are required")
	}

	log.Info().
		Str("package", submitted.Name).
		Str("version", submitted.Version).
		Str("user", user.Username).
		Msg("starting package ingest")

	content, err := io.ReadAll(submitted.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to read package content: %w", err)
	}
	algorithm, digest := s.Hasher.Hash(content)
	blobPath := utils.ArtifactPath(submitted.Name, submitted.Version)

	var (
		pkg    *types.Package
		stored bool
	)
	txErr := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		reg, err := s.getOrCreateRegistration(ctx, tx, user, submitted.Name)
		if err != nil {
			return err
		}

		// Pre-check on the exact version string. The unique index on
		// (registration_id, version) closes the race this cannot see.
		if reg.HasVersion(submitted.Version) {
			return fmt.Errorf("%w: %s %s", ErrDuplicateVersion, submitted.Name, submitted.Version)
		}

		pkg = buildPackage(reg, submitted, algorithm, digest, int64(len(content)))
		if err := tx.WithContext(ctx).Omit("Registration").Create(pkg).Error; err != nil {
			return commitError(err)
		}

		if err := s.Storage.Store(ctx, blobPath, bytes.NewReader(content), "application/octet-stream"); err != nil {
			return fmt.Errorf("%w: %v", ErrArtifactIO, err)
		}
		stored = true
		return nil
	})
	if txErr != nil {
		if stored {
			// The commit itself failed after the blob landed; remove the
			// blob so nothing orphaned survives the failure.
			if err := s.Storage.Delete(ctx, blobPath); err != nil {
				log.Error().Err(err).Str("path", blobPath).Msg("failed to remove blob after aborted ingest")
			}
		}
		return nil, txErr
	}

	log.Info().
		Str("package", submitted.Name).
		Str("version", submitted.Version).
		Str("size", utils.FormatBytes(pkg.FileSize)).
		Str("hash", pkg.Hash).
		Msg("package ingested")

	s.invalidateLatestCache(ctx)
	return pkg, nil
}

// buildPackage populates a Package entity from a submission. Optional
// fields stay nil when absent; author and dependency lists keep their
// submission order and are additionally flattened into their
// denormalized column forms.
func buildPackage(reg *types.PackageRegistration, submitted *types.SubmittedPackage, algorithm, digest string, size int64) *types.Package {
	pkg := &types.Package{
		RegistrationID:            reg.ID,
		Version:                   submitted.Version,
		Description:               submitted.Description,
		RequiresLicenseAcceptance: submitted.RequiresLicenseAcceptance,
		HashAlgorithm:             algorithm,
		Hash:                      digest,
		FileSize:                  size,
		IconURL:                   submitted.IconURL,
		LicenseURL:                submitted.LicenseURL,
		ProjectURL:                submitted.ProjectURL,
		Summary:                   submitted.Summary,
		Tags:                      submitted.Tags,
		Title:                     submitted.Title,
		FlattenedAuthors:          types.FlattenAuthors(submitted.Authors),
		FlattenedDependencies:     types.FlattenDependencies(submitted.Dependencies),
	}

	for i, name := range submitted.Authors {
		pkg.Authors = append(pkg.Authors, types.PackageAuthor{Name: name, Ordinal: i})
	}
	for i, dep := range submitted.Dependencies {
		pkg.Dependencies = append(pkg.Dependencies, types.PackageDependency{
			Name:         dep.Name,
			VersionRange: dep.VersionRange,
			Ordinal:      i,
		})
	}
	return pkg
}
