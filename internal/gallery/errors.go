package gallery

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Failure classes surfaced by the gallery service. Callers classify
// with errors.Is; every wrapped instance carries the package name and
// version involved.
var (
	// ErrNotFound: the referenced package name or version does not exist.
	ErrNotFound = errors.New("package not found")

	// ErrDuplicateVersion: the (name, version) pair is already registered.
	ErrDuplicateVersion = errors.New("package version already exists")

	// ErrIdentityConflict: the package name is claimed by other owners.
	ErrIdentityConflict = errors.New("package name is not available")

	// ErrCommitConflict: a store-level constraint rejected the commit,
	// typically a concurrent ingest of the same version. The caller may
	// retry after a fresh read.
	ErrCommitConflict = errors.New("metadata commit conflict")

	// ErrArtifactIO: the blob store failed; the enclosing transaction is
	// rolled back so metadata never references a missing artifact.
	ErrArtifactIO = errors.New("artifact storage failure")

	// ErrLatestConflict: more than one sibling matched the maximum
	// version during latest recomputation. The uniqueness constraint on
	// (registration, version) should make this impossible.
	ErrLatestConflict = errors.New("multiple latest version candidates")
)

// commitError classifies a metadata store failure. Constraint
// violations become ErrCommitConflict; everything else passes through.
func commitError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value") {
		return fmt.Errorf("%w: %v", ErrCommitConflict, err)
	}
	return err
}
