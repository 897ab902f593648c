package types

import (
	"io"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User is an upstream-resolved identity. Only membership in a
// registration's owner set matters to this package.
type User struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID for the user ID
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// PackageRegistration is the identity root for a package name. It is
// claimed on the first successful ingest of any version under that name
// and removed again when its last version is deleted.
type PackageRegistration struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name" gorm:"uniqueIndex;not null"`
	Owners    []User    `json:"owners" gorm:"many2many:registration_owners"`
	Packages  []Package `json:"packages" gorm:"foreignKey:RegistrationID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// BeforeCreate generates a UUID for the registration ID
func (r *PackageRegistration) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// IsOwnedBy reports whether the user is a member of the registration's owner set.
func (r *PackageRegistration) IsOwnedBy(user *User) bool {
	for _, owner := range r.Owners {
		if owner.ID == user.ID {
			return true
		}
	}
	return false
}

// HasVersion reports whether a package with the exact version string
// already exists under this registration. Versions are compared as
// submitted, not by parsed value.
func (r *PackageRegistration) HasVersion(version string) bool {
	for _, pkg := range r.Packages {
		if pkg.Version == version {
			return true
		}
	}
	return false
}

// Package is one immutable versioned release under a registration.
// Only Published and IsLatest change after creation.
type Package struct {
	ID             uuid.UUID `json:"id" gorm:"primaryKey"`
	RegistrationID uuid.UUID `json:"registration_id" gorm:"type:uuid;not null;uniqueIndex:idx_packages_registration_version"`
	Version        string    `json:"version" gorm:"not null;uniqueIndex:idx_packages_registration_version"`

	Description               string `json:"description"`
	RequiresLicenseAcceptance bool   `json:"requires_license_acceptance"`
	HashAlgorithm             string `json:"hash_algorithm" gorm:"not null"`
	Hash                      string `json:"hash" gorm:"not null;index"`
	FileSize                  int64  `json:"file_size"`

	IconURL    *string `json:"icon_url,omitempty"`
	LicenseURL *string `json:"license_url,omitempty"`
	ProjectURL *string `json:"project_url,omitempty"`
	Summary    *string `json:"summary,omitempty"`
	Tags       *string `json:"tags,omitempty"`
	Title      *string `json:"title,omitempty"`

	FlattenedAuthors      string `json:"flattened_authors"`
	FlattenedDependencies string `json:"flattened_dependencies"`

	Published *time.Time `json:"published,omitempty"`
	IsLatest  bool       `json:"is_latest" gorm:"default:false;index"`
	Downloads int64      `json:"downloads" gorm:"default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Registration PackageRegistration `json:"registration" gorm:"foreignKey:RegistrationID"`
	Authors      []PackageAuthor     `json:"authors" gorm:"foreignKey:PackageID"`
	Dependencies []PackageDependency `json:"dependencies" gorm:"foreignKey:PackageID"`
	Reviews      []PackageReview     `json:"reviews" gorm:"foreignKey:PackageID"`
}

// BeforeCreate generates a UUID for the package ID
func (p *Package) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// AuthorNames returns the author names in submission order.
func (p *Package) AuthorNames() []string {
	names := make([]string, len(p.Authors))
	for i, a := range p.Authors {
		names[i] = a.Name
	}
	return names
}

// PackageAuthor is one entry of a package's ordered author list.
type PackageAuthor struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey"`
	PackageID uuid.UUID `json:"package_id" gorm:"type:uuid;not null;index"`
	Name      string    `json:"name" gorm:"not null"`
	Ordinal   int       `json:"ordinal" gorm:"not null"`
}

// BeforeCreate generates a UUID for the author ID
func (a *PackageAuthor) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// PackageDependency records one dependency of a package on another
// package id, constrained to a version range.
type PackageDependency struct {
	ID           uuid.UUID `json:"id" gorm:"primaryKey"`
	PackageID    uuid.UUID `json:"package_id" gorm:"type:uuid;not null;index"`
	Name         string    `json:"name" gorm:"not null"`
	VersionRange string    `json:"version_range"`
	Ordinal      int       `json:"ordinal" gorm:"not null"`
}

// BeforeCreate generates a UUID for the dependency ID
func (d *PackageDependency) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// PackageReview is user feedback attached to a package version. The
// consistency core only carries it through eager fetches.
type PackageReview struct {
	ID        uuid.UUID `json:"id" gorm:"primaryKey"`
	PackageID uuid.UUID `json:"package_id" gorm:"type:uuid;not null;index"`
	UserID    uuid.UUID `json:"user_id" gorm:"type:uuid"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// BeforeCreate generates a UUID for the review ID
func (rv *PackageReview) BeforeCreate(tx *gorm.DB) error {
	if rv.ID == uuid.Nil {
		rv.ID = uuid.New()
	}
	return nil
}

// DependencyRef is a dependency as it appears on a submission, before
// it is persisted as a PackageDependency row.
type DependencyRef struct {
	Name         string `json:"name"`
	VersionRange string `json:"version_range"`
}

// SubmittedPackage carries the metadata and content of one incoming
// package version. Content is read fully exactly once during ingest.
type SubmittedPackage struct {
	Name                      string
	Version                   string
	Description               string
	RequiresLicenseAcceptance bool

	IconURL    *string
	LicenseURL *string
	ProjectURL *string
	Summary    *string
	Tags       *string
	Title      *string

	Authors      []string
	Dependencies []DependencyRef

	Content io.Reader
}
