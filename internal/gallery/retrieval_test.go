package gallery

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/lgulliver/galleon/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func seedVersions(t *testing.T, service *Service, db *common.Database, mockStorage *MockBlobStorage, name string, versions ...string) {
	t.Helper()
	alice := createTestUser(t, db, "alice-"+name)
	for _, v := range versions {
		anyStore(mockStorage).Return(nil).Once()
		_, err := service.Ingest(context.Background(), submission(name, v, []byte("content-"+v)), alice)
		require.NoError(t, err)
	}
}

func TestFindRegistration_NotFound(t *testing.T) {
	service, _, _ := setupTestService(t)

	_, err := service.FindRegistration(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindPackage_ExactVersion(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	seedVersions(t, service, db, mockStorage, "Foo", "1.0.0", "1.1.0")
	ctx := context.Background()

	pkg, err := service.FindPackage(ctx, "Foo", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", pkg.Version)
	assert.Equal(t, "Foo", pkg.Registration.Name)

	_, err = service.FindPackage(ctx, "Foo", "9.9.9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFindPackage_LatestWhenVersionOmitted(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	seedVersions(t, service, db, mockStorage, "Foo", "1.0.0", "1.2.0", "1.1.0")

	pkg, err := service.FindPackage(context.Background(), "Foo", "")
	require.NoError(t, err)
	assert.Equal(t, "1.2.0", pkg.Version)
}

func TestFindPackage_AttachesSiblingVersions(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	seedVersions(t, service, db, mockStorage, "Foo", "1.0.0", "2.0.0", "3.0.0")

	pkg, err := service.FindPackage(context.Background(), "Foo", "2.0.0")
	require.NoError(t, err)

	// one query populated the whole sibling set
	require.Len(t, pkg.Registration.Packages, 3)
	versions := versionStrings(pkg.Registration.Packages)
	assert.ElementsMatch(t, []string{"1.0.0", "2.0.0", "3.0.0"}, versions)
}

func TestFindPackage_UnknownName(t *testing.T) {
	service, _, _ := setupTestService(t)

	_, err := service.FindPackage(context.Background(), "ghost", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListLatestPublished(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	ctx := context.Background()

	seedVersions(t, service, db, mockStorage, "Foo", "1.0.0", "2.0.0")
	seedVersions(t, service, db, mockStorage, "Bar", "0.1.0")

	// nothing published yet
	pkgs, err := service.ListLatestPublished(ctx)
	require.NoError(t, err)
	assert.Empty(t, pkgs)

	require.NoError(t, service.Publish(ctx, "Foo", "1.0.0"))
	require.NoError(t, service.Publish(ctx, "Bar", "0.1.0"))

	pkgs, err = service.ListLatestPublished(ctx)
	require.NoError(t, err)

	// Foo's latest flag sits on the unpublished 2.0.0, so only Bar is
	// both published and latest
	require.Len(t, pkgs, 1)
	assert.Equal(t, "0.1.0", pkgs[0].Version)
	assert.Equal(t, "Bar", pkgs[0].Registration.Name)
	assert.NotEmpty(t, pkgs[0].Registration.Owners)

	require.NoError(t, service.Publish(ctx, "Foo", "2.0.0"))

	pkgs, err = service.ListLatestPublished(ctx)
	require.NoError(t, err)
	assert.Len(t, pkgs, 2)
}

func TestFindByOwner(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	alice := createTestUser(t, db, "alice")
	bob := createTestUser(t, db, "bob")
	ctx := context.Background()

	anyStore(mockStorage).Return(nil).Times(3)
	_, err := service.Ingest(ctx, submission("Foo", "1.0.0", []byte("a")), alice)
	require.NoError(t, err)
	_, err = service.Ingest(ctx, submission("Foo", "2.0.0", []byte("b")), alice)
	require.NoError(t, err)
	_, err = service.Ingest(ctx, submission("Bar", "1.0.0", []byte("c")), bob)
	require.NoError(t, err)

	pkgs, err := service.FindByOwner(ctx, alice)
	require.NoError(t, err)
	require.Len(t, pkgs, 2)
	for _, pkg := range pkgs {
		assert.Equal(t, "Foo", pkg.Registration.Name)
	}

	pkgs, err = service.FindByOwner(ctx, bob)
	require.NoError(t, err)
	require.Len(t, pkgs, 1)
	assert.Equal(t, "Bar", pkgs[0].Registration.Name)
}

func TestListVersions(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	seedVersions(t, service, db, mockStorage, "Foo", "1.0.0", "2.1.0", "1.5.0")

	versions, err := service.ListVersions(context.Background(), "Foo")
	require.NoError(t, err)
	assert.Equal(t, []string{"2.1.0", "1.5.0", "1.0.0"}, versions)
}

func TestDownload(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	seedVersions(t, service, db, mockStorage, "Foo", "1.0.0")
	ctx := context.Background()

	mockStorage.On("Retrieve", mock.Anything, "foo/1.0.0/foo.1.0.0.pkg").
		Return(io.NopCloser(strings.NewReader("content-1.0.0")), nil).Once()

	pkg, content, err := service.Download(ctx, "Foo", "1.0.0")
	require.NoError(t, err)
	defer content.Close()

	data, err := io.ReadAll(content)
	require.NoError(t, err)
	assert.Equal(t, "content-1.0.0", string(data))

	// download counter moved
	again, err := service.FindPackage(ctx, "Foo", "1.0.0")
	require.NoError(t, err)
	assert.Equal(t, pkg.Downloads+1, again.Downloads)

	mockStorage.AssertExpectations(t)
}

func TestDownload_BlobMissing(t *testing.T) {
	service, db, mockStorage := setupTestService(t)
	seedVersions(t, service, db, mockStorage, "Foo", "1.0.0")

	mockStorage.On("Retrieve", mock.Anything, mock.Anything).
		Return(nil, assert.AnError).Once()

	_, _, err := service.Download(context.Background(), "Foo", "1.0.0")
	assert.ErrorIs(t, err, ErrArtifactIO)
}
