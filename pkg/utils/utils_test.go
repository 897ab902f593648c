package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeSHA512(t *testing.T) {
	digest := ComputeSHA512([]byte("hello"))
	assert.Len(t, digest, 128)
	assert.Equal(t, digest, ComputeSHA512([]byte("hello")))
	assert.NotEqual(t, digest, ComputeSHA512([]byte("hello!")))
}

func TestArtifactPath(t *testing.T) {
	assert.Equal(t, "foo/1.0.0/foo.1.0.0.pkg", ArtifactPath("Foo", "1.0.0"))
	assert.Equal(t, "my.pkg/2.0.0-rc.1/my.pkg.2.0.0-rc.1.pkg", ArtifactPath("My.Pkg", "2.0.0-rc.1"))
}

func TestNormalizePackageName(t *testing.T) {
	assert.Equal(t, "foo.bar", NormalizePackageName("Foo.Bar"))
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", FormatBytes(512))
	assert.Equal(t, "1.0 KB", FormatBytes(1024))
	assert.Equal(t, "1.5 MB", FormatBytes(1572864))
}
