package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaxVersion(t *testing.T) {
	assert.Equal(t, "1.2.0", MaxVersion([]string{"1.0.0", "1.2.0", "1.1.0"}))
	assert.Equal(t, "2.0.0", MaxVersion([]string{"2.0.0"}))
	assert.Equal(t, "10.0.0", MaxVersion([]string{"9.0.0", "10.0.0"}))
	assert.Equal(t, "", MaxVersion(nil))
}

func TestMaxVersion_Prerelease(t *testing.T) {
	assert.Equal(t, "1.0.0", MaxVersion([]string{"1.0.0-beta.1", "1.0.0"}))
	assert.Equal(t, "1.0.0-beta.2", MaxVersion([]string{"1.0.0-beta.1", "1.0.0-beta.2"}))
}

func TestMaxVersion_SkipsUnparseable(t *testing.T) {
	assert.Equal(t, "1.0.0", MaxVersion([]string{"not-a-version", "1.0.0"}))
	// nothing parses: lexicographic fallback still yields one result
	assert.Equal(t, "bbb", MaxVersion([]string{"aaa", "bbb"}))
}

func TestMaxVersion_FirstWinsOnEqualValue(t *testing.T) {
	// build metadata is ignored in ordering, the first maximum stays
	assert.Equal(t, "1.0.0", MaxVersion([]string{"1.0.0", "1.0.0+build"}))
	assert.Equal(t, "1.0.0+build", MaxVersion([]string{"1.0.0+build", "1.0.0"}))
}

func TestSortVersionsDescending(t *testing.T) {
	sorted := SortVersionsDescending([]string{"1.0.0", "2.1.0", "1.5.0"})
	assert.Equal(t, []string{"2.1.0", "1.5.0", "1.0.0"}, sorted)
}

func TestSortVersionsDescending_UnparseableSink(t *testing.T) {
	sorted := SortVersionsDescending([]string{"weird", "1.0.0", "2.0.0"})
	assert.Equal(t, []string{"2.0.0", "1.0.0", "weird"}, sorted)
}

func TestCompareVersions(t *testing.T) {
	assert.Equal(t, -1, CompareVersions("1.0.0", "1.1.0"))
	assert.Equal(t, 0, CompareVersions("1.0.0", "1.0.0"))
	assert.Equal(t, 1, CompareVersions("2.0.0", "1.9.9"))
	assert.Equal(t, -1, CompareVersions("junk", "1.0.0"))
}

func TestIsPrerelease(t *testing.T) {
	assert.True(t, IsPrerelease("1.0.0-rc.1"))
	assert.False(t, IsPrerelease("1.0.0"))
	assert.False(t, IsPrerelease("junk"))
}
