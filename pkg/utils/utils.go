package utils

import (
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"path"
	"strings"
)

// ComputeSHA512 returns the hex digest of the content bytes.
func ComputeSHA512(data []byte) string {
	sum := sha512.Sum512(data)
	return hex.EncodeToString(sum[:])
}

// NormalizePackageName lowercases a package name for case-insensitive
// identity matching. Names are stored as submitted; only comparisons
// go through this.
func NormalizePackageName(name string) string {
	return strings.ToLower(name)
}

// ArtifactPath builds the blob storage key for a (name, version) pair.
func ArtifactPath(name, version string) string {
	lower := NormalizePackageName(name)
	return path.Join(lower, version, fmt.Sprintf("%s.%s.pkg", lower, version))
}

// FormatBytes renders a byte count for log and display output.
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	suffixes := []string{"B", "KB", "MB", "GB", "TB", "PB", "EB"}
	return fmt.Sprintf("%.1f %s", float64(bytes)/float64(div), suffixes[exp])
}
