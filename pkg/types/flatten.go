package types

import (
	"fmt"
	"strings"
)

// Flattened column formats. Authors are joined with ", "; dependencies
// are "name:versionRange" pairs joined with "|". The "|" separator is
// not legal inside a package id or a version range, but author names
// are free text, so commas and backslashes in them are backslash
// escaped. Both forms reconstruct the original ordered collections.

// authorEscaper protects the list separator inside author names.
var authorEscaper = strings.NewReplacer(`\`, `\\`, `,`, `\,`)

// FlattenAuthors serializes an ordered author list into its denormalized
// column form.
func FlattenAuthors(authors []string) string {
	parts := make([]string, len(authors))
	for i, a := range authors {
		parts[i] = authorEscaper.Replace(a)
	}
	return strings.Join(parts, ", ")
}

// UnflattenAuthors reconstructs the ordered author list from its
// flattened form. An empty string yields an empty list.
func UnflattenAuthors(flattened string) []string {
	if flattened == "" {
		return nil
	}
	var authors []string
	var cur strings.Builder
	for i := 0; i < len(flattened); i++ {
		c := flattened[i]
		switch {
		case c == '\\' && i+1 < len(flattened):
			i++
			cur.WriteByte(flattened[i])
		case c == ',' && i+1 < len(flattened) && flattened[i+1] == ' ':
			authors = append(authors, cur.String())
			cur.Reset()
			i++
		default:
			cur.WriteByte(c)
		}
	}
	return append(authors, cur.String())
}

// FlattenDependencies serializes an ordered dependency list into its
// denormalized column form.
func FlattenDependencies(deps []DependencyRef) string {
	parts := make([]string, len(deps))
	for i, d := range deps {
		parts[i] = fmt.Sprintf("%s:%s", d.Name, d.VersionRange)
	}
	return strings.Join(parts, "|")
}

// UnflattenDependencies reconstructs the ordered dependency list from
// its flattened form.
func UnflattenDependencies(flattened string) []DependencyRef {
	if flattened == "" {
		return nil
	}
	parts := strings.Split(flattened, "|")
	deps := make([]DependencyRef, len(parts))
	for i, part := range parts {
		name, versionRange, _ := strings.Cut(part, ":")
		deps[i] = DependencyRef{Name: name, VersionRange: versionRange}
	}
	return deps
}
