// Package ingest turns an uploaded CSV file into a single-table SQLite store.
package ingest

import (
	"path/filepath"
	"regexp"
	"strings"
)

const (
	// FallbackColumnName replaces a header cell that sanitizes to nothing.
	FallbackColumnName = "unnamed_column"
	// FallbackTableName is used when the upload name sanitizes to nothing.
	FallbackTableName = "financial_data"
)

var (
	spaceRun   = regexp.MustCompile(`\s+`)
	disallowed = regexp.MustCompile(`[^A-Za-z0-9_]`)
)

// Sanitize reduces name to a safe SQL identifier: whitespace runs become a
// single underscore and every other character outside [A-Za-z0-9_] is
// dropped. Sanitize is idempotent.
func Sanitize(name string) string {
	return sanitize(name, FallbackColumnName)
}

// TableName derives the table name from an uploaded file name: the base name
// up to its first dot, sanitized.
func TableName(filename string) string {
	base := filepath.Base(strings.ReplaceAll(filename, `\`, "/"))
	stem, _, _ := strings.Cut(base, ".")
	return sanitize(stem, FallbackTableName)
}

func sanitize(name, fallback string) string {
	name = spaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	name = disallowed.ReplaceAllString(name, "")
	if name == "" {
		return fallback
	}
	return name
}
