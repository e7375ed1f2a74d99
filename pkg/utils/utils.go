package utils

import (
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var shortHashPattern = regexp.MustCompile("^[0-9a-fA-F]{8}$")

// IsValidCacheFilename checks if the filename matches the expected
// short hash pattern for rich cache files.
func IsValidCacheFilename(filename string) bool {
	// Remove .rtx extension if present
	filename = strings.TrimSuffix(filename, ".rtx")

	// Check if it's exactly 8 hexadecimal characters
	return shortHashPattern.MatchString(filename)
}

// GenerateShortUUID generates a short UUID (8 characters) for document
// identifiers and file names.
func GenerateShortUUID() string {
	fullUUID := uuid.New().String()
	// Take first 8 characters for a short but still unique identifier
	return strings.ReplaceAll(fullUUID[:8], "-", "")
}
