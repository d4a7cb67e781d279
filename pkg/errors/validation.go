package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxCellNameLength is the GDSII limit for structure names.
const maxCellNameLength = 32

// cellNameRegex matches the characters GDSII allows in structure names.
var cellNameRegex = regexp.MustCompile(`^[A-Za-z0-9_?$]+$`)

// ValidateCellName validates a layout cell (GDSII structure) name.
//
// The rules follow the stream format:
//   - No empty names
//   - Maximum length of 32 characters
//   - Only letters, digits, '_', '?' and '$'
func ValidateCellName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "cell name cannot be empty")
	}
	if len(name) > maxCellNameLength {
		return New(ErrCodeInvalidName, "cell name too long (max %d characters)", maxCellNameLength)
	}
	if !cellNameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid cell name: %q", name)
	}
	return nil
}

// ValidateBaseName validates an output base name (a file name without
// extension). It rejects names that could escape the output directory.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 200 characters
//   - No null bytes or control characters
//   - No path separators or traversal sequences (..)
func ValidateBaseName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "name cannot be empty")
	}

	const maxLength = 200
	if len(name) > maxLength {
		return New(ErrCodeInvalidName, "name too long (max %d characters)", maxLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "name contains invalid characters")
		}
	}

	if strings.ContainsAny(name, "/\\") {
		return New(ErrCodeInvalidName, "name cannot contain path separators")
	}

	if strings.Contains(name, "..") {
		return New(ErrCodeInvalidName, "name cannot contain path traversal sequences (..)")
	}

	return nil
}
