package errors

import (
	"strings"
	"unicode"
)

// MaxFilenameLength bounds filenames derived from identicon content.
const MaxFilenameLength = 128

// ValidateContent checks text submitted to the crafting queue.
// Any UTF-8 text is hashable as given, but blank input is never crafted.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return New(ErrCodeInvalidInput, "content cannot be blank")
	}
	return nil
}

// SanitizeFilename turns identicon content into a safe file basename.
// Path separators, control characters and characters rejected by common
// filesystems become underscores; leading dots are stripped so the result
// is never hidden. Blank results fall back to "identicon".
func SanitizeFilename(content string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(content) {
		switch {
		case unicode.IsControl(r):
			b.WriteRune('_')
		case strings.ContainsRune(`/\:*?"<>|`, r):
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}

	name := strings.TrimLeft(b.String(), ".")
	if runes := []rune(name); len(runes) > MaxFilenameLength {
		name = string(runes[:MaxFilenameLength])
	}
	if strings.Trim(name, "_ ") == "" {
		return "identicon"
	}
	return name
}

// ValidateOutputPath validates a path the CLI is about to write to.
//
// Validation rules:
//   - Path cannot be empty
//   - No null bytes or control characters
//   - Maximum length of 1024 characters
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	}

	const maxPathLength = 1024
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}
	return nil
}

// ValidateRedisURL validates a Redis connection string for safety.
// It only checks the scheme; go-redis does the full parse.
func ValidateRedisURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "redis URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "redis://") && !strings.HasPrefix(rawURL, "rediss://") {
		return New(ErrCodeInvalidConfig, "redis URL must use redis or rediss scheme")
	}
	return nil
}
