package storage

import (
	"fmt"
	"path"
	"strings"
	"time"
	"unicode"
)

// ImagePathParams identify an uploaded catalog image.
type ImagePathParams struct {
	// Folder groups objects, typically the product category or the record kind.
	Folder   string
	FileName string
	At       time.Time
	// Index is the position of the file within its submission.
	Index int
}

// BuildImagePath composes "{folder}/{unix-seconds}_{index}_{file name}" with whitespace in the
// file name replaced by underscores. Files of one submission share the timestamp, so the index
// keeps same-named files apart.
func BuildImagePath(params ImagePathParams) (string, error) {
	folder, err := validateSegment("folder", normalizeFolder(params.Folder))
	if err != nil {
		return "", err
	}
	fileName, err := validateFileName(sanitizeFileName(params.FileName))
	if err != nil {
		return "", err
	}
	if params.Index < 0 {
		return "", fmt.Errorf("storage: index must not be negative")
	}
	at := params.At
	if at.IsZero() {
		at = time.Now()
	}
	return fmt.Sprintf("%s/%d_%d_%s", folder, at.Unix(), params.Index, fileName), nil
}

func normalizeFolder(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	return strings.Join(strings.Fields(value), "-")
}

func sanitizeFileName(value string) string {
	// browsers may send a full client path
	value = strings.ReplaceAll(strings.TrimSpace(value), "\\", "/")
	value = path.Base(value)
	if value == "." || value == "/" {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, value)
}

func validateSegment(name, value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("storage: %s is required", name)
	}
	if strings.ContainsAny(value, "/\\") {
		return "", fmt.Errorf("storage: %s contains invalid path characters", name)
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: %s contains invalid traversal sequence", name)
	}
	return value, nil
}

func validateFileName(value string) (string, error) {
	if value == "" {
		return "", fmt.Errorf("storage: fileName is required")
	}
	if strings.Contains(value, "..") {
		return "", fmt.Errorf("storage: fileName contains invalid traversal sequence")
	}
	return value, nil
}
