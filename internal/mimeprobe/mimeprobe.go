// Package mimeprobe detects file content types by inspecting file content.
package mimeprobe

import (
	"fmt"
	"os"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// EmptyType is reported for zero-length files, which are never text.
const EmptyType = "application/x-empty"

// Probe detects content types from file content, independent of the name.
type Probe struct{}

// New creates a new Probe.
func New() *Probe {
	return &Probe{}
}

// Detect returns the media type of the file at path without parameters,
// e.g. "text/plain" rather than "text/plain; charset=utf-8". Empty files
// report EmptyType.
func (p *Probe) Detect(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %s - %w", path, err)
	}
	if info.Mode().IsRegular() && info.Size() == 0 {
		return EmptyType, nil
	}

	mtype, err := mimetype.DetectFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to detect content type: %s - %w", path, err)
	}
	return BaseType(mtype.String()), nil
}

// BaseType strips parameters from a media type and lowercases it.
func BaseType(mediaType string) string {
	base, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(base))
}

// IsText reports whether a media type is in the text/* family.
func IsText(mediaType string) bool {
	return strings.HasPrefix(BaseType(mediaType), "text/")
}
