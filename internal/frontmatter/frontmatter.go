// Package frontmatter separates YAML frontmatter from README bodies.
package frontmatter

import (
	"strings"

	"gopkg.in/yaml.v3"
)

const delimiter = "---"

// Document is a README split into its frontmatter and body.
type Document struct {
	Frontmatter map[string]any
	Body        string
}

// Title returns the frontmatter "title" value, if it is a non-empty string.
func (d Document) Title() string {
	if title, ok := d.Frontmatter["title"].(string); ok {
		return strings.TrimSpace(title)
	}
	return ""
}

// Handler parses frontmatter.
type Handler struct{}

// New creates a new Handler.
func New() *Handler {
	return &Handler{}
}

// Parse splits content into frontmatter and body. Content without a
// well-formed frontmatter block is returned unchanged as the body.
func (h *Handler) Parse(content string) Document {
	result := Document{
		Frontmatter: make(map[string]any),
		Body:        content,
	}

	normalized := strings.ReplaceAll(content, "\r\n", "\n")

	// Check if content starts with frontmatter delimiter
	if !strings.HasPrefix(normalized, delimiter+"\n") {
		return result
	}

	rest := normalized[len(delimiter)+1:]

	// Find the closing delimiter, either mid-document or at the very end
	var yamlContent, body string
	switch {
	case rest == delimiter || strings.HasPrefix(rest, delimiter+"\n"):
		// Empty frontmatter block
		body = strings.TrimPrefix(strings.TrimPrefix(rest, delimiter), "\n")
	case strings.Contains(rest, "\n"+delimiter+"\n"):
		end := strings.Index(rest, "\n"+delimiter+"\n")
		yamlContent = rest[:end]
		body = rest[end+len(delimiter)+2:]
	case strings.HasSuffix(rest, "\n"+delimiter):
		yamlContent = strings.TrimSuffix(rest, "\n"+delimiter)
	default:
		return result
	}

	var frontmatter map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &frontmatter); err != nil {
		// If parsing fails, treat as content without frontmatter
		return result
	}

	if frontmatter != nil {
		result.Frontmatter = frontmatter
	}
	result.Body = body

	return result
}
