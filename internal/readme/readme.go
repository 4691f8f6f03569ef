// Package readme finds and renders the README shown beneath a listing.
package readme

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"os"
	"regexp"
	"slices"
	"strings"

	"github.com/taigrr/dirindex/internal/frontmatter"
	"github.com/taigrr/dirindex/internal/mimeprobe"
	"github.com/taigrr/dirindex/internal/types"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultMaxBytes bounds how much of a README is read for rendering.
const DefaultMaxBytes int64 = 1 << 20

var namePattern = regexp.MustCompile(`(?i)^README(?:\..+)?$`)

// Prober detects the content type of a file by inspecting its content.
type Prober interface {
	Detect(path string) (string, error)
}

// Options configures a Locator.
type Options struct {
	Enabled  bool
	MaxBytes int64
}

// Locator selects a README among listed entries.
type Locator struct {
	enabled     bool
	maxBytes    int64
	probe       Prober
	frontmatter *frontmatter.Handler
	markdown    goldmark.Markdown
}

// New creates a new Locator. A nil probe uses content sniffing.
func New(opts Options, probe Prober) *Locator {
	if probe == nil {
		probe = mimeprobe.New()
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	return &Locator{
		enabled:     opts.Enabled,
		maxBytes:    opts.MaxBytes,
		probe:       probe,
		frontmatter: frontmatter.New(),
		markdown:    goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

// Enabled reports whether READMEs are displayed at all.
func (l *Locator) Enabled() bool {
	return l.enabled
}

// Find returns the README to display for entries, or nil. Candidates are
// files named README with an optional extension whose content is text/*;
// the lowest extension in byte order wins, so a bare README comes first.
func (l *Locator) Find(entries []types.FileEntry) *types.FileEntry {
	if !l.enabled {
		return nil
	}

	candidates := SortByExtension(FilterText(MatchName(entries), l.probe))
	if len(candidates) == 0 {
		return nil
	}

	found := candidates[0]
	found.IsReadme = true
	return &found
}

// MatchName keeps the files whose name matches README or README.<ext>,
// case-insensitively.
func MatchName(entries []types.FileEntry) []types.FileEntry {
	var matched []types.FileEntry
	for _, entry := range entries {
		if !entry.IsDir && namePattern.MatchString(entry.Name) {
			matched = append(matched, entry)
		}
	}
	return matched
}

// FilterText keeps the entries whose probed content type is text/* and
// records that type on them. Entries that cannot be probed are dropped.
func FilterText(entries []types.FileEntry, probe Prober) []types.FileEntry {
	var text []types.FileEntry
	for _, entry := range entries {
		mediaType, err := probe.Detect(entry.Pathname)
		if err != nil || !mimeprobe.IsText(mediaType) {
			continue
		}
		entry.MimeType = mediaType
		text = append(text, entry)
	}
	return text
}

// SortByExtension returns entries ordered by extension, byte-wise ascending.
// Entries with equal extensions keep their relative order.
func SortByExtension(entries []types.FileEntry) []types.FileEntry {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b types.FileEntry) int {
		return strings.Compare(a.Extension, b.Extension)
	})
	return sorted
}

// Render reads entry and renders it for display. Markdown is converted to
// HTML; other text is escaped inside a pre block.
func (l *Locator) Render(entry types.FileEntry) (*types.ReadmeFile, error) {
	f, err := os.Open(entry.Pathname)
	if err != nil {
		return nil, fmt.Errorf("failed to open readme: %s - %w", entry.Path, err)
	}
	defer f.Close()

	content, err := io.ReadAll(io.LimitReader(f, l.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read readme: %s - %w", entry.Path, err)
	}

	doc := l.frontmatter.Parse(string(content))

	var buf bytes.Buffer
	if IsMarkdown(entry) {
		if err := l.markdown.Convert([]byte(doc.Body), &buf); err != nil {
			return nil, fmt.Errorf("failed to render readme: %s - %w", entry.Path, err)
		}
	} else {
		buf.WriteString("<pre>")
		template.HTMLEscape(&buf, []byte(doc.Body))
		buf.WriteString("</pre>")
	}

	return &types.ReadmeFile{
		Entry: entry,
		Title: doc.Title(),
		HTML:  template.HTML(buf.String()),
	}, nil
}

// IsMarkdown reports whether entry should be rendered as markdown.
func IsMarkdown(entry types.FileEntry) bool {
	switch strings.ToLower(entry.Extension) {
	case "md", "markdown":
		return true
	}
	return entry.MimeType == "text/markdown"
}
