// Package types defines the data structures shared across the listing service.
package types

import (
	"html/template"
	"time"
)

type (
	// FileEntry is one immediate child of a listed directory.
	FileEntry struct {
		Name      string    `json:"name"`
		Path      string    `json:"path"` // slash-separated, relative to the root
		Pathname  string    `json:"-"`    // absolute filesystem path
		Extension string    `json:"extension,omitempty"`
		IsDir     bool      `json:"isDir"`
		IsReadme  bool      `json:"isReadme,omitempty"`
		MimeType  string    `json:"mimeType,omitempty"`
		Size      int64     `json:"size"`
		ModTime   time.Time `json:"modTime"`
	}

	// ReadmeFile is the README selected for a listing together with its
	// rendered body.
	ReadmeFile struct {
		Entry FileEntry     `json:"entry"`
		Title string        `json:"title,omitempty"` // frontmatter title, if any
		HTML  template.HTML `json:"-"`
	}

	// Breadcrumb is one step of the navigation trail from the root.
	Breadcrumb struct {
		Name string `json:"name"`
		Dir  string `json:"dir"`
	}

	// Listing is everything the index template needs to render a directory.
	Listing struct {
		Path        string       `json:"path"`
		Title       string       `json:"title"`
		Entries     []FileEntry  `json:"entries"`
		Readme      *ReadmeFile  `json:"readme,omitempty"`
		Breadcrumbs []Breadcrumb `json:"breadcrumbs"`
	}

	// PathFilterConfig contains configuration for the path filter.
	PathFilterConfig struct {
		HiddenPatterns []string `json:"hiddenPatterns"`
		HideDotFiles   bool     `json:"hideDotFiles"`
	}
)

// HomeTitle is the title of the root listing.
const HomeTitle = "Home"

// TitleFor returns the page title for a resolved directory path.
func TitleFor(path string) string {
	if path == "." {
		return HomeTitle
	}
	return path
}
