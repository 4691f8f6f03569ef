// Package uri builds listing links and navigation breadcrumbs.
package uri

import (
	"net/url"
	"strings"

	"github.com/taigrr/dirindex/internal/types"
)

// DirLink returns the link that lists dir. The root links to "?dir=.".
func DirLink(dir string) string {
	cleanPath := strings.Trim(dir, "/")
	if cleanPath == "" {
		cleanPath = "."
	}

	// URI encode each segment, but keep slashes as slashes
	parts := strings.Split(cleanPath, "/")
	for i, part := range parts {
		parts[i] = url.QueryEscape(part)
	}

	return "?dir=" + strings.Join(parts, "/")
}

// Breadcrumbs returns the trail from the root to dir, root first.
func Breadcrumbs(dir string) []types.Breadcrumb {
	crumbs := []types.Breadcrumb{{Name: types.HomeTitle, Dir: "."}}

	cleanPath := strings.Trim(dir, "/")
	if cleanPath == "" || cleanPath == "." {
		return crumbs
	}

	parts := strings.Split(cleanPath, "/")
	for i, part := range parts {
		crumbs = append(crumbs, types.Breadcrumb{
			Name: part,
			Dir:  strings.Join(parts[:i+1], "/"),
		})
	}
	return crumbs
}
