// Package pathfilter decides which paths under the root are hidden from listings.
package pathfilter

import (
	"regexp"
	"strings"

	"github.com/taigrr/dirindex/internal/types"
)

// PathFilter hides paths matching glob patterns and, optionally, dot files.
type PathFilter struct {
	patterns     []pattern
	hideDotFiles bool
}

// pattern is a compiled glob. Patterns without a slash match any single path
// component, like .gitignore entries; the rest match from the root.
type pattern struct {
	re       *regexp.Regexp
	anchored bool
}

// New creates a new PathFilter with the given configuration. A nil config
// hides dot files and nothing else.
func New(config *types.PathFilterConfig) *PathFilter {
	pf := &PathFilter{hideDotFiles: true}
	if config == nil {
		return pf
	}

	pf.hideDotFiles = config.HideDotFiles
	for _, glob := range config.HiddenPatterns {
		if re := compileGlob(glob); re != nil {
			anchored := strings.ContainsAny(strings.Trim(glob, "/\\"), "/\\")
			pf.patterns = append(pf.patterns, pattern{re: re, anchored: anchored})
		}
	}
	return pf
}

// compileGlob converts a glob pattern to an anchored regex.
func compileGlob(glob string) *regexp.Regexp {
	// Normalize pattern path separators (Windows compatibility)
	normalized := strings.Trim(strings.ReplaceAll(glob, "\\", "/"), "/")
	if normalized == "" {
		return nil
	}

	// Escape all regex special chars first
	expr := regexp.QuoteMeta(normalized)

	// Convert glob patterns (unescape the escaped versions)
	expr = strings.ReplaceAll(expr, `\*\*`, ".*")  // ** matches any
	expr = strings.ReplaceAll(expr, `\*`, "[^/]*") // * matches non-slash
	expr = strings.ReplaceAll(expr, `\?`, "[^/]")  // ? matches single char

	re, err := regexp.Compile("^" + expr + "$")
	if err != nil {
		return nil
	}
	return re
}

// IsAllowed reports whether a root-relative path is visible. A path is
// hidden when any of its leading components is hidden, so the contents of a
// hidden directory stay hidden too.
func (pf *PathFilter) IsAllowed(path string) bool {
	normalized := strings.Trim(strings.ReplaceAll(path, "\\", "/"), "/")
	if normalized == "" || normalized == "." {
		return true
	}

	segments := strings.Split(normalized, "/")
	for i, segment := range segments {
		if pf.hideDotFiles && strings.HasPrefix(segment, ".") && segment != "." && segment != ".." {
			return false
		}

		prefix := strings.Join(segments[:i+1], "/")
		for _, p := range pf.patterns {
			subject := segment
			if p.anchored {
				subject = prefix
			}
			if p.re.MatchString(subject) {
				return false
			}
		}
	}

	return true
}
