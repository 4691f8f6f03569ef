// Package filesystem resolves requested directories under the served root and
// enumerates their immediate children.
package filesystem

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/taigrr/dirindex/internal/pathfilter"
	"github.com/taigrr/dirindex/internal/types"
)

var (
	// ErrDirectoryNotFound is returned when a directory is missing, is not a
	// directory, cannot be read or may not be listed.
	ErrDirectoryNotFound = errors.New("directory not found")

	// ErrPathTraversal is returned when a path resolves outside the root.
	ErrPathTraversal = errors.New("path traversal not allowed")
)

// Sort orders accepted by Options.SortOrder.
const (
	SortByName = "name"
	SortByType = "type"
)

// Options controls the ordering of listed entries.
type Options struct {
	SortOrder   string
	ReverseSort bool
}

// Service provides read-only access to the served directory tree.
type Service struct {
	root       string
	realRoot   string
	pathFilter *pathfilter.PathFilter
	opts       Options
}

// New creates a new Service rooted at root.
func New(root string, pf *pathfilter.PathFilter, opts Options) *Service {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		absRoot = filepath.Clean(root)
	}
	realRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		realRoot = absRoot
	}
	if pf == nil {
		pf = pathfilter.New(nil)
	}
	if opts.SortOrder == "" {
		opts.SortOrder = SortByName
	}
	return &Service{
		root:       absRoot,
		realRoot:   realRoot,
		pathFilter: pf,
		opts:       opts,
	}
}

// Root returns the absolute root directory.
func (s *Service) Root() string {
	return s.root
}

// Resolve turns a requested directory into its cleaned root-relative form
// ("." for the root) and its absolute path. An absent or blank request
// resolves to the root.
func (s *Service) Resolve(dir string) (string, string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		dir = "."
	}

	// Normalize and resolve the path within the root
	normalized := strings.TrimPrefix(filepath.ToSlash(dir), "/")
	fullPath := filepath.Join(s.root, filepath.FromSlash(normalized))

	// Security check: ensure path is within the root
	relPath, err := filepath.Rel(s.root, fullPath)
	if err != nil {
		return "", "", err
	}
	if escapes(relPath) {
		return "", "", fmt.Errorf("%w: %s", ErrPathTraversal, dir)
	}

	return filepath.ToSlash(relPath), fullPath, nil
}

// List returns the immediate children of dir. Subdirectory contents are
// never included. Every failure wraps ErrDirectoryNotFound.
func (s *Service) List(dir string) ([]types.FileEntry, error) {
	relPath, fullPath, err := s.Resolve(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDirectoryNotFound, err)
	}
	return s.ListResolved(relPath, fullPath)
}

// ListResolved is List for a path already returned by Resolve.
func (s *Service) ListResolved(relPath, fullPath string) ([]types.FileEntry, error) {
	if !s.pathFilter.IsAllowed(relPath) {
		return nil, fmt.Errorf("%w: %s is hidden", ErrDirectoryNotFound, relPath)
	}

	if !s.within(fullPath) {
		return nil, fmt.Errorf("%w: %w: %s", ErrDirectoryNotFound, ErrPathTraversal, relPath)
	}

	dirEntries, err := os.ReadDir(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDirectoryNotFound, relPath)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, fmt.Errorf("%w: permission denied: %s", ErrDirectoryNotFound, relPath)
		}
		return nil, fmt.Errorf("%w: failed to list directory: %s - %w", ErrDirectoryNotFound, relPath, err)
	}

	entries := make([]types.FileEntry, 0, len(dirEntries))
	for _, dirEntry := range dirEntries {
		entryPath := path.Join(relPath, dirEntry.Name())
		if !s.pathFilter.IsAllowed(entryPath) {
			continue
		}

		entryFullPath := filepath.Join(fullPath, dirEntry.Name())
		if dirEntry.Type()&fs.ModeSymlink != 0 && !s.within(entryFullPath) {
			continue
		}

		// Stat follows symlinks; dangling links are skipped.
		info, err := os.Stat(entryFullPath)
		if err != nil {
			continue
		}

		entries = append(entries, newEntry(dirEntry.Name(), entryPath, entryFullPath, info))
	}

	s.sortEntries(entries)
	return entries, nil
}

func newEntry(name, relPath, fullPath string, info fs.FileInfo) types.FileEntry {
	entry := types.FileEntry{
		Name:      name,
		Path:      relPath,
		Pathname:  fullPath,
		Extension: Extension(name),
		IsDir:     info.IsDir(),
		ModTime:   info.ModTime(),
	}
	if !entry.IsDir {
		entry.Size = info.Size()
	}
	return entry
}

// Extension returns the text after the last dot of name, without the dot.
func Extension(name string) string {
	return strings.TrimPrefix(filepath.Ext(name), ".")
}

func (s *Service) sortEntries(entries []types.FileEntry) {
	if s.opts.SortOrder == SortByType {
		slices.SortStableFunc(entries, func(a, b types.FileEntry) int {
			switch {
			case a.IsDir == b.IsDir:
				return 0
			case a.IsDir:
				return -1
			default:
				return 1
			}
		})
	}
	if s.opts.ReverseSort {
		slices.Reverse(entries)
	}
}

// within reports whether p, with symlinks evaluated, lies inside the root.
func (s *Service) within(p string) bool {
	realPath, err := filepath.EvalSymlinks(p)
	if err != nil {
		// Missing paths are reported by the caller's own read.
		return errors.Is(err, fs.ErrNotExist)
	}
	relPath, err := filepath.Rel(s.realRoot, realPath)
	if err != nil {
		return false
	}
	return !escapes(relPath)
}

func escapes(relPath string) bool {
	return relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator))
}
