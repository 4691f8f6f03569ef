// Package index answers directory listing requests with rendered HTML pages.
package index

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/taigrr/dirindex/internal/filesystem"
	"github.com/taigrr/dirindex/internal/i18n"
	"github.com/taigrr/dirindex/internal/logging"
	"github.com/taigrr/dirindex/internal/metrics"
	"github.com/taigrr/dirindex/internal/types"
	"github.com/taigrr/dirindex/internal/uri"
	"github.com/taigrr/dirindex/internal/view"
)

// Lister resolves and enumerates directories under the served root.
type Lister interface {
	Resolve(dir string) (string, string, error)
	ListResolved(relPath, fullPath string) ([]types.FileEntry, error)
}

// ReadmeFinder selects and renders the README of a listing.
type ReadmeFinder interface {
	Find(entries []types.FileEntry) *types.FileEntry
	Render(entry types.FileEntry) (*types.ReadmeFile, error)
}

// PageCache stores rendered pages by directory path.
type PageCache interface {
	GetOrCompute(ctx context.Context, path string, compute func() (string, error)) (string, error)
}

// Renderer turns page data into HTML.
type Renderer interface {
	Render(name string, data any) (string, error)
	RenderResponse(status int, name string, data any) (types.Response, error)
}

// Localizer picks a translator for an Accept-Language header.
type Localizer interface {
	Localize(acceptLanguage string) i18n.Translator
}

// Options toggles the optional stages of a request.
type Options struct {
	CacheFileIndex bool
	DisplayReadmes bool
}

// Handler runs listing requests through resolution, enumeration, caching
// and rendering.
type Handler struct {
	opts      Options
	fs        Lister
	readmes   ReadmeFinder
	cache     PageCache
	renderer  Renderer
	localizer Localizer
}

// New creates a new Handler. cache may be nil when CacheFileIndex is off.
func New(opts Options, fs Lister, readmes ReadmeFinder, cache PageCache, renderer Renderer, localizer Localizer) *Handler {
	if cache == nil {
		opts.CacheFileIndex = false
	}
	return &Handler{
		opts:      opts,
		fs:        fs,
		readmes:   readmes,
		cache:     cache,
		renderer:  renderer,
		localizer: localizer,
	}
}

// IsNotFound reports whether err means the requested directory cannot be
// listed.
func IsNotFound(err error) bool {
	return errors.Is(err, filesystem.ErrDirectoryNotFound) || errors.Is(err, filesystem.ErrPathTraversal)
}

// Handle answers req with the listing page of the requested directory, or a
// 404 page when it cannot be listed. The directory is enumerated on every
// request, so a cached page is only served while its directory exists. Only
// rendering failures are returned as errors.
func (h *Handler) Handle(ctx context.Context, req types.Request) (types.Response, error) {
	logger := logging.WithContext(ctx)
	t := h.localizer.Localize(req.AcceptLanguage)

	rel, abs, err := h.fs.Resolve(req.Dir)
	if err != nil {
		logger.Info("rejected directory", zap.String("dir", req.Dir), zap.Error(err))
		return h.notFound(t)
	}

	entries, err := h.fs.ListResolved(rel, abs)
	if err != nil {
		logger.Info("directory not found", zap.String("dir", rel), zap.Error(err))
		return h.notFound(t)
	}

	render := func() (string, error) {
		listing := h.build(ctx, rel, entries)
		return h.renderer.Render(view.PageIndex, view.Page{
			Title:   listing.Title,
			Lang:    t.Language(),
			T:       t,
			Listing: listing,
		})
	}

	var body string
	if h.opts.CacheFileIndex {
		body, err = h.cache.GetOrCompute(ctx, cachePath(rel, t), render)
	} else {
		body, err = render()
	}
	if err != nil {
		metrics.RecordListing("error")
		return types.Response{}, fmt.Errorf("failed to render listing: %s - %w", rel, err)
	}

	metrics.RecordListing("ok")
	return types.Response{
		Status:      http.StatusOK,
		Body:        body,
		ContentType: types.HTMLContentType,
	}, nil
}

// Listing builds the listing of dir without rendering it.
func (h *Handler) Listing(ctx context.Context, dir string) (types.Listing, error) {
	rel, abs, err := h.fs.Resolve(dir)
	if err != nil {
		return types.Listing{}, fmt.Errorf("%w: %w", filesystem.ErrDirectoryNotFound, err)
	}

	entries, err := h.fs.ListResolved(rel, abs)
	if err != nil {
		return types.Listing{}, err
	}

	return h.build(ctx, rel, entries), nil
}

// build assembles the listing of rel from its enumerated entries and picks
// the README. A README that cannot be rendered is omitted.
func (h *Handler) build(ctx context.Context, rel string, entries []types.FileEntry) types.Listing {
	listing := types.Listing{
		Path:        rel,
		Title:       types.TitleFor(rel),
		Entries:     entries,
		Breadcrumbs: uri.Breadcrumbs(rel),
	}

	if !h.opts.DisplayReadmes || h.readmes == nil {
		return listing
	}

	found := h.readmes.Find(entries)
	metrics.RecordReadmeLookup(found != nil)
	if found == nil {
		return listing
	}

	for i := range listing.Entries {
		if listing.Entries[i].Path == found.Path {
			listing.Entries[i].IsReadme = true
		}
	}

	readme, err := h.readmes.Render(*found)
	if err != nil {
		logging.WithContext(ctx).Warn("failed to render readme", zap.String("path", found.Path), zap.Error(err))
		return listing
	}
	listing.Readme = readme

	return listing
}

func (h *Handler) notFound(t i18n.Translator) (types.Response, error) {
	metrics.RecordListing("not_found")
	return h.renderer.RenderResponse(http.StatusNotFound, view.PageError, view.Page{
		Title:   t.Translate("error.title"),
		Lang:    t.Language(),
		T:       t,
		Message: t.Translate("error.directory_not_found"),
	})
}

// cachePath is the cache input for rel. Pages are localized, so non-default
// languages get their own entry. NUL cannot occur in a path.
func cachePath(rel string, t i18n.Translator) string {
	if t.Language() == i18n.DefaultLanguage {
		return rel
	}
	return rel + "\x00" + t.Language()
}
