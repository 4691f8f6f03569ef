package main

import (
	"context"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/taigrr/dirindex/internal/filesystem"
	"github.com/taigrr/dirindex/internal/i18n"
	"github.com/taigrr/dirindex/internal/index"
	"github.com/taigrr/dirindex/internal/readme"
	"github.com/taigrr/dirindex/internal/view"
)

func setupListingHandler(t *testing.T) {
	t.Helper()
	root := t.TempDir()
	for name, content := range map[string]string{
		"README.txt":     "hello from the root",
		"docs/guide.txt": "guide",
	} {
		path := filepath.Join(root, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	renderer, err := view.New()
	if err != nil {
		t.Fatal(err)
	}
	bundle, err := i18n.Load("")
	if err != nil {
		t.Fatal(err)
	}

	listingHandler = index.New(
		index.Options{DisplayReadmes: true},
		filesystem.New(root, nil, filesystem.Options{}),
		readme.New(readme.Options{Enabled: true}, nil),
		nil,
		renderer,
		bundle,
	)
}

func TestHandleListDirectory(t *testing.T) {
	setupListingHandler(t)

	_, out, err := handleListDirectory(context.Background(), nil, ListDirectoryInput{})
	if err != nil {
		t.Fatalf("handleListDirectory() error: %v", err)
	}

	if out.Path != "." || out.Title != "Home" {
		t.Errorf("path/title = %q/%q, want ./Home", out.Path, out.Title)
	}
	if len(out.Entries) != 2 {
		t.Fatalf("entries = %v, want 2", out.Entries)
	}
	if out.Readme != "README.txt" {
		t.Errorf("readme = %q, want README.txt", out.Readme)
	}
	if !out.Entries[1].IsDir || out.Entries[1].Path != "docs" {
		t.Errorf("entries[1] = %+v, want docs dir", out.Entries[1])
	}

	res, _, err := handleListDirectory(context.Background(), nil, ListDirectoryInput{Dir: "missing"})
	if err == nil || res == nil || !res.IsError {
		t.Fatal("handleListDirectory(missing) want error result")
	}
	if err.Error() != "directory does not exist: missing" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestHandleRenderDirectory(t *testing.T) {
	setupListingHandler(t)

	_, out, err := handleRenderDirectory(context.Background(), nil, RenderDirectoryInput{Dir: " docs "})
	if err != nil {
		t.Fatalf("handleRenderDirectory() error: %v", err)
	}
	if out.Status != http.StatusOK {
		t.Errorf("status = %d, want 200", out.Status)
	}
	if !strings.Contains(out.HTML, "guide.txt") {
		t.Error("rendered page missing guide.txt")
	}

	_, out, err = handleRenderDirectory(context.Background(), nil, RenderDirectoryInput{Dir: "missing", AcceptLanguage: "fr"})
	if err != nil {
		t.Fatalf("handleRenderDirectory(missing) error: %v", err)
	}
	if out.Status != http.StatusNotFound {
		t.Errorf("status = %d, want 404", out.Status)
	}
}
