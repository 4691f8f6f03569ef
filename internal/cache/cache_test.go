package cache

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// failingStore fails every operation.
type failingStore struct{}

func (failingStore) Load(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("load failed")
}

func (failingStore) Save(context.Context, string, []byte) error {
	return errors.New("save failed")
}

func (failingStore) Close() error { return nil }

func counter(value string) (func() (string, error), *int) {
	calls := 0
	return func() (string, error) {
		calls++
		return value, nil
	}, &calls
}

func TestKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		if Key("docs") != Key("docs") {
			t.Error("Key(docs) changed between calls")
		}
	})

	t.Run("prefixed hex digest", func(t *testing.T) {
		key := Key(".")
		if !strings.HasPrefix(key, KeyPrefix) {
			t.Errorf("Key(.) = %q, want prefix %q", key, KeyPrefix)
		}
		if got := len(strings.TrimPrefix(key, KeyPrefix)); got != 64 {
			t.Errorf("digest length = %d, want 64", got)
		}
	})

	t.Run("distinct paths", func(t *testing.T) {
		paths := []string{".", "docs", "docs/", "Docs", "docs/api", "a", "b", "..", ""}
		for i := range 200 {
			paths = append(paths, fmt.Sprintf("dir-%d/sub", i))
		}

		seen := make(map[string]string)
		for _, path := range paths {
			key := Key(path)
			if other, ok := seen[key]; ok {
				t.Fatalf("Key(%q) collides with Key(%q)", path, other)
			}
			seen[key] = path
		}
	})
}

func TestRender_GetOrCompute(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store { return NewMemory(0) },
		"sqlite": func(t *testing.T) Store {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), 0)
			if err != nil {
				t.Fatalf("OpenSQLite() error: %v", err)
			}
			return s
		},
	}

	for name, newStore := range stores {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			r := NewRender(newStore(t))
			defer r.Close()

			compute, calls := counter("<html>docs</html>")

			first, err := r.GetOrCompute(ctx, "docs", compute)
			if err != nil {
				t.Fatalf("first GetOrCompute() error: %v", err)
			}
			second, err := r.GetOrCompute(ctx, "docs", compute)
			if err != nil {
				t.Fatalf("second GetOrCompute() error: %v", err)
			}

			if first != second {
				t.Errorf("bodies differ: %q vs %q", first, second)
			}
			if *calls != 1 {
				t.Errorf("compute called %d times, want 1", *calls)
			}

			other, _ := r.GetOrCompute(ctx, "docs/api", compute)
			if *calls != 2 {
				t.Errorf("compute called %d times for a new path, want 2", *calls)
			}
			if other != "<html>docs</html>" {
				t.Errorf("other = %q", other)
			}
		})
	}
}

func TestRender_ComputeErrorIsNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)
	r := NewRender(store)

	boom := errors.New("render failed")
	_, err := r.GetOrCompute(ctx, "docs", func() (string, error) { return "", boom })
	if !errors.Is(err, boom) {
		t.Fatalf("GetOrCompute() error = %v, want %v", err, boom)
	}
	if store.Len() != 0 {
		t.Errorf("store has %d entries after failed compute, want 0", store.Len())
	}

	compute, calls := counter("ok")
	got, err := r.GetOrCompute(ctx, "docs", compute)
	if err != nil || got != "ok" || *calls != 1 {
		t.Errorf("GetOrCompute() = %q, %v (calls %d), want ok after failure", got, err, *calls)
	}
}

func TestRender_StoreFailuresDegradeToCompute(t *testing.T) {
	r := NewRender(failingStore{})
	compute, calls := counter("fresh")

	for range 2 {
		got, err := r.GetOrCompute(context.Background(), "docs", compute)
		if err != nil {
			t.Fatalf("GetOrCompute() error: %v", err)
		}
		if got != "fresh" {
			t.Errorf("GetOrCompute() = %q, want fresh", got)
		}
	}
	if *calls != 2 {
		t.Errorf("compute called %d times, want 2", *calls)
	}
}

func TestRender_UndecodableEntryIsRecomputed(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(0)
	if err := store.Save(ctx, Key("docs"), []byte("not json")); err != nil {
		t.Fatal(err)
	}

	compute, calls := counter("fresh")
	got, err := NewRender(store).GetOrCompute(ctx, "docs", compute)
	if err != nil {
		t.Fatalf("GetOrCompute() error: %v", err)
	}
	if got != "fresh" || *calls != 1 {
		t.Errorf("GetOrCompute() = %q (calls %d), want fresh (1)", got, *calls)
	}
}

func TestRender_HTMLSurvivesSerialization(t *testing.T) {
	ctx := context.Background()
	r := NewRender(NewMemory(0))
	html := "<p class=\"x\">café &amp; \"quotes\"\n\ttabs</p>"

	compute, _ := counter(html)
	if _, err := r.GetOrCompute(ctx, "x", compute); err != nil {
		t.Fatal(err)
	}
	got, err := r.GetOrCompute(ctx, "x", func() (string, error) { return "", errors.New("should hit") })
	if err != nil {
		t.Fatalf("GetOrCompute() error: %v", err)
	}
	if got != html {
		t.Errorf("GetOrCompute() = %q, want %q", got, html)
	}
}

func TestMemory_TTL(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store := NewMemory(time.Minute)
	store.now = func() time.Time { return now }

	if err := store.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(59 * time.Second)
	if _, ok, _ := store.Load(ctx, "k"); !ok {
		t.Error("Load() before ttl = miss, want hit")
	}

	now = now.Add(time.Second)
	if _, ok, _ := store.Load(ctx, "k"); ok {
		t.Error("Load() at ttl = hit, want miss")
	}
	if store.Len() != 0 {
		t.Errorf("Len() = %d after expiry, want 0", store.Len())
	}
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "cache.db")

	store, err := OpenSQLite(path, 0)
	if err != nil {
		t.Fatalf("OpenSQLite() error: %v", err)
	}
	value := []byte(strings.Repeat("<li>entry</li>", 500))
	if err := store.Save(ctx, "k", value); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}

	reopened, err := OpenSQLite(path, 0)
	if err != nil {
		t.Fatalf("reopen error: %v", err)
	}
	defer reopened.Close()

	got, ok, err := reopened.Load(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("Load() = %v, %v; want hit", ok, err)
	}
	if string(got) != string(value) {
		t.Error("Load() returned different bytes than saved")
	}

	if _, ok, _ := reopened.Load(ctx, "missing"); ok {
		t.Error("Load(missing) = hit, want miss")
	}
}

func TestSQLite_TTL(t *testing.T) {
	ctx := context.Background()
	store, err := OpenSQLite(filepath.Join(t.TempDir(), "cache.db"), time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	if err := store.Save(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Hour)
	if _, ok, err := store.Load(ctx, "k"); ok || err != nil {
		t.Errorf("Load() after ttl = %v, %v; want miss", ok, err)
	}
}

func TestOpen(t *testing.T) {
	if s, err := Open("", "", 0); err != nil {
		t.Errorf("Open(\"\") error: %v", err)
	} else if _, ok := s.(*Memory); !ok {
		t.Errorf("Open(\"\") = %T, want *Memory", s)
	}

	s, err := Open(BackendSQLite, filepath.Join(t.TempDir(), "c.db"), 0)
	if err != nil {
		t.Fatalf("Open(sqlite) error: %v", err)
	}
	s.Close()

	if _, err := Open("redis", "", 0); err == nil {
		t.Error("Open(redis) error = nil, want error")
	}
}
