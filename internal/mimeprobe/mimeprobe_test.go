package mimeprobe

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProbe_Detect(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name     string
		content  []byte
		wantText bool
	}{
		{"README.md", []byte("# Project\n\nSome *markdown* text.\n"), true},
		{"notes.txt", []byte("plain text\n"), true},
		{"README.bin", []byte{0x00, 0x01, 0x02, 0x03, 0xff, 0xfe, 0x00, 0x00}, false},
		{"image.md", []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), false},
		{"README", []byte{}, false},
	}

	probe := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tmpDir, tt.name)
			if err := os.WriteFile(path, tt.content, 0o644); err != nil {
				t.Fatal(err)
			}

			got, err := probe.Detect(path)
			if err != nil {
				t.Fatalf("Detect(%q) error: %v", tt.name, err)
			}
			if IsText(got) != tt.wantText {
				t.Errorf("Detect(%q) = %q, IsText = %v, want %v", tt.name, got, IsText(got), tt.wantText)
			}
		})
	}
}

func TestProbe_DetectEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "README")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := New().Detect(path)
	if err != nil {
		t.Fatalf("Detect(empty) error: %v", err)
	}
	if got != EmptyType {
		t.Errorf("Detect(empty) = %q, want %q", got, EmptyType)
	}
}

func TestProbe_DetectMissingFile(t *testing.T) {
	if _, err := New().Detect(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("Detect(missing) error = nil, want error")
	}
}

func TestBaseType(t *testing.T) {
	tests := map[string]string{
		"text/plain; charset=utf-8": "text/plain",
		"Text/HTML":                 "text/html",
		"application/octet-stream":  "application/octet-stream",
		"":                          "",
	}
	for in, want := range tests {
		if got := BaseType(in); got != want {
			t.Errorf("BaseType(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsText(t *testing.T) {
	tests := []struct {
		mediaType string
		want      bool
	}{
		{"text/plain", true},
		{"text/x-shellscript", true},
		{"text/plain; charset=utf-8", true},
		{"application/json", false},
		{"image/png", false},
		{"texts/plain", false},
	}
	for _, tt := range tests {
		if got := IsText(tt.mediaType); got != tt.want {
			t.Errorf("IsText(%q) = %v, want %v", tt.mediaType, got, tt.want)
		}
	}
}
