package main

import "github.com/modelcontextprotocol/go-sdk/mcp"

type (
	// ListDirectoryInput contains parameters for listing a directory.
	ListDirectoryInput struct {
		Dir string `json:"dir,omitempty" jsonschema:"Directory relative to the served root (default: root)"`
	}

	// EntryItem is one child of a listed directory.
	EntryItem struct {
		Name     string `json:"name"`
		Path     string `json:"path"`
		IsDir    bool   `json:"isDir,omitempty"`
		IsReadme bool   `json:"isReadme,omitempty"`
		Size     int64  `json:"size,omitempty"`
		Modified string `json:"modified,omitempty"`
	}

	// ListDirectoryOutput contains the result of listing a directory.
	ListDirectoryOutput struct {
		Path    string      `json:"path"`
		Title   string      `json:"title"`
		Entries []EntryItem `json:"entries"`
		Readme  string      `json:"readme,omitempty"`
	}

	// RenderDirectoryInput contains parameters for rendering a directory page.
	RenderDirectoryInput struct {
		Dir            string `json:"dir,omitempty" jsonschema:"Directory relative to the served root (default: root)"`
		AcceptLanguage string `json:"acceptLanguage,omitempty" jsonschema:"Accept-Language value used to localize the page"`
	}

	// RenderDirectoryOutput contains the rendered page.
	RenderDirectoryOutput struct {
		Status      int    `json:"status"`
		ContentType string `json:"contentType"`
		HTML        string `json:"html"`
	}
)

func registerTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_directory",
		Description: "List the immediate children of a directory under the served root, and the README selected for it.",
	}, handleListDirectory)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "render_directory",
		Description: "Render the HTML index page of a directory exactly as the HTTP server would serve it.",
	}, handleRenderDirectory)
}
