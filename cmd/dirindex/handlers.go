package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/taigrr/dirindex/internal/index"
	"github.com/taigrr/dirindex/internal/types"
	"github.com/taigrr/dirindex/internal/view"
)

func handleListDirectory(ctx context.Context, req *mcp.CallToolRequest, input ListDirectoryInput) (*mcp.CallToolResult, ListDirectoryOutput, error) {
	dir := strings.TrimSpace(input.Dir)
	listing, err := listingHandler.Listing(ctx, dir)
	if index.IsNotFound(err) {
		return &mcp.CallToolResult{IsError: true}, ListDirectoryOutput{},
			fmt.Errorf("directory does not exist: %s", dir)
	}
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, ListDirectoryOutput{}, err
	}

	items := []EntryItem{}
	for _, e := range listing.Entries {
		items = append(items, EntryItem{
			Name:     e.Name,
			Path:     e.Path,
			IsDir:    e.IsDir,
			IsReadme: e.IsReadme,
			Size:     e.Size,
			Modified: view.FormatTime(e.ModTime),
		})
	}

	out := ListDirectoryOutput{
		Path:    listing.Path,
		Title:   listing.Title,
		Entries: items,
	}
	if listing.Readme != nil {
		out.Readme = listing.Readme.Entry.Path
	}

	return nil, out, nil
}

func handleRenderDirectory(ctx context.Context, req *mcp.CallToolRequest, input RenderDirectoryInput) (*mcp.CallToolResult, RenderDirectoryOutput, error) {
	resp, err := listingHandler.Handle(ctx, types.Request{
		Dir:            strings.TrimSpace(input.Dir),
		AcceptLanguage: input.AcceptLanguage,
	})
	if err != nil {
		return &mcp.CallToolResult{IsError: true}, RenderDirectoryOutput{}, err
	}

	return nil, RenderDirectoryOutput{
		Status:      resp.Status,
		ContentType: resp.ContentType,
		HTML:        resp.Body,
	}, nil
}
