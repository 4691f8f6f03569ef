// Package main implements the dirindex HTTP and MCP servers.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/fang"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taigrr/dirindex/internal/cache"
	"github.com/taigrr/dirindex/internal/config"
	"github.com/taigrr/dirindex/internal/filesystem"
	"github.com/taigrr/dirindex/internal/i18n"
	"github.com/taigrr/dirindex/internal/index"
	"github.com/taigrr/dirindex/internal/logging"
	"github.com/taigrr/dirindex/internal/pathfilter"
	"github.com/taigrr/dirindex/internal/readme"
	"github.com/taigrr/dirindex/internal/server"
	"github.com/taigrr/dirindex/internal/types"
	"github.com/taigrr/dirindex/internal/view"
)

var (
	configFile     string
	listingHandler *index.Handler
)

func main() {
	cmd := &cobra.Command{
		Use:   "dirindex [root]",
		Short: "Browsable HTML index of a directory",
		Long: `dirindex serves an HTML listing of a directory tree. Each page lists
the immediate children of one directory and shows its README below
the listing. Rendered pages can be cached in memory or in sqlite.`,
		Example: `dirindex ~/public
dirindex serve --cache --listen :8000 /srv/files
dirindex mcp ~/public`,
		Args: cobra.MaximumNArgs(1),
		RunE: runServe,
	}

	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default ./dirindex.{yaml,toml,json})")
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve [root]",
			Short: "Serve listings over HTTP",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runServe,
		},
		&cobra.Command{
			Use:   "mcp [root]",
			Short: "Serve listings as MCP tools over stdio",
			Args:  cobra.MaximumNArgs(1),
			RunE:  runMCP,
		},
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := fang.Execute(
		ctx,
		cmd,
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

// setup loads the configuration, installs the logger and builds the listing
// handler. The returned cleanup releases the cache store.
func setup(cmd *cobra.Command, args []string, logOutput string) (*config.Config, func(), error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return nil, nil, err
	}
	if len(args) > 0 {
		cfg.Root = args[0]
	}

	if err := logging.Init(logging.Config{
		Level:      cfg.LogLevel,
		Format:     cfg.LogFormat,
		OutputPath: logOutput,
	}); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logging: %w", err)
	}

	info, err := os.Stat(cfg.Root)
	if err != nil || !info.IsDir() {
		return nil, nil, fmt.Errorf("root is not a directory: %s", cfg.Root)
	}

	pf := pathfilter.New(&types.PathFilterConfig{
		HiddenPatterns: cfg.HiddenFiles,
		HideDotFiles:   cfg.HideDotFiles,
	})
	fileSystem := filesystem.New(cfg.Root, pf, filesystem.Options{
		SortOrder:   cfg.SortOrder,
		ReverseSort: cfg.ReverseSort,
	})
	readmes := readme.New(readme.Options{
		Enabled:  cfg.DisplayReadmes,
		MaxBytes: cfg.ReadmeMaxBytes,
	}, nil)

	renderer, err := view.New()
	if err != nil {
		return nil, nil, err
	}
	bundle, err := i18n.Load(cfg.Language)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() { _ = logging.Sync() }
	var pages index.PageCache
	if cfg.CacheFileIndex {
		store, err := cache.Open(cfg.Cache.Backend, cfg.Cache.Path, cfg.Cache.TTL)
		if err != nil {
			return nil, nil, err
		}
		rc := cache.NewRender(store)
		pages = rc
		cleanup = func() {
			if err := rc.Close(); err != nil {
				logging.L().Warn("failed to close cache", zap.Error(err))
			}
			_ = logging.Sync()
		}
	}

	listingHandler = index.New(index.Options{
		CacheFileIndex: cfg.CacheFileIndex,
		DisplayReadmes: cfg.DisplayReadmes,
	}, fileSystem, readmes, pages, renderer, bundle)

	logging.L().Info("serving directory",
		zap.String("root", fileSystem.Root()),
		zap.Bool("cache_fileindex", cfg.CacheFileIndex),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("display_readmes", cfg.DisplayReadmes),
		zap.Strings("languages", bundle.Languages()),
		zap.String("version", version),
	)

	return cfg, cleanup, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, cleanup, err := setup(cmd, args, "stdout")
	if err != nil {
		return err
	}
	defer cleanup()

	srv := server.New(server.Options{
		ListenAddr:      cfg.ListenAddr,
		MetricsAddr:     cfg.MetricsAddr,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}, listingHandler)

	if err := srv.Run(cmd.Context()); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}
	return nil
}

func runMCP(cmd *cobra.Command, args []string) error {
	// stdout carries the protocol stream.
	_, cleanup, err := setup(cmd, args, "stderr")
	if err != nil {
		return err
	}
	defer cleanup()

	mcpServer := mcp.NewServer(&mcp.Implementation{
		Name:    "dirindex",
		Version: version,
	}, nil)

	registerTools(mcpServer)

	if err := mcpServer.Run(cmd.Context(), &mcp.StdioTransport{}); err != nil {
		return fmt.Errorf("error running server: %w", err)
	}

	return nil
}
