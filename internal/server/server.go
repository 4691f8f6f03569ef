// Package server exposes directory listings over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/taigrr/dirindex/internal/logging"
	"github.com/taigrr/dirindex/internal/metrics"
	"github.com/taigrr/dirindex/internal/types"
)

// ListingHandler answers a listing request.
type ListingHandler interface {
	Handle(ctx context.Context, req types.Request) (types.Response, error)
}

// Options configures the listeners.
type Options struct {
	ListenAddr      string
	MetricsAddr     string // empty disables the metrics listener
	ShutdownTimeout time.Duration
}

// Server serves listing pages and, optionally, Prometheus metrics.
type Server struct {
	opts    Options
	listing ListingHandler
}

// New creates a new Server.
func New(opts Options, listing ListingHandler) *Server {
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = 10 * time.Second
	}
	return &Server{opts: opts, listing: listing}
}

// Handler returns the HTTP handler for the listing routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", handleHealth)

	// metrics reads the matched pattern, so it must wrap the mux directly.
	return logging.Middleware(metrics.Middleware(mux))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	resp, err := s.listing.Handle(r.Context(), types.Request{
		Dir:            r.URL.Query().Get("dir"),
		AcceptLanguage: r.Header.Get("Accept-Language"),
	})
	if err != nil {
		logging.WithContext(r.Context()).Error("failed to handle listing", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", resp.ContentType)
	w.WriteHeader(resp.Status)
	_, _ = w.Write([]byte(resp.Body))
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	servers := []*http.Server{newHTTPServer(s.opts.ListenAddr, s.Handler())}
	if s.opts.MetricsAddr != "" {
		mux := http.NewServeMux()
		mux.Handle("GET /metrics", metrics.Handler())
		servers = append(servers, newHTTPServer(s.opts.MetricsAddr, mux))
	}

	listeners := make([]net.Listener, 0, len(servers))
	for _, srv := range servers {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			for _, open := range listeners {
				_ = open.Close()
			}
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		logging.L().Info("listening", zap.String("addr", ln.Addr().String()))
		listeners = append(listeners, ln)
	}

	g, gctx := errgroup.WithContext(ctx)
	for i, srv := range servers {
		ln := listeners[i]
		g.Go(func() error {
			if err := srv.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error on %s: %w", srv.Addr, err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logging.L().Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
		defer cancel()

		var errs []error
		for _, srv := range servers {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, fmt.Errorf("failed to shut down %s: %w", srv.Addr, err))
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

func newHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
