// Package lifecycle sequences the boot and graceful-shutdown path:
// open and migrate the store, build the router, and serve until the
// caller's context is cancelled. The caller configures logging and
// loads config before calling Boot.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/joescharf/issueboard/internal/config"
	"github.com/joescharf/issueboard/internal/httpapi"
	"github.com/joescharf/issueboard/internal/repository"
	"github.com/joescharf/issueboard/internal/store"
)

// Server binds a TCP listener and serves HTTP until ctx is cancelled,
// then drains in-flight requests up to a deadline. Grounded directly
// on bureau-foundation-bureau/lib/service/http.go's HTTPServer.Serve:
// bind listener → serve in a goroutine → select on ctx.Done versus a
// serve error → Shutdown with a derived timeout context.
type Server struct {
	addr            string
	handler         http.Handler
	logger          *slog.Logger
	shutdownTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration

	ready        chan struct{}
	addrResolved net.Addr
}

// NewServer constructs a Server from resolved config.
func NewServer(cfg *config.Config, handler http.Handler, logger *slog.Logger) *Server {
	return &Server{
		addr:            cfg.Server.Host + ":" + cfg.Server.Port,
		handler:         handler,
		logger:          logger,
		shutdownTimeout: cfg.Server.ShutdownTimeout,
		readTimeout:     cfg.Server.ReadTimeout,
		writeTimeout:    cfg.Server.WriteTimeout,
		ready:           make(chan struct{}),
	}
}

// Ready is closed once the listener is bound and accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the resolved listen address. Only valid after Ready is closed.
func (s *Server) Addr() net.Addr {
	return s.addrResolved
}

// Serve blocks until ctx is cancelled or the server fails, then drains
// in-flight requests up to shutdownTimeout before returning.
func (s *Server) Serve(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.addrResolved = listener.Addr()
	close(s.ready)

	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       s.readTimeout,
		WriteTimeout:      s.writeTimeout,
		IdleTimeout:       60 * time.Second,
	}

	s.logger.Info("http server listening", "address", s.addrResolved.String())

	serveDone := make(chan error, 1)
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveDone <- err
		}
		close(serveDone)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("http server shutting down")
	case err := <-serveDone:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("http server shutdown error", "error", err)
		return fmt.Errorf("http server shutdown: %w", err)
	}

	s.logger.Info("http server stopped")
	return nil
}

// Boot runs the full boot sequence — open the store, apply migrations,
// build the router — and returns a Server ready to Serve and the store
// handle the caller owns for eventual Close.
func Boot(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, *store.Store, error) {
	st, err := store.Open(store.Config{
		Path:            cfg.Database.Path,
		MigrationDir:    cfg.Database.MigrationDir,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open store: %w", err)
	}

	if err := st.Migrate(ctx, cfg.Database.MigrationDir); err != nil {
		_ = st.Close()
		return nil, nil, fmt.Errorf("migrate store: %w", err)
	}

	repo := repository.New(st.DB)
	router := httpapi.NewRouter(cfg, repo, st, logger)
	srv := NewServer(cfg, router, logger)

	if cfg.Server.EnableKeepAlive {
		go keepAlive(ctx, cfg.Server.KeepAliveURL, logger)
	}

	return srv, st, nil
}

// keepAlive pings {baseURL}/api/health every 5 minutes after an
// initial 30s delay, logging failures but never treating them as
// fatal — matches original_source/api/cmd/api/main.go's keepAlive.
func keepAlive(ctx context.Context, baseURL string, logger *slog.Logger) {
	if baseURL == "" {
		logger.Warn("keepalive enabled but no APP_URL/RENDER_EXTERNAL_URL configured")
		return
	}

	timer := time.NewTimer(30 * time.Second)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	client := &http.Client{Timeout: 10 * time.Second}
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	ping := func() {
		healthURL := baseURL + "/api/health"
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, healthURL, nil)
		if err != nil {
			logger.Warn("keepalive request build failed", "error", err)
			return
		}
		resp, err := client.Do(req)
		if err != nil {
			logger.Warn("keepalive ping failed", "error", err)
			return
		}
		defer resp.Body.Close()
		logger.Info("keepalive ping", "url", healthURL, "status", resp.StatusCode)
	}

	ping()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			ping()
		}
	}
}
