package lifecycle

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joescharf/issueboard/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.Server{
			Host:            "127.0.0.1",
			Port:            "0",
			ShutdownTimeout: 2 * time.Second,
			AllowedOrigins:  []string{"http://localhost:3000"},
		},
		Database: config.Database{
			Path: filepath.Join(t.TempDir(), "test.db"),
		},
		Auth: config.Auth{APIKey: "secret"},
	}
}

func TestBoot_ServeAndGracefulShutdown(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)

	ctx, cancel := context.WithCancel(context.Background())
	srv, st, err := Boot(ctx, cfg, logger)
	require.NoError(t, err)
	defer st.Close()

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	select {
	case <-srv.Ready():
	case <-time.After(2 * time.Second):
		t.Fatal("server did not become ready")
	}

	resp, err := http.Get(fmt.Sprintf("http://%s/api/health", srv.Addr().String()))
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestBoot_FailsOnUnwritablePath(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := testConfig(t)
	cfg.Database.Path = "/nonexistent-root-only/issues.db"

	_, _, err := Boot(context.Background(), cfg, logger)
	assert.Error(t, err)
}
