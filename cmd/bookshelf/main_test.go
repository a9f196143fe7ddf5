package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pollex.nl/bookshelf/config"
	"pollex.nl/bookshelf/store"
)

func noEnv(string) string { return "" }

func parse(t *testing.T, args ...string) *config.Config {
	t.Helper()
	cfg, _, err := config.Parse(args, noEnv, io.Discard)
	require.NoError(t, err)
	return cfg
}

func TestRun_ShouldExit(t *testing.T) {
	out := &bytes.Buffer{}
	err := run(context.Background(), out, []string{"-h"}, noEnv)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Usage:")
}

func TestRun_InvalidConfig(t *testing.T) {
	err := run(context.Background(), io.Discard, []string{"-store", "postgres"}, noEnv)

	var exitErr *config.ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 2, exitErr.Code)
}

func TestSetup(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	for _, backend := range store.Backends {
		t.Run(backend, func(t *testing.T) {
			h, closeStore, err := setup(context.Background(), parse(t, "-store", backend), logger)
			require.NoError(t, err)
			defer closeStore() //nolint:errcheck

			req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query": "{ book(id: 4) { name author { name } } }"}`))
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.JSONEq(t, `{"data": {"book": {"name": "The Fellowship of the Ring", "author": {"name": "J. R. R. Tolkien"}}}}`, rec.Body.String())
		})
	}
}

func TestSetupSeedFile(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("custom library", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.hcl")
		require.NoError(t, os.WriteFile(path, []byte(`
author {
  id   = 1
  name = "Ursula K. Le Guin"
}
`), 0o600))

		h, closeStore, err := setup(context.Background(), parse(t, "-seed", path), logger)
		require.NoError(t, err)
		defer closeStore() //nolint:errcheck

		req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{"query": "{ authors { name } }"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.JSONEq(t, `{"data": {"authors": [{"name": "Ursula K. Le Guin"}]}}`, rec.Body.String())
	})

	t.Run("invalid file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "seed.hcl")
		require.NoError(t, os.WriteFile(path, []byte(`
book {
  id        = 1
  name      = "Orphan"
  author_id = 9
}
`), 0o600))

		_, _, err := setup(context.Background(), parse(t, "-seed", path), logger)
		assert.ErrorContains(t, err, "failed to seed store")
	})
}
