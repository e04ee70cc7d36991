//go:build darwin || linux

package sentinel

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sentinel/internal/config"
)

// putFakeLLMOnPath makes exec.LookPath("llm") succeed without a real CLI.
func putFakeLLMOnPath(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "llm")
	require.NoError(t, os.WriteFile(script, []byte("#!/bin/sh\necho ok\n"), 0755))
	t.Setenv("PATH", dir)
}

// clearPath leaves no llm binary findable.
func clearPath(t *testing.T) {
	t.Helper()
	t.Setenv("PATH", t.TempDir())
}

func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func deadOllamaURL(t *testing.T) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()
	return url
}

func backendConfig(backend, ollamaURL string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Analysis.Backend = backend
	cfg.Analysis.OllamaURL = ollamaURL
	return cfg
}

func TestResolveBackendOllama(t *testing.T) {
	srv := fakeOllama(t)
	cfg := backendConfig(config.BackendOllama, srv.URL)

	backend, note, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, note)
	assert.Equal(t, "ollama (llama3)", backend.Name())
}

func TestResolveBackendOllamaUnreachableIsFatal(t *testing.T) {
	cfg := backendConfig(config.BackendOllama, deadOllamaURL(t))

	_, _, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestResolveBackendCloud(t *testing.T) {
	putFakeLLMOnPath(t)
	cfg := backendConfig(config.BackendCloud, deadOllamaURL(t))

	backend, note, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, note)
	assert.Equal(t, "cloud (gpt-4o)", backend.Name())
}

func TestResolveBackendCloudFallsBackToOllama(t *testing.T) {
	clearPath(t)
	srv := fakeOllama(t)
	cfg := backendConfig(config.BackendCloud, srv.URL)

	backend, note, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ollama (llama3)", backend.Name())
	require.NotNil(t, note)
	assert.Contains(t, note.Message, "Backend fallback")
}

func TestResolveBackendCloudWithoutAnyBackendFails(t *testing.T) {
	clearPath(t)
	cfg := backendConfig(config.BackendCloud, deadOllamaURL(t))

	_, _, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fallback failed")
}

func TestResolveBackendBoth(t *testing.T) {
	putFakeLLMOnPath(t)
	srv := fakeOllama(t)
	cfg := backendConfig(config.BackendBoth, srv.URL)

	backend, note, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, note)
	assert.True(t, strings.HasPrefix(backend.Name(), "both:"), "got %q", backend.Name())
}

func TestResolveBackendBothDegradesToLocal(t *testing.T) {
	clearPath(t)
	srv := fakeOllama(t)
	cfg := backendConfig(config.BackendBoth, srv.URL)

	backend, note, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "ollama (llama3)", backend.Name())
	require.NotNil(t, note)
}

func TestResolveBackendBothDegradesToCloud(t *testing.T) {
	putFakeLLMOnPath(t)
	cfg := backendConfig(config.BackendBoth, deadOllamaURL(t))

	backend, note, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, "cloud (gpt-4o)", backend.Name())
	require.NotNil(t, note)
}

func TestResolveBackendBothWithNeitherFails(t *testing.T) {
	clearPath(t)
	cfg := backendConfig(config.BackendBoth, deadOllamaURL(t))

	_, _, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no backend available")
}

func TestResolveBackendUnknown(t *testing.T) {
	cfg := backendConfig("quantum", deadOllamaURL(t))

	_, _, err := ResolveBackend(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown backend")
}
