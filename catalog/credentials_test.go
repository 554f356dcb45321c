package catalog_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ewintr.nl/radiobot/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func writeCreds(t *testing.T, v map[string]any) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "creds.json")
	data, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}

func TestLoadTokenSourceValidToken(t *testing.T) {
	path := writeCreds(t, map[string]any{
		"token":         "access",
		"refresh_token": "refresh",
		"client_id":     "id",
		"client_secret": "secret",
		"expiry":        time.Now().Add(time.Hour).UTC().Format("2006-01-02T15:04:05.000000Z"),
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts, err := catalog.LoadTokenSource(context.Background(), path, logger)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "access", tok.AccessToken)
}

func TestLoadTokenSourceRefreshesAndPersists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.Form.Get("grant_type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"fresh","token_type":"Bearer","expires_in":3600}`))
	}))
	defer srv.Close()

	path := writeCreds(t, map[string]any{
		"token":         "stale",
		"refresh_token": "refresh",
		"token_uri":     srv.URL,
		"client_id":     "id",
		"client_secret": "secret",
		"expiry":        time.Now().Add(-time.Hour).UTC().Format(time.RFC3339),
	})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ts, err := catalog.LoadTokenSource(context.Background(), path, logger)
	require.NoError(t, err)

	tok, err := ts.Token()
	require.NoError(t, err)
	assert.Equal(t, "fresh", tok.AccessToken)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var stored map[string]any
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, "fresh", stored["token"])
	assert.Equal(t, "refresh", stored["refresh_token"])
	assert.Equal(t, "id", stored["client_id"])
}

func TestLoadTokenSourceErrors(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := catalog.LoadTokenSource(context.Background(), filepath.Join(t.TempDir(), "missing.json"), logger)
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err = catalog.LoadTokenSource(context.Background(), path, logger)
	assert.Error(t, err)

	_, err = catalog.LoadTokenSource(context.Background(), writeCreds(t, map[string]any{"client_id": "id"}), logger)
	assert.Error(t, err)
}
