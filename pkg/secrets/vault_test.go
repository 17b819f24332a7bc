package secrets_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zatekoja/medanalyzer/pkg/secrets"
)

func newVaultServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Vault-Token") != "root" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		if r.URL.Path != "/v1/secret/data/medanalyzer" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestApplyCredentials_ExportsKnownKeysOnly(t *testing.T) {
	srv := newVaultServer(t, `{"data":{"data":{"RAPIDAPI_KEY":"rapid-from-vault","GEMINI_API_KEY":"gem-from-vault","UNRELATED":"x"}}}`)
	t.Setenv("RAPIDAPI_KEY", "")
	t.Setenv("GEMINI_API_KEY", "already-set")
	t.Setenv("UNRELATED", "")

	res, err := secrets.ApplyCredentials(context.Background(), secrets.VaultConfig{
		Enabled:   true,
		Addr:      srv.URL,
		Token:     "root",
		Mount:     "secret",
		Path:      "medanalyzer",
		KVVersion: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"RAPIDAPI_KEY"}, res.Loaded)
	assert.Equal(t, []string{"GEMINI_API_KEY"}, res.Skipped)
	assert.Equal(t, "rapid-from-vault", os.Getenv("RAPIDAPI_KEY"))
	assert.Equal(t, "already-set", os.Getenv("GEMINI_API_KEY"))
	assert.Equal(t, "", os.Getenv("UNRELATED"))
}

func TestApplyCredentials_Disabled(t *testing.T) {
	res, err := secrets.ApplyCredentials(context.Background(), secrets.VaultConfig{})
	require.NoError(t, err)
	assert.False(t, res.Enabled)
	assert.Empty(t, res.Loaded)
}

func TestApplyCredentials_Forbidden(t *testing.T) {
	srv := newVaultServer(t, `{}`)

	_, err := secrets.ApplyCredentials(context.Background(), secrets.VaultConfig{
		Enabled:   true,
		Addr:      srv.URL,
		Token:     "wrong",
		Mount:     "secret",
		Path:      "medanalyzer",
		KVVersion: 2,
	})
	assert.ErrorContains(t, err, "403")
}

func TestApplyCredentials_IncompleteConfig(t *testing.T) {
	_, err := secrets.ApplyCredentials(context.Background(), secrets.VaultConfig{Enabled: true})
	assert.ErrorContains(t, err, "incomplete")
}
