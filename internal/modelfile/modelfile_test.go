package modelfile

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureSkipsExisting(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "model.gguf")
	require.NoError(t, os.WriteFile(p, []byte("weights"), 0o644))

	got, err := Ensure(context.Background(), "http://127.0.0.1:1/never", dir, "model.gguf", nil)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestEnsureDownloads(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("gguf-bytes"))
	}))
	defer srv.Close()

	dir := filepath.Join(t.TempDir(), "models")
	got, err := Ensure(context.Background(), srv.URL+"/model.gguf", dir, "model.gguf", nil)
	require.NoError(t, err)

	b, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "gguf-bytes", string(b))
	assert.NoFileExists(t, got+".part")
}

func TestEnsureFailureLeavesNothing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	_, err := Ensure(context.Background(), srv.URL+"/model.gguf", dir, "model.gguf", nil)
	require.Error(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "model.gguf"))
	assert.NoFileExists(t, filepath.Join(dir, "model.gguf.part"))
}

func TestEnsureWithoutSource(t *testing.T) {
	_, err := Ensure(context.Background(), "", t.TempDir(), "model.gguf", nil)
	require.Error(t, err)

	_, err = Ensure(context.Background(), "", t.TempDir(), "", nil)
	require.Error(t, err)
}
