package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"dem-fill-client/core/models"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeS3 is a minimal path-style S3 endpoint: PUT stores bytes, HEAD reports
// existence. forceHead makes a key answer with a fixed status code.
type fakeS3 struct {
	mu        sync.Mutex
	objects   map[string][]byte
	forceHead map[string]int
}

func newFakeS3(t *testing.T) (*fakeS3, *S3Store) {
	t.Helper()

	fs := &fakeS3{
		objects:   make(map[string][]byte),
		forceHead: make(map[string]int),
	}

	r := mux.NewRouter()
	r.HandleFunc("/{bucket}/{key:.+}", fs.handleObject)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	store, err := NewS3Store(context.Background(), Options{
		Region:          "us-east-1",
		AccessKeyID:     "test-access-key",
		SecretAccessKey: "test-secret-key",
		Endpoint:        srv.URL,
	})
	require.NoError(t, err)
	return fs, store
}

func (f *fakeS3) handleObject(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	vars := mux.Vars(r)
	path := vars["bucket"] + "/" + vars["key"]

	switch r.Method {
	case http.MethodPut:
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		f.objects[path] = body
		w.Header().Set("ETag", `"fake-etag"`)
		w.WriteHeader(http.StatusOK)
	case http.MethodHead:
		if code, ok := f.forceHead[path]; ok {
			w.WriteHeader(code)
			return
		}
		body, ok := f.objects[path]
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Length", fmt.Sprint(len(body)))
		w.WriteHeader(http.StatusOK)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestUploadThenExistsRoundTrip(t *testing.T) {
	fs, store := newFakeS3(t)
	local := writeTempFile(t, "test_dem.tif", "not really a geotiff")

	err := store.Upload(context.Background(), local, "dem-fill-serverless-file-store", "to-process/test_dem.tif")
	require.NoError(t, err)
	assert.Equal(t, []byte("not really a geotiff"), fs.objects["dem-fill-serverless-file-store/to-process/test_dem.tif"])

	ok, err := store.Exists(context.Background(), "dem-fill-serverless-file-store", "to-process/test_dem.tif")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestUploadOverwritesExistingObject(t *testing.T) {
	fs, store := newFakeS3(t)
	fs.objects["bucket/to-process/tile.tif"] = []byte("old bytes")
	local := writeTempFile(t, "tile.tif", "new bytes")

	err := store.Upload(context.Background(), local, "bucket", "to-process/tile.tif")
	require.NoError(t, err)
	assert.Equal(t, []byte("new bytes"), fs.objects["bucket/to-process/tile.tif"])
}

func TestUploadMissingLocalFile(t *testing.T) {
	_, store := newFakeS3(t)

	err := store.Upload(context.Background(), "/nonexistent/input.tif", "bucket", "to-process/input.tif")
	require.Error(t, err)
	assert.Equal(t, models.ErrUpload, models.KindOf(err))
}

func TestExistsMissingObjectIsFalseNotError(t *testing.T) {
	_, store := newFakeS3(t)

	ok, err := store.Exists(context.Background(), "bucket", "completed/absent.tif")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestExistsAuthorizationFailure(t *testing.T) {
	fs, store := newFakeS3(t)
	fs.forceHead["bucket/completed/secret.tif"] = http.StatusForbidden

	_, err := store.Exists(context.Background(), "bucket", "completed/secret.tif")
	require.Error(t, err)
	assert.Equal(t, models.ErrStorageQuery, models.KindOf(err))
}
