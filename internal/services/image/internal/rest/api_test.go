package rest

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alxvallejo/promptd/internal/pkg/serr"
	"github.com/alxvallejo/promptd/internal/pkg/testutil"
	"github.com/alxvallejo/promptd/internal/services/image/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockObjectStore struct {
	PutFunc    func(userID, objPath string, img io.Reader) (service.Object, error)
	DeleteFunc func(userID, objPath string) error
}

func (m *mockObjectStore) Put(userID, objPath string, img io.Reader) (service.Object, error) {
	return m.PutFunc(userID, objPath, img)
}

func (m *mockObjectStore) Delete(userID, objPath string) error {
	return m.DeleteFunc(userID, objPath)
}

func TestPOSTObject(t *testing.T) {
	var gotUser, gotPath, gotBody string
	srv := &mockObjectStore{
		PutFunc: func(userID, objPath string, img io.Reader) (service.Object, error) {
			b, err := io.ReadAll(img)
			require.NoError(t, err)
			gotUser, gotPath, gotBody = userID, objPath, string(b)
			return service.Object{Path: objPath, URL: "https://images.example.com/images/" + objPath}, nil
		},
	}
	api := NewAPI(WithObjectStore(srv), WithMaxImageSize(10<<20))

	rec := testutil.SendFiles(t, api, "POST", "/objects", []testutil.TestFile{{
		Name:      "a.jpg",
		FieldName: "image",
		Content:   strings.NewReader("test image content"),
	}}, map[string]string{"path": "picks/u1/a.jpg"}, testutil.AsUser("u1"))

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "picks/u1/a.jpg", gotPath)
	assert.Equal(t, "test image content", gotBody)

	resp := testutil.ParseResponse[service.Object](t, rec)
	assert.Equal(t, "picks/u1/a.jpg", resp.Path)
	assert.Equal(t, "https://images.example.com/images/picks/u1/a.jpg", resp.URL)
}

func TestPOSTObject_MissingPath(t *testing.T) {
	api := NewAPI(WithObjectStore(&mockObjectStore{}))

	rec := testutil.SendFile(t, api, "POST", "/objects", testutil.TestFile{
		Name:      "a.jpg",
		FieldName: "image",
		Content:   strings.NewReader("x"),
	}, testutil.AsUser("u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPOSTObject_MissingImage(t *testing.T) {
	api := NewAPI(WithObjectStore(&mockObjectStore{}))

	rec := testutil.SendFiles(t, api, "POST", "/objects", nil,
		map[string]string{"path": "picks/u1/a.jpg"}, testutil.AsUser("u1"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPOSTObject_StoreError(t *testing.T) {
	srv := &mockObjectStore{
		PutFunc: func(string, string, io.Reader) (service.Object, error) {
			return service.Object{}, serr.NewServiceError(nil, http.StatusForbidden, "object belongs to another user")
		},
	}
	api := NewAPI(WithObjectStore(srv))

	rec := testutil.SendFiles(t, api, "POST", "/objects", []testutil.TestFile{{
		Name:      "a.jpg",
		FieldName: "image",
		Content:   strings.NewReader("x"),
	}}, map[string]string{"path": "picks/u2/a.jpg"}, testutil.AsUser("u1"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDELETEObject(t *testing.T) {
	var gotUser, gotPath string
	srv := &mockObjectStore{
		DeleteFunc: func(userID, objPath string) error {
			gotUser, gotPath = userID, objPath
			return nil
		},
	}
	api := NewAPI(WithObjectStore(srv))

	rec := testutil.SendRequest(t, api, "DELETE", "/objects/picks/u1/a.jpg", nil, testutil.AsUser("u1"))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "u1", gotUser)
	assert.Equal(t, "picks/u1/a.jpg", gotPath)
}

func TestDELETEObject_NotFound(t *testing.T) {
	srv := &mockObjectStore{
		DeleteFunc: func(string, string) error {
			return serr.NewServiceError(nil, http.StatusNotFound, "object not found")
		},
	}
	api := NewAPI(WithObjectStore(srv))

	rec := testutil.SendRequest(t, api, "DELETE", "/objects/picks/u1/a.jpg", nil, testutil.AsUser("u1"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "picks", "u1"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "picks", "u1", "a.jpg"), []byte("test image content"), 0o644))

	h := http.StripPrefix("/images/", Files(root))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/images/picks/u1/a.jpg", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "test image content", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/images/picks/u1/", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/images/picks/u1/missing.jpg", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
