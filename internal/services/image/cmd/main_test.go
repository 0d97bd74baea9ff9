package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"testing"
	"time"

	"github.com/alxvallejo/promptd/internal/pkg/testutil"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testSecret = "secret"
	testAddr   = "localhost:9998"
)

func setupEnv(t *testing.T) {
	t.Setenv("AUTH_SECRET", testSecret)
	t.Setenv("HTTP_LISTEN_ADDR", testAddr)
	t.Setenv("IMAGE_ROOT", t.TempDir())
	t.Setenv("IMAGE_SERVE_ROOT", "http://"+testAddr+"/images/")
}

func bearer(t *testing.T, uid string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   uid,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Minute)),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + token
}

func waitReady(t *testing.T, ctx context.Context) {
	t.Helper()
	ok := testutil.WaitFor(t, ctx, 100*time.Millisecond, func() bool {
		resp, err := http.Get("http://" + testAddr + "/readyz")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	})
	require.True(t, ok, "service never became ready")
}

func uploadRequest(t *testing.T, objPath string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("path", objPath))
	part, err := w.CreateFormFile("image", "a.png")
	require.NoError(t, err)
	require.NoError(t, png.Encode(part, image.NewRGBA(image.Rect(0, 0, 8, 8))))
	require.NoError(t, w.Close())

	req, err := http.NewRequest(http.MethodPost, "http://"+testAddr+"/api/v1/objects", &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRun(t *testing.T) {
	setupEnv(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	waitReady(t, ctx)

	resp, err := http.Get("http://" + testAddr + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// unauthenticated upload
	resp, err = http.DefaultClient.Do(uploadRequest(t, "picks/user-1/a.png"))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req := uploadRequest(t, "picks/user-1/a.png")
	req.Header.Set("Authorization", bearer(t, "user-1"))
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var obj struct {
		Path string `json:"path"`
		URL  string `json:"url"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&obj))
	_ = resp.Body.Close()
	assert.Equal(t, "picks/user-1/a.png", obj.Path)
	assert.Equal(t, "http://"+testAddr+"/images/picks/user-1/a.png", obj.URL)

	resp, err = http.Get(obj.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	del := func(uid string) int {
		req, err := http.NewRequest(http.MethodDelete, "http://"+testAddr+"/api/v1/objects/"+obj.Path, nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", bearer(t, uid))
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusForbidden, del("user-2"))
	assert.Equal(t, http.StatusNoContent, del("user-1"))
	assert.Equal(t, http.StatusNotFound, del("user-1"))

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("shutdown timed out")
	}
}

func TestRun_Cancel(t *testing.T) {
	setupEnv(t)

	ctx, cancel := context.WithTimeout(t.Context(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- run(ctx)
	}()

	waitReady(t, ctx)
	cancel()

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("test timed out")
	}
}
