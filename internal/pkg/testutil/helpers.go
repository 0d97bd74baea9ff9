package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alxvallejo/promptd/internal/pkg/middleware"
	"github.com/stretchr/testify/require"
)

type TestFile struct {
	Name        string
	FieldName   string
	ContentType string
	Content     io.Reader
}

// RequestOption adjusts a request before it is served.
type RequestOption func(*http.Request) *http.Request

// AsUser serves the request as if the auth middleware had accepted a token
// for uid.
func AsUser(uid string) RequestOption {
	return func(r *http.Request) *http.Request {
		return r.WithContext(middleware.WithUserID(r.Context(), uid))
	}
}

func WithHeader(key, value string) RequestOption {
	return func(r *http.Request) *http.Request {
		r.Header.Set(key, value)
		return r
	}
}

func SendFile(t testing.TB, h http.Handler, method, path string, file TestFile, opts ...RequestOption) *httptest.ResponseRecorder {
	t.Helper()
	return SendFiles(t, h, method, path, []TestFile{file}, nil, opts...)
}

// SendFiles posts a multipart form with the given files and plain fields.
func SendFiles(t testing.TB, h http.Handler, method, path string, files []TestFile, fields map[string]string, opts ...RequestOption) *httptest.ResponseRecorder {
	t.Helper()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}

	for _, file := range files {
		var part io.Writer
		var err error
		if file.ContentType != "" {
			hdr := make(map[string][]string)
			hdr["Content-Disposition"] = []string{`form-data; name="` + file.FieldName + `"; filename="` + file.Name + `"`}
			hdr["Content-Type"] = []string{file.ContentType}
			part, err = writer.CreatePart(hdr)
		} else {
			part, err = writer.CreateFormFile(file.FieldName, file.Name)
		}
		require.NoError(t, err)

		_, err = io.Copy(part, file.Content)
		require.NoError(t, err)
	}

	require.NoError(t, writer.Close())

	req, err := http.NewRequest(method, path, &body)
	require.NoError(t, err)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return serve(h, req, opts)
}

func SendRequest(t testing.TB, h http.Handler, method, path string, body any, opts ...RequestOption) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	return serve(h, req, opts)
}

func serve(h http.Handler, req *http.Request, opts []RequestOption) *httptest.ResponseRecorder {
	for _, opt := range opts {
		req = opt(req)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func ParseResponse[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	dec := json.NewDecoder(rec.Body)
	var resp T
	err := dec.Decode(&resp)
	require.NoError(t, err)

	return resp
}

func WaitFor(t testing.TB, ctx context.Context, interval time.Duration, condition func() bool) bool {
	t.Helper()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if condition() {
				return true
			}
		}
	}
}
