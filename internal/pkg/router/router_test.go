package router_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/alxvallejo/promptd/internal/pkg/router"
	"github.com/stretchr/testify/assert"
)

func TestHandle(t *testing.T) {
	tbl := []struct {
		pattern      string
		method       string
		path         string
		responseBody string
		status       int
	}{
		{"/hello", "GET", "/hello", "ok", http.StatusOK},
		{"hello", "GET", "/hello", "ok", http.StatusOK},
		{"GET /picks/{id}", "GET", "/picks/42", "pick", http.StatusOK},
		{"DELETE picks/{id}", "DELETE", "/picks/42", "", http.StatusNoContent},
		{"/long/path/", "POST", "/long/path/more", "long", http.StatusOK},
	}

	for i, c := range tbl {
		t.Run(fmt.Sprintf("case_%d", i), func(t *testing.T) {
			r := router.New()
			r.Handle(c.pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(c.status)
				fmt.Fprint(w, c.responseBody)
			}))

			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(c.method, c.path, nil))

			assert.Equal(t, c.status, rec.Code)
			assert.Equal(t, c.responseBody, rec.Body.String())
		})
	}
}

func TestHandleFunc_MethodMismatch(t *testing.T) {
	r := router.New()
	r.HandleFunc("GET /week", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/week", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUse_Order(t *testing.T) {
	var trace []string
	mw := func(name string) router.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				trace = append(trace, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	r := router.New()
	r.Use(mw("first"), mw("second"))
	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		trace = append(trace, "handler")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))

	assert.Equal(t, []string{"first", "second", "handler"}, trace)
}

func TestSubRouter(t *testing.T) {
	var hits []string
	r := router.New()
	api := r.SubRouter("/api/v1/")
	api.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits = append(hits, "api-mw")
			next.ServeHTTP(w, r)
		})
	})
	api.HandleFunc("GET /folders", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, r.URL.Path)
	})
	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/folders", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/folders", rec.Body.String())
	assert.Equal(t, "/api/v1", api.Prefix())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"api-mw"}, hits)
}

func TestSubRouter_EmptyPrefix(t *testing.T) {
	assert.Panics(t, func() {
		router.New().SubRouter("/")
	})
}

func TestNotFound(t *testing.T) {
	r := router.New()
	r.HandleFunc("/known", func(w http.ResponseWriter, r *http.Request) {})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/unknown", strings.NewReader("")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
