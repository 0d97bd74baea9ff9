package middleware

import (
	"net/http"

	"github.com/alxvallejo/promptd/internal/pkg/router"
	"github.com/rs/cors"
)

// CORS lets the browser client call the API from the listed origins.
// An empty list allows any origin.
func CORS(origins []string) router.Middleware {
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           600,
	})

	return c.Handler
}
