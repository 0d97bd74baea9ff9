package config

import (
	"net/url"
	"time"

	"github.com/alxvallejo/promptd/internal/pkg/env"
)

type Config struct {
	CORSOrigins []string
	PicksURL    *url.URL
	ImageURL    *url.URL
	Http        httpConfig
}

type httpConfig struct {
	ListenAddr      string
	IdleTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func FromEnv() Config {
	return Config{
		CORSOrigins: env.Strings("CORS_ORIGINS", []string{"http://localhost:5173"}),
		PicksURL:    env.Url("PICKS_URL", &url.URL{Scheme: "http", Host: "localhost:8080"}),
		ImageURL:    env.Url("IMAGE_URL", &url.URL{Scheme: "http", Host: "localhost:9999"}),
		Http: httpConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8000"),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 2*time.Minute),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
	}
}
