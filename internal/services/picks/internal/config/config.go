package config

import (
	"time"

	"github.com/alxvallejo/promptd/internal/pkg/env"
)

type Config struct {
	AuthSecret     string
	CategoriesFile string
	CORSOrigins    []string
	DB             dbConfig
	Redis          redisConfig
	Http           httpConfig
	Picks          picksConfig
	Preview        previewConfig
	Image          imageConfig
}

type dbConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type redisConfig struct {
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type httpConfig struct {
	ListenAddr      string
	IdleTimeout     time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

type picksConfig struct {
	WeeklyLimit    int
	WeekZone       *time.Location
	IdleTTL        time.Duration
	ResolveTimeout time.Duration
	UploadTimeout  time.Duration
	GalleryRefresh time.Duration
}

type previewConfig struct {
	MovieAPIKey   string
	MovieBaseURL  string
	OEmbedURL     string
	StoreAPIURL   string
	StoreProxy    string
	Proxies       []string
	UserAgent     string
	Timeout       time.Duration
	CacheKeys     int64
	CacheTTL      time.Duration
	LocalCacheTTL time.Duration
}

type imageConfig struct {
	Endpoint   string
	GeocodeURL string
	UserAgent  string
}

var defaultProxies = []string{
	"direct",
	"json:https://api.allorigins.win/get?url={url}",
	"https://corsproxy.io/?{url}",
}

func FromEnv() Config {
	return Config{
		AuthSecret:     env.RequireString("AUTH_SECRET"),
		CategoriesFile: env.String("CATEGORIES_FILE", ""),
		CORSOrigins:    env.Strings("CORS_ORIGINS", []string{"http://localhost:5173"}),
		DB: dbConfig{
			Host:     env.String("DB_HOST", "localhost"),
			Port:     env.String("DB_PORT", "5432"),
			User:     env.String("DB_USER", "postgres"),
			Password: env.String("DB_PASSWORD", "password"),
			Name:     env.String("DB_NAME", "promptd"),
		},
		Redis: redisConfig{
			Enabled:  env.Bool("REDIS_ENABLED", false),
			Host:     env.String("REDIS_HOST", "localhost"),
			Port:     env.String("REDIS_PORT", "6379"),
			Password: env.String("REDIS_PASSWORD", ""),
			DB:       env.Int("REDIS_DB", 0),
		},
		Http: httpConfig{
			ListenAddr:      env.String("HTTP_LISTEN_ADDR", ":8080"),
			IdleTimeout:     env.Duration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ReadTimeout:     env.Duration("HTTP_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:    env.Duration("HTTP_WRITE_TIMEOUT", 2*time.Minute),
			ShutdownTimeout: env.Duration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Picks: picksConfig{
			WeeklyLimit:    env.Int("PICKS_WEEKLY_LIMIT", 4),
			WeekZone:       env.Location("PICKS_WEEK_TZ", time.UTC),
			IdleTTL:        env.Duration("COMPOSER_IDLE_TTL", 30*time.Minute),
			ResolveTimeout: env.Duration("COMPOSER_RESOLVE_TIMEOUT", 20*time.Second),
			UploadTimeout:  env.Duration("COMPOSER_UPLOAD_TIMEOUT", time.Minute),
			GalleryRefresh: env.Duration("GALLERY_REFRESH", time.Minute),
		},
		Preview: previewConfig{
			MovieAPIKey:   env.String("OMDB_API_KEY", ""),
			MovieBaseURL:  env.String("OMDB_BASE_URL", "https://www.omdbapi.com/"),
			OEmbedURL:     env.String("OEMBED_URL", "https://www.youtube.com/oembed"),
			StoreAPIURL:   env.String("STORE_API_URL", "https://store.steampowered.com/api/appdetails"),
			StoreProxy:    env.String("STORE_PROXY", "https://corsproxy.io/?{url}"),
			Proxies:       env.Strings("PREVIEW_PROXIES", defaultProxies),
			UserAgent:     env.String("PREVIEW_USER_AGENT", "promptd/1.0 (link previews)"),
			Timeout:       env.Duration("PREVIEW_TIMEOUT", 10*time.Second),
			CacheKeys:     env.Int64("PREVIEW_CACHE_KEYS", 10000),
			CacheTTL:      env.Duration("PREVIEW_CACHE_TTL", 24*time.Hour),
			LocalCacheTTL: env.Duration("PREVIEW_LOCAL_CACHE_TTL", 10*time.Minute),
		},
		Image: imageConfig{
			Endpoint:   env.String("IMAGE_ENDPOINT", "http://localhost:9999/api/v1/objects"),
			GeocodeURL: env.String("GEOCODE_URL", "https://nominatim.openstreetmap.org/reverse"),
			UserAgent:  env.String("GEOCODE_USER_AGENT", "promptd/1.0"),
		},
	}
}
