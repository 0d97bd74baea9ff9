package env

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// lookup returns def when key is unset or parse fails on its value.
func lookup[T any](key string, def T, parse func(string) (T, error)) T {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	val, err := parse(strings.TrimSpace(raw))
	if err != nil {
		return def
	}

	return val
}

func RequireString(key string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		panic(fmt.Sprintf("environment variable %q is required", key))
	}

	return val
}

func String(key, def string) string {
	val, ok := os.LookupEnv(key)
	if !ok {
		return def
	}

	return val
}

// Strings splits a comma separated value, dropping empty items.
func Strings(key string, def []string) []string {
	return lookup(key, def, func(s string) ([]string, error) {
		var out []string
		for _, item := range strings.Split(s, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out, nil
	})
}

func Int(key string, def int) int {
	return lookup(key, def, strconv.Atoi)
}

func Int64(key string, def int64) int64 {
	return lookup(key, def, func(s string) (int64, error) {
		return strconv.ParseInt(s, 10, 64)
	})
}

func Bool(key string, def bool) bool {
	return lookup(key, def, func(s string) (bool, error) {
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return false, fmt.Errorf("invalid bool %q", s)
	})
}

func Float64(key string, def float64) float64 {
	return lookup(key, def, func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	})
}

func Duration(key string, def time.Duration) time.Duration {
	return lookup(key, def, time.ParseDuration)
}

func Url(key string, def *url.URL) *url.URL {
	return lookup(key, def, url.Parse)
}

// Location loads an IANA time zone such as "America/Chicago".
func Location(key string, def *time.Location) *time.Location {
	return lookup(key, def, time.LoadLocation)
}
