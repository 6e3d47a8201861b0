package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type TMDBConfig struct {
	BaseURL      string
	APIKey       string
	BearerToken  string
	Language     string
	RateLimit    int
	RateInterval time.Duration
	Timeout      time.Duration
}

type Config struct {
	TMDB       TMDBConfig
	MoviePages int
	ShowPages  int

	OutputDir   string
	DatabaseURL string
	NATSURL     string
	JWTSecret   string
}

func Load() (Config, error) {
	cfg := Config{
		TMDB: TMDBConfig{
			BaseURL:     envString("TMDB_BASE_URL", "https://api.themoviedb.org/3"),
			APIKey:      envString("TMDB_API_KEY", ""),
			BearerToken: envString("TMDB_BEARER_TOKEN", ""),
			Language:    envString("TMDB_LANGUAGE", "en-US"),
		},
		OutputDir:   envString("OUTPUT_DIR", ""),
		DatabaseURL: envString("DATABASE_URL", ""),
		NATSURL:     envString("NATS_URL", ""),
		JWTSecret:   envString("JWT_SECRET", ""),
	}
	if cfg.TMDB.APIKey == "" && cfg.TMDB.BearerToken == "" {
		return Config{}, errors.New("TMDB_API_KEY or TMDB_BEARER_TOKEN is required")
	}

	var err error
	if cfg.TMDB.RateLimit, err = envPositiveInt("TMDB_RATE_LIMIT", 40); err != nil {
		return Config{}, err
	}
	if cfg.TMDB.RateInterval, err = envPositiveDuration("TMDB_RATE_INTERVAL", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TMDB.Timeout, err = envPositiveDuration("TMDB_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.MoviePages, err = envPositiveInt("TMDB_MOVIE_PAGES", 5); err != nil {
		return Config{}, err
	}
	if cfg.ShowPages, err = envPositiveInt("TMDB_SHOW_PAGES", 3); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envPositiveInt(key string, fallback int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer, got %q", key, v)
	}
	return n, nil
}

func envPositiveDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%s must be a positive duration, got %q", key, v)
	}
	return d, nil
}
