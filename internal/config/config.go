package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Defaults mirror the values the corpus was fingerprinted with. Changing
// SampleRate invalidates every stored posting, so treat it as a one-time
// deployment choice.
const (
	DefaultDBPath        = "shabad.sqlite3"
	DefaultTempDir       = "tmp"
	DefaultSampleRate    = 11025
	DefaultMinConfidence = 0.10
	DefaultCatalogURL    = "https://api.gurbaninow.com/v2"
	DefaultServerPort    = 5000
	DefaultMaxUploadSize = 10 << 20 // 10 MiB
)

// AllowedExtensions are the audio formats accepted for ingestion and query
// intake.
var AllowedExtensions = []string{".wav", ".mp3", ".m4a"}

type Config struct {
	DBPath         string
	TempDir        string
	SampleRate     int
	MinConfidence  float64
	CatalogURL     string
	ServerPort     int
	MaxUploadSize  int64
	AllowedOrigins []string
}

// Load reads configuration from the environment, after loading an optional
// .env file from the working directory. Missing keys fall back to defaults;
// malformed numeric values are ignored rather than fatal.
func Load() *Config {
	_ = godotenv.Load()

	cfg := &Config{
		DBPath:         envOr("SHABAD_DB_PATH", DefaultDBPath),
		TempDir:        envOr("SHABAD_TEMP_DIR", DefaultTempDir),
		SampleRate:     DefaultSampleRate,
		MinConfidence:  DefaultMinConfidence,
		CatalogURL:     envOr("GURBANI_API_URL", DefaultCatalogURL),
		ServerPort:     DefaultServerPort,
		MaxUploadSize:  DefaultMaxUploadSize,
		AllowedOrigins: []string{"*"},
	}

	if v := os.Getenv("SHABAD_SAMPLE_RATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.SampleRate = n
		}
	}
	if v := os.Getenv("SHABAD_MIN_CONFIDENCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 && f <= 1 {
			cfg.MinConfidence = f
		}
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ServerPort = n
		}
	}
	if v := os.Getenv("ALLOWED_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		cfg.AllowedOrigins = origins
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
