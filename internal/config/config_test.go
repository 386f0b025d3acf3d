package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.DBPath != DefaultDBPath {
		t.Errorf("Expected default db path %s, got %s", DefaultDBPath, cfg.DBPath)
	}
	if cfg.SampleRate != DefaultSampleRate {
		t.Errorf("Expected default sample rate %d, got %d", DefaultSampleRate, cfg.SampleRate)
	}
	if cfg.MinConfidence != DefaultMinConfidence {
		t.Errorf("Expected default threshold %f, got %f", DefaultMinConfidence, cfg.MinConfidence)
	}
	if cfg.CatalogURL != DefaultCatalogURL {
		t.Errorf("Expected default catalog URL, got %s", cfg.CatalogURL)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SHABAD_DB_PATH", "/data/corpus.sqlite3")
	t.Setenv("SHABAD_SAMPLE_RATE", "22050")
	t.Setenv("SHABAD_MIN_CONFIDENCE", "0.25")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.DBPath != "/data/corpus.sqlite3" {
		t.Errorf("DB path override ignored: %s", cfg.DBPath)
	}
	if cfg.SampleRate != 22050 {
		t.Errorf("Sample rate override ignored: %d", cfg.SampleRate)
	}
	if cfg.MinConfidence != 0.25 {
		t.Errorf("Threshold override ignored: %f", cfg.MinConfidence)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Origins override ignored: %v", cfg.AllowedOrigins)
	}
}

func TestLoadIgnoresMalformedValues(t *testing.T) {
	t.Setenv("SHABAD_SAMPLE_RATE", "eleven")
	t.Setenv("SHABAD_MIN_CONFIDENCE", "2.5")

	cfg := Load()

	if cfg.SampleRate != DefaultSampleRate {
		t.Errorf("Malformed sample rate must fall back to default, got %d", cfg.SampleRate)
	}
	if cfg.MinConfidence != DefaultMinConfidence {
		t.Errorf("Out-of-range threshold must fall back to default, got %f", cfg.MinConfidence)
	}
}
