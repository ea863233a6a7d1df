package config

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Search-Pipeline/pkg/errors"
)

func TestLoadYAMLAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
opensearch:
  host: search.internal
  index: docs
annotation:
  maxChars: 1000
redis:
  cacheTTL: 5s
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Chdir(dir)
	t.Setenv("OPENSEARCH_INDEX", "legacy-index")
	t.Setenv("DSP_UPLOAD_BUCKET", "uploads")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.OpenSearch.Host != "search.internal" {
		t.Errorf("expected host from yaml, got %q", cfg.OpenSearch.Host)
	}
	if cfg.OpenSearch.Index != "legacy-index" {
		t.Errorf("expected env override of index, got %q", cfg.OpenSearch.Index)
	}
	if cfg.Annotation.MaxChars != 1000 {
		t.Errorf("expected maxChars 1000, got %d", cfg.Annotation.MaxChars)
	}
	if cfg.Annotation.FallbackLanguage != "en" {
		t.Errorf("expected default fallback language en, got %q", cfg.Annotation.FallbackLanguage)
	}
	if cfg.Redis.CacheTTL != 5*time.Second {
		t.Errorf("expected cache ttl 5s, got %v", cfg.Redis.CacheTTL)
	}
	if cfg.Uploads.Bucket != "uploads" || cfg.Uploads.Expiry != time.Hour {
		t.Errorf("unexpected uploads config: %+v", cfg.Uploads)
	}
}

func TestValidateIndex(t *testing.T) {
	cfg := Default()
	err := cfg.ValidateIndex()
	if !errors.Is(err, apperrors.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured without host, got %v", err)
	}
	if apperrors.HTTPStatusCode(err) != http.StatusInternalServerError {
		t.Errorf("expected 500-class configuration error, got %d", apperrors.HTTPStatusCode(err))
	}

	cfg.OpenSearch.Host = "localhost"
	if err := cfg.ValidateIndex(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	cfg = Default()
	cfg.OpenSearch.Backend = BackendMemory
	if err := cfg.ValidateIndex(); err != nil {
		t.Errorf("memory backend needs no host, got %v", err)
	}
}

func TestValidateUploads(t *testing.T) {
	cfg := Default()
	if err := cfg.ValidateUploads(); apperrors.PublicMessage(err) != "Server-side bucket not configured." {
		t.Errorf("unexpected error: %v", err)
	}
	cfg.Uploads.Bucket = "b"
	if err := cfg.ValidateUploads(); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
