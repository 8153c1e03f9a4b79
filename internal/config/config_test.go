package config

import (
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SUPERHERO_API_TOKEN", "token")
	t.Setenv("HERO_BOOTSTRAP_IDS", "")
	t.Setenv("SERVER_ADDR", "")
	t.Setenv("REDIS_ENABLED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr)
	}
	if !reflect.DeepEqual(cfg.Bootstrap.HeroIDs, []int{200, 465}) {
		t.Fatalf("unexpected bootstrap ids: %v", cfg.Bootstrap.HeroIDs)
	}
	if cfg.Redis.Enabled {
		t.Fatalf("expected redis cache to be disabled by default")
	}
	if cfg.Superhero.Endpoint() != "https://superheroapi.com/api.php/token" {
		t.Fatalf("unexpected endpoint: %s", cfg.Superhero.Endpoint())
	}
}

func TestLoadReadsOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SUPERHERO_API_TOKEN", "abc")
	t.Setenv("SUPERHERO_BASE_URL", "http://localhost:9999/api/")
	t.Setenv("SUPERHERO_TIMEOUT_SECONDS", "3")
	t.Setenv("HERO_BOOTSTRAP_IDS", "70, 644")
	t.Setenv("REDIS_ENABLED", "true")
	t.Setenv("HERO_CACHE_TTL_MINUTES", "5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !reflect.DeepEqual(cfg.Bootstrap.HeroIDs, []int{70, 644}) {
		t.Fatalf("unexpected bootstrap ids: %v", cfg.Bootstrap.HeroIDs)
	}
	if cfg.Superhero.Timeout != 3*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.Superhero.Timeout)
	}
	if cfg.Superhero.Endpoint() != "http://localhost:9999/api/abc" {
		t.Fatalf("unexpected endpoint: %s", cfg.Superhero.Endpoint())
	}
	if !cfg.Redis.Enabled || cfg.Redis.TTL != 5*time.Minute {
		t.Fatalf("unexpected redis config: %+v", cfg.Redis)
	}
}

func TestLoadRequiresToken(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("SUPERHERO_API_TOKEN", "")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "SUPERHERO_API_TOKEN") {
		t.Fatalf("expected token validation error, got %v", err)
	}
}

func TestValidateRejectsNonPositiveIDs(t *testing.T) {
	cfg := &Config{
		Server:    ServerConfig{Addr: ":8080"},
		Superhero: SuperheroConfig{BaseURL: "http://example", APIToken: "t"},
		Bootstrap: BootstrapConfig{HeroIDs: []int{200, 0}},
	}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for id 0")
	}

	cfg.Bootstrap.HeroIDs = []int{}
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected validation error for empty id list")
	}
}
