package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	env := map[string]string{
		"LUXE_FIREBASE_PROJECT_ID":   "luxe-dev",
		"LUXE_STORAGE_IMAGES_BUCKET": "luxe-images-dev",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Firestore.ProjectID != "luxe-dev" {
		t.Errorf("expected firestore project to default to firebase project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Cache.Backend != CacheBackendMemory {
		t.Errorf("expected memory cache backend, got %s", cfg.Cache.Backend)
	}
	if cfg.Catalog.QueryTimeout != 5*time.Second {
		t.Errorf("unexpected query timeout: %s", cfg.Catalog.QueryTimeout)
	}
	if cfg.Catalog.DefaultPriceCeiling != 100000 {
		t.Errorf("unexpected price ceiling: %v", cfg.Catalog.DefaultPriceCeiling)
	}
	if cfg.Storage.PublicBaseURL != "https://storage.googleapis.com" {
		t.Errorf("unexpected public base url: %s", cfg.Storage.PublicBaseURL)
	}
	if len(cfg.Admin.AllowedRoles) != 1 || cfg.Admin.AllowedRoles[0] != "admin" {
		t.Errorf("expected default admin role, got %v", cfg.Admin.AllowedRoles)
	}
	if cfg.Admin.SecureCookie {
		t.Errorf("expected insecure cookie for local environment")
	}
	if cfg.Events.Topic != "" {
		t.Errorf("expected events disabled by default, got %q", cfg.Events.Topic)
	}
	if cfg.Firestore.DialTimeout != 10*time.Second {
		t.Errorf("unexpected dial timeout: %s", cfg.Firestore.DialTimeout)
	}
	if cfg.Admin.RoleClaim != "role" || cfg.Admin.VerifyTimeout != 5*time.Second {
		t.Errorf("unexpected admin verification config: %+v", cfg.Admin)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"LUXE_ENVIRONMENT":                   "Prod",
		"LUXE_SERVER_PORT":                   "9090",
		"LUXE_SERVER_READ_TIMEOUT":           "20s",
		"LUXE_FIREBASE_PROJECT_ID":           "luxe-prod",
		"LUXE_FIRESTORE_PROJECT_ID":          "luxe-data",
		"LUXE_STORAGE_IMAGES_BUCKET":         "luxe-images",
		"LUXE_STORAGE_PUBLIC_BASE_URL":       "https://cdn.example.com/",
		"LUXE_CACHE_BACKEND":                 "REDIS",
		"LUXE_REDIS_ADDR":                    "redis:6379",
		"LUXE_REDIS_PASSWORD":                "sm://redis/password",
		"LUXE_CACHE_TTL":                     "30s",
		"LUXE_CATALOG_QUERY_TIMEOUT":         "2s",
		"LUXE_CATALOG_DEFAULT_PRICE_CEILING": "250000",
		"LUXE_ADMIN_ALLOWED_ROLES":           "admin, editor",
		"LUXE_EVENTS_TOPIC":                  "catalog-changes",
		"LUXE_FIRESTORE_DIAL_TIMEOUT":        "3s",
		"LUXE_ADMIN_ROLE_CLAIM":              "luxe_roles",
		"LUXE_ADMIN_VERIFY_TIMEOUT":          "2s",
	}

	var resolvedRef string
	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		resolvedRef = ref
		return "hunter2", nil
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if resolvedRef != "secret://redis/password" {
		t.Errorf("expected sm:// ref to be normalised, got %q", resolvedRef)
	}
	if cfg.Cache.RedisPassword != "hunter2" {
		t.Errorf("expected resolved redis password, got %q", cfg.Cache.RedisPassword)
	}
	if cfg.Environment != "prod" {
		t.Errorf("expected lowercase environment, got %s", cfg.Environment)
	}
	if !cfg.Admin.SecureCookie {
		t.Errorf("expected secure cookie outside local")
	}
	if cfg.Server.Port != "9090" || cfg.Server.ReadTimeout != 20*time.Second {
		t.Errorf("unexpected server config: %+v", cfg.Server)
	}
	if cfg.Firestore.ProjectID != "luxe-data" {
		t.Errorf("expected explicit firestore project, got %s", cfg.Firestore.ProjectID)
	}
	if cfg.Storage.PublicBaseURL != "https://cdn.example.com" {
		t.Errorf("expected trailing slash trimmed, got %s", cfg.Storage.PublicBaseURL)
	}
	if cfg.Cache.Backend != CacheBackendRedis || cfg.Cache.TTL != 30*time.Second {
		t.Errorf("unexpected cache config: %+v", cfg.Cache)
	}
	if cfg.Catalog.QueryTimeout != 2*time.Second || cfg.Catalog.DefaultPriceCeiling != 250000 {
		t.Errorf("unexpected catalog config: %+v", cfg.Catalog)
	}
	if len(cfg.Admin.AllowedRoles) != 2 || cfg.Admin.AllowedRoles[1] != "editor" {
		t.Errorf("unexpected roles: %v", cfg.Admin.AllowedRoles)
	}
	if cfg.Firestore.DialTimeout != 3*time.Second {
		t.Errorf("unexpected dial timeout: %s", cfg.Firestore.DialTimeout)
	}
	if cfg.Admin.RoleClaim != "luxe_roles" || cfg.Admin.VerifyTimeout != 2*time.Second {
		t.Errorf("unexpected admin verification config: %+v", cfg.Admin)
	}
}

func TestLoadValidationError(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvMap(map[string]string{"LUXE_CACHE_BACKEND": "memcached"}),
		WithoutSystemEnv(),
		WithEnvFile(""),
	)
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := map[string]bool{"Firebase.ProjectID": true, "Storage.ImagesBucket": true, "Cache.Backend": true}
	for _, field := range validation.Fields() {
		delete(want, field)
	}
	if len(want) != 0 {
		t.Fatalf("expected fields missing from error: %v (got %v)", want, validation.Fields())
	}
}

func TestLoadSecretWithoutResolver(t *testing.T) {
	env := map[string]string{
		"LUXE_FIREBASE_PROJECT_ID":   "luxe-dev",
		"LUXE_STORAGE_IMAGES_BUCKET": "bucket",
		"LUXE_REDIS_PASSWORD":        "secret://redis/password",
	}
	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %v", err)
	}
	if !errors.Is(err, errSecretResolverNotConfigured) {
		t.Fatalf("expected resolver not configured error, got %v", err)
	}
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	content := "# local overrides\nexport LUXE_FIREBASE_PROJECT_ID=\"luxe-local\"\nLUXE_STORAGE_IMAGES_BUCKET='local-bucket'\nLUXE_SERVER_PORT=7000\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}

	cfg, err := Load(context.Background(),
		WithEnvFile(path),
		WithoutSystemEnv(),
		WithEnvMap(map[string]string{"LUXE_SERVER_PORT": "7100"}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Firebase.ProjectID != "luxe-local" || cfg.Storage.ImagesBucket != "local-bucket" {
		t.Fatalf("expected dotenv values, got %+v / %+v", cfg.Firebase, cfg.Storage)
	}
	if cfg.Server.Port != "7100" {
		t.Fatalf("expected explicit map to win over dotenv, got %s", cfg.Server.Port)
	}
}
