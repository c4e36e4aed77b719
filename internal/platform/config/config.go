package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile          = ".env"
	defaultPort             = "8080"
	defaultReadTimeout      = 15 * time.Second
	defaultWriteTimeout     = 60 * time.Second
	defaultIdleTimeout      = 120 * time.Second
	defaultEnvironment      = "local"
	defaultCacheBackend     = CacheBackendMemory
	defaultCacheTTL         = 5 * time.Minute
	defaultRedisAddr        = "localhost:6379"
	defaultQueryTimeout     = 5 * time.Second
	defaultPriceCeiling     = 100000
	defaultMaxUploadBytes   = 10 << 20
	defaultSessionTTL       = 5 * 24 * time.Hour
	defaultSessionCookie    = "luxe_admin_session"
	defaultAdminRole        = "admin"
	defaultRoleClaim        = "role"
	defaultVerifyTimeout    = 5 * time.Second
	defaultDialTimeout      = 10 * time.Second
	defaultPublicStorageURL = "https://storage.googleapis.com"
)

// Cache backends accepted by LUXE_CACHE_BACKEND.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"
	CacheBackendNone   = "none"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Environment string
	Server      ServerConfig
	Firebase    FirebaseConfig
	Firestore   FirestoreConfig
	Storage     StorageConfig
	Cache       CacheConfig
	Events      EventsConfig
	Catalog     CatalogConfig
	Admin       AdminConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// FirebaseConfig stores Firebase project settings.
type FirebaseConfig struct {
	ProjectID       string
	CredentialsFile string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
	DialTimeout  time.Duration
}

// StorageConfig names the bucket holding catalog imagery and how its objects are addressed publicly.
type StorageConfig struct {
	ImagesBucket   string
	PublicBaseURL  string
	MaxUploadBytes int64
}

// CacheConfig selects the read cache placed in front of Firestore.
type CacheConfig struct {
	Backend       string
	TTL           time.Duration
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

// EventsConfig configures catalog change notifications over Pub/Sub. Empty values disable them.
type EventsConfig struct {
	Topic        string
	Subscription string
}

// CatalogConfig tunes storefront reads.
type CatalogConfig struct {
	QueryTimeout        time.Duration
	DefaultPriceCeiling float64
}

// AdminConfig controls the admin console session.
type AdminConfig struct {
	SessionTTL    time.Duration
	CookieName    string
	AllowedRoles  []string
	SecureCookie  bool
	RoleClaim     string
	VerifyTimeout time.Duration
}

// SecretResolver resolves secret:// references.
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret calls f.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path. An empty path disables dotenv loading.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) { o.envFile = path }
}

// WithEnvMap injects explicit values that take precedence over the process environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) { o.envMap = values }
}

// WithoutSystemEnv stops Load from reading the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) { o.useSystemEnv = false }
}

// WithSecretResolver sets the resolver used for secret:// and sm:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) { o.secret = resolver }
}

// EnvironmentValues returns the merged environment (dotenv < OS env < explicit map) so callers
// can bootstrap dependencies such as the secret fetcher before calling Load.
func EnvironmentValues(opts ...Option) (map[string]string, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	dotenv, err := loadDotEnv(options.envFile)
	if err != nil {
		return nil, err
	}
	values := make(map[string]string, len(dotenv))
	for k, v := range dotenv {
		values[k] = v
	}
	if options.useSystemEnv {
		for _, entry := range os.Environ() {
			key, value, ok := strings.Cut(entry, "=")
			if ok && strings.TrimSpace(key) != "" {
				values[key] = value
			}
		}
	}
	for k, v := range options.envMap {
		values[k] = v
	}
	return values, nil
}

func defaultOptions() loaderOptions {
	return loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}
}

// Load assembles the configuration from defaults, .env overrides, the environment and secret references.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}

	dotenv, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}
	lookup := func(key string) (string, bool) {
		if v, ok := options.envMap[key]; ok {
			return v, true
		}
		if options.useSystemEnv {
			if v, ok := os.LookupEnv(key); ok {
				return v, true
			}
		}
		v, ok := dotenv[key]
		return v, ok
	}

	cfg := Config{
		Environment: strings.ToLower(stringWithDefault(lookup, "LUXE_ENVIRONMENT", defaultEnvironment)),
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "LUXE_SERVER_PORT", stringWithDefault(lookup, "PORT", defaultPort)),
			ReadTimeout:  durationWithDefault(lookup, "LUXE_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "LUXE_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "LUXE_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
		},
		Firebase: FirebaseConfig{
			ProjectID:       stringWithDefault(lookup, "LUXE_FIREBASE_PROJECT_ID", ""),
			CredentialsFile: stringWithDefault(lookup, "LUXE_FIREBASE_CREDENTIALS_FILE", ""),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "LUXE_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "LUXE_FIRESTORE_EMULATOR_HOST", ""),
			DialTimeout:  durationWithDefault(lookup, "LUXE_FIRESTORE_DIAL_TIMEOUT", defaultDialTimeout),
		},
		Storage: StorageConfig{
			ImagesBucket:   stringWithDefault(lookup, "LUXE_STORAGE_IMAGES_BUCKET", ""),
			PublicBaseURL:  strings.TrimRight(stringWithDefault(lookup, "LUXE_STORAGE_PUBLIC_BASE_URL", defaultPublicStorageURL), "/"),
			MaxUploadBytes: int64(intWithDefault(lookup, "LUXE_STORAGE_MAX_UPLOAD_BYTES", defaultMaxUploadBytes)),
		},
		Cache: CacheConfig{
			Backend:       strings.ToLower(stringWithDefault(lookup, "LUXE_CACHE_BACKEND", defaultCacheBackend)),
			TTL:           durationWithDefault(lookup, "LUXE_CACHE_TTL", defaultCacheTTL),
			RedisAddr:     stringWithDefault(lookup, "LUXE_REDIS_ADDR", defaultRedisAddr),
			RedisPassword: stringWithDefault(lookup, "LUXE_REDIS_PASSWORD", ""),
			RedisDB:       intWithDefault(lookup, "LUXE_REDIS_DB", 0),
		},
		Events: EventsConfig{
			Topic:        stringWithDefault(lookup, "LUXE_EVENTS_TOPIC", ""),
			Subscription: stringWithDefault(lookup, "LUXE_EVENTS_SUBSCRIPTION", ""),
		},
		Catalog: CatalogConfig{
			QueryTimeout:        durationWithDefault(lookup, "LUXE_CATALOG_QUERY_TIMEOUT", defaultQueryTimeout),
			DefaultPriceCeiling: floatWithDefault(lookup, "LUXE_CATALOG_DEFAULT_PRICE_CEILING", defaultPriceCeiling),
		},
		Admin: AdminConfig{
			SessionTTL:    durationWithDefault(lookup, "LUXE_ADMIN_SESSION_TTL", defaultSessionTTL),
			CookieName:    stringWithDefault(lookup, "LUXE_ADMIN_COOKIE_NAME", defaultSessionCookie),
			AllowedRoles:  csvWithDefault(lookup, "LUXE_ADMIN_ALLOWED_ROLES", []string{defaultAdminRole}),
			RoleClaim:     stringWithDefault(lookup, "LUXE_ADMIN_ROLE_CLAIM", defaultRoleClaim),
			VerifyTimeout: durationWithDefault(lookup, "LUXE_ADMIN_VERIFY_TIMEOUT", defaultVerifyTimeout),
		},
	}

	// Firestore project defaults to the Firebase project.
	if cfg.Firestore.ProjectID == "" {
		cfg.Firestore.ProjectID = cfg.Firebase.ProjectID
	}
	cfg.Admin.SecureCookie = boolWithDefault(lookup, "LUXE_ADMIN_SECURE_COOKIE", cfg.Environment != defaultEnvironment)

	if cfg.Cache.RedisPassword, err = resolveSecret(ctx, cfg.Cache.RedisPassword, options.secret); err != nil {
		return Config{}, err
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validateConfig(cfg Config) error {
	var missing []string
	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Firebase.ProjectID == "" {
		missing = append(missing, "Firebase.ProjectID")
	}
	if cfg.Storage.ImagesBucket == "" {
		missing = append(missing, "Storage.ImagesBucket")
	}
	if cfg.Storage.MaxUploadBytes <= 0 {
		missing = append(missing, "Storage.MaxUploadBytes")
	}
	switch cfg.Cache.Backend {
	case CacheBackendMemory, CacheBackendNone:
	case CacheBackendRedis:
		if strings.TrimSpace(cfg.Cache.RedisAddr) == "" {
			missing = append(missing, "Cache.RedisAddr")
		}
	default:
		missing = append(missing, "Cache.Backend")
	}
	if cfg.Catalog.QueryTimeout <= 0 {
		missing = append(missing, "Catalog.QueryTimeout")
	}
	if cfg.Catalog.DefaultPriceCeiling < 0 {
		missing = append(missing, "Catalog.DefaultPriceCeiling")
	}
	if cfg.Firestore.DialTimeout <= 0 {
		missing = append(missing, "Firestore.DialTimeout")
	}
	if strings.TrimSpace(cfg.Admin.RoleClaim) == "" {
		missing = append(missing, "Admin.RoleClaim")
	}
	if cfg.Admin.VerifyTimeout <= 0 {
		missing = append(missing, "Admin.VerifyTimeout")
	}
	if cfg.Admin.SessionTTL < 5*time.Minute || cfg.Admin.SessionTTL > 14*24*time.Hour {
		// Firebase rejects session cookies outside this window.
		missing = append(missing, "Admin.SessionTTL")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "secret://") && !strings.HasPrefix(trimmed, "sm://") {
		return value, nil
	}
	ref := "secret://" + strings.TrimPrefix(strings.TrimPrefix(trimmed, "secret://"), "sm://")
	if resolver == nil {
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	}
	secret, err := resolver.ResolveSecret(ctx, ref)
	if err != nil {
		return "", &SecretError{Ref: ref, Err: err}
	}
	return secret, nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}
	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}

func floatWithDefault(lookup func(string) (string, bool), key string, fallback float64) float64 {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup func(string) (string, bool), key string, fallback bool) bool {
	if value, ok := lookup(key); ok && value != "" {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return fallback
}

func csvWithDefault(lookup func(string) (string, bool), key string, fallback []string) []string {
	raw, ok := lookup(key)
	if !ok || strings.TrimSpace(raw) == "" {
		return append([]string(nil), fallback...)
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
