// Package secrets resolves secret:// configuration references against Google Secret Manager,
// falling back to a local dotenv-style file during development.
package secrets

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	secretmanager "cloud.google.com/go/secretmanager/apiv1"
	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const (
	defaultFallbackPath = ".secrets.local"
	meterName           = "github.com/unfazed24072005io/luxe-jewellery/internal/platform/secrets"
)

var newSecretManagerClient = func(ctx context.Context, opts ...option.ClientOption) (*secretmanager.Client, error) {
	return secretmanager.NewClient(ctx, opts...)
}

type accessClient interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
	Close() error
}

// Resolver looks up secret values, caching each reference for the life of the process.
type Resolver struct {
	client     accessClient
	ownsClient bool
	project    string
	logger     *zap.Logger

	fallbackPath string
	fallbackOnce sync.Once
	fallback     map[string]string
	fallbackErr  error

	mu    sync.RWMutex
	cache map[string]string

	latency   metric.Float64Histogram
	cacheHits metric.Int64Counter
}

type resolverConfig struct {
	project      string
	logger       *zap.Logger
	fallbackPath string
	meter        metric.Meter
	client       accessClient
	clientOpts   []option.ClientOption
}

// Option customises Resolver construction.
type Option func(*resolverConfig)

// WithProject sets the Secret Manager project for references that do not name one.
func WithProject(projectID string) Option {
	return func(cfg *resolverConfig) { cfg.project = strings.TrimSpace(projectID) }
}

// WithLogger sets the diagnostic logger.
func WithLogger(logger *zap.Logger) Option {
	return func(cfg *resolverConfig) { cfg.logger = logger }
}

// WithFallbackFile overrides the local fallback file path. An empty path disables the fallback.
func WithFallbackFile(path string) Option {
	return func(cfg *resolverConfig) { cfg.fallbackPath = strings.TrimSpace(path) }
}

// WithMeter injects an OpenTelemetry meter.
func WithMeter(m metric.Meter) Option {
	return func(cfg *resolverConfig) { cfg.meter = m }
}

// WithClientOptions forwards options to the Secret Manager client.
func WithClientOptions(opts ...option.ClientOption) Option {
	return func(cfg *resolverConfig) { cfg.clientOpts = append(cfg.clientOpts, opts...) }
}

func withAccessClient(client accessClient) Option {
	return func(cfg *resolverConfig) { cfg.client = client }
}

// NewResolver builds a Resolver. Without Secret Manager credentials it runs on the fallback file alone.
func NewResolver(ctx context.Context, opts ...Option) (*Resolver, error) {
	cfg := resolverConfig{fallbackPath: defaultFallbackPath}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = zap.NewNop()
	}
	meter := cfg.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}

	r := &Resolver{
		project:      cfg.project,
		logger:       cfg.logger,
		fallbackPath: cfg.fallbackPath,
		cache:        make(map[string]string),
	}

	var err error
	if r.latency, err = meter.Float64Histogram("secrets.resolve.latency",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of secret resolution attempts"),
	); err != nil {
		cfg.logger.Warn("secrets: latency metric unavailable", zap.Error(err))
		r.latency = nil
	}
	if r.cacheHits, err = meter.Int64Counter("secrets.resolve.cache_hits",
		metric.WithDescription("Secret resolutions served from memory"),
	); err != nil {
		cfg.logger.Warn("secrets: cache hit metric unavailable", zap.Error(err))
		r.cacheHits = nil
	}

	switch {
	case cfg.client != nil:
		r.client = cfg.client
	case r.project != "":
		client, err := newSecretManagerClient(ctx, cfg.clientOpts...)
		if err != nil {
			cfg.logger.Warn("secrets: secret manager unavailable, using fallback file only", zap.Error(err))
		} else {
			r.client = client
			r.ownsClient = true
		}
	}
	return r, nil
}

// Close releases the Secret Manager client.
func (r *Resolver) Close() error {
	if r.ownsClient && r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ResolveSecret implements config.SecretResolver.
func (r *Resolver) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return r.Resolve(ctx, ref)
}

// Resolve returns the value behind ref, for example secret://redis-password?version=3.
func (r *Resolver) Resolve(ctx context.Context, ref string) (string, error) {
	start := time.Now()
	parsed, err := parseReference(ref)
	if err != nil {
		return "", err
	}

	r.mu.RLock()
	value, ok := r.cache[parsed.key()]
	r.mu.RUnlock()
	if ok {
		if r.cacheHits != nil {
			r.cacheHits.Add(ctx, 1)
		}
		r.observe(ctx, start, "cache")
		return value, nil
	}

	project := parsed.project
	if project == "" {
		project = r.project
	}
	if r.client != nil && project != "" {
		value, err := r.access(ctx, project, parsed)
		if err == nil {
			r.store(parsed, value)
			r.observe(ctx, start, "remote")
			return value, nil
		}
		if !fallbackEligible(err) {
			r.observe(ctx, start, "error")
			return "", fmt.Errorf("secrets: resolve %s: %w", parsed.canonical, err)
		}
		r.logger.Debug("secrets: using fallback file", zap.String("ref", parsed.canonical), zap.Error(err))
	}

	value, ok = r.lookupFallback(parsed)
	if !ok {
		r.observe(ctx, start, "error")
		return "", fmt.Errorf("secrets: no value for %s", parsed.canonical)
	}
	r.store(parsed, value)
	r.observe(ctx, start, "fallback")
	return value, nil
}

func (r *Resolver) access(ctx context.Context, project string, ref reference) (string, error) {
	name := fmt.Sprintf("projects/%s/secrets/%s/versions/%s", project, ref.name, ref.version)
	resp, err := r.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		return "", err
	}
	if resp.GetPayload() == nil {
		return "", fmt.Errorf("secret manager returned empty payload for %s", name)
	}
	return strings.TrimSpace(string(resp.GetPayload().GetData())), nil
}

func (r *Resolver) store(ref reference, value string) {
	r.mu.Lock()
	r.cache[ref.key()] = value
	r.mu.Unlock()
}

func (r *Resolver) observe(ctx context.Context, start time.Time, source string) {
	if r.latency == nil {
		return
	}
	r.latency.Record(ctx, float64(time.Since(start))/float64(time.Millisecond),
		metric.WithAttributes(attribute.String("source", source)))
}

func (r *Resolver) lookupFallback(ref reference) (string, bool) {
	r.fallbackOnce.Do(func() {
		r.fallback, r.fallbackErr = readFallbackFile(r.fallbackPath)
	})
	if r.fallbackErr != nil {
		r.logger.Warn("secrets: fallback file unreadable", zap.Error(r.fallbackErr))
		return "", false
	}
	if value, ok := r.fallback[ref.key()]; ok {
		return value, true
	}
	value, ok := r.fallback[ref.canonical]
	return value, ok
}

func readFallbackFile(path string) (map[string]string, error) {
	values := map[string]string{}
	if path == "" {
		return values, nil
	}
	file, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("secrets: open %s: %w", path, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		parsed, err := parseReference(strings.TrimSpace(key))
		if err != nil {
			continue
		}
		value = strings.TrimSpace(value)
		values[parsed.canonical] = value
		values[parsed.key()] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("secrets: read %s: %w", path, err)
	}
	return values, nil
}

type reference struct {
	canonical string
	name      string
	version   string
	project   string
}

func (r reference) key() string { return r.canonical + "#" + r.version }

func parseReference(ref string) (reference, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return reference{}, errors.New("secrets: empty reference")
	}
	if strings.HasPrefix(ref, "sm://") {
		ref = "secret://" + strings.TrimPrefix(ref, "sm://")
	}
	u, err := url.Parse(ref)
	if err != nil {
		return reference{}, fmt.Errorf("secrets: invalid reference %q: %w", ref, err)
	}
	if u.Scheme != "secret" {
		return reference{}, fmt.Errorf("secrets: unsupported scheme %q", u.Scheme)
	}
	name := strings.Trim(u.Host+u.Path, "/")
	if name == "" {
		return reference{}, fmt.Errorf("secrets: missing secret name in %q", ref)
	}
	version := strings.TrimSpace(u.Query().Get("version"))
	if version == "" {
		version = "latest"
	}
	return reference{
		canonical: "secret://" + name,
		name:      name,
		version:   version,
		project:   strings.TrimSpace(u.Query().Get("project")),
	}, nil
}

func fallbackEligible(err error) bool {
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated, codes.Unavailable, codes.DeadlineExceeded, codes.NotFound:
		return true
	default:
		return false
	}
}
