package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"cloud.google.com/go/pubsub"
	gcs "cloud.google.com/go/storage"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/unfazed24072005io/luxe-jewellery/internal/domain"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/cache"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/config"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/events"
	pfirestore "github.com/unfazed24072005io/luxe-jewellery/internal/platform/firestore"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/observability"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/secrets"
	"github.com/unfazed24072005io/luxe-jewellery/internal/platform/storage"
	firestoreRepo "github.com/unfazed24072005io/luxe-jewellery/internal/repositories/firestore"
	"github.com/unfazed24072005io/luxe-jewellery/internal/services"
)

const (
	fileFlag     = "file"
	envFileFlag  = "env-file"
	dryRunFlag   = "dry-run"
	actorFlag    = "actor"
	timeoutFlag  = "timeout"
	backfillFlag = "backfill-gender"
)

type options struct {
	file           string
	envFile        string
	dryRun         bool
	actor          string
	timeout        time.Duration
	backfillGender bool
}

func main() {
	opts := parseFlags()

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync()
	}()
	logger = logger.Named("seed")

	if err := run(opts, logger); err != nil {
		logger.Error("seed failed", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func parseFlags() options {
	var opts options
	pflag.StringVarP(&opts.file, fileFlag, "f", "", "YAML catalog fixture to load")
	pflag.StringVar(&opts.envFile, envFileFlag, ".env", "dotenv file with LUXE_* settings")
	pflag.BoolVarP(&opts.dryRun, dryRunFlag, "n", false, "check the fixture without writing")
	pflag.StringVar(&opts.actor, actorFlag, "seed", "actor recorded on change events")
	pflag.DurationVar(&opts.timeout, timeoutFlag, 2*time.Minute, "overall deadline")
	pflag.BoolVar(&opts.backfillGender, backfillFlag, false, "store an explicit gender on products saved without one")
	pflag.Parse()

	if opts.file == "" && !opts.backfillGender {
		fmt.Fprintf(os.Stderr, "--%s or --%s flag: required\n", fileFlag, backfillFlag)
		pflag.Usage()
		os.Exit(2)
	}
	return opts
}

func run(opts options, logger *zap.Logger) error {
	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	var fixture *Fixture
	if opts.file != "" {
		loaded, err := loadFixtureFile(opts.file)
		if err != nil {
			return err
		}
		logger.Info("fixture loaded",
			zap.String("file", opts.file),
			zap.Int("collections", len(loaded.Collections)),
			zap.Int("products", len(loaded.Products)),
			zap.Int("blogs", len(loaded.Blogs)),
		)
		fixture = &loaded
	}
	if opts.dryRun {
		return nil
	}

	envValues, err := config.EnvironmentValues(config.WithEnvFile(opts.envFile))
	if err != nil {
		return err
	}
	resolver, err := secrets.NewResolver(ctx,
		secrets.WithProject(secretsProject(envValues)),
		secrets.WithLogger(logger.Named("secrets")),
	)
	if err != nil {
		return err
	}
	defer resolver.Close()

	cfg, err := config.Load(ctx, config.WithEnvFile(opts.envFile), config.WithSecretResolver(resolver))
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			return fmt.Errorf("invalid configuration %v: %w", invalid.Fields(), err)
		}
		return err
	}

	provider := pfirestore.NewProvider(cfg.Firestore, pfirestore.WithDialTimeout(cfg.Firestore.DialTimeout))
	defer provider.Close()
	products, err := firestoreRepo.NewProductRepository(provider)
	if err != nil {
		return err
	}
	collections, err := firestoreRepo.NewCollectionRepository(provider)
	if err != nil {
		return err
	}
	blogs, err := firestoreRepo.NewBlogRepository(provider)
	if err != nil {
		return err
	}

	storageClient, err := gcs.NewClient(ctx)
	if err != nil {
		return fmt.Errorf("storage client: %w", err)
	}
	defer storageClient.Close()
	uploader, err := storage.NewUploader(storageClient, cfg.Storage.ImagesBucket, cfg.Storage.PublicBaseURL)
	if err != nil {
		return err
	}

	// Running storefronts learn about the new records through change events when a topic is set.
	var publisher services.ChangePublisher
	if cfg.Events.Topic != "" {
		client, err := pubsub.NewClient(ctx, cfg.Firebase.ProjectID)
		if err != nil {
			return fmt.Errorf("pubsub client: %w", err)
		}
		defer client.Close()
		changes, err := events.NewPubSubPublisher(client.Topic(cfg.Events.Topic))
		if err != nil {
			return err
		}
		defer changes.Stop()
		publisher = changes
	}

	gateway, err := services.NewAdminGateway(services.AdminGatewayDeps{
		Products:    products,
		Collections: collections,
		Blogs:       blogs,
		Images:      uploader,
		Invalidator: cache.Nop{},
		Publisher:   publisher,
		Logger:      logger.Named("gateway"),
	})
	if err != nil {
		return err
	}

	if fixture != nil {
		s := &seeder{gateway: gateway, actor: opts.actor, logger: logger}
		summary, err := s.Apply(ctx, *fixture)
		if err != nil {
			return err
		}
		logger.Info("seed complete",
			zap.Int("collections", summary.Collections),
			zap.Int("products", summary.Products),
			zap.Int("blogs", summary.Blogs),
			zap.Int("warnings", summary.Warnings),
		)
	}

	if opts.backfillGender {
		ids, err := products.BackfillGender(ctx)
		announceBackfill(ctx, publisher, opts.actor, ids, logger)
		if err != nil {
			return fmt.Errorf("backfill gender: %w", err)
		}
		logger.Info("gender backfill complete", zap.Int("products", len(ids)))
	}
	return nil
}

func loadFixtureFile(path string) (Fixture, error) {
	file, err := os.Open(path)
	if err != nil {
		return Fixture{}, fmt.Errorf("open fixture: %w", err)
	}
	defer file.Close()
	fixture, err := LoadFixture(file)
	if err != nil {
		return Fixture{}, err
	}
	if err := fixture.Check(); err != nil {
		return Fixture{}, err
	}
	return fixture, nil
}

// announceBackfill publishes one product update per rewritten record so running storefronts
// drop their cached product listings.
func announceBackfill(ctx context.Context, publisher services.ChangePublisher, actor string, ids []string, logger *zap.Logger) {
	if publisher == nil || len(ids) == 0 {
		return
	}
	now := time.Now().UTC()
	for _, id := range ids {
		change := domain.CatalogChange{
			Kind:       domain.KindProducts,
			ID:         id,
			Action:     domain.ChangeUpdated,
			Actor:      actor,
			OccurredAt: now,
		}
		if _, err := publisher.PublishCatalogChange(ctx, change); err != nil {
			logger.Warn("backfill change not published", zap.String("id", id), zap.Error(err))
		}
	}
}

func secretsProject(env map[string]string) string {
	for _, key := range []string{"LUXE_SECRETS_PROJECT_ID", "LUXE_FIREBASE_PROJECT_ID"} {
		if value := strings.TrimSpace(env[key]); value != "" {
			return value
		}
	}
	return ""
}
