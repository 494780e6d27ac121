package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"cosmos-backend/application/loaders"
	"cosmos-backend/application/ports"
	"cosmos-backend/application/resolution"
	"cosmos-backend/infrastructure/config"
	ddb "cosmos-backend/infrastructure/persistence/dynamodb"
	"cosmos-backend/infrastructure/persistence/memory"
	"cosmos-backend/interfaces/http/rest"
	"cosmos-backend/pkg/observability"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real environments configure through the process env
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		panic("load config: " + err.Error())
	}

	logger, err := newLogger(cfg)
	if err != nil {
		panic("create logger: " + err.Error())
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server exited with error", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cards, gateways, metrics, err := buildPersistence(ctx, cfg, logger)
	if err != nil {
		return err
	}

	registry, err := ports.NewGatewayRegistry(gateways...)
	if err != nil {
		return err
	}

	loader := loaders.NewCardLoader(cards, registry, cfg.Loader.BatchWindow, cfg.Loader.MaxBatchSize, metrics, logger)
	cache := resolution.NewCache(cfg.Resolution.CacheTTL)
	resolver := resolution.NewResolver(cards, loader, cache, metrics, logger)

	if cfg.DynamicConfigPath != "" {
		watcher, err := config.NewWatcher(cfg.DynamicConfigPath, logger)
		if err != nil {
			return err
		}
		watcher.OnChange(func(dc *config.DynamicConfig) {
			if dc.Resolution.CacheTTLSeconds > 0 {
				cache.SetTTL(time.Duration(dc.Resolution.CacheTTLSeconds) * time.Second)
			}
			loader.SetBatchLimits(
				time.Duration(dc.Loader.BatchWindowMs)*time.Millisecond,
				dc.Loader.MaxBatchSize,
			)
			logger.Info("applied dynamic config",
				zap.Int("cacheTtlSeconds", dc.Resolution.CacheTTLSeconds),
				zap.Int("batchWindowMs", dc.Loader.BatchWindowMs),
				zap.Int("maxBatchSize", dc.Loader.MaxBatchSize),
			)
		})
		watcher.Start()
		defer watcher.Stop()
	}

	router := rest.NewRouter(cfg, resolver, loader, cards, logger)
	server := &http.Server{
		Addr:    cfg.ServerAddress,
		Handler: router.Setup(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
			zap.String("persistence", cfg.Persistence),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// buildPersistence wires the configured backend: DynamoDB in deployed
// environments, the in-memory store for local development
func buildPersistence(ctx context.Context, cfg *config.Config, logger *zap.Logger) (ports.CardStore, []ports.SourceEntityGateway, *observability.Metrics, error) {
	if cfg.Persistence == config.PersistenceMemory {
		entityStore := memory.NewEntityStore()
		return memory.NewCardStore(entityStore), memory.Gateways(entityStore), nil, nil
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, nil, nil, err
	}

	client := dynamodb.NewFromConfig(awsCfg)
	cards := ddb.NewCardStore(client, cfg.DynamoDBTable, cfg.UserCardIndex, logger)
	gateways := ddb.Gateways(client, cfg.DynamoDBTable, logger)

	var metrics *observability.Metrics
	if cfg.EnableMetrics {
		metrics = observability.NewMetrics(cfg.MetricsNamespace, cloudwatch.NewFromConfig(awsCfg))
	}
	return cards, gateways, metrics, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsDevelopment() {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
