// apiserver exposes the patent extraction pipeline over HTTP: ad-hoc text
// extraction, per-patent extraction, full-text search, and knowledge graph
// lookups.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/Qubut/IP-Claim/internal/application/extraction"
	"github.com/Qubut/IP-Claim/internal/chunking"
	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j"
	neorepos "github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j/repositories"
	"github.com/Qubut/IP-Claim/internal/infrastructure/database/postgres"
	pgrepos "github.com/Qubut/IP-Claim/internal/infrastructure/database/postgres/repositories"
	"github.com/Qubut/IP-Claim/internal/infrastructure/database/redis"
	"github.com/Qubut/IP-Claim/internal/infrastructure/messaging/kafka"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	monitoring "github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/prometheus"
	"github.com/Qubut/IP-Claim/internal/infrastructure/search/opensearch"
	"github.com/Qubut/IP-Claim/internal/intelligence/annotator"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/internal/intelligence/relation_extractor"
	httpapi "github.com/Qubut/IP-Claim/internal/interfaces/http"
	"github.com/Qubut/IP-Claim/internal/interfaces/http/handlers"
)

const startupTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:            cfg.Log.Level,
		Format:           cfg.Log.Format,
		OutputPaths:      cfg.Log.OutputPaths,
		ErrorOutputPaths: cfg.Log.ErrorOutputPaths,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), startupTimeout)
	defer cancel()

	health := make(map[string]handlers.HealthChecker)

	pg, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pg.Close()
	repo := pgrepos.NewPatentRepository(pg.Pool(), logger)
	health["postgres"] = pg.HealthCheck

	var (
		graph    extraction.GraphWriter
		entities handlers.EntityLister
		svcOpts  []extraction.Option
	)
	if cfg.Neo4j.URI != "" {
		drv, err := neo4j.NewDriver(cfg.Neo4j, logger)
		if err != nil {
			return err
		}
		defer drv.Close()

		kg := neorepos.NewKnowledgeGraphRepository(drv, logger)
		if err := kg.EnsureConstraints(ctx); err != nil {
			return err
		}
		graph = kg
		entities = kg
		health["neo4j"] = drv.HealthCheck

		if cfg.LLM.BaseURL != "" {
			llm, err := relation_extractor.NewOpenAIClient(cfg.LLM, logger)
			if err != nil {
				return err
			}
			chunker, err := chunking.NewPatentChunker(cfg.Chunker)
			if err != nil {
				return err
			}
			svcOpts = append(svcOpts,
				extraction.WithRelations(chunker, relation_extractor.NewExtractor(llm, logger), kg))
		} else {
			logger.Warn("LLM not configured, relation extraction disabled")
		}
	} else {
		logger.Warn("Neo4j not configured, graph writes and entity lookups disabled")
	}

	var cache extraction.MentionCache
	if cfg.Extraction.CacheEnabled && cfg.Redis.Addr != "" {
		redisClient, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cache = redis.NewExtractionCache(redisClient, cfg.Redis.KeyPrefix, cfg.Extraction.CacheTTL, logger)
		health["redis"] = redisClient.Ping
	}

	var publisher extraction.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := kafka.NewProducer(cfg.Kafka, logger)
		if err != nil {
			return err
		}
		defer producer.Close()
		publisher = producer
	} else {
		logger.Warn("Kafka not configured, extraction events disabled")
	}

	var searcher handlers.PatentSearcher
	if len(cfg.OpenSearch.Addresses) > 0 {
		osClient, err := opensearch.NewClient(ctx, cfg.OpenSearch, logger)
		if err != nil {
			return err
		}
		searcher = opensearch.NewPatentIndexer(osClient, cfg.OpenSearch.IndexPrefix, cfg.OpenSearch.BulkBatchSize, logger)
		health["opensearch"] = osClient.Ping
	} else {
		logger.Warn("OpenSearch not configured, full-text search disabled")
	}

	engine, err := annotator.NewClient(annotator.Config{
		BaseURL:        cfg.Annotator.BaseURL,
		RequestTimeout: cfg.Annotator.RequestTimeout,
		MaxRetries:     cfg.Annotator.MaxRetries,
		RetryBackoff:   cfg.Annotator.RetryBackoff,
	}, logger)
	if err != nil {
		return err
	}
	health["annotator"] = engine.Health

	extractor := entity_extractor.New(engine, entity_extractor.Config{
		MaxChunkSize:   cfg.Extraction.MaxChunkSize,
		BoundaryWindow: cfg.Extraction.BoundaryWindow,
	}, logger)

	registry := prom.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	svc, err := extraction.NewService(cfg.Extraction, repo, extractor, cache, graph, publisher, metrics, logger, svcOpts...)
	if err != nil {
		return err
	}

	router := httpapi.NewRouter(cfg.Server, httpapi.RouterDeps{
		Extraction: svc,
		Patents:    repo,
		Entities:   entities,
		Searcher:   searcher,
		Health:     health,
		Metrics:    metrics,
		Registry:   registry,
		Logger:     logger,
	})
	srv := httpapi.NewServer(cfg.Server, router, logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("Shutting down", logging.String("signal", sig.String()))
	}

	return srv.Stop(context.Background())
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
