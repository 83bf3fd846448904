// worker consumes patent lifecycle events from Kafka and runs the entity
// extraction pipeline for each imported document. It exposes /healthz and
// /metrics on a side port for probes and scraping.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

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
	"github.com/Qubut/IP-Claim/internal/intelligence/annotator"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/internal/intelligence/relation_extractor"
)

const (
	defaultHealthPort = 8081
	startupTimeout    = 30 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", "", "path to configuration file (environment only when empty)")
	healthPort := flag.Int("health-port", defaultHealthPort, "port for /healthz and /metrics")
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

	pg, err := postgres.NewConnection(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer pg.Close()
	repo := pgrepos.NewPatentRepository(pg.Pool(), logger)

	var (
		graph   extraction.GraphWriter
		svcOpts []extraction.Option
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
		logger.Warn("Neo4j not configured, graph writes disabled")
	}

	var cache extraction.MentionCache
	if cfg.Extraction.CacheEnabled && cfg.Redis.Addr != "" {
		redisClient, err := redis.NewClient(ctx, cfg.Redis, logger)
		if err != nil {
			return err
		}
		defer redisClient.Close()
		cache = redis.NewExtractionCache(redisClient, cfg.Redis.KeyPrefix, cfg.Extraction.CacheTTL, logger)
	}

	producer, err := kafka.NewProducer(cfg.Kafka, logger)
	if err != nil {
		return err
	}
	defer producer.Close()

	engine, err := annotator.NewClient(annotator.Config{
		BaseURL:        cfg.Annotator.BaseURL,
		RequestTimeout: cfg.Annotator.RequestTimeout,
		MaxRetries:     cfg.Annotator.MaxRetries,
		RetryBackoff:   cfg.Annotator.RetryBackoff,
	}, logger)
	if err != nil {
		return err
	}

	extractor := entity_extractor.New(engine, entity_extractor.Config{
		MaxChunkSize:   cfg.Extraction.MaxChunkSize,
		BoundaryWindow: cfg.Extraction.BoundaryWindow,
	}, logger)

	registry := prom.NewRegistry()
	metrics := monitoring.NewMetrics(registry)

	svc, err := extraction.NewService(cfg.Extraction, repo, extractor, cache, graph, producer, metrics, logger, svcOpts...)
	if err != nil {
		return err
	}

	consumer, err := kafka.NewConsumer(cfg.Kafka, []string{kafka.TopicPatentImported}, producer, logger)
	if err != nil {
		return err
	}
	consumer.Subscribe(kafka.TopicPatentImported, svc.HandleImportedMessage)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := consumer.Start(runCtx); err != nil {
		return err
	}

	healthSrv := startHealthServer(*healthPort, registry, logger)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutting down", logging.String("signal", sig.String()))

	stop()
	if err := consumer.Close(); err != nil {
		logger.Error("Consumer shutdown error", logging.Err(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := healthSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Health server shutdown error", logging.Err(err))
	}

	logger.Info("Worker stopped")
	return nil
}

func startHealthServer(port int, registry *prom.Registry, logger logging.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info("Health server listening", logging.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Health server error", logging.Err(err))
		}
	}()

	return srv
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(path)
}
