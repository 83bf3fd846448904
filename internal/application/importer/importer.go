// Package importer loads HUPD patent application JSON files into the system:
// parse, deduplicate, persist, index for search, and announce the import on
// the event bus.  Individual bad files are counted and logged, never fatal.
package importer

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/prometheus"
	"github.com/Qubut/IP-Claim/pkg/errors"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

const defaultConcurrency = 4

// Indexer is the slice of the search layer the importer needs.
type Indexer interface {
	IndexApplication(ctx context.Context, app *patent.Application) error
}

// EventPublisher announces imported applications.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event common.Event) error
}

// Result summarises one import run.
type Result struct {
	Scanned  int
	Inserted int
	Skipped  int
	Failed   int
}

// Service runs bulk imports from a Source.
type Service struct {
	repo        patent.Repository
	indexer     Indexer
	publisher   EventPublisher
	metrics     *prometheus.Metrics
	logger      logging.Logger
	concurrency int
}

// NewService wires an importer.  Indexer and publisher may be nil when the
// run should only persist documents.
func NewService(cfg config.ImporterConfig, repo patent.Repository, indexer Indexer,
	publisher EventPublisher, metrics *prometheus.Metrics, log logging.Logger) (*Service, error) {
	if repo == nil {
		return nil, errors.InvalidParam("patent repository is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Service{
		repo:        repo,
		indexer:     indexer,
		publisher:   publisher,
		metrics:     metrics,
		logger:      log.Named("importer"),
		concurrency: concurrency,
	}, nil
}

type workItem struct {
	name string
	data []byte
}

// Run imports every document the source yields.  Per-document failures are
// logged and counted; only source-level failures (unreadable directory,
// storage listing errors) or context cancellation abort the run.
func (s *Service) Run(ctx context.Context, source Source) (*Result, error) {
	if source == nil {
		return nil, errors.InvalidParam("import source is required")
	}

	s.logger.Info("Starting import", logging.String("source", source.Name()))

	var (
		mu     sync.Mutex
		result Result
	)
	record := func(status string, update func(*Result)) {
		mu.Lock()
		update(&result)
		mu.Unlock()
		if s.metrics != nil {
			s.metrics.PatentsImportedTotal.WithLabelValues(status).Inc()
		}
	}

	group, groupCtx := errgroup.WithContext(ctx)
	items := make(chan workItem)

	for i := 0; i < s.concurrency; i++ {
		group.Go(func() error {
			for item := range items {
				status := s.importOne(groupCtx, item)
				record(status, func(r *Result) {
					r.Scanned++
					switch status {
					case "inserted":
						r.Inserted++
					case "skipped":
						r.Skipped++
					default:
						r.Failed++
					}
				})
			}
			return nil
		})
	}

	group.Go(func() error {
		defer close(items)
		return source.Each(groupCtx, func(name string, data []byte, readErr error) error {
			if readErr != nil {
				s.logger.Warn("Skipping unreadable document",
					logging.String("name", name), logging.Err(readErr))
				record("failed", func(r *Result) { r.Scanned++; r.Failed++ })
				return nil
			}
			select {
			case items <- workItem{name: name, data: data}:
				return nil
			case <-groupCtx.Done():
				return groupCtx.Err()
			}
		})
	})

	err := group.Wait()

	s.logger.Info("Import finished",
		logging.String("source", source.Name()),
		logging.Int("scanned", result.Scanned),
		logging.Int("inserted", result.Inserted),
		logging.Int("skipped", result.Skipped),
		logging.Int("failed", result.Failed))

	if err != nil {
		return &result, errors.Wrap(err, errors.ErrCodeInternal, "import aborted")
	}
	return &result, nil
}

// importOne processes a single document and returns its status label.
func (s *Service) importOne(ctx context.Context, item workItem) string {
	app, err := patent.DecodeHUPD(item.data)
	if err != nil {
		s.logger.Warn("Skipping malformed document",
			logging.String("name", item.name), logging.Err(err))
		return "failed"
	}

	if pub := app.Metadata.PublicationNumber; pub != "" {
		exists, err := s.repo.ExistsByPublicationNumber(ctx, pub)
		if err != nil {
			s.logger.Error("Duplicate check failed",
				logging.String("publication_number", pub), logging.Err(err))
			return "failed"
		}
		if exists {
			s.logger.Debug("Skipping already imported document",
				logging.String("publication_number", pub))
			return "skipped"
		}
	}

	if err := s.repo.Insert(ctx, app); err != nil {
		if errors.IsCode(err, errors.ErrCodePatentAlreadyExists) {
			return "skipped"
		}
		s.logger.Error("Insert failed",
			logging.String("name", item.name), logging.Err(err))
		return "failed"
	}

	if s.indexer != nil {
		if err := s.indexer.IndexApplication(ctx, app); err != nil {
			// The document is persisted; a missing index entry is repairable.
			s.logger.Warn("Search indexing failed",
				logging.String("application_number", app.Metadata.ApplicationNumber),
				logging.Err(err))
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishEvent(ctx, patent.NewImportedEvent(app)); err != nil {
			s.logger.Warn("Import event publish failed",
				logging.String("application_number", app.Metadata.ApplicationNumber),
				logging.Err(err))
		}
	}

	return "inserted"
}
