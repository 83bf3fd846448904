// Package extraction orchestrates entity extraction for stored patent
// applications: load the document, run the chunked entity/coreference
// pipeline (consulting the result cache first), write the mentions to the
// knowledge graph, and announce completion on the event bus.
package extraction

import (
	"context"
	"time"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/prometheus"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
	"github.com/Qubut/IP-Claim/pkg/errors"
	"github.com/Qubut/IP-Claim/pkg/types/common"
)

// cacheProfile keys cached mention lists to the engine configuration that
// produced them.  Bump it when the annotation pipeline changes incompatibly.
const cacheProfile = "coref-v1"

// TextExtractor is the mention pipeline the service drives.
type TextExtractor interface {
	Extract(ctx context.Context, text string) ([]entity_extractor.Mention, error)
}

// MentionCache caches extraction results keyed by text and engine profile.
type MentionCache interface {
	Get(ctx context.Context, text, profile string) ([]entity_extractor.Mention, bool, error)
	Set(ctx context.Context, text, profile string, mentions []entity_extractor.Mention) error
}

// GraphWriter persists mentions into the knowledge graph.
type GraphWriter interface {
	MergeMentions(ctx context.Context, applicationNumber string, mentions []entity_extractor.Mention) (int64, error)
}

// EventPublisher announces completed extractions.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event common.Event) error
}

// Result summarises one document extraction.
type Result struct {
	ApplicationNumber string                     `json:"application_number"`
	Mentions          []entity_extractor.Mention `json:"mentions"`
	ChunkCount        int                        `json:"chunk_count"`
	CacheHit          bool                       `json:"cache_hit"`
	NodesCreated      int64                      `json:"nodes_created"`
	RelationsCreated  int64                      `json:"relations_created"`
	Elapsed           time.Duration              `json:"elapsed"`
}

// Service drives extraction runs.  Cache, graph, publisher, and metrics are
// all optional; a nil dependency disables that step.
type Service struct {
	cfg       config.ExtractionConfig
	repo      patent.Repository
	extractor TextExtractor
	cache     MentionCache
	graph     GraphWriter
	publisher EventPublisher
	metrics   *prometheus.Metrics
	logger    logging.Logger

	chunker       SectionChunker
	relations     RelationExtractor
	relationGraph RelationWriter
}

// NewService wires an extraction service.
func NewService(cfg config.ExtractionConfig, repo patent.Repository, extractor TextExtractor,
	cache MentionCache, graph GraphWriter, publisher EventPublisher,
	metrics *prometheus.Metrics, log logging.Logger, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.InvalidParam("patent repository is required")
	}
	if extractor == nil {
		return nil, errors.InvalidParam("text extractor is required")
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	if cfg.MaxChunkSize <= 0 {
		cfg.MaxChunkSize = entity_extractor.DefaultMaxChunkSize
	}
	if !cfg.CacheEnabled {
		cache = nil
	}
	s := &Service{
		cfg:       cfg,
		repo:      repo,
		extractor: extractor,
		cache:     cache,
		graph:     graph,
		publisher: publisher,
		metrics:   metrics,
		logger:    log.Named("extraction"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// ExtractPatent runs the pipeline for one stored application, identified by
// publication number.  The document either completes fully or fails with no
// graph writes.
func (s *Service) ExtractPatent(ctx context.Context, publicationNumber string) (*Result, error) {
	app, err := s.repo.FindByPublicationNumber(ctx, publicationNumber)
	if err != nil {
		return nil, err
	}
	return s.extractApplication(ctx, app)
}

// ExtractByApplicationNumber runs the pipeline for one stored application,
// identified by application number.
func (s *Service) ExtractByApplicationNumber(ctx context.Context, applicationNumber string) (*Result, error) {
	app, err := s.repo.FindByApplicationNumber(ctx, applicationNumber)
	if err != nil {
		return nil, err
	}
	return s.extractApplication(ctx, app)
}

// ExtractText runs the mention pipeline over ad-hoc text with caching but
// without graph writes or events.  This is the HTTP/CLI path.
func (s *Service) ExtractText(ctx context.Context, text string) ([]entity_extractor.Mention, bool, error) {
	if text == "" {
		return nil, false, errors.InvalidParam("text is required")
	}
	mentions, cacheHit, err := s.mentionsFor(ctx, text)
	if err != nil {
		s.countDocument("failed")
		return nil, false, err
	}
	s.countDocument("success")
	return mentions, cacheHit, nil
}

func (s *Service) extractApplication(ctx context.Context, app *patent.Application) (*Result, error) {
	started := time.Now()
	appNumber := app.Metadata.ApplicationNumber
	text := app.FullText()
	if text == "" {
		return nil, errors.New(errors.ErrCodePatentParseFailed,
			"application has no text content to extract from")
	}

	mentions, cacheHit, err := s.mentionsFor(ctx, text)
	if err != nil {
		s.countDocument("failed")
		return nil, err
	}

	result := &Result{
		ApplicationNumber: appNumber,
		Mentions:          mentions,
		ChunkCount:        s.chunkCount(text),
		CacheHit:          cacheHit,
	}

	if s.graph != nil {
		created, err := s.graph.MergeMentions(ctx, appNumber, mentions)
		if err != nil {
			s.countDocument("failed")
			return nil, err
		}
		result.NodesCreated = created
		if s.metrics != nil {
			s.metrics.GraphWritesTotal.WithLabelValues("mention").Inc()
		}
		result.RelationsCreated = s.mergeRelations(ctx, app, mentions)
	}

	if s.publisher != nil {
		event := patent.NewExtractedEvent(appNumber, len(mentions), result.ChunkCount, cacheHit)
		if err := s.publisher.PublishEvent(ctx, event); err != nil {
			// The graph write already happened; losing the event is worth a
			// warning, not a failed extraction.
			s.logger.Warn("Extracted event publish failed",
				logging.String("application_number", appNumber), logging.Err(err))
		}
	}

	result.Elapsed = time.Since(started)
	s.countDocument("success")
	if s.metrics != nil {
		s.metrics.MentionsPerDocument.Observe(float64(len(mentions)))
	}

	s.logger.Info("Extraction completed",
		logging.String("application_number", appNumber),
		logging.Int("mentions", len(mentions)),
		logging.Int("chunks", result.ChunkCount),
		logging.Bool("cache_hit", cacheHit),
		logging.Int64("nodes_created", result.NodesCreated),
		logging.Int64("relations_created", result.RelationsCreated),
		logging.Duration("elapsed", result.Elapsed))
	return result, nil
}

// mentionsFor returns the mention list for text, from cache when possible.
func (s *Service) mentionsFor(ctx context.Context, text string) ([]entity_extractor.Mention, bool, error) {
	if s.cache != nil {
		mentions, hit, err := s.cache.Get(ctx, text, cacheProfile)
		if err != nil {
			s.logger.Warn("Cache lookup failed", logging.Err(err))
		} else if hit {
			s.countCache(true)
			return mentions, true, nil
		} else {
			s.countCache(false)
		}
	}

	mentions, err := s.extractor.Extract(ctx, text)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, text, cacheProfile, mentions); err != nil {
			s.logger.Warn("Cache store failed", logging.Err(err))
		}
	}
	return mentions, false, nil
}

// chunkCount estimates how many chunks the pipeline cut the text into.
func (s *Service) chunkCount(text string) int {
	if len(text) <= s.cfg.MaxChunkSize {
		return 1
	}
	return (len(text) + s.cfg.MaxChunkSize - 1) / s.cfg.MaxChunkSize
}

func (s *Service) countDocument(status string) {
	if s.metrics != nil {
		s.metrics.DocumentsExtractedTotal.WithLabelValues(status).Inc()
	}
}

func (s *Service) countCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheAccess("extraction", hit)
	}
}
