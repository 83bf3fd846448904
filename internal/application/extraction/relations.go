package extraction

import (
	"context"

	"github.com/Qubut/IP-Claim/internal/chunking"
	"github.com/Qubut/IP-Claim/internal/domain/patent"
	neorepos "github.com/Qubut/IP-Claim/internal/infrastructure/database/neo4j/repositories"
	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/internal/intelligence/entity_extractor"
)

// SectionChunker splits an application into section chunks sized for the
// relation extraction prompt.
type SectionChunker interface {
	ChunkApplication(app *patent.Application) []chunking.SectionChunk
}

// RelationExtractor turns a text chunk and the document's entity names into
// relation triples.
type RelationExtractor interface {
	ExtractRelations(ctx context.Context, text string, entities []string) ([]neorepos.RelationInput, error)
}

// RelationWriter persists relation triples into the knowledge graph.
type RelationWriter interface {
	MergeRelations(ctx context.Context, relations []neorepos.RelationInput) (int64, error)
}

// Option configures optional pipeline stages.
type Option func(*Service)

// WithRelations enables the relation-enrichment stage: after mentions are
// merged, each section chunk goes to the LLM with the document's entity
// names and the returned triples are merged into the graph.
func WithRelations(chunker SectionChunker, extractor RelationExtractor, writer RelationWriter) Option {
	return func(s *Service) {
		s.chunker = chunker
		s.relations = extractor
		s.relationGraph = writer
	}
}

// mergeRelations runs the relation stage for one document. Relations enrich
// an already-written graph, so failures here are warnings, never a failed
// extraction.
func (s *Service) mergeRelations(ctx context.Context, app *patent.Application, mentions []entity_extractor.Mention) int64 {
	if s.relations == nil || s.relationGraph == nil || len(mentions) == 0 {
		return 0
	}
	appNumber := app.Metadata.ApplicationNumber
	entities := entityNames(mentions)

	var triples []neorepos.RelationInput
	for _, chunk := range s.sectionChunks(app) {
		rels, err := s.relations.ExtractRelations(ctx, chunk.Text, entities)
		if err != nil {
			s.logger.Warn("Relation extraction failed",
				logging.String("application_number", appNumber),
				logging.String("section", chunk.Section),
				logging.Err(err))
			continue
		}
		triples = append(triples, rels...)
	}
	if len(triples) == 0 {
		return 0
	}

	created, err := s.relationGraph.MergeRelations(ctx, triples)
	if err != nil {
		s.logger.Warn("Relation merge failed",
			logging.String("application_number", appNumber), logging.Err(err))
		return 0
	}
	if s.metrics != nil {
		s.metrics.GraphWritesTotal.WithLabelValues("relation").Inc()
	}
	return created
}

func (s *Service) sectionChunks(app *patent.Application) []chunking.SectionChunk {
	if s.chunker != nil {
		return s.chunker.ChunkApplication(app)
	}
	return []chunking.SectionChunk{{Text: app.FullText(), Total: 1}}
}

// entityNames collects unique mention texts in first-seen order.
func entityNames(mentions []entity_extractor.Mention) []string {
	seen := make(map[string]struct{}, len(mentions))
	names := make([]string, 0, len(mentions))
	for _, m := range mentions {
		if _, ok := seen[m.Text]; ok {
			continue
		}
		seen[m.Text] = struct{}{}
		names = append(names, m.Text)
	}
	return names
}
