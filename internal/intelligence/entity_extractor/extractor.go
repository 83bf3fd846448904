package entity_extractor

import (
	"context"
	"strconv"

	"github.com/Qubut/IP-Claim/internal/infrastructure/monitoring/logging"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

// Default configuration values, matching the sizes the annotation engine
// comfortably handles in one call.
const (
	DefaultMaxChunkSize   = 100_000
	DefaultBoundaryWindow = 200
)

// Config holds the extraction pipeline tunables.
type Config struct {
	// MaxChunkSize is the maximum characters per chunk.  Documents at or
	// under this size take the single-pass path with no offset translation.
	MaxChunkSize int `mapstructure:"max_chunk_size" json:"max_chunk_size"`

	// BoundaryWindow is how many characters to search backward from a
	// tentative chunk end for a safe sentence cut.
	BoundaryWindow int `mapstructure:"boundary_window" json:"boundary_window"`
}

func (c Config) withDefaults() Config {
	if c.MaxChunkSize <= 0 {
		c.MaxChunkSize = DefaultMaxChunkSize
	}
	if c.BoundaryWindow <= 0 {
		c.BoundaryWindow = DefaultBoundaryWindow
	}
	return c
}

// Extractor is the pipeline driver.  It is safe for concurrent use: all
// per-document state lives in a run created inside Extract.
type Extractor struct {
	engine Engine
	cfg    Config
	log    logging.Logger
}

// New constructs an Extractor.  A nil logger falls back to a no-op logger.
func New(engine Engine, cfg Config, log logging.Logger) *Extractor {
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Extractor{engine: engine, cfg: cfg.withDefaults(), log: log}
}

// Extract runs the chunked entity/coreference pipeline over text and returns
// the de-duplicated mention list in order of first emission.  Any annotation
// engine failure aborts the whole document: no partial mention list is ever
// returned, because the chain-label state would be inconsistent.  Callers
// needing deadlines wrap ctx; the pipeline itself imposes none.
func (e *Extractor) Extract(ctx context.Context, text string) ([]Mention, error) {
	r := newRun()

	// Small texts take a single-pass path: one annotation call yields both
	// the coreference chains and the entities, with no offset translation.
	if len(text) <= e.cfg.MaxChunkSize {
		parse, chains, err := e.engine.AnnotateDocument(ctx, text)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAnnotationFailed, "whole-document annotation failed")
		}
		e.log.Debug("single-pass extraction",
			logging.Int("chars", len(text)),
			logging.Int("chains", len(chains)),
		)
		e.processChunk(parse, Chunk{Start: 0, Text: text}, chains, r)
		return r.mentions, nil
	}

	// Whole-document coreference pass.  Only the chains survive it: the
	// parse is discarded, and every chunk is re-annotated independently.
	_, chains, err := e.engine.AnnotateDocument(ctx, text)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeAnnotationFailed, "whole-document coreference pass failed")
	}
	e.log.Debug("coreference pass complete", logging.Int("chains", len(chains)))

	// Chunks are processed strictly in offset order: the stitcher's label
	// cache must observe chunk i's resolutions before chunk i+1 runs.
	start := 0
	for start < len(text) {
		end := start + e.cfg.MaxChunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			end = selectBoundary(text, end, e.cfg.BoundaryWindow)
			if end <= start {
				// Degenerate window selection; fall back to the hard cut.
				end = start + e.cfg.MaxChunkSize
			}
		}

		chunk := Chunk{Start: start, Text: text[start:end]}
		parse, err := e.engine.AnnotateChunk(ctx, chunk.Text)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeAnnotationFailed, "chunk annotation failed").
				WithDetail("chunk_start=" + strconv.Itoa(start))
		}
		e.processChunk(parse, chunk, chains, r)
		start = end
	}

	return r.mentions, nil
}

// processChunk folds one chunk's results into the run.  Chain-derived
// mentions are processed before plain entities so that on duplicate spans
// the stitched entry is the one kept.
func (e *Extractor) processChunk(parse *Parse, chunk Chunk, chains []Chain, r *run) {
	for _, chain := range chains {
		for _, m := range chain.Mentions {
			if !chunk.Contains(m.Start) {
				continue
			}
			// Offsets outside the chunk's local range (including ones the
			// coreference pass reported outside the document entirely) fail
			// alignment and are dropped silently: an accepted completeness
			// limitation, not an error.
			aligned, ok := parse.AlignExpand(chunk.toLocal(m.Start), chunk.toLocal(m.End))
			if !ok {
				continue
			}
			if r.seen(m.Start, m.End) {
				continue
			}
			label := r.stitcher.resolve(parse, chunk, chain, aligned)
			r.emit(Mention{Text: m.Text, Label: label, Start: m.Start, End: m.End})
		}
	}

	for _, ent := range parse.Entities {
		r.emit(Mention{
			Text:  ent.Text,
			Label: ent.Label,
			Start: chunk.toGlobal(ent.Start),
			End:   chunk.toGlobal(ent.End),
		})
	}
}
