package entity_extractor

import (
	"context"
	"sort"
)

// EntitySpan is an entity mention as reported by the annotation engine, with
// offsets local to the text that was annotated.
type EntitySpan struct {
	Text  string
	Label string
	Start int
	End   int
}

// Parse is the engine's view of one annotated text: the recognized entity
// mentions plus the token boundaries needed for expand alignment.  Offsets
// are local to the parsed text; translating them to document coordinates is
// the pipeline's job, never the engine's.
type Parse struct {
	Text     string
	Entities []EntitySpan
	Tokens   []Span
}

// Engine is the annotation capability the pipeline depends on.  Engine
// implementations (a remote model server, a mock for tests) are
// interchangeable without changing the stitching logic.
//
// The engine resource is treated as stateless per call; the pipeline issues
// calls strictly sequentially, so implementations need no synchronization
// for this caller.
type Engine interface {
	// AnnotateChunk annotates one chunk of text and returns its entity
	// mentions and token boundaries.
	AnnotateChunk(ctx context.Context, text string) (*Parse, error)

	// AnnotateDocument annotates the whole document, additionally requesting
	// coreference resolution.  Chain mention offsets are local to text,
	// which for a whole-document call makes them document-global.
	AnnotateDocument(ctx context.Context, text string) (*Parse, []Chain, error)
}

// AlignExpand resolves the half-open character range [start, end) to the
// nearest enclosing token boundaries: the returned span covers every token
// that overlaps the requested range.  It returns false when the range is
// empty, out of bounds, or overlaps no token. A mention that straddles
// tokenization is widened instead of dropped.
func (p *Parse) AlignExpand(start, end int) (Span, bool) {
	if start < 0 || end > len(p.Text) || start >= end || len(p.Tokens) == 0 {
		return Span{}, false
	}

	// Tokens are sorted by start offset; find the first token ending after
	// start, then extend over every token beginning before end.
	i := sort.Search(len(p.Tokens), func(i int) bool { return p.Tokens[i].End > start })
	if i == len(p.Tokens) || p.Tokens[i].Start >= end {
		return Span{}, false
	}
	aligned := Span{Start: p.Tokens[i].Start, End: p.Tokens[i].End}
	for j := i + 1; j < len(p.Tokens) && p.Tokens[j].Start < end; j++ {
		aligned.End = p.Tokens[j].End
	}
	return aligned, true
}

// LabelAt returns the label of the first entity mention fully contained in
// span, in reading order.  It returns false when the span covers no entity.
func (p *Parse) LabelAt(span Span) (string, bool) {
	for _, ent := range p.Entities {
		if ent.Start >= span.Start && ent.End <= span.End {
			return ent.Label, true
		}
	}
	return "", false
}
