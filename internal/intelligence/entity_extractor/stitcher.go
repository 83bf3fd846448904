package entity_extractor

// SentinelLabel marks a coreference mention whose entity type could not be
// determined from any chunk processed so far.  Sentinel assignments are
// never cached, so a later chunk can still resolve the real label from a
// different mention of the same chain.
const SentinelLabel = "CORE"

// labelQuery is everything a strategy may consult when resolving the label
// of one chain mention: the current chunk's parse, the chunk itself, the
// owning chain, and the mention's span already expand-aligned against the
// chunk parse.
type labelQuery struct {
	parse   *Parse
	chunk   Chunk
	chain   Chain
	aligned Span
}

// labelStrategy is one step of the resolution order.  cacheResult controls
// whether a successful label is recorded for the whole chain; the sentinel
// fallback deliberately is not a strategy so that it never caches.
type labelStrategy struct {
	name        string
	cacheResult bool
	resolve     func(s *stitcher, q labelQuery) (string, bool)
}

// resolutionOrder is evaluated top-down, first match wins.  It privileges
// locally-observed evidence over chain-wide inference: a label seen for this
// very span beats one inferred from the chain representative.
var resolutionOrder = []labelStrategy{
	{
		name: "cached",
		resolve: func(s *stitcher, q labelQuery) (string, bool) {
			label, ok := s.labels[q.chain.ID]
			return label, ok
		},
	},
	{
		name:        "own-span",
		cacheResult: true,
		resolve: func(_ *stitcher, q labelQuery) (string, bool) {
			return q.parse.LabelAt(q.aligned)
		},
	},
	{
		name:        "representative",
		cacheResult: true,
		resolve: func(_ *stitcher, q labelQuery) (string, bool) {
			rep, ok := q.chain.RepresentativeMention()
			if !ok || !q.chunk.Contains(rep.Start) {
				return "", false
			}
			span, ok := q.parse.AlignExpand(q.chunk.toLocal(rep.Start), q.chunk.toLocal(rep.End))
			if !ok {
				return "", false
			}
			return q.parse.LabelAt(span)
		},
	},
}

// stitcher maintains chain-scoped label assignment across chunks.  A chain's
// label, once cached, never changes: every subsequently processed mention of
// the chain receives the identical label string regardless of which chunk it
// appears in.
type stitcher struct {
	labels map[int]string
}

func newStitcher() *stitcher {
	return &stitcher{labels: make(map[int]string)}
}

// resolve determines the label of one chain mention.  aligned must already
// be expand-aligned against the current chunk's parse.
func (s *stitcher) resolve(parse *Parse, chunk Chunk, chain Chain, aligned Span) string {
	q := labelQuery{parse: parse, chunk: chunk, chain: chain, aligned: aligned}
	for _, strat := range resolutionOrder {
		label, ok := strat.resolve(s, q)
		if !ok {
			continue
		}
		if strat.cacheResult {
			s.labels[chain.ID] = label
		}
		return label
	}
	return SentinelLabel
}
