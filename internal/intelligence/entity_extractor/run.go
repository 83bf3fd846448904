package entity_extractor

// run carries all mutable state for a single document extraction: the chain
// label cache, the set of already-emitted offset pairs, and the accumulated
// mention list.  One run is created per Extract call and discarded at the
// end, so concurrent extractions of different documents never share state.
type run struct {
	stitcher  *stitcher
	processed map[Span]struct{}
	mentions  []Mention
}

func newRun() *run {
	return &run{
		stitcher:  newStitcher(),
		processed: make(map[Span]struct{}),
		mentions:  []Mention{},
	}
}

// seen reports whether the document-global offset pair was already emitted.
func (r *run) seen(start, end int) bool {
	_, ok := r.processed[Span{Start: start, End: end}]
	return ok
}

// emit appends the mention unless its offset pair was already emitted.
// Chain-derived mentions are always emitted before plain-entity mentions
// within a chunk, so on a duplicate span the coreference-aware entry wins
// and the plain detection is silently dropped.  The processed set only
// grows; nothing is ever removed during a run.
func (r *run) emit(m Mention) bool {
	key := Span{Start: m.Start, End: m.End}
	if _, ok := r.processed[key]; ok {
		return false
	}
	r.processed[key] = struct{}{}
	r.mentions = append(r.mentions, m)
	return true
}
