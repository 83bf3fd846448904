package entity_extractor

import (
	"context"
	"sort"
	"strings"
	"unicode"
)

// fakeEngine is a deterministic dictionary-driven annotation engine.  It
// tokenizes on whitespace, reports every occurrence of a vocabulary phrase
// as an entity, and builds coreference chains from configured phrase lists
// (first occurrence of each phrase, representative = first mention), which
// mirrors how the real engine reports clusters over the whole document.
type fakeEngine struct {
	vocab      map[string]string // phrase → label
	chainSpecs [][]string        // each spec: ordered phrases of one chain

	docCalls   int
	chunkCalls int
	docErr     error
	chunkErr   error
	errOnCall  int // fail the Nth chunk call (1-based) when chunkErr is set
}

func (f *fakeEngine) AnnotateChunk(_ context.Context, text string) (*Parse, error) {
	f.chunkCalls++
	if f.chunkErr != nil && (f.errOnCall == 0 || f.chunkCalls == f.errOnCall) {
		return nil, f.chunkErr
	}
	return f.parse(text), nil
}

func (f *fakeEngine) AnnotateDocument(_ context.Context, text string) (*Parse, []Chain, error) {
	f.docCalls++
	if f.docErr != nil {
		return nil, nil, f.docErr
	}
	return f.parse(text), f.buildChains(text), nil
}

func (f *fakeEngine) parse(text string) *Parse {
	return &Parse{
		Text:     text,
		Entities: f.scan(text),
		Tokens:   fakeTokenize(text),
	}
}

// scan finds all non-overlapping vocabulary occurrences, longest-first on
// ties, sorted by start offset.
func (f *fakeEngine) scan(text string) []EntitySpan {
	var matches []EntitySpan
	for phrase, label := range f.vocab {
		for idx := 0; ; {
			j := strings.Index(text[idx:], phrase)
			if j < 0 {
				break
			}
			s := idx + j
			matches = append(matches, EntitySpan{Text: phrase, Label: label, Start: s, End: s + len(phrase)})
			idx = s + len(phrase)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Start != matches[j].Start {
			return matches[i].Start < matches[j].Start
		}
		if matches[i].End != matches[j].End {
			return matches[i].End > matches[j].End
		}
		return matches[i].Text < matches[j].Text
	})

	out := matches[:0]
	lastEnd := -1
	for _, m := range matches {
		if m.Start >= lastEnd {
			out = append(out, m)
			lastEnd = m.End
		}
	}
	return out
}

func (f *fakeEngine) buildChains(text string) []Chain {
	var chains []Chain
	for id, spec := range f.chainSpecs {
		var mentions []ChainMention
		for _, phrase := range spec {
			if i := strings.Index(text, phrase); i >= 0 {
				mentions = append(mentions, ChainMention{Start: i, End: i + len(phrase), Text: phrase})
			}
		}
		if len(mentions) > 0 {
			chains = append(chains, Chain{ID: id, Mentions: mentions, Representative: 0})
		}
	}
	return chains
}

func fakeTokenize(text string) []Span {
	var spans []Span
	inToken := false
	start := 0
	for i, r := range text {
		if unicode.IsSpace(r) {
			if inToken {
				spans = append(spans, Span{Start: start, End: i})
				inToken = false
			}
		} else if !inToken {
			start = i
			inToken = true
		}
	}
	if inToken {
		spans = append(spans, Span{Start: start, End: len(text)})
	}
	return spans
}
