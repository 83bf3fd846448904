package entity_extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stitchFixture builds a chunk/parse pair over a small text where
// "John Smith" is a recognized PERSON and "He" is not an entity.
func stitchFixture() (*Parse, Chunk, Chain) {
	text := "John Smith works at Google. He is a software engineer."
	parse := &Parse{
		Text: text,
		Entities: []EntitySpan{
			{Text: "John Smith", Label: "PERSON", Start: 0, End: 10},
			{Text: "Google", Label: "ORG", Start: 20, End: 26},
		},
		Tokens: fakeTokenize(text),
	}
	chain := Chain{
		ID: 7,
		Mentions: []ChainMention{
			{Start: 0, End: 10, Text: "John Smith"},
			{Start: 28, End: 30, Text: "He"},
		},
		Representative: 0,
	}
	return parse, Chunk{Start: 0, Text: text}, chain
}

func mustAlign(t *testing.T, p *Parse, c Chunk, m ChainMention) Span {
	t.Helper()
	span, ok := p.AlignExpand(c.toLocal(m.Start), c.toLocal(m.End))
	require.True(t, ok)
	return span
}

func TestResolveFromOwnSpanCachesLabel(t *testing.T) {
	parse, chunk, chain := stitchFixture()
	s := newStitcher()

	label := s.resolve(parse, chunk, chain, mustAlign(t, parse, chunk, chain.Mentions[0]))
	assert.Equal(t, "PERSON", label)
	assert.Equal(t, "PERSON", s.labels[chain.ID], "own-span resolution must cache")
}

func TestResolveFromCacheWins(t *testing.T) {
	parse, chunk, chain := stitchFixture()
	s := newStitcher()
	s.labels[chain.ID] = "ORG" // deliberately different from the span evidence

	label := s.resolve(parse, chunk, chain, mustAlign(t, parse, chunk, chain.Mentions[0]))
	assert.Equal(t, "ORG", label, "cached label must win over local evidence")
}

func TestResolveFromRepresentative(t *testing.T) {
	parse, chunk, chain := stitchFixture()
	s := newStitcher()

	// "He" is not itself an entity; the representative "John Smith" is.
	label := s.resolve(parse, chunk, chain, mustAlign(t, parse, chunk, chain.Mentions[1]))
	assert.Equal(t, "PERSON", label)
	assert.Equal(t, "PERSON", s.labels[chain.ID])
}

func TestResolveSentinelNotCached(t *testing.T) {
	text := "He said it would ship next month."
	parse := &Parse{Text: text, Tokens: fakeTokenize(text)}
	chunk := Chunk{Start: 0, Text: text}
	// The representative lives in a different chunk entirely.
	chain := Chain{
		ID: 3,
		Mentions: []ChainMention{
			{Start: 500, End: 506, Text: "Amazon"},
			{Start: 0, End: 2, Text: "He"},
		},
		Representative: 0,
	}
	s := newStitcher()

	label := s.resolve(parse, chunk, chain, mustAlign(t, parse, chunk, chain.Mentions[1]))
	assert.Equal(t, SentinelLabel, label)
	_, cached := s.labels[chain.ID]
	assert.False(t, cached, "sentinel label must stay open to later correction")
}

func TestResolveRepresentativeOutsideChunkFallsThrough(t *testing.T) {
	parse, _, chain := stitchFixture()
	// Shift the chunk so only "He" is inside it.
	chunk := Chunk{Start: 28, Text: parse.Text[28:]}
	chunkParse := &Parse{Text: chunk.Text, Tokens: fakeTokenize(chunk.Text)}
	s := newStitcher()

	label := s.resolve(chunkParse, chunk, chain, mustAlign(t, chunkParse, chunk, chain.Mentions[1]))
	assert.Equal(t, SentinelLabel, label)
}

func TestResolutionOrderIsCacheOwnSpanRepresentative(t *testing.T) {
	names := make([]string, 0, len(resolutionOrder))
	for _, s := range resolutionOrder {
		names = append(names, s.name)
	}
	assert.Equal(t, []string{"cached", "own-span", "representative"}, names)

	// The cache-lookup step must never re-cache; the others must.
	assert.False(t, resolutionOrder[0].cacheResult)
	assert.True(t, resolutionOrder[1].cacheResult)
	assert.True(t, resolutionOrder[2].cacheResult)
}

func TestRunEmitDeduplicates(t *testing.T) {
	r := newRun()

	assert.True(t, r.emit(Mention{Text: "Apple Inc.", Label: "ORG", Start: 0, End: 10}))
	assert.False(t, r.emit(Mention{Text: "Apple", Label: "ORG", Start: 0, End: 10}),
		"identical offset pair must be dropped")
	assert.True(t, r.emit(Mention{Text: "Apple", Label: "ORG", Start: 0, End: 5}))

	require.Len(t, r.mentions, 2)
	assert.Equal(t, "Apple Inc.", r.mentions[0].Text, "first write wins")
	assert.True(t, r.seen(0, 10))
	assert.False(t, r.seen(10, 20))
}
