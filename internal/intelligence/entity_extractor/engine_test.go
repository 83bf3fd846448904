package entity_extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func newTestParse() *Parse {
	text := "Apple Inc. is an American company."
	return &Parse{
		Text: text,
		Entities: []EntitySpan{
			{Text: "Apple Inc.", Label: "ORG", Start: 0, End: 10},
			{Text: "American", Label: "NORP", Start: 17, End: 25},
		},
		Tokens: fakeTokenize(text),
	}
}

func TestAlignExpand(t *testing.T) {
	p := newTestParse()

	tests := []struct {
		name       string
		start, end int
		want       Span
		ok         bool
	}{
		{"exact token", 0, 5, Span{0, 5}, true},
		{"exact multi-token", 0, 10, Span{0, 10}, true},
		{"partial overlap expands", 2, 8, Span{0, 10}, true},
		{"mid-token expands to token", 18, 20, Span{17, 25}, true},
		{"empty range", 3, 3, Span{}, false},
		{"inverted range", 8, 2, Span{}, false},
		{"negative start", -1, 4, Span{}, false},
		{"end past text", 0, 1000, Span{}, false},
		{"whitespace only", 5, 6, Span{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := p.AlignExpand(tt.start, tt.end)
			assert.Equal(t, tt.ok, ok)
			if ok {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestAlignExpandNoTokens(t *testing.T) {
	p := &Parse{Text: "abc"}
	_, ok := p.AlignExpand(0, 3)
	assert.False(t, ok)
}

func TestLabelAt(t *testing.T) {
	p := newTestParse()

	label, ok := p.LabelAt(Span{0, 10})
	assert.True(t, ok)
	assert.Equal(t, "ORG", label)

	// A wider span returns the first contained entity in reading order.
	label, ok = p.LabelAt(Span{0, 25})
	assert.True(t, ok)
	assert.Equal(t, "ORG", label)

	// A span containing no whole entity yields nothing.
	_, ok = p.LabelAt(Span{11, 16})
	assert.False(t, ok)

	// Partial containment does not count.
	_, ok = p.LabelAt(Span{0, 5})
	assert.False(t, ok)
}

func TestChunkContains(t *testing.T) {
	c := Chunk{Start: 100, Text: "0123456789"}

	assert.True(t, c.Contains(100))
	assert.True(t, c.Contains(109))
	assert.False(t, c.Contains(110), "end offset is exclusive")
	assert.False(t, c.Contains(99))
	assert.Equal(t, 110, c.End())
	assert.Equal(t, 5, c.toLocal(105))
	assert.Equal(t, 105, c.toGlobal(5))
}

func TestChainRepresentativeMention(t *testing.T) {
	chain := Chain{
		ID: 1,
		Mentions: []ChainMention{
			{Start: 0, End: 10, Text: "John Smith"},
			{Start: 28, End: 30, Text: "He"},
		},
		Representative: 0,
	}
	rep, ok := chain.RepresentativeMention()
	assert.True(t, ok)
	assert.Equal(t, "John Smith", rep.Text)

	chain.Representative = 5
	_, ok = chain.RepresentativeMention()
	assert.False(t, ok)

	_, ok = Chain{}.RepresentativeMention()
	assert.False(t, ok)
}
