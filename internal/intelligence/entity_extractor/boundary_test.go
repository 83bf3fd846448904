package entity_extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectBoundary(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		searchEnd int
		window    int
		want      int
	}{
		{
			name:      "cuts after rightmost period",
			text:      "First sentence. Second sentence. Trailing words here",
			searchEnd: 40,
			window:    40,
			want:      32, // one past the period at index 31
		},
		{
			name:      "question mark counts",
			text:      "Is this a claim? The method comprises",
			searchEnd: 30,
			window:    30,
			want:      16,
		},
		{
			name:      "paragraph break counts",
			text:      "heading\n\nbody text continues for a while",
			searchEnd: 20,
			window:    20,
			want:      8, // cut between the two newlines
		},
		{
			name:      "no delimiter in window falls back to hard cut",
			text:      strings.Repeat("x", 100),
			searchEnd: 50,
			window:    20,
			want:      50,
		},
		{
			name:      "delimiter outside window is ignored",
			text:      "End. " + strings.Repeat("y", 100),
			searchEnd: 80,
			window:    20,
			want:      80,
		},
		{
			name:      "searchEnd past text length is clamped",
			text:      "Short. Text",
			searchEnd: 500,
			window:    500,
			want:      6,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, selectBoundary(tt.text, tt.searchEnd, tt.window))
		})
	}
}

func TestSelectBoundaryDeterministic(t *testing.T) {
	text := "NASA was established in 1958. " + strings.Repeat("More text follows. ", 20)
	first := selectBoundary(text, 200, 50)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, selectBoundary(text, 200, 50))
	}
}

func TestSelectBoundaryPrefersRightmostMarker(t *testing.T) {
	text := "One. Two! Three? Four"
	// All three markers fall inside the window; the rightmost one wins.
	assert.Equal(t, 16, selectBoundary(text, 21, 21))
}
