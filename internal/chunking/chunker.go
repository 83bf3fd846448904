// Package chunking splits patent documents into section-aware chunks sized
// for downstream consumers (prompt building, display, export).  Claims are
// split per claim so claim numbers survive in chunk metadata; prose sections
// go through a sentence-respecting size/overlap splitter.
package chunking

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
	tiktoken_loader "github.com/pkoukk/tiktoken-go-loader"

	"github.com/Qubut/IP-Claim/internal/config"
	"github.com/Qubut/IP-Claim/internal/domain/patent"
	"github.com/Qubut/IP-Claim/pkg/errors"
)

func init() {
	// Use the embedded BPE dictionaries so token counting never needs the
	// network.
	tiktoken.SetBpeLoader(tiktoken_loader.NewOfflineLoader())
}

// Section names used in chunk metadata.
const (
	SectionAbstract        = "abstract"
	SectionClaims          = "claims"
	SectionBackground      = "background"
	SectionSummary         = "summary"
	SectionFullDescription = "full_description"
)

// Length modes.
const (
	LengthModeChars  = "chars"
	LengthModeTokens = "tokens"
)

const (
	defaultMaxChars      = 1000
	defaultMaxTokens     = 256
	defaultOverlap       = 200
	defaultTokenEncoding = "cl100k_base"
)

// claimPattern matches a claim number at the start of a claim ("12. ").
var claimPattern = regexp.MustCompile(`(\d+)\.\s`)

// SectionChunk is one chunk of a patent section.  ClaimNumber is zero for
// chunks that do not start a numbered claim.
type SectionChunk struct {
	Text        string `json:"text"`
	Section     string `json:"section"`
	Index       int    `json:"chunk_index"`
	Total       int    `json:"total_chunks"`
	ClaimNumber int    `json:"claim_number,omitempty"`
}

// PatentChunker splits patent applications section by section.
type PatentChunker struct {
	maxLen  int
	overlap int
	length  func(string) int
}

// NewPatentChunker builds a chunker from configuration.  LengthMode "tokens"
// measures chunk sizes with the configured tiktoken encoding; anything else
// measures runes.
func NewPatentChunker(cfg config.ChunkerConfig) (*PatentChunker, error) {
	c := &PatentChunker{}

	switch cfg.LengthMode {
	case LengthModeTokens:
		encoding := cfg.TokenEncoding
		if encoding == "" {
			encoding = defaultTokenEncoding
		}
		tk, err := tiktoken.GetEncoding(encoding)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeBadRequest,
				"unknown token encoding "+encoding)
		}
		c.length = func(s string) int { return len(tk.Encode(s, nil, nil)) }
		c.maxLen = cfg.MaxTokens
		if c.maxLen <= 0 {
			c.maxLen = defaultMaxTokens
		}
	case LengthModeChars, "":
		c.length = utf8.RuneCountInString
		c.maxLen = cfg.MaxChars
		if c.maxLen <= 0 {
			c.maxLen = defaultMaxChars
		}
	default:
		return nil, errors.Newf(errors.ErrCodeBadRequest,
			"unknown length mode %q", cfg.LengthMode)
	}

	c.overlap = cfg.Overlap
	if c.overlap < 0 {
		c.overlap = 0
	}
	if c.overlap == 0 && cfg.LengthMode != LengthModeTokens {
		c.overlap = defaultOverlap
		if c.overlap >= c.maxLen {
			c.overlap = c.maxLen / 5
		}
	}
	if c.overlap >= c.maxLen {
		return nil, errors.Newf(errors.ErrCodeBadRequest,
			"overlap %d must be smaller than the chunk size %d", c.overlap, c.maxLen)
	}
	return c, nil
}

// ChunkApplication splits every non-empty content section of the application.
func (c *PatentChunker) ChunkApplication(app *patent.Application) []SectionChunk {
	sections := []struct {
		name string
		text string
	}{
		{SectionAbstract, app.Content.Abstract},
		{SectionClaims, app.Content.Claims},
		{SectionBackground, app.Content.Background},
		{SectionSummary, app.Content.Summary},
		{SectionFullDescription, app.Content.FullDescription},
	}

	var chunks []SectionChunk
	for _, s := range sections {
		if strings.TrimSpace(s.text) == "" {
			continue
		}
		chunks = append(chunks, c.ChunkSection(s.name, s.text)...)
	}
	return chunks
}

// ChunkSection splits one named section.  The claims section splits per
// claim; every other section goes through the size/overlap splitter.
func (c *PatentChunker) ChunkSection(name, text string) []SectionChunk {
	var parts []string
	var claimNumbers []int
	if name == SectionClaims {
		parts, claimNumbers = splitClaims(text)
	} else {
		parts = c.splitText(text)
	}

	chunks := make([]SectionChunk, 0, len(parts))
	for i, part := range parts {
		chunk := SectionChunk{
			Text:    part,
			Section: name,
			Index:   i,
			Total:   len(parts),
		}
		if claimNumbers != nil {
			chunk.ClaimNumber = claimNumbers[i]
		}
		chunks = append(chunks, chunk)
	}
	return chunks
}

// splitClaims cuts a claims section at claim numbers, keeping each number
// with its claim body.  Preamble text before the first claim becomes its own
// unnumbered chunk.  Text with no recognizable claim numbers is returned
// unsplit.
func splitClaims(text string) ([]string, []int) {
	matches := claimPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		trimmed := strings.TrimSpace(text)
		if trimmed == "" {
			return nil, nil
		}
		return []string{trimmed}, []int{0}
	}

	var parts []string
	var numbers []int

	if pre := strings.TrimSpace(text[:matches[0][0]]); pre != "" {
		parts = append(parts, pre)
		numbers = append(numbers, 0)
	}

	for i, m := range matches {
		end := len(text)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		body := strings.TrimSpace(text[m[0]:end])
		if body == "" {
			continue
		}
		number := 0
		if n, err := parseClaimNumber(text[m[2]:m[3]]); err == nil {
			number = n
		}
		parts = append(parts, body)
		numbers = append(numbers, number)
	}
	return parts, numbers
}

func parseClaimNumber(digits string) (int, error) {
	n := 0
	for _, r := range digits {
		if r < '0' || r > '9' {
			return 0, errors.New(errors.ErrCodeBadRequest, "not a claim number")
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// splitText accumulates sentences into chunks no longer than maxLen, carrying
// the trailing sentences that fit in the overlap budget into the next chunk.
// A single sentence longer than maxLen becomes its own oversized chunk rather
// than being cut mid-word.
func (c *PatentChunker) splitText(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if c.length(text) <= c.maxLen {
		return []string{text}
	}

	sentences := splitSentences(text)

	var chunks []string
	var current []string
	currentLen := 0

	flush := func() {
		chunk := strings.TrimSpace(strings.Join(current, ""))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
	}

	for _, sentence := range sentences {
		sLen := c.length(sentence)
		if currentLen > 0 && currentLen+sLen > c.maxLen {
			flush()
			current, currentLen = c.overlapTail(current)
		}
		current = append(current, sentence)
		currentLen += sLen
	}
	flush()
	return chunks
}

// overlapTail returns the longest suffix of sentences whose combined length
// stays within the overlap budget, plus that length.
func (c *PatentChunker) overlapTail(sentences []string) ([]string, int) {
	if c.overlap == 0 {
		return nil, 0
	}
	total := 0
	start := len(sentences)
	for start > 0 {
		l := c.length(sentences[start-1])
		if total+l > c.overlap {
			break
		}
		total += l
		start--
	}
	tail := make([]string, len(sentences)-start)
	copy(tail, sentences[start:])
	return tail, total
}

// splitSentences cuts at sentence punctuation and paragraph breaks, keeping
// the delimiter with the preceding sentence.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '?', '!':
			out = append(out, text[start:i+1])
			start = i + 1
		case '\n':
			if i+1 < len(text) && text[i+1] == '\n' {
				if start < i+2 {
					out = append(out, text[start:i+2])
				}
				start = i + 2
				i++
			}
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}
