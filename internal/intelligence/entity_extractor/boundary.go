package entity_extractor

import "strings"

// boundaryMarkers are searched backward from a tentative chunk end.  A
// paragraph break counts as a boundary alongside sentence punctuation so
// that section breaks in patent text are preferred cut points.
var boundaryMarkers = []string{".", "?", "!", "\n\n"}

// selectBoundary returns the end offset for a chunk that would otherwise be
// hard-cut at searchEnd.  It scans [searchEnd-window, searchEnd) for the
// rightmost sentence-ending delimiter or paragraph break and, when one is
// found at position p, ends the chunk at p+1 so the delimiter stays with the
// chunk.  When no delimiter exists in the window the original searchEnd is
// returned, accepting that a mention may be split.
//
// The result is deterministic for identical inputs.
func selectBoundary(text string, searchEnd, window int) int {
	if searchEnd > len(text) {
		searchEnd = len(text)
	}
	lo := searchEnd - window
	if lo < 0 {
		lo = 0
	}
	region := text[lo:searchEnd]

	boundary := -1
	for _, marker := range boundaryMarkers {
		if i := strings.LastIndex(region, marker); i >= 0 && lo+i > boundary {
			boundary = lo + i
		}
	}
	if boundary > 0 {
		return boundary + 1
	}
	return searchEnd
}
