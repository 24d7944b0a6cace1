package sentence

import "regexp"

// boundaryPunct are the sentence-terminating characters (ASCII and
// full-width) the splitter fires on (spec §4.7).
const boundaryPunct = `.?!:;。？！：；`

var boundaryRe = regexp.MustCompile(`[` + boundaryPunct + `]`)

// abbreviation matches text immediately preceding a `.` that must NOT be
// treated as a sentence boundary: uppercase-letter abbreviations like
// "U.S.A", digit groups like "1" or "3.2", and common titles.
var abbreviationRe = regexp.MustCompile(`(?i)(^|[\s(])(` +
	`[A-Z](\.[A-Z])*` + // U, U.S, U.S.A
	`|[0-9]+(\.[0-9]+)*` + // 1, 3.2
	`|Mr|Mrs|Ms|Dr|Prof` +
	`|[ap]\.?m` + // a.m, p.m, am, pm (before the final dot we're testing)
	`)$`)

// FindBoundary scans text for the first sentence-terminating punctuation
// mark that is not part of a protected abbreviation, returning its index
// (the rune offset of the punctuation itself) or -1 if none is found.
func FindBoundary(text string) int {
	runes := []rune(text)
	for i, r := range runes {
		if !isBoundaryRune(r) {
			continue
		}
		if r == '.' && isAbbreviation(runes[:i]) {
			continue
		}
		return i
	}
	return -1
}

func isBoundaryRune(r rune) bool {
	for _, b := range boundaryPunct {
		if r == b {
			return true
		}
	}
	return false
}

// isAbbreviation reports whether the text immediately preceding a '.' ends
// in a protected abbreviation pattern (spec §4.7: uppercase-letter
// abbreviations, digit groups, titles, a.m./p.m.).
func isAbbreviation(before []rune) bool {
	return abbreviationRe.MatchString(string(before))
}
