package migration

import (
	"sort"
	"strings"
)

// categoryScoreCutoff drops weak category candidates; token overlap has to
// cover more than 30% of the longer token list.
const categoryScoreCutoff = 0.3

// MatchCategories ranks the category tree against a free-text product type
// such as "Vape / E-liquid" and returns the matching category IDs, best
// first. Returns an empty slice when nothing overlaps; that is not an error.
//
// Both the product type and each category's full path label are split on
// whitespace and slashes. A token counts as overlapping when it contains a
// category token as a substring or vice versa, which cheaply tolerates
// partial words and plurals ("Vape" vs "Vaping"). The score is the overlap
// count normalized by the longer token list.
func MatchCategories(productType string, forest []CategoryNode) []string {
	parts := splitTokens(productType)
	if len(parts) == 0 {
		return nil
	}

	type candidate struct {
		id    string
		score float64
	}
	candidates := make([]candidate, 0)

	for i := range forest {
		catParts := splitTokens(forest[i].FullPathLabel())
		if len(catParts) == 0 {
			continue
		}

		overlap := 0
		for _, part := range parts {
			for _, catPart := range catParts {
				if strings.Contains(catPart, part) || strings.Contains(part, catPart) {
					overlap++
					break
				}
			}
		}
		if overlap == 0 {
			continue
		}

		maxLen := len(parts)
		if len(catParts) > maxLen {
			maxLen = len(catParts)
		}
		score := float64(overlap) / float64(maxLen)
		if score > categoryScoreCutoff {
			candidates = append(candidates, candidate{id: forest[i].ID, score: score})
		}
	}

	// Stable keeps tree order for equal scores
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].score > candidates[j].score
	})

	ids := make([]string, len(candidates))
	for i, c := range candidates {
		ids[i] = c.id
	}
	return ids
}

// splitTokens lowercases and splits on whitespace and slashes, dropping
// empty tokens.
func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '/'
	})
}
