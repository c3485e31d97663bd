package migration

import (
	"strings"
	"unicode"
)

// directAttributeMap maps well-known Shopify field names straight to Magento
// attribute codes, bypassing fuzzy scoring. A direct hit is only taken when
// the catalog actually contains the target code.
var directAttributeMap = map[string]string{
	"title":        "name",
	"body_html":    "description",
	"description":  "description",
	"vendor":       "manufacturer",
	"brand":        "brand",
	"manufacturer": "manufacturer",
	"color":        "color",
	"colour":       "color",
	"size":         "size",
	"flavor":       "flavour",
	"flavour":      "flavour",
	"sku":          "sku",
	"barcode":      "ean",
	"tags":         "meta_keyword",
}

// Matcher-level scoring constants. The bonus rewards an attribute whose option
// list contains something close to the source value; the cutoffs keep weak
// guesses from surfacing as mappings.
const (
	attributeScoreCutoff = 0.4
	optionEvidenceBonus  = 0.3
	optionEvidenceSim    = 0.8
	optionValueCutoff    = 0.6
)

// AttributeMatch is the result of matching one source field against the
// catalog. Empty fields mean no acceptable match was found.
type AttributeMatch struct {
	// TargetCode is the matched attribute code
	TargetCode string
	// TargetValue is the resolved value: an option value for enumerated
	// attributes, the source value unchanged for free-text ones
	TargetValue string
}

// MatchAttribute proposes a target attribute and value for one source field.
//
// Resolution order: the direct mapping table first (exact source name hit and
// the code exists in the catalog), then fuzzy scoring of every attribute by
// name-vs-code and name-vs-label similarity. The best fuzzy score must exceed
// the cutoff or no attribute is selected. Ties are broken by catalog order,
// first seen wins.
func MatchAttribute(sourceName, sourceValue string, catalog []AttributeDef) AttributeMatch {
	if code, ok := directAttributeMap[strings.ToLower(sourceName)]; ok {
		if def := findDef(catalog, code); def != nil {
			return AttributeMatch{
				TargetCode:  def.Code,
				TargetValue: resolveValue(sourceValue, def),
			}
		}
	}

	normName := normalizeToken(sourceName)
	var best *AttributeDef
	bestScore := 0.0
	for i := range catalog {
		def := &catalog[i]
		score := Similarity(normName, normalizeToken(def.Code))
		if labelScore := Similarity(normName, normalizeToken(def.Label)); labelScore > score {
			score = labelScore
		}
		if sourceValue != "" && hasCloseOption(sourceValue, def.Options) {
			score += optionEvidenceBonus
		}
		if score > bestScore {
			bestScore = score
			best = def
		}
	}

	if best == nil || bestScore <= attributeScoreCutoff {
		return AttributeMatch{}
	}
	return AttributeMatch{
		TargetCode:  best.Code,
		TargetValue: resolveValue(sourceValue, best),
	}
}

// MatchOptionValue resolves a raw source value against an option list and
// returns the value of the closest option by label similarity, or "" when
// nothing clears the cutoff. Used during initial matching and again when the
// operator re-targets a mapping at a different attribute.
func MatchOptionValue(value string, options []AttributeOption) string {
	if value == "" {
		return ""
	}
	bestValue := ""
	bestScore := 0.0
	for _, opt := range options {
		if score := Similarity(value, opt.Label); score > bestScore {
			bestScore = score
			bestValue = opt.Value
		}
	}
	if bestScore <= optionValueCutoff {
		return ""
	}
	return bestValue
}

// resolveValue picks the value side of a match: option resolution for
// enumerated attributes, pass-through for free text.
func resolveValue(sourceValue string, def *AttributeDef) string {
	if def.HasOptions() {
		return MatchOptionValue(sourceValue, def.Options)
	}
	return sourceValue
}

// hasCloseOption reports whether any option label is near-identical to the
// source value.
func hasCloseOption(value string, options []AttributeOption) bool {
	for _, opt := range options {
		if Similarity(value, opt.Label) > optionEvidenceSim {
			return true
		}
	}
	return false
}

// findDef returns the catalog entry with the given code, or nil
func findDef(catalog []AttributeDef, code string) *AttributeDef {
	for i := range catalog {
		if catalog[i].Code == code {
			return &catalog[i]
		}
	}
	return nil
}

// normalizeToken lowercases and strips everything that is not a letter or a
// digit, so "Body HTML" and "body_html" compare equal.
func normalizeToken(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
