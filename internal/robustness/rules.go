package robustness

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Extraction rules are ordered, independent, first-match-wins functions
// over free text. Each rule fills exactly one attribute.

var (
	reVoltage    = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*kV\b`)
	reCoreCount  = regexp.MustCompile(`(?i)(\d+)\s*(?:core|cores)\b`)
	reConductor  = regexp.MustCompile(`(?i)\b(copper|aluminium|aluminum|cu|al)\b`)
	reInsulation = regexp.MustCompile(`(?i)\b(xlpe|pvc|paper|pe|ptfe|silicone)\b`)
	reArmoured   = regexp.MustCompile(`(?i)\b(armou?red|armour)\b`)

	reAreaMM2     = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:mm2|mm\^2|sq\.?mm)\b`)
	reAreaMM2Sign = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*mm²`)
	reAWGPrefix   = regexp.MustCompile(`(?i)\bAWG\s*(\d{1,2})\b`)
	reAWGSuffix   = regexp.MustCompile(`(?i)\b(\d{1,2})\s*AWG\b`)
)

// extractVoltageKV finds the first numeric value followed by "kV".
// Returns the parsed value and the raw captured number.
func extractVoltageKV(text string) (float64, string, bool) {
	m := reVoltage.FindStringSubmatch(text)
	if m == nil {
		return 0, "", false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, "", false
	}
	return v, m[1], true
}

// extractCoreCount finds the first integer followed by "core"/"cores".
func extractCoreCount(text string) (int, bool) {
	m := reCoreCount.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// extractConductorMaterial normalizes the first conductor keyword to
// "copper" or "aluminium".
func extractConductorMaterial(text string) (string, bool) {
	m := reConductor.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	switch strings.ToLower(m[1]) {
	case "cu", "copper":
		return "copper", true
	case "al", "aluminium", "aluminum":
		return "aluminium", true
	default:
		return strings.ToLower(m[1]), true
	}
}

// extractInsulationMaterial finds the first insulation keyword, lower-cased.
func extractInsulationMaterial(text string) (string, bool) {
	m := reInsulation.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return strings.ToLower(m[1]), true
}

// extractArmoured reports whether the text mentions armouring. Absence of
// a match leaves the field unset, not false.
func extractArmoured(text string) bool {
	return reArmoured.MatchString(text)
}

// areaUnit tags a unitMatch as a direct mm² value or an AWG gauge.
type areaUnit string

const (
	unitMM2 areaUnit = "mm2"
	unitAWG areaUnit = "AWG"
)

// unitMatch is one numeric-plus-unit hit in free text.
type unitMatch struct {
	value float64 // mm² value, or the AWG gauge number
	unit  areaUnit
	pos   int // byte offset, for document-order selection
}

// extractAreaUnits scans text for area patterns (mm² variants and AWG)
// and returns all hits sorted by position, so the caller can take the
// first match in document order.
func extractAreaUnits(text string) []unitMatch {
	if text == "" {
		return nil
	}
	var matches []unitMatch

	for _, re := range []*regexp.Regexp{reAreaMM2, reAreaMM2Sign} {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			v, err := strconv.ParseFloat(text[loc[2]:loc[3]], 64)
			if err != nil {
				continue
			}
			matches = append(matches, unitMatch{value: v, unit: unitMM2, pos: loc[0]})
		}
	}
	for _, re := range []*regexp.Regexp{reAWGPrefix, reAWGSuffix} {
		for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
			n, err := strconv.Atoi(text[loc[2]:loc[3]])
			if err != nil {
				continue
			}
			matches = append(matches, unitMatch{value: float64(n), unit: unitAWG, pos: loc[0]})
		}
	}

	sort.SliceStable(matches, func(i, j int) bool { return matches[i].pos < matches[j].pos })
	return matches
}

// formatNumber renders a float the shortest way (185 not 185.000000).
func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
