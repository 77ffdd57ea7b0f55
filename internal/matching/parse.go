package matching

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// Combined "<core> C x <area> sqmm" pattern, tried first. Area-only
	// and core-only patterns run independently when it is absent.
	reCoreArea = regexp.MustCompile(`(?i)(\d+)\s*(?:C|Core)?\s*[x×]\s*(\d+)\s*(?:sqmm|mm2|mm²)?`)
	reAreaOnly = regexp.MustCompile(`(?i)(\d+)\s*(?:sqmm|mm2|mm²)`)
	reCoreOnly = regexp.MustCompile(`(?i)(\d+)\s*(?:C|Core)`)

	reToken = regexp.MustCompile(`\w+`)
)

// ParseCoreAndArea extracts core count and conductor area from a
// free-form line description, e.g. "3 Core x 185 sqmm" -> (3, 185.0).
// Either value may be nil when absent.
func ParseCoreAndArea(description string) (core *int, area *float64) {
	if description == "" {
		return nil, nil
	}

	if m := reCoreArea.FindStringSubmatch(description); m != nil {
		c, _ := strconv.Atoi(m[1])
		a, _ := strconv.ParseFloat(m[2], 64)
		return &c, &a
	}

	if m := reAreaOnly.FindStringSubmatch(description); m != nil {
		a, _ := strconv.ParseFloat(m[1], 64)
		area = &a
	}
	if m := reCoreOnly.FindStringSubmatch(description); m != nil {
		c, _ := strconv.Atoi(m[1])
		core = &c
	}
	return core, area
}

// JaccardSimilarity is the token-set Jaccard similarity between two
// strings (0..1). Tokenization is case-insensitive on word characters.
func JaccardSimilarity(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}
	inter := 0
	union := len(tb)
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter++
		} else {
			union++
		}
	}
	return float64(inter) / float64(union)
}

func tokenSet(s string) map[string]struct{} {
	tokens := reToken.FindAllString(strings.ToLower(s), -1)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
