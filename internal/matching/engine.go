// Package matching ranks catalog products against requested line items
// using a composite similarity score.
package matching

import (
	"fmt"
	"math"
	"sort"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/errors"
)

// Component weights. Weights are renormalized over the components
// actually present on both sides, so a line lacking area data is scored
// on core count and description alone, still scaled to 0-100.
const (
	weightCore = 30.0
	weightArea = 30.0
	weightDesc = 20.0

	// Score multiplier for candidates reached through the full-catalog
	// fallback whose category differs from the line's.
	crossCategoryPenalty = 0.5

	topCandidates = 3
)

// Engine matches line items against a product catalog. The catalog is
// loaded once and shared read-only across calls.
type Engine struct {
	catalog    []api.CatalogProduct
	byCategory map[string][]api.CatalogProduct
}

// NewEngine creates a matching engine over the given catalog.
func NewEngine(catalog *api.Catalog) *Engine {
	e := &Engine{
		byCategory: make(map[string][]api.CatalogProduct),
	}
	if catalog != nil {
		e.catalog = catalog.Products
		for _, p := range catalog.Products {
			cat := p.Category
			if cat == "" {
				cat = "unknown"
			}
			e.byCategory[cat] = append(e.byCategory[cat], p)
		}
	}
	return e
}

// Match scores the catalog against every scope line and returns up to
// three ranked candidates per line plus a best SKU. A scope line without
// a line_id is a caller contract violation and fails loudly.
func (e *Engine) Match(rfpID string, scope []api.LineItem) (*api.MatchResult, error) {
	result := &api.MatchResult{
		RFPID:           rfpID,
		Recommendations: make([]api.Recommendation, 0, len(scope)),
	}

	for i := range scope {
		line := &scope[i]
		if line.LineID == "" {
			return nil, errors.NewInvalidInputError(fmt.Sprintf("scope line %d has no line_id", i))
		}
		result.Recommendations = append(result.Recommendations, e.matchLine(line))
	}
	return result, nil
}

type scoredCandidate struct {
	product api.CatalogProduct
	score   float64
}

func (e *Engine) matchLine(line *api.LineItem) api.Recommendation {
	lineCore, lineArea := ParseCoreAndArea(line.Description)

	// Filter by category; an empty bucket falls back to the whole
	// catalog with cross-category scores halved.
	candidates := e.byCategory[line.Category]
	if len(candidates) == 0 {
		candidates = e.catalog
	}

	scored := make([]scoredCandidate, 0, len(candidates))
	for _, prod := range candidates {
		score := scoreCandidate(line.Description, lineCore, lineArea, prod)
		if prod.Category != line.Category {
			score *= crossCategoryPenalty
		}
		scored = append(scored, scoredCandidate{product: prod, score: score})
	}

	// Descending by score; equal scores order by SKU ascending so the
	// ranking is deterministic regardless of catalog order.
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].score != scored[j].score {
			return scored[i].score > scored[j].score
		}
		return scored[i].product.SKU < scored[j].product.SKU
	})

	if len(scored) > topCandidates {
		scored = scored[:topCandidates]
	}

	matches := make([]api.TopMatch, 0, len(scored))
	for _, sc := range scored {
		matches = append(matches, api.TopMatch{
			SKU:       sc.product.SKU,
			OEM:       sc.product.OEM,
			Score:     round2(sc.score),
			CoreCount: sc.product.CoreCount,
			AreaSqmm:  sc.product.AreaSqmm,
		})
	}

	var best *string
	if len(scored) > 0 && scored[0].score > 0 {
		sku := scored[0].product.SKU
		best = &sku
	}

	return api.Recommendation{
		LineID:             line.LineID,
		Description:        line.Description,
		Category:           line.Category,
		RequestedCoreCount: lineCore,
		RequestedAreaSqmm:  lineArea,
		TopMatches:         matches,
		BestSKU:            best,
	}
}

// scoreCandidate computes the composite 0-100 score for one product
// against one line. Each component is included only when both sides
// carry the relevant data; with no applicable component the score is 0.
func scoreCandidate(lineDesc string, lineCore *int, lineArea *float64, prod api.CatalogProduct) float64 {
	var totalWeight, score float64

	if lineCore != nil && prod.CoreCount != nil {
		totalWeight += weightCore
		diff := math.Abs(float64(*lineCore - *prod.CoreCount))
		score += math.Exp(-0.8*diff) * weightCore
	}

	if lineArea != nil && prod.AreaSqmm != nil && *prod.AreaSqmm > 0 {
		totalWeight += weightArea
		relErr := math.Abs(*lineArea-*prod.AreaSqmm) / math.Max(*lineArea, *prod.AreaSqmm)
		score += math.Exp(-3.0*relErr) * weightArea
	}

	prodDesc := prod.Description
	if prodDesc == "" {
		prodDesc = prod.Title
	}
	if prodDesc != "" {
		totalWeight += weightDesc
		score += JaccardSimilarity(lineDesc, prodDesc) * weightDesc
	}

	if totalWeight <= 0 {
		return 0
	}
	return round2(score / totalWeight * 100)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
