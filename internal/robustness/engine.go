// Package robustness validates line-item technical attributes and repairs
// gaps from free text using fixed extraction rules.
package robustness

import (
	"fmt"
	"sort"
	"strings"

	"github.com/BigO-Debbuger/RFP-IGNITE/pkg/api"
)

// requiredFields are the attributes every line must carry, beyond the
// area requirement satisfied by area_sqmm, awg, or a free-text area.
var requiredFields = []string{
	"voltage_kV",
	"core_count",
	"conductor_material",
	"insulation_material",
	"armoured",
}

const areaField = "area_sqmm_or_awg"

// Engine runs robustness checks over a case's line items.
type Engine struct {
	// textOf gathers an item's free-text fields for extraction.
	// Replaceable in tests.
	textOf func(item *api.LineItem) string
}

// NewEngine creates a robustness engine.
func NewEngine() *Engine {
	return &Engine{textOf: concatTextFields}
}

// Run checks every line item, amends missing attributes in place from
// free text, and returns a data-quality report. It never returns an
// error: a per-item failure is recorded as a processing_error marker for
// that line only, and an unexpected top-level failure is converted into a
// FAIL_SOFT report carrying the failure text as a single clarification
// question.
func (e *Engine) Run(items []api.LineItem) (report *api.RobustnessReport) {
	defer func() {
		if r := recover(); r != nil {
			report = failSoftReport(r)
		}
	}()

	missingFields := make(map[int][]string)
	var fallbacks, warnings []string

	for i := range items {
		missing, itemFallbacks, itemWarnings := e.processItem(i, &items[i])
		if len(missing) > 0 {
			missingFields[i] = missing
		}
		fallbacks = append(fallbacks, itemFallbacks...)
		warnings = append(warnings, itemWarnings...)
	}

	status := api.StatusPass
	if len(missingFields) > 0 {
		status = api.StatusFailSoft
	} else if len(fallbacks) > 0 || len(warnings) > 0 {
		status = api.StatusWarn
	}

	var questions []string
	indices := make([]int, 0, len(missingFields))
	for idx := range missingFields {
		indices = append(indices, idx)
	}
	sort.Ints(indices)
	for _, idx := range indices {
		for _, field := range missingFields[idx] {
			questions = append(questions, fmt.Sprintf("Line item %d: please provide '%s'", idx, field))
		}
	}

	return &api.RobustnessReport{
		RobustnessStatus:       status,
		MissingFields:          missingFields,
		UnitWarnings:           dedupeSorted(warnings),
		FallbackApplied:        dedupeSorted(fallbacks),
		ClarificationQuestions: dedupeSorted(questions),
	}
}

// failSoftReport converts an unexpected run failure into the degraded
// report shape: FAIL_SOFT with the failure text as the only
// clarification question.
func failSoftReport(v any) *api.RobustnessReport {
	return &api.RobustnessReport{
		RobustnessStatus:       api.StatusFailSoft,
		MissingFields:          map[int][]string{},
		UnitWarnings:           []string{},
		FallbackApplied:        []string{},
		ClarificationQuestions: []string{fmt.Sprintf("Processing error: %v", v)},
	}
}

// processItem checks one line item and applies fallback extraction for
// fields still missing. A panic is converted into a processing_error
// marker so the batch continues.
func (e *Engine) processItem(idx int, item *api.LineItem) (missing, fallbacks, warnings []string) {
	defer func() {
		if r := recover(); r != nil {
			missing = append(missing, "processing_error")
			missing = dedupeSorted(missing)
		}
	}()

	missing = e.detectMissing(item)
	text := e.textOf(item)

	if item.VoltageKV == nil {
		if v, raw, ok := extractVoltageKV(text); ok {
			item.VoltageKV = &v
			fallbacks = append(fallbacks, fmt.Sprintf("line_%d: set voltage_kV from text -> %s kV", idx, raw))
			missing = removeField(missing, "voltage_kV")
		}
	}

	if item.CoreCount == nil {
		if n, ok := extractCoreCount(text); ok {
			item.CoreCount = &n
			fallbacks = append(fallbacks, fmt.Sprintf("line_%d: set core_count from text -> %d", idx, n))
			missing = removeField(missing, "core_count")
		}
	}

	if item.ConductorMaterial == nil || *item.ConductorMaterial == "" {
		if mat, ok := extractConductorMaterial(text); ok {
			item.ConductorMaterial = &mat
			fallbacks = append(fallbacks, fmt.Sprintf("line_%d: set conductor_material from text -> %s", idx, mat))
			missing = removeField(missing, "conductor_material")
		}
	}

	if item.InsulationMaterial == nil || *item.InsulationMaterial == "" {
		if mat, ok := extractInsulationMaterial(text); ok {
			item.InsulationMaterial = &mat
			fallbacks = append(fallbacks, fmt.Sprintf("line_%d: set insulation_material from text -> %s", idx, mat))
			missing = removeField(missing, "insulation_material")
		}
	}

	if item.Armoured == nil {
		if extractArmoured(text) {
			armoured := true
			item.Armoured = &armoured
			fallbacks = append(fallbacks, fmt.Sprintf("line_%d: set armoured=true from text", idx))
			missing = removeField(missing, "armoured")
		}
	}

	if item.AreaSqmm == nil {
		if fb, warn, ok := e.fillArea(idx, item, text, "text"); ok {
			fallbacks = append(fallbacks, fb)
			if warn != "" {
				warnings = append(warnings, warn)
			}
			missing = removeField(missing, areaField)
		}
	}

	// An explicit area field wins over the description-wide scan.
	if item.Area != "" {
		if fb, warn, ok := e.fillArea(idx, item, item.Area, "area field"); ok {
			fallbacks = append(fallbacks, fb)
			if warn != "" {
				warnings = append(warnings, warn)
			}
			missing = removeField(missing, areaField)
		}
	}

	missing = dedupeSorted(missing)
	return missing, fallbacks, warnings
}

// detectMissing lists the required fields absent or empty on item.
func (e *Engine) detectMissing(item *api.LineItem) []string {
	var missing []string
	if item.VoltageKV == nil {
		missing = append(missing, "voltage_kV")
	}
	if item.CoreCount == nil {
		missing = append(missing, "core_count")
	}
	if item.ConductorMaterial == nil || *item.ConductorMaterial == "" {
		missing = append(missing, "conductor_material")
	}
	if item.InsulationMaterial == nil || *item.InsulationMaterial == "" {
		missing = append(missing, "insulation_material")
	}
	if item.Armoured == nil {
		missing = append(missing, "armoured")
	}
	areaPresent := item.AreaSqmm != nil || item.AWG != nil || item.Area != ""
	if !areaPresent {
		missing = append(missing, areaField)
	}
	return missing
}

// fillArea applies the first area unit match from text to item. The
// source label distinguishes description-wide and area-field notes. An
// AWG match always derives area_sqmm and emits a unit-conversion warning.
func (e *Engine) fillArea(idx int, item *api.LineItem, text, source string) (fallback, warning string, ok bool) {
	matches := extractAreaUnits(text)
	if len(matches) == 0 {
		return "", "", false
	}
	picked := matches[0]
	switch picked.unit {
	case unitMM2:
		area := picked.value
		item.AreaSqmm = &area
		return fmt.Sprintf("line_%d: set area_sqmm from %s -> %s mm2", idx, source, formatNumber(area)), "", true
	case unitAWG:
		gauge := int(picked.value)
		area := AWGToSqmm(gauge)
		item.AWG = &gauge
		item.AreaSqmm = &area
		fallback = fmt.Sprintf("line_%d: set awg from %s -> AWG %d (~%s mm2)", idx, source, gauge, formatNumber(area))
		warning = fmt.Sprintf("line_%d: AWG %d converted to %s mm2 (approx)", idx, gauge, formatNumber(area))
		return fallback, warning, true
	}
	return "", "", false
}

// concatTextFields joins the item's free-text fields in fixed priority order.
func concatTextFields(item *api.LineItem) string {
	var parts []string
	for _, v := range []string{item.Description, item.Notes, item.Specs, item.FullText, item.Details} {
		if strings.TrimSpace(v) != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}

func removeField(fields []string, name string) []string {
	out := fields[:0]
	for _, f := range fields {
		if f != name {
			out = append(out, f)
		}
	}
	return out
}

// dedupeSorted returns a sorted, deduplicated, never-nil copy.
func dedupeSorted(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
