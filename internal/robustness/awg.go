package robustness

import "math"

// awgTable maps common AWG sizes to approximate conductor area in mm².
var awgTable = map[int]float64{
	0: 53.5, 1: 42.4, 2: 33.6, 3: 26.7, 4: 21.2, 5: 16.8, 6: 13.3,
	7: 10.55, 8: 8.37, 9: 6.63, 10: 5.26, 11: 4.17, 12: 3.31, 13: 2.62,
	14: 2.08, 15: 1.65, 16: 1.31, 17: 1.04, 18: 0.823, 19: 0.653, 20: 0.518,
	21: 0.41, 22: 0.326, 23: 0.258, 24: 0.205, 25: 0.162, 26: 0.129, 27: 0.102,
	28: 0.081, 29: 0.0642, 30: 0.0509, 31: 0.0404, 32: 0.0320, 33: 0.0254, 34: 0.0201,
	35: 0.0159, 36: 0.0126, 37: 0.0100, 38: 0.0080, 39: 0.0063, 40: 0.0050,
}

// AWGToSqmm converts an AWG gauge number to conductor area in mm².
// Gauges 0-40 use the standard table; out-of-range gauges fall back to
// the wire-gauge geometric formula, rounded to 4 decimals.
func AWGToSqmm(awg int) float64 {
	if area, ok := awgTable[awg]; ok {
		return area
	}
	diameterInch := 0.005 * math.Pow(92, float64(36-awg)/39.0)
	diameterMM := diameterInch * 25.4
	area := math.Pi / 4.0 * diameterMM * diameterMM
	return math.Round(area*10000) / 10000
}
