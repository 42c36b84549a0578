package quality

import "math"

// sigmaCeilings maps a sigma level to the maximum defects-per-million
// opportunities for that level. Standard short-term sigma table.
var sigmaCeilings = []struct {
	level  float64
	maxDPM float64
}{
	{6, 3.4},
	{5, 233},
	{4, 6210},
	{3, 66807},
	{2, 308537},
	{1, 690000},
}

type SigmaResult struct {
	SigmaLevel    float64 `json:"sigma_level"`
	DPM           float64 `json:"dpm"`
	QualityPct    float64 `json:"quality_percentage"`
	Grade         string  `json:"grade"`
	Defects       int64   `json:"defects"`
	Opportunities int64   `json:"opportunities"`
}

// SigmaLevel converts a defect count over a number of opportunities into
// a sigma level. Zero opportunities is a perfect process, not an error.
func SigmaLevel(defects, opportunities int64) SigmaResult {
	if opportunities == 0 {
		return SigmaResult{
			SigmaLevel: 6.0,
			DPM:        0,
			QualityPct: 100.0,
			Grade:      "World Class (6σ)",
		}
	}

	dpm := float64(defects) / float64(opportunities) * 1_000_000

	level := 1.0
	for _, c := range sigmaCeilings {
		if dpm <= c.maxDPM {
			level = c.level
			break
		}
	}

	return SigmaResult{
		SigmaLevel:    level,
		DPM:           math.Round(dpm*100) / 100,
		QualityPct:    math.Round(float64(opportunities-defects)/float64(opportunities)*100*10000) / 10000,
		Grade:         sigmaGrade(level),
		Defects:       defects,
		Opportunities: opportunities,
	}
}

func sigmaGrade(level float64) string {
	switch {
	case level >= 6:
		return "World Class (6σ)"
	case level >= 5:
		return "Excellent (5σ)"
	case level >= 4:
		return "Good (4σ)"
	case level >= 3:
		return "Average (3σ)"
	case level >= 2:
		return "Below Average (2σ)"
	default:
		return "Poor (1σ)"
	}
}

// SigmaBelt labels the organization's maturity for a given sigma level.
func SigmaBelt(level float64) string {
	switch {
	case level >= 6.0:
		return "Master Black Belt"
	case level >= 5.0:
		return "Black Belt"
	case level >= 4.0:
		return "Green Belt"
	case level >= 3.0:
		return "Yellow Belt"
	default:
		return "White Belt"
	}
}

type CapabilityResult struct {
	Cp      *float64 `json:"cp"`
	Cpk     *float64 `json:"cpk"`
	Capable bool     `json:"capable"`
	Mean    float64  `json:"mean,omitempty"`
	StdDev  float64  `json:"std_dev,omitempty"`
	Grade   string   `json:"grade"`
}

// ProcessCapability computes Cp and Cpk for a sample against spec
// limits. Fewer than two samples cannot estimate spread, so Cp and Cpk
// stay nil. Zero spread means every sample is identical and the process
// is trivially capable. The capability bar is Cpk >= 1.33 (4σ).
func ProcessCapability(values []float64, specLower, specUpper float64) CapabilityResult {
	if len(values) < 2 {
		return CapabilityResult{Capable: false, Grade: "Not Capable"}
	}

	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		variance += (v - mean) * (v - mean)
	}
	stdDev := math.Sqrt(variance / float64(len(values)-1))

	if stdDev == 0 {
		inf := math.Inf(1)
		return CapabilityResult{Cp: &inf, Cpk: &inf, Capable: true, Mean: mean, Grade: "Capable"}
	}

	cp := (specUpper - specLower) / (6 * stdDev)
	cpk := math.Min((specUpper-mean)/(3*stdDev), (mean-specLower)/(3*stdDev))

	cp = math.Round(cp*1000) / 1000
	cpk = math.Round(cpk*1000) / 1000
	capable := cpk >= 1.33

	grade := "Not Capable"
	if capable {
		grade = "Capable"
	}

	return CapabilityResult{
		Cp:      &cp,
		Cpk:     &cpk,
		Capable: capable,
		Mean:    math.Round(mean*100) / 100,
		StdDev:  math.Round(stdDev*100) / 100,
		Grade:   grade,
	}
}

type ParetoGroup struct {
	Component     string  `json:"component"`
	ErrorType     string  `json:"error_type"`
	Count         int64   `json:"count"`
	CumulativePct float64 `json:"cumulative_pct"`
}

type ParetoResult struct {
	Groups       []ParetoGroup `json:"defects"`
	TotalDefects int64         `json:"total_defects"`
	FocusAreas   []ParetoGroup `json:"pareto_80_pct"`
	Message      string        `json:"message"`
}

// cumulate fills cumulative percentages over groups already sorted by
// count descending and returns the focus prefix covering 80% of defects.
// The largest group is always in focus even when it alone exceeds 80%.
func cumulate(groups []ParetoGroup) ([]ParetoGroup, []ParetoGroup, int64) {
	var total int64
	for _, g := range groups {
		total += g.Count
	}
	if total == 0 {
		return groups, nil, 0
	}

	var focus []ParetoGroup
	var running int64
	for i := range groups {
		running += groups[i].Count
		pct := float64(running) / float64(total) * 100
		groups[i].CumulativePct = math.Round(pct*10) / 10

		if pct <= 80 || i == 0 {
			focus = append(focus, groups[i])
		}
	}

	return groups, focus, total
}
