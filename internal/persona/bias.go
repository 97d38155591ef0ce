package persona

import (
	"math"
	"sort"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// Bias report parameters.
const (
	DefaultBiasWindow = 50
	biasThreshold     = 0.4
	smallFieldMargin  = 0.2
)

// BiasPolicy tunes when a field is flagged. The zero value flags any value
// holding more than 40% of the analyzed generations.
type BiasPolicy struct {
	// AdjustSmallFields raises the threshold of fields with fewer than
	// three options to 1/options plus a margin, so an even split between
	// two values is not flagged.
	AdjustSmallFields bool
	// MinSample suppresses flags while fewer records than this exist.
	MinSample int
}

// BiasReport analyzes the last window generations (DefaultBiasWindow when
// window <= 0).
func (g *Generator) BiasReport(window int) models.BiasReport {
	if window <= 0 {
		window = DefaultBiasWindow
	}
	return AnalyzeBias(g.log.Recent(window), g.biasPolicy)
}

// AnalyzeBias flags tracked fields where one value's share exceeds the
// threshold chosen by policy.
func AnalyzeBias(records []models.GenerationRecord, policy BiasPolicy) models.BiasReport {
	report := models.BiasReport{
		SampleSize: len(records),
		Fields:     make(map[string]models.FieldBias, len(reportFields)),
	}
	for _, field := range reportFields {
		fb := models.FieldBias{
			Field:     field,
			Counts:    make(map[string]int),
			Threshold: policy.threshold(field),
		}
		total := 0
		for _, rec := range records {
			if v := rec.Fields[field]; v != "" {
				fb.Counts[v]++
				total++
			}
		}
		if total > 0 {
			// Deterministic tie-break on value.
			values := make([]string, 0, len(fb.Counts))
			for v := range fb.Counts {
				values = append(values, v)
			}
			sort.Strings(values)
			for _, v := range values {
				if fb.Counts[v] > fb.Counts[fb.DominantValue] {
					fb.DominantValue = v
				}
			}
			fb.DominantShare = math.Round(float64(fb.Counts[fb.DominantValue])/float64(total)*10000) / 10000
			fb.IsBiased = total >= policy.MinSample && fb.DominantShare > fb.Threshold
		}
		if fb.IsBiased {
			report.IsBiased = true
		}
		report.Fields[field] = fb
	}
	return report
}

func (p BiasPolicy) threshold(field string) float64 {
	if !p.AdjustSmallFields {
		return biasThreshold
	}
	n := fieldOptions(field)
	if n > 0 && n < 3 {
		return math.Max(biasThreshold, 1/float64(n)+smallFieldMargin)
	}
	return biasThreshold
}
