package history

import (
	"log/slog"
	"math/rand/v2"
)

// Choice is one weighted catalog entry.
type Choice struct {
	Value  string
	Weight float64
}

// Uniform builds equally weighted choices.
func Uniform(values ...string) []Choice {
	out := make([]Choice, len(values))
	for i, v := range values {
		out[i] = Choice{Value: v, Weight: 1}
	}
	return out
}

// Values returns the values of choices in order.
func Values(choices []Choice) []string {
	out := make([]string, len(choices))
	for i, c := range choices {
		out[i] = c.Value
	}
	return out
}

// WeightedRandom draws one value proportionally to its weight. Non-positive
// total weight degrades to a uniform draw; an empty slice yields "".
func WeightedRandom(rng *rand.Rand, choices []Choice) string {
	if len(choices) == 0 {
		return ""
	}
	if len(choices) == 1 {
		return choices[0].Value
	}

	total := 0.0
	for _, c := range choices {
		if c.Weight > 0 {
			total += c.Weight
		}
	}
	if total == 0 {
		return choices[rng.IntN(len(choices))].Value
	}

	roll := rng.Float64() * total
	cumulative := 0.0
	for _, c := range choices {
		if c.Weight <= 0 {
			continue
		}
		cumulative += c.Weight
		if roll < cumulative {
			return c.Value
		}
	}
	return choices[len(choices)-1].Value
}

// Select draws from choices while avoiding values used in the last window
// records of category, then records the draw. When every choice was used
// recently the full catalog is drawn from instead.
func Select(t Tracker, rng *rand.Rand, category string, choices []Choice, window int) string {
	if len(choices) == 0 {
		return ""
	}

	recent := make(map[string]bool)
	for _, v := range t.Recent(category, window) {
		recent[v] = true
	}

	filtered := make([]Choice, 0, len(choices))
	for _, c := range choices {
		if !recent[c.Value] {
			filtered = append(filtered, c)
		}
	}
	if len(filtered) == 0 {
		slog.Debug("history.Select: all candidates used recently, widening to full catalog", "category", category, "window", window)
		filtered = choices
	}

	v := WeightedRandom(rng, filtered)
	t.Record(category, v)
	return v
}
