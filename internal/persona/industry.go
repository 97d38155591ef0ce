package persona

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/BTreeMap/PitchIQ/internal/history"
	"github.com/BTreeMap/PitchIQ/internal/models"
)

var errNoJSONArray = errors.New("no JSON array in reply")

// industryCandidates returns the weighted industry categories to draw
// from. An explicit industry context pins the category; otherwise an LLM
// may narrow the set, with keyword weights as the fallback.
func (g *Generator) industryCandidates(ctx context.Context, req models.PersonaRequest) []history.Choice {
	if key, ok := matchIndustryContext(req.IndustryContext); ok {
		return []history.Choice{{Value: key, Weight: 1}}
	}

	text := strings.TrimSpace(req.TargetMarket + " " + req.ProductService)
	if g.completer != nil && text != "" {
		keys, err := g.llmIndustries(ctx, req)
		if err == nil && len(keys) > 0 {
			slog.Debug("persona.industryCandidates: LLM selected categories", "categories", keys)
			return history.Uniform(keys...)
		}
		slog.Warn("persona.industryCandidates: LLM selection failed, using keyword rules", "error", err)
	}
	return keywordIndustryChoices(text)
}

// matchIndustryContext maps a category key, category label, or industry
// name to its category key.
func matchIndustryContext(s string) (string, bool) {
	norm := strings.ToLower(strings.TrimSpace(s))
	if norm == "" {
		return "", false
	}
	normKey := strings.NewReplacer(" ", "_", "-", "_").Replace(norm)
	for _, ic := range industryCategories {
		if ic.Key == normKey {
			return ic.Key, true
		}
		for _, ind := range ic.Industries {
			if strings.EqualFold(ind, norm) {
				return ic.Key, true
			}
		}
	}
	return "", false
}

func (g *Generator) llmIndustries(ctx context.Context, req models.PersonaRequest) ([]string, error) {
	keys := make([]string, len(industryCategories))
	for i, ic := range industryCategories {
		keys[i] = ic.Key
	}

	prompt := fmt.Sprintf(`Pick the industry categories where a realistic buyer for this offering would work.
Target market: %s
Product or service: %s
Allowed categories: %s

Respond with only a JSON array of 2 to 4 category keys from the allowed list.`,
		orNone(req.TargetMarket), orNone(req.ProductService), strings.Join(keys, ", "))

	reply, err := g.completer.Complete(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("industry completion: %w", err)
	}
	return parseIndustryKeys(reply)
}

// parseIndustryKeys extracts valid, de-duplicated category keys.
func parseIndustryKeys(reply string) ([]string, error) {
	start := strings.Index(reply, "[")
	end := strings.LastIndex(reply, "]")
	if start < 0 || end <= start {
		return nil, errNoJSONArray
	}
	var raw []string
	if err := json.Unmarshal([]byte(reply[start:end+1]), &raw); err != nil {
		return nil, fmt.Errorf("decode industry keys: %w", err)
	}
	seen := make(map[string]bool)
	var keys []string
	for _, r := range raw {
		k := strings.ToLower(strings.TrimSpace(r))
		if _, ok := findIndustryCategory(k); ok && !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	return keys, nil
}

// keywordIndustryChoices weights every category, boosting those whose
// keywords appear in text.
func keywordIndustryChoices(text string) []history.Choice {
	text = strings.ToLower(text)
	out := make([]history.Choice, len(industryCategories))
	for i, ic := range industryCategories {
		w := 1.0
		for _, kw := range ic.Keywords {
			if strings.Contains(text, kw) {
				w *= industryKeywordBoost
			}
		}
		out[i] = history.Choice{Value: ic.Key, Weight: w}
	}
	return out
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "(not specified)"
	}
	return s
}
