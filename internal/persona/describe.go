package persona

import (
	"fmt"
	"strings"

	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/util"
)

// Describe renders a persona as prompt-ready text.
func Describe(p models.PersonaFramework) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s, %s.\n", orUnknown(p.Name), articled(p.Role))
	if p.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s\n", p.Industry)
	}
	var demo []string
	if p.CulturalBackground != "" {
		demo = append(demo, p.CulturalBackground+" background")
	}
	if p.Gender != "" {
		demo = append(demo, p.Gender)
	}
	if p.AgeRange != "" {
		demo = append(demo, "age "+p.AgeRange)
	}
	if len(demo) > 0 {
		fmt.Fprintf(&b, "Background: %s\n", strings.Join(demo, ", "))
	}
	if len(p.PersonalityTraits) > 0 {
		fmt.Fprintf(&b, "Personality: %s\n", strings.Join(p.PersonalityTraits, ", "))
	}
	if p.BuyerType != "" {
		fmt.Fprintf(&b, "Buyer type: %s\n", util.Humanize(p.BuyerType))
	}
	if p.DecisionAuthority != "" {
		fmt.Fprintf(&b, "Decision authority: %s\n", util.Humanize(p.DecisionAuthority))
	}
	if p.BusinessContext != "" {
		fmt.Fprintf(&b, "Situation: %s\n", p.BusinessContext)
	}
	if f := p.ContextualFears; f != nil {
		if len(f.Fears) > 0 {
			b.WriteString("Private worries you do not volunteer unless the conversation touches them:\n")
			for _, fear := range f.Fears {
				fmt.Fprintf(&b, "- %s\n", fear.FearStatement)
			}
		}
		if len(f.AuthenticObjections) > 0 {
			b.WriteString("Objections you may raise in your own words:\n")
			for _, o := range f.AuthenticObjections {
				fmt.Fprintf(&b, "- %s\n", o)
			}
		}
		if f.PersonalSituation != "" {
			fmt.Fprintf(&b, "Personal situation: %s\n", f.PersonalSituation)
		}
	}
	return b.String()
}

func articled(role string) string {
	if role == "" {
		return "a buyer"
	}
	if strings.ContainsRune("AEIOU", rune(role[0])) {
		return "an " + role
	}
	return "a " + role
}

func orUnknown(s string) string {
	if s == "" {
		return "the buyer"
	}
	return s
}
