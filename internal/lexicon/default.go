package lexicon

import "github.com/BTreeMap/PitchIQ/internal/models"

// DefaultVersion labels the built-in tables.
const DefaultVersion = "builtin-1"

// Phrase terminator shared by the extraction patterns.
const stop = `(?:[.,!?;]|\band\b|$)`

// Default returns a fresh copy of the built-in lexicon.
func Default() *Lexicon {
	return &Lexicon{
		Version: DefaultVersion,
		Categories: map[string]Category{
			models.CategoryRapport: {
				Keywords: []string{
					"hi", "hello", "hey", "thanks", "thank you", "nice to meet",
					"how are you", "how's it going", "good morning", "good afternoon",
					"pleasure", "appreciate", "weekend", "family", "glad",
				},
				Weight: 0.5,
			},
			models.CategoryBusiness: {
				Keywords: []string{
					"company", "business", "revenue", "cost", "costs", "price", "pricing",
					"budget", "roi", "team", "process", "solution", "product", "software",
					"platform", "sales", "customers", "market", "growth", "efficiency",
					"results", "investment", "industry",
				},
				Weight: 0.2,
			},
			models.CategoryNeeds: {
				Patterns: []string{
					`\bchallenges?\b`,
					`\bproblems?\b`,
					`\bstruggl\w*`,
					`\bpain points?\b`,
					`\bneeds?\b`,
					`\blooking for\b`,
					`\bgoals?\b`,
					`\bimprov\w*`,
					`\bissues?\b`,
					`\bdifficult\w*`,
					`\bwhat keeps you\b`,
					`\btell me (?:more )?about\b`,
					`\bhow do you (?:currently|handle|manage)\b`,
					`\bcurrently\b`,
					`\bpriorit\w*`,
				},
				Weight:        0.4,
				QuestionBonus: 0.3,
			},
			models.CategoryObjection: {
				Patterns: []string{
					`\btoo expensive\b`,
					`\bcan'?t afford\b`,
					`\bnot interested\b`,
					`\bno budget\b`,
					`\bnot (?:sure|convinced)\b`,
					`\b(?:concerned|worried) about\b`,
					`\bdon'?t see the value\b`,
					`\balready (?:have|use|using)\b`,
					`\bnot a priority\b`,
					`\btoo (?:risky|complicated|much)\b`,
					`\bwhy should (?:i|we)\b`,
					`\bnot the right time\b`,
					`\bhesitant\b`,
				},
				Weight: 0.8,
			},
			models.CategoryInterest: {
				Patterns: []string{
					`\btell me more\b`,
					`\bhow does (?:it|that|this) work\b`,
					`\binterested in\b`,
					`\bsounds (?:good|great|interesting|promising)\b`,
					`\bcan you show\b`,
					`\bdemo\b`,
					`\bfeatures?\b`,
					`\bwhat does it (?:cost|include)\b`,
					`\bi like\b`,
					`\bcurious\b`,
				},
				Weight: 0.6,
			},
			models.CategoryClosing: {
				Patterns: []string{
					`\bnext steps?\b`,
					`\bsign (?:up|the contract|off)\b`,
					`\bcontract\b`,
					`\bmove forward\b`,
					`\bget started\b`,
					`\bpurchase\b`,
					`\btrial\b`,
					`\bwhen can we start\b`,
					`\bschedule (?:a|the) (?:call|meeting|demo)\b`,
					`\bpaperwork\b`,
					`\bready to (?:buy|commit)\b`,
				},
				Weight: 0.7,
			},
		},
		NeedsExtraction: []string{
			`\bneed(?:s|ed)? to (.*?)` + stop,
			`\blooking for (.*?)` + stop,
			`\bgoal is (?:to )?(.*?)` + stop,
			`\btrying to (.*?)` + stop,
			`\bwould like to (.*?)` + stop,
		},
		PainExtraction: []string{
			`\bstruggl(?:e|es|ed|ing) with (.*?)` + stop,
			`\bchallenge is (.*?)` + stop,
			`\bproblem is (.*?)` + stop,
			`\bpain point is (.*?)` + stop,
			`\bwe need (.*?)` + stop,
			`\blooking for (.*?)` + stop,
		},
		ObjectionExtraction: []string{
			`\b(?:concerned|worried|hesitant|unsure) about (.*?)` + stop,
			`\bnot sure (?:about|if|that) (.*?)` + stop,
			`\b(too expensive)\b`,
			`\b(budget is (?:tight|limited|constrained))\b`,
			`\b(can'?t afford (?:it|this|that))\b`,
			`\b(no budget)\b`,
			`\b(not (?:a|the) (?:priority|right time))\b`,
			`\balready (?:have|use|using) (.*?)` + stop,
		},
		PositiveWords: []string{
			"great", "good", "excellent", "love", "interested", "helpful", "perfect",
			"excited", "awesome", "appreciate", "happy", "impressive", "glad",
		},
		NegativeWords: []string{
			"tight", "struggle", "struggling", "expensive", "problem", "problems",
			"concern", "concerned", "worried", "frustrated", "frustrating", "difficult",
			"hard", "unfortunately", "issue", "issues", "disappointed", "annoyed",
			"skeptical",
		},
	}
}
