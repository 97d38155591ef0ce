// Package fear generates product-specific buyer fears and objections from
// a fixed catalog of fear archetypes.
package fear

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"
	"sync"

	"github.com/BTreeMap/PitchIQ/internal/history"
	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/util"
)

// Scoring parameters.
const (
	triggerWeight        = 0.4
	recencyPenalty       = 0.1
	maxRecencyPenalty    = 0.5
	untriggeredBase      = 0.3
	minWeight            = 0.05
	secondaryProbability = 0.7
	templateWindow       = 3
	archetypeHistoryLen  = history.DefaultCategoryCapacity
)

// archetypeCategory is the tracker category for selected archetypes.
const archetypeCategory = "fear_archetype"

var (
	aiTechRe       = regexp.MustCompile(`\bai\b|artificial intelligence|machine learning`)
	softwareTechRe = regexp.MustCompile(`\b(software|platform|app|saas|tool)\b`)
)

// Opts holds configuration for a Generator.
type Opts struct {
	Tracker history.Tracker
	Rand    *rand.Rand
}

// Option configures a Generator.
type Option func(*Opts)

// WithTracker shares a usage history.
func WithTracker(t history.Tracker) Option {
	return func(o *Opts) { o.Tracker = t }
}

// WithRand sets the random source.
func WithRand(r *rand.Rand) Option {
	return func(o *Opts) { o.Rand = r }
}

// Generator is safe for concurrent use.
type Generator struct {
	mu       sync.Mutex
	tracker  history.Tracker
	rng      *rand.Rand
	triggers map[string][]*regexp.Regexp
}

// NewGenerator creates a fear generator.
func NewGenerator(opts ...Option) *Generator {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Tracker == nil {
		cfg.Tracker = history.NewMemoryTracker(history.DefaultCategoryCapacity)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	triggers := make(map[string][]*regexp.Regexp, len(archetypes))
	for _, a := range archetypes {
		for _, t := range a.Triggers {
			triggers[a.Key] = append(triggers[a.Key], regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(t)+`\b`))
		}
	}
	return &Generator{tracker: cfg.Tracker, rng: cfg.Rand, triggers: triggers}
}

// Score returns the trigger score of every archetype for productService,
// before recency penalties.
func (g *Generator) Score(productService string) map[string]float64 {
	out := make(map[string]float64, len(archetypes))
	for _, a := range archetypes {
		hits := 0
		for _, re := range g.triggers[a.Key] {
			if re.MatchString(productService) {
				hits++
			}
		}
		out[a.Key] = math.Min(1, float64(hits)*triggerWeight)
	}
	return out
}

// Generate picks one or two fear archetypes for the product and renders
// their manifestations and two or three hesitant objections.
func (g *Generator) Generate(productService string, ctx models.FearContext, personalSituation string) models.ContextualFears {
	scores := g.Score(productService)

	g.mu.Lock()
	defer g.mu.Unlock()

	candidates := g.candidates(scores)
	primary := history.WeightedRandom(g.rng, candidates)
	selected := []string{primary}

	var rest []history.Choice
	for _, c := range candidates {
		if c.Value != primary {
			rest = append(rest, c)
		}
	}
	if len(rest) > 0 && g.rng.Float64() < secondaryProbability {
		selected = append(selected, history.WeightedRandom(g.rng, rest))
	}

	vars := placeholders(productService, ctx)
	out := models.ContextualFears{PersonalSituation: strings.TrimSpace(personalSituation)}
	for _, key := range selected {
		g.tracker.Record(archetypeCategory, key)
		a := findArchetype(key)
		tmpl := history.Select(g.tracker, g.rng, "fear_template:"+key, history.Uniform(a.Templates...), templateWindow)
		out.Fears = append(out.Fears, models.FearManifestation{
			FearType:        key,
			FearStatement:   vars.Replace(tmpl),
			CoreConcern:     vars.Replace(a.CoreConcern),
			TriggerStrength: scores[key],
		})
	}
	out.AuthenticObjections = g.objections(out.Fears)

	slog.Debug("fear.Generate: fears generated", "selected", selected, "objections", len(out.AuthenticObjections))
	return out
}

// candidates weights archetypes by trigger score minus recency. When any
// archetype is triggered only triggered ones are eligible. Callers hold g.mu.
func (g *Generator) candidates(scores map[string]float64) []history.Choice {
	uses := make(map[string]int)
	for _, k := range g.tracker.Recent(archetypeCategory, archetypeHistoryLen) {
		uses[k]++
	}

	anyTriggered := false
	for _, s := range scores {
		if s > 0 {
			anyTriggered = true
			break
		}
	}

	var out []history.Choice
	for _, a := range archetypes {
		base := scores[a.Key]
		if anyTriggered && base == 0 {
			continue
		}
		if !anyTriggered {
			base = untriggeredBase
		}
		penalty := math.Min(maxRecencyPenalty, float64(uses[a.Key])*recencyPenalty)
		out = append(out, history.Choice{Value: a.Key, Weight: math.Max(minWeight, base-penalty)})
	}
	return out
}

// objections wraps manifestations in hesitation framing. Callers hold g.mu.
func (g *Generator) objections(fears []models.FearManifestation) []string {
	if len(fears) == 0 {
		return nil
	}
	n := 2 + g.rng.IntN(2)
	frames := []func(models.FearManifestation) string{
		func(f models.FearManifestation) string { return "Wait... " + util.LowerFirst(f.FearStatement) },
		func(f models.FearManifestation) string {
			return "How do I know " + strings.TrimRight(f.CoreConcern, ".?") + "?"
		},
		func(f models.FearManifestation) string { return "But " + util.LowerFirst(f.FearStatement) },
	}

	seen := make(map[string]bool)
	var out []string
	for i := 0; len(out) < n && i < len(frames)*len(fears); i++ {
		f := fears[i%len(fears)]
		o := frames[i%len(frames)](f)
		if !seen[o] {
			seen[o] = true
			out = append(out, o)
		}
	}
	return out
}

// placeholders builds the substitutions for {role}, {product},
// {technology} and {boss_title}.
func placeholders(productService string, ctx models.FearContext) *strings.Replacer {
	product := strings.TrimSpace(strings.TrimRight(strings.TrimSpace(productService), ".!"))
	if product == "" {
		product = "this"
	} else {
		product = fmt.Sprintf("this %s", util.LowerFirst(stripArticle(product)))
	}

	role := strings.TrimSpace(ctx.Role)
	if role == "" {
		role = "person in my position"
	}

	lower := strings.ToLower(productService)
	technology := "this"
	switch {
	case aiTechRe.MatchString(lower):
		technology = "AI"
	case softwareTechRe.MatchString(lower):
		technology = "software"
	}

	var boss string
	switch ctx.RoleLevel {
	case "executive":
		boss = "the board"
	case "management":
		boss = "my VP"
	case "owner":
		boss = "my business partner"
	default:
		boss = "my manager"
	}

	return strings.NewReplacer(
		"{role}", role,
		"{product}", product,
		"{technology}", technology,
		"{boss_title}", boss,
	)
}

func stripArticle(s string) string {
	lower := strings.ToLower(s)
	for _, a := range []string{"a ", "an ", "the ", "our ", "this "} {
		if strings.HasPrefix(lower, a) {
			return s[len(a):]
		}
	}
	return s
}

func findArchetype(key string) archetype {
	for _, a := range archetypes {
		if a.Key == key {
			return a
		}
	}
	return archetypes[0]
}
