// Package persona generates diverse simulated buyer personas. Every
// dimension is drawn with weighted anti-repetition selection against a
// shared usage history, so consecutive personas avoid the same defaults.
package persona

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/BTreeMap/PitchIQ/internal/genai"
	"github.com/BTreeMap/PitchIQ/internal/history"
	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/style"
	"github.com/BTreeMap/PitchIQ/internal/util"
)

// maxNameAttempts bounds redraws when the pool returns a blocklisted name.
const maxNameAttempts = 10

// Complexity levels accepted in requests.
var complexityLevels = map[string]bool{"beginner": true, "intermediate": true, "advanced": true}

// FearSource produces contextual fears for a persona.
type FearSource interface {
	Generate(productService string, ctx models.FearContext, personalSituation string) models.ContextualFears
}

// GenerationRecorder persists generation records.
type GenerationRecorder interface {
	AddGeneration(ctx context.Context, rec models.GenerationRecord) error
}

// Opts holds configuration for a Generator.
type Opts struct {
	Tracker   history.Tracker
	Log       *history.GenerationLog
	Names     NamePool
	Completer genai.Completer
	Fears     FearSource
	Recorder  GenerationRecorder
	Rand      *rand.Rand
	Bias      BiasPolicy
}

// Option configures a Generator.
type Option func(*Opts)

// WithTracker shares a usage history with other generators.
func WithTracker(t history.Tracker) Option {
	return func(o *Opts) { o.Tracker = t }
}

// WithGenerationLog sets the log used for bias reports.
func WithGenerationLog(l *history.GenerationLog) Option {
	return func(o *Opts) { o.Log = l }
}

// WithNamePool replaces the built-in demographic name pool.
func WithNamePool(p NamePool) Option {
	return func(o *Opts) { o.Names = p }
}

// WithCompleter lets an LLM narrow industry categories for a target market.
func WithCompleter(c genai.Completer) Option {
	return func(o *Opts) { o.Completer = c }
}

// WithFearSource attaches contextual fears when a product is given.
func WithFearSource(f FearSource) Option {
	return func(o *Opts) { o.Fears = f }
}

// WithRecorder persists every generation record.
func WithRecorder(r GenerationRecorder) Option {
	return func(o *Opts) { o.Recorder = r }
}

// WithRand sets the random source, mainly for deterministic tests.
func WithRand(r *rand.Rand) Option {
	return func(o *Opts) { o.Rand = r }
}

// WithBiasPolicy changes how BiasReport flags skewed fields.
func WithBiasPolicy(p BiasPolicy) Option {
	return func(o *Opts) { o.Bias = p }
}

// Generator produces PersonaFrameworks. It is safe for concurrent use.
type Generator struct {
	mu         sync.Mutex
	tracker    history.Tracker
	log        *history.GenerationLog
	names      NamePool
	completer  genai.Completer
	fears      FearSource
	recorder   GenerationRecorder
	rng        *rand.Rand
	biasPolicy BiasPolicy
	now        func() time.Time
}

// NewGenerator creates a generator with in-memory history by default.
func NewGenerator(opts ...Option) *Generator {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Rand == nil {
		cfg.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if cfg.Tracker == nil {
		cfg.Tracker = history.NewMemoryTracker(history.DefaultCategoryCapacity)
	}
	if cfg.Log == nil {
		cfg.Log = history.NewGenerationLog(history.DefaultLogCapacity)
	}
	if cfg.Names == nil {
		cfg.Names = NewDemographicNamePool(rand.New(rand.NewPCG(cfg.Rand.Uint64(), cfg.Rand.Uint64())))
	}
	return &Generator{
		tracker:    cfg.Tracker,
		log:        cfg.Log,
		names:      cfg.Names,
		completer:  cfg.Completer,
		fears:      cfg.Fears,
		recorder:   cfg.Recorder,
		rng:        cfg.Rand,
		biasPolicy: cfg.Bias,
		now:        time.Now,
	}
}

// Generate draws a new persona. It never fails: LLM problems fall back to
// keyword rules and exhausted catalogs widen to the full option set.
func (g *Generator) Generate(ctx context.Context, req models.PersonaRequest) models.PersonaFramework {
	industries := g.industryCandidates(ctx, req)

	g.mu.Lock()
	p := g.compose(req, industries)
	rec := models.GenerationRecord{
		ID:        util.GenerateGenerationID(),
		Fields:    recordFields(p),
		CreatedAt: g.now().UTC(),
	}
	g.log.Add(rec)
	g.mu.Unlock()

	if g.recorder != nil {
		if err := g.recorder.AddGeneration(ctx, rec); err != nil {
			slog.Warn("persona.Generate: failed to persist generation record", "id", rec.ID, "error", err)
		}
	}

	if g.fears != nil && strings.TrimSpace(req.ProductService) != "" {
		fears := g.fears.Generate(req.ProductService, models.FearContext{
			Role:      p.Role,
			RoleLevel: p.RoleLevel,
			Industry:  p.Industry,
		}, "")
		p.ContextualFears = &fears
	}

	slog.Debug("persona.Generate: persona generated", "id", rec.ID, "culture", p.CulturalKey, "role", p.Role, "industry", p.Industry)
	return p
}

// Warm replays persisted generation records into the usage history and
// the generation log, oldest first.
func (g *Generator) Warm(records []models.GenerationRecord) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, rec := range records {
		for field := range windows {
			if v := rec.Fields[field]; v != "" {
				g.tracker.Record(field, v)
			}
		}
		for _, t := range strings.Split(rec.Fields[FieldTraits], traitSeparator) {
			if sub := traitCategoryOf(t); sub != "" {
				g.tracker.Record("trait:"+sub, t)
			}
		}
		g.log.Add(rec)
	}
	slog.Info("persona.Warm: generation history restored", "records", len(records))
}

// compose draws every dimension. Callers hold g.mu.
func (g *Generator) compose(req models.PersonaRequest, industries []history.Choice) models.PersonaFramework {
	pick := func(field string, choices []history.Choice) string {
		return history.Select(g.tracker, g.rng, field, choices, windows[field])
	}

	cultureKey := pick(FieldCulturalKey, cultureWeights)
	gender := pick(FieldGender, genders)

	rc := findRoleCategory(pick(FieldRoleCategory, roleCategoryChoices(req.TargetMarket+" "+req.ProductService)))
	role := pick(FieldRole, history.Uniform(rc.Titles...))

	age := pickAge(pick(FieldAgeRange, ageChoices()))

	traits := g.pickTraits()

	ic, _ := findIndustryCategory(pick(FieldIndustryCategory, industries))
	industry := pick(FieldIndustry, history.Uniform(ic.Industries...))

	commStyle := models.CommunicationStyle{
		Chattiness:          pick(FieldChattiness, history.Uniform(style.Values[style.AxisChattiness]...)),
		Formality:           pick(FieldFormality, history.Uniform(style.Values[style.AxisFormality]...)),
		EmotionalExpression: pick(FieldEmotional, history.Uniform(style.Values[style.AxisEmotional]...)),
	}

	authority := pick(FieldDecisionAuthority, authorityChoices(rc.Level))
	buyerType := pick(FieldBuyerType, buyerTypes)

	name := g.pickName(cultureKey, gender)

	complexity := strings.ToLower(strings.TrimSpace(req.ComplexityLevel))
	if !complexityLevels[complexity] {
		complexity = "intermediate"
	}

	return models.PersonaFramework{
		Name:               name,
		CulturalKey:        cultureKey,
		CulturalBackground: cultureLabel(cultureKey),
		Gender:             gender,
		Role:               role,
		RoleCategory:       rc.Key,
		RoleLevel:          rc.Level,
		AgeRange:           age.Range,
		AgeCategory:        age.Category,
		PersonalityTraits:  traits,
		Industry:           industry,
		IndustryCategory:   ic.Key,
		CommunicationStyle: commStyle,
		DecisionAuthority:  authority,
		BuyerType:          buyerType,
		BusinessContext:    businessContext(role, industry, req),
		ComplexityLevel:    complexity,
	}
}

// pickTraits draws two traits from a primary sub-category and one from a
// different secondary sub-category.
func (g *Generator) pickTraits() []string {
	primary := history.Select(g.tracker, g.rng, FieldTraitCategory, history.Uniform(traitCategoryOrder...), windows[FieldTraitCategory])

	var others []string
	for _, c := range traitCategoryOrder {
		if c != primary {
			others = append(others, c)
		}
	}
	secondary := history.WeightedRandom(g.rng, history.Uniform(others...))

	chosen := make(map[string]bool, maxTraits)
	var traits []string
	for _, sub := range []string{primary, primary, secondary}[:maxTraits] {
		var choices []history.Choice
		for _, t := range traitCategories[sub] {
			if !chosen[t] {
				choices = append(choices, history.Choice{Value: t, Weight: 1})
			}
		}
		t := history.Select(g.tracker, g.rng, "trait:"+sub, choices, traitWindow)
		if t == "" {
			continue
		}
		chosen[t] = true
		traits = append(traits, t)
	}
	return traits
}

// pickName asks the name pool for a demographic name, redrawing while it
// returns blocklisted names, then falls back to the curated backup pool.
func (g *Generator) pickName(cultureKey, gender string) string {
	recent := g.tracker.Recent(FieldName, windows[FieldName])
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		first, last := g.names.NameByDemographics(cultureKey, gender, recent)
		if strings.TrimSpace(first) == "" || IsOverusedName(first) {
			continue
		}
		full := strings.TrimSpace(first + " " + last)
		g.tracker.Record(FieldName, full)
		return full
	}

	slog.Warn("persona.pickName: name pool exhausted, using backup pool", "culture", cultureKey, "gender", gender)
	pool := backupNames[gender]
	if len(pool) == 0 {
		pool = append(append([]string{}, backupNames["female"]...), backupNames["male"]...)
	}
	return history.Select(g.tracker, g.rng, FieldName, history.Uniform(pool...), windows[FieldName])
}

// roleCategoryChoices boosts role categories whose cues appear in text.
func roleCategoryChoices(text string) []history.Choice {
	text = strings.ToLower(text)
	choices := make([]history.Choice, len(roleCategories))
	for i, rc := range roleCategories {
		w := 1.0
		for _, cue := range rc.Cues {
			if strings.Contains(text, cue) {
				w *= cueBoost
			}
		}
		choices[i] = history.Choice{Value: rc.Key, Weight: w}
	}
	return choices
}

func ageChoices() []history.Choice {
	out := make([]history.Choice, len(ageRanges))
	for i, a := range ageRanges {
		out[i] = history.Choice{Value: a.Range, Weight: a.Weight}
	}
	return out
}

func pickAge(r string) ageRange {
	for _, a := range ageRanges {
		if a.Range == r {
			return a
		}
	}
	return ageRanges[0]
}

// authorityChoices favors authorities that fit the role level.
func authorityChoices(level string) []history.Choice {
	out := make([]history.Choice, len(decisionAuthorities))
	copy(out, decisionAuthorities)
	boost := map[string]string{
		LevelExecutive:  "final_decision_maker",
		LevelOwner:      "final_decision_maker",
		LevelManagement: "budget_holder",
		LevelIndividual: "technical_evaluator",
	}[level]
	for i := range out {
		if out[i].Value == boost {
			out[i].Weight *= 3
		}
	}
	return out
}

func businessContext(role, industry string, req models.PersonaRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Works as %s in %s.", role, industry)
	if tm := strings.TrimSpace(req.TargetMarket); tm != "" {
		fmt.Fprintf(&b, " Their organization fits the target market: %s.", strings.TrimRight(tm, "."))
	}
	if ps := strings.TrimSpace(req.ProductService); ps != "" {
		fmt.Fprintf(&b, " They are evaluating: %s.", strings.TrimRight(ps, "."))
	}
	return b.String()
}

func recordFields(p models.PersonaFramework) map[string]string {
	var traitCategory string
	if len(p.PersonalityTraits) > 0 {
		traitCategory = traitCategoryOf(p.PersonalityTraits[0])
	}
	return map[string]string{
		FieldCulturalKey:       p.CulturalKey,
		FieldGender:            p.Gender,
		FieldRoleCategory:      p.RoleCategory,
		FieldRole:              p.Role,
		FieldAgeRange:          p.AgeRange,
		FieldTraitCategory:     traitCategory,
		FieldIndustryCategory:  p.IndustryCategory,
		FieldIndustry:          p.Industry,
		FieldChattiness:        p.CommunicationStyle.Chattiness,
		FieldFormality:         p.CommunicationStyle.Formality,
		FieldEmotional:         p.CommunicationStyle.EmotionalExpression,
		FieldDecisionAuthority: p.DecisionAuthority,
		FieldBuyerType:         p.BuyerType,
		FieldName:              p.Name,
		FieldTraits:            strings.Join(p.PersonalityTraits, traitSeparator),
	}
}

func traitCategoryOf(trait string) string {
	for cat, traits := range traitCategories {
		for _, t := range traits {
			if t == trait {
				return cat
			}
		}
	}
	return ""
}
