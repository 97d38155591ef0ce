package persona

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/BTreeMap/PitchIQ/internal/history"
	"github.com/BTreeMap/PitchIQ/internal/models"
	"github.com/BTreeMap/PitchIQ/internal/style"
)

// mockCompleter implements genai.Completer for testing.
type mockCompleter struct {
	reply string
	err   error
	calls int
}

func (m *mockCompleter) Complete(ctx context.Context, prompt string) (string, error) {
	m.calls++
	return m.reply, m.err
}

// fixedNamePool returns names from a script, then the last one forever.
type fixedNamePool struct {
	names [][2]string
	calls int
}

func (p *fixedNamePool) NameByDemographics(cultureKey, gender string, avoid []string) (string, string) {
	i := min(p.calls, len(p.names)-1)
	p.calls++
	return p.names[i][0], p.names[i][1]
}

// mockFearSource implements FearSource for testing.
type mockFearSource struct {
	gotProduct string
	gotContext models.FearContext
}

func (m *mockFearSource) Generate(productService string, ctx models.FearContext, personalSituation string) models.ContextualFears {
	m.gotProduct = productService
	m.gotContext = ctx
	return models.ContextualFears{AuthenticObjections: []string{"Wait... what happens to my team?"}}
}

// mockRecorder implements GenerationRecorder for testing.
type mockRecorder struct {
	records []models.GenerationRecord
	err     error
}

func (m *mockRecorder) AddGeneration(ctx context.Context, rec models.GenerationRecord) error {
	m.records = append(m.records, rec)
	return m.err
}

func seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed+1))
}

func TestGenerate_NoConsecutiveCulturalRepeat(t *testing.T) {
	for seed := uint64(1); seed <= 5; seed++ {
		g := NewGenerator(WithRand(seeded(seed)))
		var keys []string
		for i := 0; i < 30; i++ {
			keys = append(keys, g.Generate(context.Background(), models.PersonaRequest{}).CulturalKey)
		}
		for i := 1; i < len(keys); i++ {
			for j := max(0, i-windows[FieldCulturalKey]); j < i; j++ {
				if keys[i] == keys[j] {
					t.Fatalf("seed %d: cultural key %q repeated within window at %d and %d: %v", seed, keys[i], j, i, keys)
				}
			}
		}
	}
}

func TestGenerate_FieldsPopulated(t *testing.T) {
	g := NewGenerator(WithRand(seeded(11)))
	p := g.Generate(context.Background(), models.PersonaRequest{
		TargetMarket:    "mid-size B2B SaaS companies",
		ProductService:  "AI sales training platform",
		ComplexityLevel: "ADVANCED",
	})

	checks := map[string]string{
		"name": p.Name, "cultural_key": p.CulturalKey, "cultural_background": p.CulturalBackground,
		"gender": p.Gender, "role": p.Role, "role_category": p.RoleCategory, "role_level": p.RoleLevel,
		"age_range": p.AgeRange, "age_category": p.AgeCategory, "industry": p.Industry,
		"industry_category": p.IndustryCategory, "decision_authority": p.DecisionAuthority,
		"buyer_type": p.BuyerType, "business_context": p.BusinessContext,
	}
	for field, v := range checks {
		if v == "" {
			t.Errorf("expected %s to be set", field)
		}
	}
	if len(p.PersonalityTraits) == 0 || len(p.PersonalityTraits) > maxTraits {
		t.Errorf("expected 1 to %d traits, got %v", maxTraits, p.PersonalityTraits)
	}
	seen := map[string]bool{}
	for _, tr := range p.PersonalityTraits {
		if seen[tr] {
			t.Errorf("duplicate trait %q in %v", tr, p.PersonalityTraits)
		}
		seen[tr] = true
	}
	if _, replaced := style.ValidateStyle(p.CommunicationStyle); replaced {
		t.Errorf("generated style must use whitelisted descriptors: %+v", p.CommunicationStyle)
	}
	if p.ComplexityLevel != "advanced" {
		t.Errorf("expected normalized complexity, got %q", p.ComplexityLevel)
	}
	if !strings.Contains(p.BusinessContext, "AI sales training platform") {
		t.Errorf("business context should mention the product: %q", p.BusinessContext)
	}
	if IsOverusedName(strings.Fields(p.Name)[0]) {
		t.Errorf("generated a blocklisted name: %q", p.Name)
	}
	if p.ContextualFears != nil {
		t.Error("no fear source configured, expected no fears")
	}
}

func TestGenerate_DefaultComplexity(t *testing.T) {
	g := NewGenerator(WithRand(seeded(2)))
	p := g.Generate(context.Background(), models.PersonaRequest{ComplexityLevel: "expert"})
	if p.ComplexityLevel != "intermediate" {
		t.Errorf("expected intermediate fallback, got %q", p.ComplexityLevel)
	}
}

func TestPickName_RedrawsBlocklistedNames(t *testing.T) {
	pool := &fixedNamePool{names: [][2]string{{"Sarah", "Chen"}, {"Alex", "Johnson"}, {"Kofi", "Mensah"}}}
	g := NewGenerator(WithRand(seeded(3)), WithNamePool(pool))
	p := g.Generate(context.Background(), models.PersonaRequest{})
	if p.Name != "Kofi Mensah" {
		t.Errorf("expected third draw to be accepted, got %q", p.Name)
	}
	if pool.calls != 3 {
		t.Errorf("expected 3 draws, got %d", pool.calls)
	}
}

func TestPickName_FallsBackToBackupPool(t *testing.T) {
	pool := &fixedNamePool{names: [][2]string{{"Sarah", "Chen"}}}
	g := NewGenerator(WithRand(seeded(4)), WithNamePool(pool))
	p := g.Generate(context.Background(), models.PersonaRequest{})

	if pool.calls != maxNameAttempts {
		t.Errorf("expected %d draws before fallback, got %d", maxNameAttempts, pool.calls)
	}
	found := false
	for _, n := range backupNames[p.Gender] {
		if n == p.Name {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a backup %s name, got %q", p.Gender, p.Name)
	}
}

func TestIsOverusedName(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"Sarah", true},
		{"  EMILY ", true},
		{"Zanele", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsOverusedName(tt.name); got != tt.want {
			t.Errorf("IsOverusedName(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDemographicNamePool_AvoidsRecent(t *testing.T) {
	pool := NewDemographicNamePool(seeded(5))
	var avoid []string
	for _, f := range demographicFirstNames["african"]["female"] {
		for _, l := range demographicLastNames["african"] {
			avoid = append(avoid, f+" "+l)
		}
	}
	keep := avoid[len(avoid)-1]
	avoid = avoid[:len(avoid)-1]

	first, last := pool.NameByDemographics("african", "female", avoid)
	if first+" "+last != keep {
		t.Errorf("expected the only non-avoided name %q, got %q", keep, first+" "+last)
	}
}

func TestGenerate_IndustryContextPinsCategory(t *testing.T) {
	g := NewGenerator(WithRand(seeded(6)))
	for i := 0; i < 5; i++ {
		p := g.Generate(context.Background(), models.PersonaRequest{IndustryContext: "Healthcare"})
		if p.IndustryCategory != "healthcare" {
			t.Fatalf("expected healthcare, got %q", p.IndustryCategory)
		}
	}
}

func TestGenerate_LLMIndustrySelection(t *testing.T) {
	llm := &mockCompleter{reply: "Sure:\n```json\n[\"finance\", \"bogus\", \"FINANCE\"]\n```"}
	g := NewGenerator(WithRand(seeded(7)), WithCompleter(llm))
	p := g.Generate(context.Background(), models.PersonaRequest{TargetMarket: "regional credit unions"})
	if llm.calls != 1 {
		t.Errorf("expected 1 LLM call, got %d", llm.calls)
	}
	if p.IndustryCategory != "finance" {
		t.Errorf("expected LLM-selected finance category, got %q", p.IndustryCategory)
	}
}

func TestGenerate_LLMIndustryFallback(t *testing.T) {
	tests := []struct {
		name string
		llm  *mockCompleter
	}{
		{"error", &mockCompleter{err: errors.New("timeout")}},
		{"prose", &mockCompleter{reply: "I think healthcare fits best."}},
		{"no valid keys", &mockCompleter{reply: `["aerospace"]`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGenerator(WithRand(seeded(8)), WithCompleter(tt.llm))
			p := g.Generate(context.Background(), models.PersonaRequest{ProductService: "clinic scheduling software"})
			if _, ok := findIndustryCategory(p.IndustryCategory); !ok {
				t.Errorf("expected a catalog industry category, got %q", p.IndustryCategory)
			}
		})
	}
}

func TestParseIndustryKeys(t *testing.T) {
	keys, err := parseIndustryKeys(`["retail", "education", "retail"]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 2 || keys[0] != "retail" || keys[1] != "education" {
		t.Errorf("unexpected keys: %v", keys)
	}
	if _, err := parseIndustryKeys("none"); !errors.Is(err, errNoJSONArray) {
		t.Errorf("expected errNoJSONArray, got %v", err)
	}
}

func TestKeywordIndustryChoices(t *testing.T) {
	choices := keywordIndustryChoices("Hospital patient intake software")
	weights := map[string]float64{}
	for _, c := range choices {
		weights[c.Value] = c.Weight
	}
	if weights["healthcare"] <= weights["retail"] {
		t.Errorf("expected healthcare boosted over retail: %v", weights)
	}
	if weights["technology"] <= 1 {
		t.Errorf("expected technology boosted for software: %v", weights)
	}
	if len(choices) != len(industryCategories) {
		t.Errorf("fallback must keep every category, got %d", len(choices))
	}
}

func TestRoleCategoryChoices_Cues(t *testing.T) {
	weights := map[string]float64{}
	for _, c := range roleCategoryChoices("freelancer and startup founders") {
		weights[c.Value] = c.Weight
	}
	if weights["small_business"] != cueBoost*cueBoost {
		t.Errorf("expected small_business boosted twice, got %v", weights["small_business"])
	}
	if weights["executive"] != 1 {
		t.Errorf("expected executive unboosted, got %v", weights["executive"])
	}
}

func TestGenerate_AttachesFearsAndRecords(t *testing.T) {
	fears := &mockFearSource{}
	rec := &mockRecorder{err: errors.New("disk full")}
	g := NewGenerator(WithRand(seeded(9)), WithFearSource(fears), WithRecorder(rec))

	p := g.Generate(context.Background(), models.PersonaRequest{ProductService: "AI-powered automation platform"})
	if p.ContextualFears == nil || len(p.ContextualFears.AuthenticObjections) != 1 {
		t.Fatalf("expected fears attached, got %+v", p.ContextualFears)
	}
	if fears.gotProduct != "AI-powered automation platform" || fears.gotContext.Role != p.Role {
		t.Errorf("fear source received wrong inputs: %q %+v", fears.gotProduct, fears.gotContext)
	}
	if len(rec.records) != 1 || rec.records[0].Fields[FieldCulturalKey] != p.CulturalKey {
		t.Errorf("expected generation to be recorded, got %+v", rec.records)
	}
	if g.log.Len() != 1 {
		t.Errorf("expected generation log entry despite recorder error, got %d", g.log.Len())
	}

	// No product, no fears.
	p = g.Generate(context.Background(), models.PersonaRequest{})
	if p.ContextualFears != nil {
		t.Error("expected no fears without a product")
	}
}

func TestWarm_ExcludesRestoredHistory(t *testing.T) {
	for seed := uint64(1); seed <= 10; seed++ {
		g := NewGenerator(WithRand(seeded(seed)))
		g.Warm([]models.GenerationRecord{
			{ID: "a", Fields: map[string]string{FieldCulturalKey: "african", FieldGender: "female"}},
			{ID: "b", Fields: map[string]string{FieldCulturalKey: "east_asian", FieldGender: "female"}},
		})
		p := g.Generate(context.Background(), models.PersonaRequest{})
		if p.CulturalKey == "african" || p.CulturalKey == "east_asian" {
			t.Fatalf("seed %d: restored cultural keys should be excluded, got %q", seed, p.CulturalKey)
		}
		if p.Gender != "male" {
			t.Fatalf("seed %d: restored genders should be excluded, got %q", seed, p.Gender)
		}
		if g.log.Len() != 3 {
			t.Fatalf("expected restored records in log, got %d", g.log.Len())
		}
	}
}

func TestWarm_RestoresTraitHistory(t *testing.T) {
	tracker := history.NewMemoryTracker(0)
	g := NewGenerator(WithTracker(tracker), WithRand(seeded(1)))
	g.Warm([]models.GenerationRecord{
		{ID: "a", Fields: map[string]string{FieldTraits: "Methodical|Precise|Warm"}},
		{ID: "b", Fields: map[string]string{FieldTraits: "Skeptical|Unknown trait"}},
		{ID: "c", Fields: map[string]string{FieldGender: "male"}},
	})

	tests := []struct {
		category string
		want     []string
	}{
		{"trait:analytical", []string{"Methodical", "Precise", "Skeptical"}},
		{"trait:relational", []string{"Warm"}},
		{"trait:driver", nil},
	}
	for _, tt := range tests {
		t.Run(tt.category, func(t *testing.T) {
			got := tracker.Recent(tt.category, traitWindow)
			if strings.Join(got, ",") != strings.Join(tt.want, ",") {
				t.Errorf("Recent(%s) = %v, want %v", tt.category, got, tt.want)
			}
		})
	}
}

func TestGenerate_RecordsTraits(t *testing.T) {
	g := NewGenerator(WithRand(seeded(3)))
	p := g.Generate(context.Background(), models.PersonaRequest{})
	recs := g.log.Recent(1)
	if len(recs) != 1 {
		t.Fatalf("expected one generation record, got %d", len(recs))
	}
	if got := recs[0].Fields[FieldTraits]; got != strings.Join(p.PersonalityTraits, traitSeparator) {
		t.Errorf("traits field = %q, persona traits %v", got, p.PersonalityTraits)
	}
}

func TestConcurrentGenerate(t *testing.T) {
	g := NewGenerator(WithTracker(history.NewMemoryTracker(0)))
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for j := 0; j < 10; j++ {
				g.Generate(context.Background(), models.PersonaRequest{TargetMarket: fmt.Sprintf("market %d", j)})
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
	if g.log.Len() != 80 {
		t.Errorf("expected 80 generations, got %d", g.log.Len())
	}
}

func TestDescribe(t *testing.T) {
	p := models.PersonaFramework{
		Name:               "Amara Okafor",
		Role:               "Operations Manager",
		Industry:           "Hospital Systems",
		CulturalBackground: "African",
		Gender:             "female",
		AgeRange:           "35-44",
		PersonalityTraits:  []string{"Methodical", "Warm"},
		BuyerType:          "analytical",
		DecisionAuthority:  "budget_holder",
		BusinessContext:    "Works as Operations Manager in Hospital Systems.",
		ContextualFears: &models.ContextualFears{
			Fears:               []models.FearManifestation{{FearStatement: "What if this makes my role redundant?"}},
			AuthenticObjections: []string{"But how do I know it works for us?"},
		},
	}
	d := Describe(p)
	for _, want := range []string{
		"You are Amara Okafor, an Operations Manager.",
		"Hospital Systems",
		"African background, female, age 35-44",
		"Methodical, Warm",
		"Budget Holder",
		"What if this makes my role redundant?",
		"But how do I know it works for us?",
	} {
		if !strings.Contains(d, want) {
			t.Errorf("description missing %q:\n%s", want, d)
		}
	}
}
