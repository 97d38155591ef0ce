package persona

import "github.com/BTreeMap/PitchIQ/internal/history"

// Tracked categories. Each doubles as a field name in generation records.
const (
	FieldCulturalKey       = "cultural_key"
	FieldGender            = "gender"
	FieldRoleCategory      = "role_category"
	FieldRole              = "role"
	FieldAgeRange          = "age_range"
	FieldTraitCategory     = "trait_category"
	FieldIndustryCategory  = "industry_category"
	FieldIndustry          = "industry"
	FieldChattiness        = "chattiness"
	FieldFormality         = "formality"
	FieldEmotional         = "emotional_expression"
	FieldDecisionAuthority = "decision_authority"
	FieldBuyerType         = "buyer_type"
	FieldName              = "name"

	// FieldTraits holds the drawn traits joined by traitSeparator. It has
	// no window of its own; Warm replays it into the per-sub-category
	// trait history.
	FieldTraits = "traits"
)

const traitSeparator = "|"

// Exclusion windows per category.
var windows = map[string]int{
	FieldCulturalKey:       3,
	FieldGender:            3,
	FieldRoleCategory:      3,
	FieldRole:              10,
	FieldAgeRange:          2,
	FieldTraitCategory:     3,
	FieldIndustryCategory:  4,
	FieldIndustry:          8,
	FieldChattiness:        1,
	FieldFormality:         1,
	FieldEmotional:         1,
	FieldDecisionAuthority: 2,
	FieldBuyerType:         3,
	FieldName:              20,
}

// traitWindow applies to each trait sub-category separately.
const traitWindow = 5

// culture is one cultural background option.
type culture struct {
	Key   string
	Label string
}

var cultures = []culture{
	{"western_european", "Western European"},
	{"east_asian", "East Asian"},
	{"south_asian", "South Asian"},
	{"latin_american", "Latin American"},
	{"african", "African"},
}

var cultureWeights = []history.Choice{
	{Value: "western_european", Weight: 0.2},
	{Value: "east_asian", Weight: 0.2},
	{Value: "south_asian", Weight: 0.2},
	{Value: "latin_american", Weight: 0.2},
	{Value: "african", Weight: 0.2},
}

var genders = []history.Choice{
	{Value: "male", Weight: 0.5},
	{Value: "female", Weight: 0.5},
}

// Role levels, used downstream for fear placeholders.
const (
	LevelExecutive  = "executive"
	LevelManagement = "management"
	LevelIndividual = "individual_contributor"
	LevelOwner      = "owner"
)

type roleCategory struct {
	Key    string
	Level  string
	Titles []string
	Cues   []string
}

var roleCategories = []roleCategory{
	{
		Key:    "executive",
		Level:  LevelExecutive,
		Titles: []string{"CEO", "COO", "CFO", "CTO", "Managing Director", "VP of Operations", "Chief Revenue Officer"},
		Cues:   []string{"enterprise", "corporate", "fortune", "c-suite", "executive", "large compan"},
	},
	{
		Key:    "management",
		Level:  LevelManagement,
		Titles: []string{"Sales Manager", "Operations Manager", "IT Manager", "HR Director", "Marketing Manager", "Procurement Manager", "Head of Customer Success"},
		Cues:   []string{"mid-size", "mid-market", "team", "department", "manager", "b2b"},
	},
	{
		Key:    "technical",
		Level:  LevelIndividual,
		Titles: []string{"Solutions Architect", "Data Analyst", "Systems Administrator", "Engineering Lead", "Security Engineer", "DevOps Engineer"},
		Cues:   []string{"tech", "software", "developer", "saas", "engineering", "it department", "data"},
	},
	{
		Key:    "operations",
		Level:  LevelIndividual,
		Titles: []string{"Warehouse Supervisor", "Logistics Coordinator", "Office Administrator", "Purchasing Specialist", "Clinic Coordinator", "Plant Supervisor"},
		Cues:   []string{"manufacturing", "logistics", "warehouse", "retail", "operations", "clinic", "field"},
	},
	{
		Key:    "small_business",
		Level:  LevelOwner,
		Titles: []string{"Owner", "Co-Founder", "Independent Consultant", "Practice Owner", "Franchise Owner"},
		Cues:   []string{"small business", "smb", "freelancer", "startup", "local", "solo", "family-owned", "independent"},
	},
}

// cueBoost multiplies a role category's weight per matching cue.
const cueBoost = 2.0

type ageRange struct {
	Range    string
	Category string
	Weight   float64
}

var ageRanges = []ageRange{
	{"25-34", "early_career", 0.2},
	{"35-44", "mid_career", 0.35},
	{"45-54", "senior", 0.3},
	{"55-64", "veteran", 0.15},
}

// traitCategories groups personality traits by sub-category.
var traitCategories = map[string][]string{
	"analytical": {"Detail-oriented", "Data-driven", "Methodical", "Skeptical", "Precise"},
	"relational": {"Warm", "Collaborative", "Empathetic", "Loyal", "Diplomatic"},
	"driver":     {"Decisive", "Results-focused", "Impatient", "Competitive", "Direct"},
	"expressive": {"Enthusiastic", "Imaginative", "Spontaneous", "Optimistic", "Animated"},
	"cautious":   {"Risk-averse", "Deliberate", "Reserved", "Thorough", "Conservative"},
}

var traitCategoryOrder = []string{"analytical", "relational", "driver", "expressive", "cautious"}

// maxTraits is the number of traits per persona.
const maxTraits = 3

type industryCategory struct {
	Key        string
	Industries []string
	Keywords   []string
}

var industryCategories = []industryCategory{
	{"technology", []string{"SaaS", "Cybersecurity", "IT Services", "Telecommunications"}, []string{"software", "saas", "tech", "cloud", "it ", "cyber", "developer", "app"}},
	{"healthcare", []string{"Hospital Systems", "Medical Devices", "Pharmaceuticals", "Dental Practices"}, []string{"health", "medical", "clinic", "hospital", "patient", "pharma", "dental"}},
	{"finance", []string{"Banking", "Insurance", "Accounting", "Wealth Management"}, []string{"bank", "finance", "financial", "insurance", "accounting", "fintech", "wealth"}},
	{"manufacturing", []string{"Automotive Parts", "Industrial Equipment", "Consumer Goods", "Electronics"}, []string{"manufactur", "factory", "industrial", "automotive", "plant", "production"}},
	{"retail", []string{"E-commerce", "Grocery", "Fashion Retail", "Specialty Retail"}, []string{"retail", "store", "e-commerce", "ecommerce", "shop", "consumer"}},
	{"professional_services", []string{"Legal Services", "Consulting", "Marketing Agencies", "Staffing"}, []string{"agency", "consult", "legal", "law firm", "staffing", "services"}},
	{"education", []string{"Higher Education", "K-12 Schools", "Corporate Training", "EdTech"}, []string{"education", "school", "training", "university", "learning", "teacher"}},
	{"real_estate", []string{"Commercial Real Estate", "Property Management", "Construction"}, []string{"real estate", "property", "construction", "building", "realtor"}},
	{"logistics", []string{"Freight", "Warehousing", "Last-Mile Delivery"}, []string{"logistics", "shipping", "freight", "delivery", "warehouse", "fleet"}},
	{"hospitality", []string{"Hotels", "Restaurants", "Travel Services"}, []string{"hotel", "restaurant", "hospitality", "travel", "tourism", "food"}},
}

// industryKeywordBoost multiplies a category's weight per keyword hit.
const industryKeywordBoost = 3.0

var decisionAuthorities = history.Uniform(
	"final_decision_maker", "budget_holder", "key_influencer", "technical_evaluator", "gatekeeper",
)

var buyerTypes = history.Uniform(
	"analytical", "driver", "amiable", "expressive", "skeptic", "pragmatist",
)

// fieldOptions returns the catalog size of a tracked field for bias
// thresholds, or 0 when the field is open-ended.
func fieldOptions(field string) int {
	switch field {
	case FieldCulturalKey:
		return len(cultures)
	case FieldGender:
		return len(genders)
	case FieldRoleCategory:
		return len(roleCategories)
	case FieldAgeRange:
		return len(ageRanges)
	case FieldTraitCategory:
		return len(traitCategories)
	case FieldIndustryCategory:
		return len(industryCategories)
	case FieldChattiness, FieldFormality, FieldEmotional:
		return 3
	case FieldDecisionAuthority:
		return len(decisionAuthorities)
	case FieldBuyerType:
		return len(buyerTypes)
	}
	return 0
}

// reportFields lists the fields analyzed by BiasReport, in report order.
var reportFields = []string{
	FieldCulturalKey, FieldGender, FieldRoleCategory, FieldAgeRange, FieldTraitCategory,
	FieldIndustryCategory, FieldChattiness, FieldFormality, FieldEmotional,
	FieldDecisionAuthority, FieldBuyerType,
}

func cultureLabel(key string) string {
	for _, c := range cultures {
		if c.Key == key {
			return c.Label
		}
	}
	return key
}

func findRoleCategory(key string) roleCategory {
	for _, rc := range roleCategories {
		if rc.Key == key {
			return rc
		}
	}
	return roleCategories[0]
}

func findIndustryCategory(key string) (industryCategory, bool) {
	for _, ic := range industryCategories {
		if ic.Key == key {
			return ic, true
		}
	}
	return industryCategory{}, false
}
