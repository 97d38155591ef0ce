package persona

import (
	"math/rand/v2"
	"strings"
	"sync"
)

// NamePool supplies names by cultural background and gender.
type NamePool interface {
	// NameByDemographics returns a first and last name, avoiding the full
	// names in avoid where possible.
	NameByDemographics(cultureKey, gender string, avoid []string) (first, last string)
}

// overusedAINames are first names language models reach for by default.
var overusedAINames = map[string]bool{
	"sarah": true, "emily": true, "alex": true, "michael": true, "john": true,
	"david": true, "jennifer": true, "jessica": true, "james": true, "lisa": true,
	"mark": true, "rachel": true, "emma": true, "olivia": true, "chris": true,
	"priya": true, "maria": true, "wei": true, "raj": true, "jordan": true,
}

// IsOverusedName reports whether first is on the overused-name blocklist.
func IsOverusedName(first string) bool {
	return overusedAINames[strings.ToLower(strings.TrimSpace(first))]
}

// backupNames is the hand-curated fallback pool, keyed by gender.
var backupNames = map[string][]string{
	"female": {"Ingrid Halvorsen", "Nkechi Eze", "Mei-Lin Zhou", "Valentina Ríos", "Deepa Raghunathan", "Colette Marchand"},
	"male":   {"Tobias Lindqvist", "Kwame Asante", "Haruto Sato", "Mateo Vargas", "Vikram Shenoy", "Lorcan Byrne"},
}

// demographicNames holds first names by culture then gender, and last names by culture.
var demographicFirstNames = map[string]map[string][]string{
	"western_european": {
		"female": {"Annika", "Clara", "Siobhan", "Margot", "Elske", "Beatrix", "Livia", "Henrike"},
		"male":   {"Lukas", "Pieter", "Declan", "Étienne", "Matthias", "Bastian", "Joost", "Florian"},
	},
	"east_asian": {
		"female": {"Yuna", "Haeun", "Xiaowen", "Aiko", "Minji", "Ruolan", "Sakura", "Jiayi"},
		"male":   {"Haruki", "Jiho", "Zhiwei", "Kenta", "Seojun", "Hao", "Takumi", "Yichen"},
	},
	"south_asian": {
		"female": {"Ananya", "Kavitha", "Ishita", "Nandini", "Farah", "Meera", "Shreya", "Tahmina"},
		"male":   {"Arjun", "Siddharth", "Imran", "Karthik", "Rohan", "Anil", "Farhan", "Nikhil"},
	},
	"latin_american": {
		"female": {"Camila", "Luciana", "Ximena", "Fernanda", "Renata", "Paloma", "Daniela", "Marisol"},
		"male":   {"Santiago", "Joaquín", "Rodrigo", "Emiliano", "Tomás", "Andrés", "Diego", "Facundo"},
	},
	"african": {
		"female": {"Amara", "Zanele", "Adaeze", "Wanjiru", "Nadia", "Efua", "Thandiwe", "Yetunde"},
		"male":   {"Kofi", "Tendai", "Chinedu", "Baraka", "Sipho", "Oluwaseun", "Kwabena", "Tariku"},
	},
}

var demographicLastNames = map[string][]string{
	"western_european": {"Vermeulen", "Schneider", "O'Sullivan", "Laurent", "Bergström", "Hoffmann", "Castellano", "Doyle"},
	"east_asian":       {"Tanaka", "Park", "Liu", "Nakamura", "Choi", "Zhang", "Watanabe", "Huang"},
	"south_asian":      {"Iyer", "Chowdhury", "Reddy", "Malhotra", "Siddiqui", "Nair", "Bose", "Kapoor"},
	"latin_american":   {"Herrera", "Castillo", "Mendoza", "Salazar", "Navarro", "Aguilar", "Ortega", "Fuentes"},
	"african":          {"Okafor", "Mensah", "Ndlovu", "Mwangi", "Adeyemi", "Boateng", "Kamara", "Tesfaye"},
}

// DemographicNamePool is the built-in NamePool.
type DemographicNamePool struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewDemographicNamePool creates a pool drawing from rng; nil uses a random seed.
func NewDemographicNamePool(rng *rand.Rand) *DemographicNamePool {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &DemographicNamePool{rng: rng}
}

// NameByDemographics implements NamePool. Unknown cultures fall back to
// the first catalog culture.
func (p *DemographicNamePool) NameByDemographics(cultureKey, gender string, avoid []string) (string, string) {
	firsts, ok := demographicFirstNames[cultureKey][gender]
	if !ok {
		firsts = demographicFirstNames[cultures[0].Key]["female"]
		if gender == "male" {
			firsts = demographicFirstNames[cultures[0].Key]["male"]
		}
	}
	lasts, ok := demographicLastNames[cultureKey]
	if !ok {
		lasts = demographicLastNames[cultures[0].Key]
	}

	avoidSet := make(map[string]bool, len(avoid))
	for _, a := range avoid {
		avoidSet[strings.ToLower(a)] = true
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	var candidates [][2]string
	for _, f := range firsts {
		for _, l := range lasts {
			if !avoidSet[strings.ToLower(f+" "+l)] {
				candidates = append(candidates, [2]string{f, l})
			}
		}
	}
	if len(candidates) == 0 {
		return firsts[p.rng.IntN(len(firsts))], lasts[p.rng.IntN(len(lasts))]
	}
	c := candidates[p.rng.IntN(len(candidates))]
	return c[0], c[1]
}
