package phase

import (
	"testing"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

var scoreGrid = []float64{0, 0.3, 0.31, 0.45, 0.6, 0.7, 1.0}

func allPhasesExcept(excluded ...models.Phase) []models.Phase {
	var out []models.Phase
	for _, p := range models.AllPhases {
		skip := false
		for _, e := range excluded {
			if p == e {
				skip = true
			}
		}
		if !skip {
			out = append(out, p)
		}
	}
	return out
}

func TestClassifyEarlyConversationGuard(t *testing.T) {
	for count := 0; count < 3; count++ {
		for _, prev := range models.AllPhases {
			for _, v := range scoreGrid {
				user := models.Scores{Closing: v, Interest: v, Business: v, Needs: v}
				ai := models.Scores{Objection: v, Closing: v, Needs: v}
				got := Classify(user, ai, prev, count)
				if got != models.PhaseRapport && got != models.PhaseUnknown {
					t.Fatalf("count=%d prev=%s v=%v: got %s, want rapport or unknown", count, prev, v, got)
				}
			}
		}
	}
}

func TestClassifyClosingPrecedence(t *testing.T) {
	for count := 3; count < 12; count++ {
		for _, prev := range models.AllPhases {
			for _, v := range scoreGrid {
				user := models.Scores{Closing: 0.7, Interest: v, Business: v, Needs: v, Rapport: v}
				ai := models.Scores{Objection: v, Needs: v, Rapport: v}
				if got := Classify(user, ai, prev, count); got != models.PhaseClosing {
					t.Fatalf("count=%d prev=%s v=%v: got %s, want closing", count, prev, v, got)
				}
			}
		}
	}
}

func TestClassifyDiscoverySuppression(t *testing.T) {
	user := models.Scores{Needs: 0.5}
	if got := Classify(user, models.Scores{}, models.PhaseRapport, 2); got != models.PhaseRapport {
		t.Errorf("count=2: got %s, want rapport", got)
	}
	// The early guard is not what holds the phase at three messages: the
	// discovery rule's own rapport guard is.
	if got := Classify(user, models.Scores{}, models.PhaseRapport, 3); got != models.PhaseRapport {
		t.Errorf("count=3 prev=rapport: got %s, want rapport", got)
	}
	if got := Classify(user, models.Scores{}, models.PhaseRapport, 4); got != models.PhaseDiscovery {
		t.Errorf("count=4 prev=rapport: got %s, want discovery", got)
	}
	if got := Classify(user, models.Scores{}, models.PhaseUnknown, 3); got != models.PhaseDiscovery {
		t.Errorf("count=3 prev=unknown: got %s, want discovery", got)
	}
}

func TestClassifyPriorityRules(t *testing.T) {
	tests := []struct {
		name  string
		user  models.Scores
		ai    models.Scores
		prev  models.Phase
		count int
		want  models.Phase
	}{
		{"ai closing", models.Scores{}, models.Scores{Closing: 0.7}, models.PhaseDiscovery, 6, models.PhaseClosing},
		{"closing threshold is strict", models.Scores{Closing: 0.5}, models.Scores{}, models.PhaseDiscovery, 6, models.PhaseDiscovery},
		{"objection beats presentation", models.Scores{Interest: 1}, models.Scores{Objection: 0.8}, models.PhaseDiscovery, 6, models.PhaseObjectionHandling},
		{"user objection ignored", models.Scores{Objection: 1}, models.Scores{}, models.PhaseDiscovery, 6, models.PhaseDiscovery},
		{"interest after discovery", models.Scores{Interest: 0.6}, models.Scores{}, models.PhaseDiscovery, 6, models.PhasePresentation},
		{"interest during rapport is not presentation", models.Scores{Interest: 0.6}, models.Scores{}, models.PhaseRapport, 6, models.PhaseRapport},
		{"business outside rapport", models.Scores{Business: 0.8}, models.Scores{}, models.PhaseUnknown, 6, models.PhasePresentation},
		{"business during rapport", models.Scores{Business: 0.8}, models.Scores{}, models.PhaseRapport, 6, models.PhaseRapport},
		{"ai needs drives discovery", models.Scores{}, models.Scores{Needs: 0.4}, models.PhasePresentation, 6, models.PhaseDiscovery},
		{"rapport signal", models.Scores{Rapport: 0.5}, models.Scores{}, models.PhaseDiscovery, 6, models.PhaseRapport},
		{"unknown previous falls to rapport", models.Scores{}, models.Scores{}, models.PhaseUnknown, 6, models.PhaseRapport},
		{"no signal keeps previous", models.Scores{}, models.Scores{}, models.PhasePresentation, 6, models.PhasePresentation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.user, tt.ai, tt.prev, tt.count); got != tt.want {
				t.Errorf("Classify() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestClassifyNeverUnknownAfterThreeMessages(t *testing.T) {
	for count := 3; count < 8; count++ {
		for _, prev := range allPhasesExcept() {
			for _, v := range scoreGrid {
				s := models.Scores{Rapport: v, Needs: v, Interest: v}
				if got := Classify(s, s, prev, count); got == models.PhaseUnknown {
					t.Fatalf("count=%d prev=%s v=%v: classifier returned unknown", count, prev, v)
				}
			}
		}
	}
}

func TestClassifySingle(t *testing.T) {
	tests := []struct {
		name    string
		user    models.Scores
		current models.Phase
		count   int
		want    models.Phase
	}{
		{"closing held by early guard", models.Scores{Closing: 0.7}, models.PhaseUnknown, 1, models.PhaseRapport},
		{"closing after guard", models.Scores{Closing: 0.7}, models.PhaseRapport, 3, models.PhaseClosing},
		{"interest after discovery", models.Scores{Interest: 0.6}, models.PhaseDiscovery, 5, models.PhasePresentation},
		{"needs held early in rapport", models.Scores{Needs: 0.7}, models.PhaseRapport, 2, models.PhaseRapport},
		{"needs later", models.Scores{Needs: 0.7}, models.PhaseRapport, 5, models.PhaseDiscovery},
		{"unknown becomes rapport", models.Scores{}, models.PhaseUnknown, 1, models.PhaseRapport},
		{"no signal keeps current", models.Scores{}, models.PhasePresentation, 5, models.PhasePresentation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifySingle(tt.user, tt.current, tt.count); got != tt.want {
				t.Errorf("ClassifySingle() = %s, want %s", got, tt.want)
			}
		})
	}
}
