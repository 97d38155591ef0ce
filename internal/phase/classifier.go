package phase

import "github.com/BTreeMap/PitchIQ/internal/models"

// Classifier thresholds.
const (
	closingThreshold      = 0.5
	objectionThreshold    = 0.4
	interestThreshold     = 0.4
	businessThreshold     = 0.6
	needsThreshold        = 0.3
	rapportThreshold      = 0.3
	earlyMessageCount     = 3
	discoveryGuardMessage = 4
)

// Classify picks the next phase from the latest salesperson (user) and
// buyer (ai) scores. Rules are evaluated in priority order and the first
// match wins:
//
//  0. fewer than three messages: rapport
//  1. closing signal from either side
//  2. buyer objection
//  3. salesperson interest after discovery, or strong business talk
//     outside rapport
//  4. needs signal, held in rapport while the conversation is under four
//     messages
//  5. rapport when nothing is known yet or rapport signals dominate
//  6. previous phase unchanged
func Classify(user, ai models.Scores, previous models.Phase, messageCount int) models.Phase {
	if messageCount < earlyMessageCount {
		return models.PhaseRapport
	}

	if user.Closing > closingThreshold || ai.Closing > closingThreshold {
		return models.PhaseClosing
	}

	if ai.Objection > objectionThreshold {
		return models.PhaseObjectionHandling
	}

	if user.Interest > interestThreshold && isPostDiscovery(previous) {
		return models.PhasePresentation
	}
	if user.Business > businessThreshold && previous != models.PhaseRapport {
		return models.PhasePresentation
	}

	if user.Needs > needsThreshold || ai.Needs > needsThreshold {
		if previous == models.PhaseRapport && messageCount < discoveryGuardMessage {
			return models.PhaseRapport
		}
		return models.PhaseDiscovery
	}

	if previous == models.PhaseUnknown || messageCount < earlyMessageCount ||
		user.Rapport > rapportThreshold || ai.Rapport > rapportThreshold {
		return models.PhaseRapport
	}

	return previous
}

// ClassifySingle is the reduced rule set used when only one salesperson
// message is available. The same early-conversation guard as Classify
// applies.
func ClassifySingle(user models.Scores, current models.Phase, messageCount int) models.Phase {
	if messageCount < earlyMessageCount {
		return models.PhaseRapport
	}
	if user.Closing > closingThreshold {
		return models.PhaseClosing
	}
	if user.Interest > interestThreshold && isPostDiscovery(current) {
		return models.PhasePresentation
	}
	if user.Needs > needsThreshold {
		if current == models.PhaseRapport && messageCount < discoveryGuardMessage {
			return models.PhaseRapport
		}
		return models.PhaseDiscovery
	}
	if current == models.PhaseUnknown {
		return models.PhaseRapport
	}
	return current
}

func isPostDiscovery(p models.Phase) bool {
	switch p {
	case models.PhaseDiscovery, models.PhasePresentation, models.PhaseObjectionHandling:
		return true
	}
	return false
}
