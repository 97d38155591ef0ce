// Package sam attributes speakers in Sam onboarding transcripts and
// extracts the product and target-market answers the coach asked for.
package sam

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/BTreeMap/PitchIQ/internal/models"
)

// DefaultSimilarityThreshold is the shared-word ratio above which two user
// responses count as the same answer.
const DefaultSimilarityThreshold = 0.7

const maxAckWords = 4

// Attribution reasons reported on each message.
const (
	ReasonFirstMessage    = "first_message"
	ReasonSamPhrase       = "sam_phrase"
	ReasonUserPhrase      = "user_phrase"
	ReasonAfterQuestion   = "after_question"
	ReasonAcknowledgement = "acknowledgement"
	ReasonAlternation     = "alternation"
)

var (
	samPhrases = []string{
		"i'm sam", "i am sam", "sales coach", "what product or service", "what do you sell",
		"who is your target market", "who are your target", "who do you sell to", "target market",
		"tell me about your product", "i'll create", "let me create",
		"thanks for sharing", "that sounds", "based on what you", "your ideal customer",
	}
	// weakSamPhrases are common enough in user replies that a pending Sam
	// question outranks them.
	weakSamPhrases = []string{"great!", "perfect", "let me", "got it"}
	userPhrases    = []string{
		"we sell", "i sell", "our product", "our company", "we offer", "we provide", "my company",
		"mostly", "our customers", "our target", "we target", "we help", "i work", "we're a", "we are a",
	}
	productQuestions = []string{
		"what product", "what service", "product or service", "what do you sell", "tell me about your product",
	}
	targetQuestions = []string{
		"target market", "who do you sell to", "ideal customer", "who are your customers", "who are your target",
	}
	completionPhrases = []string{
		"i'll create", "let me create", "creating your", "here's your persona", "i have everything i need",
		"let's start the roleplay", "ready to start", "ready to practice",
	}
	ackWords = []string{
		"great", "perfect", "got it", "awesome", "thanks", "thank you", "ok", "okay", "nice",
		"excellent", "wonderful", "understood", "sounds good",
	}
	connectors = []string{"and", "but", "also", "or", "so", "plus"}

	wordRe = regexp.MustCompile(`[a-z0-9']+`)
)

// phraseSet matches any of its phrases on word boundaries.
type phraseSet []*regexp.Regexp

func compilePhrases(phrases []string) phraseSet {
	out := make(phraseSet, 0, len(phrases))
	for _, p := range phrases {
		// \b only anchors next to word characters, so phrases ending in
		// punctuation are anchored on the left only.
		expr := `(?i)\b` + regexp.QuoteMeta(p)
		if r, _ := utf8.DecodeLastRuneInString(p); unicode.IsLetter(r) || unicode.IsDigit(r) {
			expr += `\b`
		}
		out = append(out, regexp.MustCompile(expr))
	}
	return out
}

func (ps phraseSet) match(s string) bool {
	for _, re := range ps {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

// Opts holds configuration for a Service.
type Opts struct {
	SimilarityThreshold float64
}

// Option configures a Service.
type Option func(*Opts)

// WithSimilarityThreshold sets the shared-word ratio above which a target
// answer is treated as a repeat of the product answer.
func WithSimilarityThreshold(v float64) Option {
	return func(o *Opts) { o.SimilarityThreshold = v }
}

// Service analyzes untagged Sam transcripts. It holds no mutable state and is
// safe for concurrent use.
type Service struct {
	threshold  float64
	sam        phraseSet
	weakSam    phraseSet
	user       phraseSet
	product    phraseSet
	target     phraseSet
	completion phraseSet
}

// NewService creates a Service.
func NewService(opts ...Option) *Service {
	cfg := Opts{SimilarityThreshold: DefaultSimilarityThreshold}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.SimilarityThreshold <= 0 || cfg.SimilarityThreshold > 1 {
		slog.Warn("Service.NewService: similarity threshold out of range, using default", "threshold", cfg.SimilarityThreshold)
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	return &Service{
		threshold:  cfg.SimilarityThreshold,
		sam:        compilePhrases(samPhrases),
		weakSam:    compilePhrases(weakSamPhrases),
		user:       compilePhrases(userPhrases),
		product:    compilePhrases(productQuestions),
		target:     compilePhrases(targetQuestions),
		completion: compilePhrases(completionPhrases),
	}
}

// Analyze attributes each message, merges continuations and extracts the
// product and target-market answers.
func (s *Service) Analyze(conversation []string) models.SamAnalysis {
	out := models.SamAnalysis{
		Messages:  s.Attribute(conversation),
		Responses: []models.SamResponse{},
	}
	out.Responses = mergeResponses(out.Messages)
	out.IsComplete = s.completion.match(strings.Join(conversation, " "))

	productIdx := -1
	for i, r := range out.Responses {
		if r.Speaker != models.SpeakerSam || !s.product.match(r.Content) {
			continue
		}
		out.ProductQuestionSeen = true
		if j := nextUserResponse(out.Responses, i); j >= 0 {
			productIdx = j
			out.ProductService = out.Responses[j].Content
		}
		break
	}

	for i, r := range out.Responses {
		if r.Speaker != models.SpeakerSam || !s.target.match(r.Content) {
			continue
		}
		out.TargetQuestionSeen = true
		for j := i + 1; j < len(out.Responses); j++ {
			cand := out.Responses[j]
			if cand.Speaker != models.SpeakerUser || j == productIdx {
				continue
			}
			if out.ProductService != "" && Similarity(cand.Content, out.ProductService) > s.threshold {
				continue
			}
			out.TargetMarket = cand.Content
			break
		}
		break
	}

	out.ReadyForCompletion = out.ProductService != "" && out.TargetMarket != ""
	switch {
	case out.ReadyForCompletion:
		out.Confidence = 0.9
	case out.ProductService != "" || out.TargetMarket != "":
		out.Confidence = 0.5
	default:
		out.Confidence = 0.1
	}
	out.Reasoning = reasoning(out)

	slog.Debug("Service.Analyze: conversation analyzed", "messages", len(conversation), "responses", len(out.Responses), "ready", out.ReadyForCompletion, "complete", out.IsComplete)
	return out
}

// Attribute assigns a speaker to every message. It never leaves a speaker
// empty.
func (s *Service) Attribute(conversation []string) []models.AttributedMessage {
	out := make([]models.AttributedMessage, 0, len(conversation))
	for i, raw := range conversation {
		content := strings.TrimSpace(raw)
		speaker, reason := s.classify(i, content, out)
		out = append(out, models.AttributedMessage{Index: i, Speaker: speaker, Content: content, Reason: reason})
	}
	return out
}

func (s *Service) classify(i int, content string, prior []models.AttributedMessage) (string, string) {
	if i == 0 {
		return models.SpeakerSam, ReasonFirstMessage
	}
	samHit, userHit := s.sam.match(content), s.user.match(content)
	switch {
	case userHit:
		return models.SpeakerUser, ReasonUserPhrase
	case samHit:
		return models.SpeakerSam, ReasonSamPhrase
	}

	prev := prior[len(prior)-1]
	if prev.Speaker == models.SpeakerSam && strings.HasSuffix(prev.Content, "?") {
		return models.SpeakerUser, ReasonAfterQuestion
	}
	if s.weakSam.match(content) {
		return models.SpeakerSam, ReasonSamPhrase
	}
	if prev.Speaker == models.SpeakerSam {
		if len(strings.Fields(content)) <= maxAckWords && isAcknowledgement(content) {
			return models.SpeakerSam, ReasonAcknowledgement
		}
	}
	if prev.Speaker == models.SpeakerSam {
		return models.SpeakerUser, ReasonAlternation
	}
	return models.SpeakerSam, ReasonAlternation
}

func isAcknowledgement(content string) bool {
	lower := strings.ToLower(content)
	for _, w := range ackWords {
		if strings.HasPrefix(lower, w) {
			return true
		}
	}
	return false
}

// mergeResponses joins adjacent same-speaker messages when the second one
// continues the first.
func mergeResponses(msgs []models.AttributedMessage) []models.SamResponse {
	out := []models.SamResponse{}
	for _, m := range msgs {
		if m.Content == "" {
			continue
		}
		if n := len(out); n > 0 && out[n-1].Speaker == m.Speaker && continues(out[n-1].Content, m.Content) {
			out[n-1].Content += " " + m.Content
			out[n-1].Indices = append(out[n-1].Indices, m.Index)
			continue
		}
		out = append(out, models.SamResponse{Speaker: m.Speaker, Content: m.Content, Indices: []int{m.Index}})
	}
	return out
}

// continues reports whether next reads as a continuation of prev: prev has
// no terminal punctuation, or next starts lower-case or with a connector.
func continues(prev, next string) bool {
	if !strings.HasSuffix(prev, ".") && !strings.HasSuffix(prev, "!") && !strings.HasSuffix(prev, "?") {
		return true
	}
	first, _ := utf8.DecodeRuneInString(next)
	if unicode.IsLower(first) {
		return true
	}
	firstWord := strings.ToLower(strings.Trim(strings.SplitN(next, " ", 2)[0], ",.;:"))
	for _, c := range connectors {
		if firstWord == c {
			return true
		}
	}
	return false
}

func nextUserResponse(rs []models.SamResponse, after int) int {
	for j := after + 1; j < len(rs); j++ {
		if rs[j].Speaker == models.SpeakerUser {
			return j
		}
	}
	return -1
}

// Similarity is the number of shared words divided by the word count of the
// longer text.
func Similarity(a, b string) float64 {
	wa, wb := wordSet(a), wordSet(b)
	longest := max(len(wa), len(wb))
	if longest == 0 {
		return 0
	}
	shared := 0
	for w := range wa {
		if wb[w] {
			shared++
		}
	}
	return float64(shared) / float64(longest)
}

func wordSet(s string) map[string]bool {
	out := make(map[string]bool)
	for _, w := range wordRe.FindAllString(strings.ToLower(s), -1) {
		out[w] = true
	}
	return out
}

func reasoning(a models.SamAnalysis) string {
	var parts []string
	if a.ProductService != "" {
		parts = append(parts, "product answer found")
	} else if a.ProductQuestionSeen {
		parts = append(parts, "product question asked but not answered")
	} else {
		parts = append(parts, "product question not asked")
	}
	if a.TargetMarket != "" {
		parts = append(parts, "target market answer found")
	} else if a.TargetQuestionSeen {
		parts = append(parts, "target question asked but not answered")
	} else {
		parts = append(parts, "target question not asked")
	}
	if a.IsComplete {
		parts = append(parts, "completion phrase present")
	}
	return fmt.Sprintf("%s.", strings.Join(parts, "; "))
}
