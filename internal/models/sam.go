package models

// Speaker labels assigned by Sam conversation analysis.
const (
	SpeakerSam  = "sam"
	SpeakerUser = "user"
)

// AttributedMessage is a raw transcript line with its inferred speaker.
type AttributedMessage struct {
	Index   int    `json:"index"`
	Speaker string `json:"speaker"`
	Content string `json:"content"`
	Reason  string `json:"reason"`
}

// SamResponse is one or more adjacent same-speaker messages merged into a
// complete response.
type SamResponse struct {
	Speaker string `json:"speaker"`
	Content string `json:"content"`
	Indices []int  `json:"indices"`
}

// SamAnalysis is the result of analyzing a Sam onboarding conversation.
type SamAnalysis struct {
	IsComplete          bool                `json:"is_complete"`
	ProductService      string              `json:"product_service"`
	TargetMarket        string              `json:"target_market"`
	ReadyForCompletion  bool                `json:"ready_for_completion"`
	Confidence          float64             `json:"confidence"`
	Reasoning           string              `json:"reasoning"`
	ProductQuestionSeen bool                `json:"product_question_seen"`
	TargetQuestionSeen  bool                `json:"target_question_seen"`
	Messages            []AttributedMessage `json:"messages"`
	Responses           []SamResponse       `json:"responses"`
}
