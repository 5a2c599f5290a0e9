package analysis

import "encoding/json"

// SentimentLabel is the upstream sentiment class.
type SentimentLabel string

const (
	SentimentPositive SentimentLabel = "Positive"
	SentimentNegative SentimentLabel = "Negative"
	SentimentNeutral  SentimentLabel = "Neutral"
)

// EvidenceLabel is the NLI class assigned to one evidence item.
type EvidenceLabel string

const (
	LabelEntailment    EvidenceLabel = "entailment"
	LabelNeutral       EvidenceLabel = "neutral"
	LabelContradiction EvidenceLabel = "contradiction"
)

// Result is one analysis response. It is read-only after decoding.
type Result struct {
	ID        string          `json:"id"`
	CreatedAt string          `json:"created_at"` // "Sun Jul 20 18:05:44 +0000 2025"
	Text      string          `json:"text"`
	Lang      string          `json:"lang"`
	Likes     int64           `json:"likes"`
	Reposts   int64           `json:"retweets"`
	Bookmarks int64           `json:"bookmarks"`
	Quotes    int64           `json:"quotes"`
	Replies   int64           `json:"replies"`
	Author    Author          `json:"author"`
	Media     json.RawMessage `json:"media,omitempty"`
	Sentiment Sentiment       `json:"sentiment"`
	IsClaim   bool            `json:"is_claim"`
	FactCheck *FactCheck      `json:"fact_check"`
}

// Author describes the account that wrote the post.
type Author struct {
	Name     string `json:"name"`
	Handle   string `json:"screen_name"`
	Image    string `json:"image"`
	Verified bool   `json:"blue_verified"`
}

// Sentiment is the upstream sentiment label and its confidence in [0,1].
type Sentiment struct {
	Label      SentimentLabel `json:"label"`
	Confidence float64        `json:"confidence"`
}

// FactCheck is only meaningful when Result.IsClaim is true.
type FactCheck struct {
	Claim             string         `json:"claim"`
	Verdict           string         `json:"verdict"`
	Confidence        float64        `json:"confidence"`
	SearchedQueries   []string       `json:"searched_queries"`
	ResultsConsidered int            `json:"results_considered"`
	Support           []EvidenceItem `json:"support"`
	Refute            []EvidenceItem `json:"refute"`
	Neutral           []EvidenceItem `json:"neutral"`
	Timestamp         string         `json:"timestamp_utc"`
	Notes             string         `json:"notes"`
}

// EvidenceItem is one external source consulted for a claim.
type EvidenceItem struct {
	URL      string         `json:"url"`
	Title    string         `json:"title"`
	Evidence string         `json:"evidence"`
	Label    EvidenceLabel  `json:"label"`
	Score    float64        `json:"score"`
	Scores   EvidenceScores `json:"scores"`
}

// EvidenceScores is the per-class probability breakdown.
type EvidenceScores struct {
	Entailment    float64 `json:"entailment"`
	Neutral       float64 `json:"neutral"`
	Contradiction float64 `json:"contradiction"`
}

// TrustedFactCheck returns the fact-check record when the post carries a
// checkable claim, and nil otherwise.
func (r *Result) TrustedFactCheck() *FactCheck {
	if r == nil || !r.IsClaim {
		return nil
	}
	return r.FactCheck
}

// EvidenceCount returns the total number of evidence items across all lists.
func (fc *FactCheck) EvidenceCount() int {
	if fc == nil {
		return 0
	}
	return len(fc.Support) + len(fc.Refute) + len(fc.Neutral)
}

// PostURL returns the canonical x.com link for the post.
func (r *Result) PostURL() string {
	if r.Author.Handle == "" || r.ID == "" {
		return ""
	}
	return "https://x.com/" + r.Author.Handle + "/status/" + r.ID
}
