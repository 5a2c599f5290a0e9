package analysis

import (
	"fmt"
	"math"
)

// Check verifies a decoded result against the expected shape and returns
// one message per violation. The fact-check record is only inspected when
// the post carries a claim.
func Check(r *Result) []string {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if r == nil {
		return []string{"empty payload"}
	}
	if r.ID == "" {
		add("missing id")
	}

	switch r.Sentiment.Label {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
	default:
		add("sentiment.label %q is not one of Positive, Negative, Neutral", r.Sentiment.Label)
	}
	if !inUnitRange(r.Sentiment.Confidence) {
		add("sentiment.confidence %v outside [0,1]", r.Sentiment.Confidence)
	}

	counters := []struct {
		name string
		v    int64
	}{
		{"likes", r.Likes},
		{"retweets", r.Reposts},
		{"bookmarks", r.Bookmarks},
		{"quotes", r.Quotes},
		{"replies", r.Replies},
	}
	for _, c := range counters {
		if c.v < 0 {
			add("%s is negative (%d)", c.name, c.v)
		}
	}

	if !r.IsClaim {
		return problems
	}

	fc := r.FactCheck
	if fc == nil {
		add("is_claim is true but fact_check is missing")
		return problems
	}
	if !inUnitRange(fc.Confidence) {
		add("fact_check.confidence %v outside [0,1]", fc.Confidence)
	}
	if fc.ResultsConsidered < 0 {
		add("fact_check.results_considered is negative (%d)", fc.ResultsConsidered)
	}

	lists := []struct {
		name  string
		items []EvidenceItem
	}{
		{"support", fc.Support},
		{"refute", fc.Refute},
		{"neutral", fc.Neutral},
	}
	for _, l := range lists {
		for i, item := range l.items {
			prefix := fmt.Sprintf("fact_check.%s[%d]", l.name, i)
			switch item.Label {
			case LabelEntailment, LabelNeutral, LabelContradiction:
			default:
				add("%s.label %q is not one of entailment, neutral, contradiction", prefix, item.Label)
			}
			if !inUnitRange(item.Score) {
				add("%s.score %v outside [0,1]", prefix, item.Score)
			}
			for _, s := range []float64{item.Scores.Entailment, item.Scores.Neutral, item.Scores.Contradiction} {
				if !inUnitRange(s) {
					add("%s.scores contains %v outside [0,1]", prefix, s)
					break
				}
			}
		}
	}

	return problems
}

func inUnitRange(v float64) bool {
	return !math.IsNaN(v) && v >= 0 && v <= 1
}
