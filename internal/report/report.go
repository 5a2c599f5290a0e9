// Package report renders an analysis result as a flat plain-text document.
//
// Format is pure: the same result always yields byte-identical output.
package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/TobiSchelling/tweelyzer/internal/analysis"
)

const (
	title       = "TWEELYZER ANALYSIS REPORT"
	subtitle    = "Sentiment and fact-check analysis of a single post"
	noClaims    = "No factual claims detected in this tweet."
	noData      = "No analysis data available."
	notRecorded = "n/a"
)

var (
	heavyRule = strings.Repeat("=", 60)
	lightRule = strings.Repeat("-", 60)
	hundred   = decimal.NewFromInt(100)
)

// Percent converts a confidence in [0,1] to an integer percentage, rounding
// half-up on the decimal value (0.565 -> 57) and clamping to [0,100].
func Percent(confidence float64) int {
	if math.IsNaN(confidence) || math.IsInf(confidence, -1) {
		return 0
	}
	if math.IsInf(confidence, 1) {
		return 100
	}
	p := decimal.NewFromFloat(confidence).Mul(hundred).Round(0).IntPart()
	if p < 0 {
		return 0
	}
	if p > 100 {
		return 100
	}
	return int(p)
}

// Format renders the full report for r.
func Format(r *analysis.Result) string {
	var b strings.Builder
	writeHeader(&b)

	if r == nil {
		b.WriteString(noData + "\n")
		return b.String()
	}

	writeTweet(&b, r)
	writeSentiment(&b, r.Sentiment)

	fc := r.TrustedFactCheck()
	writeFactCheck(&b, r.IsClaim, fc)
	if fc != nil && strings.TrimSpace(fc.Notes) != "" {
		section(&b, "NOTES")
		b.WriteString(strings.TrimSpace(fc.Notes) + "\n")
	}

	generated := notRecorded
	if fc != nil && fc.Timestamp != "" {
		generated = fc.Timestamp
	}
	b.WriteString("\n" + lightRule + "\n")
	fmt.Fprintf(&b, "Analysis generated: %s\n", generated)
	return b.String()
}

func writeHeader(b *strings.Builder) {
	b.WriteString(heavyRule + "\n")
	b.WriteString(title + "\n")
	b.WriteString(heavyRule + "\n")
	b.WriteString(subtitle + "\n")
}

func section(b *strings.Builder, name string) {
	b.WriteString("\n" + name + "\n")
	b.WriteString(lightRule + "\n")
}

func writeTweet(b *strings.Builder, r *analysis.Result) {
	section(b, "TWEET")
	field(b, "ID", r.ID)
	fmt.Fprintf(b, "Author: %s (@%s)\n", orNA(r.Author.Name), orNA(r.Author.Handle))
	fmt.Fprintf(b, "Verified: %s\n", yesNo(r.Author.Verified))
	field(b, "Posted", r.CreatedAt)
	field(b, "Language", strings.ToUpper(r.Lang))
	field(b, "URL", r.PostURL())

	b.WriteString("\nText:\n")
	b.WriteString(indent(strings.TrimSpace(r.Text), "  ") + "\n")

	b.WriteString("\nEngagement:\n")
	fmt.Fprintf(b, "  Likes: %d\n", r.Likes)
	fmt.Fprintf(b, "  Reposts: %d\n", r.Reposts)
	fmt.Fprintf(b, "  Bookmarks: %d\n", r.Bookmarks)
	fmt.Fprintf(b, "  Quotes: %d\n", r.Quotes)
	fmt.Fprintf(b, "  Replies: %d\n", r.Replies)
}

func writeSentiment(b *strings.Builder, s analysis.Sentiment) {
	section(b, "SENTIMENT")
	field(b, "Label", string(s.Label))
	fmt.Fprintf(b, "Confidence: %d%%\n", Percent(s.Confidence))
}

func writeFactCheck(b *strings.Builder, isClaim bool, fc *analysis.FactCheck) {
	section(b, "FACT-CHECK")
	if !isClaim {
		b.WriteString(noClaims + "\n")
		return
	}
	if fc == nil {
		fc = &analysis.FactCheck{}
	}

	field(b, "Claim", strings.TrimSpace(fc.Claim))
	fmt.Fprintf(b, "Verdict: %s (%s)\n", orNA(fc.Verdict), analysis.ClassifyVerdict(fc.Verdict))
	fmt.Fprintf(b, "Confidence: %d%%\n", Percent(fc.Confidence))
	fmt.Fprintf(b, "Sources considered: %d\n", fc.ResultsConsidered)

	b.WriteString("\nSearch queries:\n")
	if len(fc.SearchedQueries) == 0 {
		b.WriteString("  (none)\n")
	}
	for i, q := range fc.SearchedQueries {
		fmt.Fprintf(b, "  %d. %s\n", i+1, q)
	}

	b.WriteString("\nEvidence:\n")
	fmt.Fprintf(b, "  Supporting: %d\n", len(fc.Support))
	fmt.Fprintf(b, "  Refuting: %d\n", len(fc.Refute))
	fmt.Fprintf(b, "  Neutral: %d\n", len(fc.Neutral))

	writeEvidence(b, "Supporting evidence", fc.Support)
	writeEvidence(b, "Refuting evidence", fc.Refute)
	writeEvidence(b, "Neutral evidence", fc.Neutral)
}

func writeEvidence(b *strings.Builder, heading string, items []analysis.EvidenceItem) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "\n%s:\n", heading)
	for i, item := range items {
		fmt.Fprintf(b, "  [%d] %s\n", i+1, orNA(strings.TrimSpace(item.Title)))
		fmt.Fprintf(b, "      URL: %s\n", orNA(item.URL))
		fmt.Fprintf(b, "      Label: %s\n", orNA(string(item.Label)))
		fmt.Fprintf(b, "      Confidence: %d%%\n", Percent(item.Score))
		if snippet := strings.Join(strings.Fields(item.Evidence), " "); snippet != "" {
			fmt.Fprintf(b, "      Evidence: %s\n", snippet)
		}
	}
}

func field(b *strings.Builder, name, value string) {
	fmt.Fprintf(b, "%s: %s\n", name, orNA(value))
}

func orNA(s string) string {
	if s == "" {
		return notRecorded
	}
	return s
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func indent(text, prefix string) string {
	if text == "" {
		return prefix + notRecorded
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = prefix + strings.TrimRight(l, " \t\r")
	}
	return strings.Join(lines, "\n")
}
