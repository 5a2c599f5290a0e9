package server

import (
	"github.com/araddon/dateparse"
	"github.com/dustin/go-humanize"

	"github.com/TobiSchelling/tweelyzer/internal/analysis"
	"github.com/TobiSchelling/tweelyzer/internal/report"
)

type counter struct {
	Label string
	Value string
}

type evidenceGroup struct {
	Heading string
	Class   string
	Items   []analysis.EvidenceItem
}

type analysisView struct {
	Result       *analysis.Result
	PostURL      string
	Posted       string
	PostedAgo    string
	Counters     []counter
	Sentiment    int
	FactCheck    *analysis.FactCheck
	Verdict      string
	VerdictClass analysis.VerdictClass
	Confidence   int
	Evidence     []evidenceGroup
}

func newAnalysisView(r *analysis.Result) analysisView {
	v := analysisView{
		Result:    r,
		PostURL:   r.PostURL(),
		Posted:    r.CreatedAt,
		Sentiment: report.Percent(r.Sentiment.Confidence),
		Counters: []counter{
			{"Likes", humanize.Comma(r.Likes)},
			{"Reposts", humanize.Comma(r.Reposts)},
			{"Replies", humanize.Comma(r.Replies)},
			{"Quotes", humanize.Comma(r.Quotes)},
			{"Bookmarks", humanize.Comma(r.Bookmarks)},
		},
	}

	if t, err := dateparse.ParseAny(r.CreatedAt); err == nil {
		v.Posted = t.UTC().Format("Jan 2, 2006 15:04 UTC")
		v.PostedAgo = humanize.Time(t)
	}

	if fc := r.TrustedFactCheck(); fc != nil {
		v.FactCheck = fc
		v.Verdict = fc.Verdict
		v.VerdictClass = analysis.ClassifyVerdict(fc.Verdict)
		v.Confidence = report.Percent(fc.Confidence)
		for _, g := range []evidenceGroup{
			{Heading: "Supporting", Class: "support", Items: fc.Support},
			{Heading: "Refuting", Class: "refute", Items: fc.Refute},
			{Heading: "Neutral", Class: "neutral", Items: fc.Neutral},
		} {
			if len(g.Items) > 0 {
				v.Evidence = append(v.Evidence, g)
			}
		}
	}
	return v
}
