// Package pipeline runs the validate, analyze and export steps for one post.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/TobiSchelling/tweelyzer/internal/analysis"
	"github.com/TobiSchelling/tweelyzer/internal/database"
	"github.com/TobiSchelling/tweelyzer/internal/export"
	"github.com/TobiSchelling/tweelyzer/internal/report"
	"github.com/TobiSchelling/tweelyzer/internal/validate"
)

// Recorder stores run and export history. *database.DB implements it.
type Recorder interface {
	RecordRun(r database.Run) (int64, error)
	RecordExport(e database.Export) (int64, error)
}

// StepResult holds the result of a single pipeline step.
type StepResult struct {
	Name    string
	Summary string
	Err     error
}

// Result holds the results of a full pipeline run.
type Result struct {
	URL        string
	Analysis   *analysis.Result
	ReportPath string
	Steps      []StepResult
}

// Err returns the first step error, if any.
func (r *Result) Err() error {
	for _, s := range r.Steps {
		if s.Err != nil {
			return s.Err
		}
	}
	return nil
}

// Pipeline wires the analysis client, report emitter and optional history.
type Pipeline struct {
	analyzer analysis.Analyzer
	emitter  *export.Emitter
	history  Recorder
	now      func() time.Time
}

// New creates a pipeline. history may be nil.
func New(analyzer analysis.Analyzer, emitter *export.Emitter, history Recorder) *Pipeline {
	if emitter == nil {
		emitter = export.NewEmitter("")
	}
	return &Pipeline{
		analyzer: analyzer,
		emitter:  emitter,
		history:  history,
		now:      time.Now,
	}
}

// Analyze validates raw and, if it is a post URL, requests its analysis.
// No request is made for invalid input.
func (p *Pipeline) Analyze(ctx context.Context, raw string) (*analysis.Result, error) {
	start := p.now()
	postURL := strings.TrimSpace(raw)

	ref, err := validate.Parse(postURL)
	if err != nil {
		p.recordRun(postURL, nil, database.OutcomeInvalid, err, start)
		return nil, err
	}

	slog.Debug("requesting analysis", "url", postURL, "post_id", ref.ID)
	result, err := p.analyzer.Analyze(ctx, postURL)
	switch {
	case errors.Is(err, analysis.ErrCanceled):
		p.recordRun(postURL, &ref.ID, database.OutcomeCanceled, nil, start)
		return nil, err
	case err != nil:
		p.recordRun(postURL, &ref.ID, database.OutcomeError, err, start)
		return nil, err
	}

	p.recordRun(postURL, &ref.ID, database.OutcomeOK, nil, start)
	return result, nil
}

// Export formats result and writes it to the emitter's directory.
func (p *Pipeline) Export(result *analysis.Result) (string, error) {
	if result == nil {
		return "", export.ErrNoResult
	}

	at := p.now()
	stem := export.FilenameStem(result.ID, at)
	path, err := p.emitter.Emit(report.Format(result), stem)
	if err != nil {
		return "", err
	}

	if p.history != nil {
		if _, err := p.history.RecordExport(database.Export{PostID: result.ID, Path: path, ExportedAt: at}); err != nil {
			slog.Warn("failed to record export", "path", path, "error", err)
		}
	}
	return path, nil
}

// Run executes validate+analyze and, when exportReport is set, the export step.
func (p *Pipeline) Run(ctx context.Context, raw string, exportReport bool) *Result {
	r := &Result{URL: strings.TrimSpace(raw)}

	// Step 1: Analyze
	result, err := p.Analyze(ctx, raw)
	step := StepResult{Name: "Analyze", Err: err}
	if err == nil {
		step.Summary = analyzeSummary(result)
	}
	r.Steps = append(r.Steps, step)
	if err != nil {
		return r
	}
	r.Analysis = result

	if !exportReport {
		return r
	}

	// Step 2: Export
	path, err := p.Export(result)
	step = StepResult{Name: "Export", Err: err}
	if err == nil {
		step.Summary = fmt.Sprintf("Report written to %s", path)
		r.ReportPath = path
	}
	r.Steps = append(r.Steps, step)

	return r
}

func analyzeSummary(r *analysis.Result) string {
	s := fmt.Sprintf("Sentiment %s (%d%%)", r.Sentiment.Label, report.Percent(r.Sentiment.Confidence))
	if fc := r.TrustedFactCheck(); fc != nil {
		s += fmt.Sprintf(", verdict %q", fc.Verdict)
	} else {
		s += ", no factual claim"
	}
	return s
}

func (p *Pipeline) recordRun(postURL string, postID *string, outcome database.Outcome, runErr error, start time.Time) {
	if p.history == nil {
		return
	}
	run := database.Run{
		URL:         postURL,
		PostID:      postID,
		Outcome:     outcome,
		DurationMS:  p.now().Sub(start).Milliseconds(),
		RequestedAt: start,
	}
	if runErr != nil {
		msg := runErr.Error()
		run.Error = &msg
	}
	if _, err := p.history.RecordRun(run); err != nil {
		slog.Warn("failed to record analysis run", "url", postURL, "error", err)
	}
}
