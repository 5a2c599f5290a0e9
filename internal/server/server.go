package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"

	"github.com/TobiSchelling/tweelyzer/internal/analysis"
	"github.com/TobiSchelling/tweelyzer/internal/export"
	"github.com/TobiSchelling/tweelyzer/internal/pipeline"
	"github.com/TobiSchelling/tweelyzer/internal/report"
	"github.com/TobiSchelling/tweelyzer/internal/session"
	"github.com/TobiSchelling/tweelyzer/internal/validate"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// cookieName carries the view id between requests.
const cookieName = "tweelyzer_view"

var (
	md     = goldmark.New()
	policy = bluemonday.UGCPolicy()
)

// Server is the HTTP dashboard for analyzing posts.
type Server struct {
	pipeline *pipeline.Pipeline
	sessions *session.Store
	pages    map[string]*template.Template
	mux      *http.ServeMux
	now      func() time.Time
}

// New creates a new Server.
func New(p *pipeline.Pipeline, sessions *session.Store) (*Server, error) {
	funcMap := template.FuncMap{
		"markdown": renderMarkdown,
		"percent":  report.Percent,
	}

	base, err := template.New("base.html").Funcs(funcMap).ParseFS(templateFS, "templates/base.html")
	if err != nil {
		return nil, fmt.Errorf("parsing base template: %w", err)
	}

	// Each page gets its own clone of base so their "content" blocks don't collide.
	pageNames := []string{"index.html", "analysis.html"}
	pages := make(map[string]*template.Template, len(pageNames))
	for _, name := range pageNames {
		clone, err := base.Clone()
		if err != nil {
			return nil, fmt.Errorf("cloning base for %s: %w", name, err)
		}
		if _, err := clone.ParseFS(templateFS, "templates/"+name); err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		pages[name] = clone
	}

	s := &Server{
		pipeline: p,
		sessions: sessions,
		pages:    pages,
		mux:      http.NewServeMux(),
		now:      time.Now,
	}
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	staticSub, _ := fs.Sub(staticFS, "static")
	s.mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.FS(staticSub))))

	s.mux.HandleFunc("GET /{$}", s.handleIndex)
	s.mux.HandleFunc("POST /analyze", s.handleAnalyze)
	s.mux.HandleFunc("GET /analysis", s.handleAnalysis)
	s.mux.HandleFunc("GET /report", s.handleReport)
	s.mux.HandleFunc("POST /reset", s.handleReset)
}

// view returns the caller's view state, creating one when create is set.
func (s *Server) view(w http.ResponseWriter, r *http.Request, create bool) (string, *session.State) {
	if c, err := r.Cookie(cookieName); err == nil {
		if st, ok := s.sessions.Get(c.Value); ok {
			return c.Value, st
		}
	}
	if !create {
		return "", nil
	}
	id, st := s.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, st
}

type indexData struct {
	URL       string
	Reason    string
	Error     string
	Loading   bool
	HasResult bool
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := indexData{}
	if _, st := s.view(w, r, false); st != nil {
		snap := st.Snapshot()
		data.URL = snap.URL
		data.Loading = snap.Loading
		data.HasResult = snap.Result != nil
		if snap.Err != nil {
			data.Error = snap.Err.Error()
		}
	}
	s.render(w, http.StatusOK, "index.html", data)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	raw := r.FormValue("url")

	// Rejected input is reported inline and never reaches the analysis API.
	if check := validate.Check(raw); !check.Valid {
		s.render(w, http.StatusUnprocessableEntity, "index.html", indexData{URL: raw, Reason: check.Reason})
		return
	}

	_, st := s.view(w, r, true)
	ctx, token, err := st.Begin(r.Context(), strings.TrimSpace(raw))
	if err != nil {
		http.Error(w, "view closed", http.StatusConflict)
		return
	}

	result, err := s.pipeline.Analyze(ctx, raw)
	if err != nil {
		st.Fail(token, err)
		if errors.Is(err, analysis.ErrCanceled) {
			// Superseded or abandoned; the newer request owns the response.
			return
		}
		var vErr *validate.Error
		if errors.As(err, &vErr) {
			s.render(w, http.StatusUnprocessableEntity, "index.html", indexData{URL: raw, Reason: vErr.Reason})
			return
		}
		slog.Warn("analysis failed", "url", raw, "error", err)
		s.render(w, http.StatusBadGateway, "index.html", indexData{URL: raw, Error: err.Error()})
		return
	}

	if !st.Complete(token, result) {
		return
	}
	http.Redirect(w, r, "/analysis", http.StatusSeeOther)
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	_, st := s.view(w, r, false)
	if st == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	snap := st.Snapshot()
	if snap.Result == nil {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}
	s.render(w, http.StatusOK, "analysis.html", newAnalysisView(snap.Result))
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	var result *analysis.Result
	if _, st := s.view(w, r, false); st != nil {
		result = st.Snapshot().Result
	}
	if result == nil {
		http.Error(w, export.ErrNoResult.Error(), http.StatusConflict)
		return
	}

	filename := export.Filename(export.FilenameStem(result.ID, s.now()))
	w.Header().Set("Content-Type", export.MIMEType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if _, err := w.Write([]byte(report.Format(result))); err != nil {
		slog.Warn("writing report download", "error", err)
	}
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	if id, st := s.view(w, r, false); st != nil {
		s.sessions.Destroy(id)
	}
	http.SetCookie(w, &http.Cookie{Name: cookieName, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	tmpl, ok := s.pages[name]
	if !ok {
		slog.Error("template not found", "template", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base.html", data); err != nil {
		slog.Error("rendering template", "template", name, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// renderMarkdown converts notes to HTML and strips anything unsafe.
func renderMarkdown(text string) template.HTML {
	var buf bytes.Buffer
	if err := md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(policy.SanitizeBytes(buf.Bytes())) //nolint: gosec
}

// Serve starts the dashboard on the given port and stops when ctx is done.
func Serve(ctx context.Context, s *Server, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "url", "http://"+addr)
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpSrv.Shutdown(shutdownCtx)
	}
}
