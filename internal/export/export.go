package export

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	// Extension is appended to every emitted filename stem.
	Extension = ".txt"
	// MIMEType is the content type of an emitted report.
	MIMEType = "text/plain; charset=utf-8"

	stampLayout = "20060102-1504"
)

// ErrNoResult is returned when an export is requested without analysis data.
var ErrNoResult = errors.New("cannot generate report without analysis data")

// ExportError reports that a report could not be produced or written.
// The in-memory result is never touched by a failed export.
type ExportError struct {
	Path string
	Err  error
}

func (e *ExportError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("export failed: %v", e.Err)
	}
	return fmt.Sprintf("export to %s failed: %v", e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}

// FilenameStem derives "<id>-<YYYYMMDD-HHmm>" from the result id and the
// export time, in the time's own location.
func FilenameStem(id string, at time.Time) string {
	return sanitize(id) + "-" + at.Format(stampLayout)
}

// Filename returns the full filename for a stem.
func Filename(stem string) string {
	return stem + Extension
}

// Emitter writes report content to files under Dir.
type Emitter struct {
	Dir string
}

// NewEmitter creates an emitter rooted at dir; empty means the working directory.
func NewEmitter(dir string) *Emitter {
	if dir == "" {
		dir = "."
	}
	return &Emitter{Dir: dir}
}

// Emit writes content to <Dir>/<stem>.txt and returns the written path.
// An existing file with the same name is replaced.
func (e *Emitter) Emit(content, stem string) (string, error) {
	if strings.TrimSpace(stem) == "" {
		return "", &ExportError{Err: errors.New("empty filename")}
	}
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", &ExportError{Path: e.Dir, Err: fmt.Errorf("creating output directory: %w", err)}
	}

	path := filepath.Join(e.Dir, Filename(sanitize(stem)))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", &ExportError{Path: path, Err: err}
	}

	slog.Info("report written", "path", path, "bytes", len(content))
	return path, nil
}

// sanitize keeps ids from escaping the output directory.
func sanitize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', 0:
			return '_'
		}
		return r
	}, s)
}
