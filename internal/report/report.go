// Package report collects non-fatal diagnostics during a run and surfaces
// them deterministically at the end.
package report

import (
	"fmt"
	"log/slog"
	"sort"
	"time"
)

// Outcome is the typed enumeration of final run result states.
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeWarning Outcome = "warning"
	OutcomeFailed  Outcome = "failed"
)

// Warning is one non-fatal issue naming the offending UID or path.
type Warning struct {
	UID     string `json:"uid,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	switch {
	case w.UID != "" && w.Path != "":
		return fmt.Sprintf("%s (%s): %s", w.UID, w.Path, w.Message)
	case w.UID != "":
		return fmt.Sprintf("%s: %s", w.UID, w.Message)
	case w.Path != "":
		return fmt.Sprintf("%s: %s", w.Path, w.Message)
	default:
		return w.Message
	}
}

// Report accumulates warnings and run counters for one generation or
// promotion run. Not safe for concurrent use; a run is single-threaded.
type Report struct {
	Start time.Time
	End   time.Time

	PagesGenerated   int
	SkeletonsWritten int
	ShellsConverted  int

	warnings []Warning
	fatal    error
}

// New creates a report with the start time set.
func New() *Report {
	return &Report{Start: time.Now()}
}

// Warnf records a non-fatal issue and logs it immediately.
func (r *Report) Warnf(uid, path, format string, args ...any) {
	w := Warning{UID: uid, Path: path, Message: fmt.Sprintf(format, args...)}
	r.warnings = append(r.warnings, w)
	slog.Warn(w.Message, "uid", uid, "path", path)
}

// SetFatal records the error that aborted the run.
func (r *Report) SetFatal(err error) { r.fatal = err }

// Fatal returns the aborting error, if any.
func (r *Report) Fatal() error { return r.fatal }

// Warnings returns the collected warnings sorted by UID, then path, then
// message, so run output is stable.
func (r *Report) Warnings() []Warning {
	out := make([]Warning, len(r.warnings))
	copy(out, r.warnings)
	sort.Slice(out, func(i, j int) bool {
		if out[i].UID != out[j].UID {
			return out[i].UID < out[j].UID
		}
		if out[i].Path != out[j].Path {
			return out[i].Path < out[j].Path
		}
		return out[i].Message < out[j].Message
	})
	return out
}

// WarningCount returns the number of collected warnings.
func (r *Report) WarningCount() int { return len(r.warnings) }

// Outcome derives the overall run result.
func (r *Report) Outcome() Outcome {
	switch {
	case r.fatal != nil:
		return OutcomeFailed
	case len(r.warnings) > 0:
		return OutcomeWarning
	default:
		return OutcomeSuccess
	}
}

// Finish stamps the end time and returns the run duration.
func (r *Report) Finish() time.Duration {
	r.End = time.Now()
	return r.End.Sub(r.Start)
}
