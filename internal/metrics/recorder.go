// Package metrics provides observability hooks for generation runs.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection never requires nil checks and costs
// nothing when disabled.
package metrics

import "time"

// Recorder defines observability hooks for generation and promotion runs.
type Recorder interface {
	IncPagesGenerated(kind string)
	IncSkeletonsWritten()
	IncSidecarsPreserved()
	IncResolutionFailures()
	IncIgnoredEntities()
	IncShellsConverted()
	ObserveRunDuration(d time.Duration)
	IncRunOutcome(outcome string) // success|warning|failed
}

// NoopRecorder is a Recorder that does nothing (default when metrics are
// not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPagesGenerated(string)         {}
func (NoopRecorder) IncSkeletonsWritten()             {}
func (NoopRecorder) IncSidecarsPreserved()            {}
func (NoopRecorder) IncResolutionFailures()           {}
func (NoopRecorder) IncIgnoredEntities()              {}
func (NoopRecorder) IncShellsConverted()              {}
func (NoopRecorder) ObserveRunDuration(time.Duration) {}
func (NoopRecorder) IncRunOutcome(string)             {}
