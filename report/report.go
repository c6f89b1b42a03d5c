// Package report provides the diagnostics side channel the pipeline uses to
// surface non-fatal failures to the host. Injecting a Reporter keeps the
// session logic independent of the host's concrete logging facility.
package report

import (
	"fmt"
	"log/slog"
	"sync"
)

// Severity classifies a diagnostic.
type Severity int

// Severities. Info covers expected conditions (empty endpoint, clean
// teardown); Error covers failures that dropped data or aborted a connect.
const (
	Info Severity = iota
	Error
)

func (s Severity) String() string {
	if s == Error {
		return "error"
	}
	return "info"
}

// Reporter receives one diagnostic per failure, naming the component and the
// input implicated. No call ever aborts the caller.
type Reporter interface {
	Report(sev Severity, component, format string, args ...any)
}

// logReporter forwards diagnostics to a slog.Logger.
type logReporter struct {
	log *slog.Logger
}

// NewLogReporter returns a Reporter backed by log. If log is nil,
// slog.Default() is used.
func NewLogReporter(log *slog.Logger) Reporter {
	if log == nil {
		log = slog.Default()
	}
	return &logReporter{log: log}
}

func (r *logReporter) Report(sev Severity, component, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if sev == Error {
		r.log.Error(msg, "component", component)
		return
	}
	r.log.Info(msg, "component", component)
}

// Entry is one captured diagnostic.
type Entry struct {
	Severity  Severity
	Component string
	Message   string
}

// Capture records diagnostics for inspection in tests.
type Capture struct {
	mu      sync.Mutex
	entries []Entry
}

// NewCapture returns an empty capturing Reporter.
func NewCapture() *Capture { return &Capture{} }

func (c *Capture) Report(sev Severity, component, format string, args ...any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = append(c.entries, Entry{
		Severity:  sev,
		Component: component,
		Message:   fmt.Sprintf(format, args...),
	})
}

// Entries returns a copy of everything reported so far.
func (c *Capture) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Count returns the number of captured diagnostics at the given severity.
func (c *Capture) Count(sev Severity) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, e := range c.entries {
		if e.Severity == sev {
			n++
		}
	}
	return n
}
