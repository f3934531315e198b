// Package reporter reports pipeline progress to a human, to a JSON Lines
// consumer, or to nowhere at all, depending on how instcore was invoked.
package reporter

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cachyos/instcore/pkg/types"
)

// Reporter is the interface every pipeline stage reports progress through.
// It has three implementations:
//   - TextReporter: human-readable text output
//   - JSONReporter: machine-readable JSON Lines output
//   - NoopReporter: silently discards all output
type Reporter interface {
	Step(step, total int, name string)
	Progress(percent int, message string)
	Message(format string, args ...any)
	MessagePlain(format string, args ...any)
	Warning(format string, args ...any)
	Error(err error, message string)
	Complete(message string, details any)
	IsJSON() bool
}

// ---------------------------------------------------------------------------
// TextReporter
// ---------------------------------------------------------------------------

// TextReporter writes human-readable progress text to an io.Writer and, if a
// logger is attached, mirrors every event to it as a structured log line.
// The logger is how each event reaches the durable install log described in
// SPEC_FULL.md §6.2 without coupling the reporter to file I/O directly.
type TextReporter struct {
	w       io.Writer
	log     *logrus.Logger
	stepped bool // true after the first Step call
}

// NewTextReporter returns a TextReporter that writes to w. log may be nil.
func NewTextReporter(w io.Writer, log *logrus.Logger) *TextReporter {
	return &TextReporter{w: w, log: log}
}

func (r *TextReporter) Step(step, total int, name string) {
	if r.stepped {
		_, _ = fmt.Fprintln(r.w)
	}
	r.stepped = true
	_, _ = fmt.Fprintf(r.w, "Step %d/%d: %s...\n", step, total, name)
	if r.log != nil {
		r.log.WithFields(logrus.Fields{"step": step, "total_steps": total}).Info(name)
	}
}

func (r *TextReporter) Progress(_ int, message string) {
	if message != "" {
		_, _ = fmt.Fprintf(r.w, "  %s\n", message)
	}
}

func (r *TextReporter) Message(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(r.w, "  %s\n", msg)
	if r.log != nil {
		r.log.Debug(msg)
	}
}

func (r *TextReporter) MessagePlain(format string, args ...any) {
	_, _ = fmt.Fprintln(r.w, fmt.Sprintf(format, args...))
}

func (r *TextReporter) Warning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	_, _ = fmt.Fprintf(r.w, "Warning: %s\n", msg)
	if r.log != nil {
		r.log.Warn(msg)
	}
}

func (r *TextReporter) Error(err error, message string) {
	_, _ = fmt.Fprintf(r.w, "Error: %s: %v\n", message, err)
	if r.log != nil {
		r.log.WithError(err).Error(message)
	}
}

func (r *TextReporter) Complete(message string, _ any) {
	_, _ = fmt.Fprintln(r.w)
	_, _ = fmt.Fprintln(r.w, "=================================================================")
	_, _ = fmt.Fprintln(r.w, message)
	_, _ = fmt.Fprintln(r.w, "=================================================================")
	if r.log != nil {
		r.log.Info(message)
	}
}

func (r *TextReporter) IsJSON() bool { return false }

// ---------------------------------------------------------------------------
// JSONReporter
// ---------------------------------------------------------------------------

// JSONReporter writes JSON Lines (one types.ProgressEvent per line) to an
// io.Writer. All writes are serialized with a mutex for thread safety, since
// the reporter is shared between the pipeline goroutine and any UI-refresh
// goroutine reading from a process.SubProcess.Lines() channel.
type JSONReporter struct {
	mu      sync.Mutex
	encoder *json.Encoder
	log     *logrus.Logger
}

// NewJSONReporter returns a JSONReporter that writes to w. log may be nil.
func NewJSONReporter(w io.Writer, log *logrus.Logger) *JSONReporter {
	return &JSONReporter{encoder: json.NewEncoder(w), log: log}
}

func (r *JSONReporter) emit(event types.ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.Timestamp = time.Now().UTC().Format(time.RFC3339)
	_ = r.encoder.Encode(event)
	if r.log != nil {
		r.log.WithField("event_type", event.Type).Debug(event.Message)
	}
}

func (r *JSONReporter) Step(step, total int, name string) {
	r.emit(types.ProgressEvent{
		Type:       types.EventTypeStep,
		Step:       step,
		TotalSteps: total,
		StepName:   name,
	})
}

func (r *JSONReporter) Progress(percent int, message string) {
	r.emit(types.ProgressEvent{
		Type:    types.EventTypeProgress,
		Percent: percent,
		Message: message,
	})
}

func (r *JSONReporter) Message(format string, args ...any) {
	r.emit(types.ProgressEvent{
		Type:    types.EventTypeMessage,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *JSONReporter) MessagePlain(format string, args ...any) {
	r.emit(types.ProgressEvent{
		Type:    types.EventTypeMessage,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *JSONReporter) Warning(format string, args ...any) {
	r.emit(types.ProgressEvent{
		Type:    types.EventTypeWarning,
		Message: fmt.Sprintf(format, args...),
	})
}

func (r *JSONReporter) Error(err error, message string) {
	r.emit(types.ProgressEvent{
		Type:    types.EventTypeError,
		Message: message,
		Details: map[string]string{"error": err.Error()},
	})
}

func (r *JSONReporter) Complete(message string, details any) {
	r.emit(types.ProgressEvent{
		Type:    types.EventTypeComplete,
		Message: message,
		Details: details,
	})
}

func (r *JSONReporter) IsJSON() bool { return true }

// ---------------------------------------------------------------------------
// NoopReporter
// ---------------------------------------------------------------------------

// NoopReporter silently discards all output. Useful for tests and contexts
// where no progress reporting is needed.
type NoopReporter struct{}

func (NoopReporter) Step(int, int, string)       {}
func (NoopReporter) Progress(int, string)        {}
func (NoopReporter) Message(string, ...any)      {}
func (NoopReporter) MessagePlain(string, ...any) {}
func (NoopReporter) Warning(string, ...any)      {}
func (NoopReporter) Error(error, string)         {}
func (NoopReporter) Complete(string, any)        {}
func (NoopReporter) IsJSON() bool                { return false }

// NewInstallLogger opens the durable install log at path (append-only,
// created if missing) and returns a logrus.Logger writing to it in plain
// text form. Call sites pass the returned logger into NewTextReporter or
// NewJSONReporter so every reporter event also lands in the file described
// in SPEC_FULL.md §6.2.
func NewInstallLogger(path string) (*logrus.Logger, func() error, error) {
	f, err := openAppend(path)
	if err != nil {
		return nil, nil, err
	}
	log := logrus.New()
	log.SetOutput(f)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableColors: true})
	log.SetLevel(logrus.DebugLevel)
	return log, f.Close, nil
}
