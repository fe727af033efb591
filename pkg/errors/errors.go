package errors

import (
	"context"
	"fmt"
	"io"
	"strings"

	"hxinfer/pkg/source"
)

// Severity distinguishes hard errors from advisory warnings.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "Warning"
	}
	return "Error"
}

// Diagnostic is the interface implemented by every record the engine
// reports back to its callers.
type Diagnostic interface {
	error
	Range() source.TextRange
	Severity() Severity
	// Message returns the message without range information.
	Message() string
}

// --- Concrete Diagnostic Types ---

// ErrorRecord is a hard diagnostic attached to a text range.
type ErrorRecord struct {
	TextRange source.TextRange
	Msg       string
}

func (e ErrorRecord) Error() string {
	return fmt.Sprintf("Error at %s: %s", e.TextRange, e.Msg)
}
func (e ErrorRecord) Range() source.TextRange { return e.TextRange }
func (e ErrorRecord) Severity() Severity      { return SeverityError }
func (e ErrorRecord) Message() string         { return e.Msg }

// WarningRecord is an advisory diagnostic attached to a text range.
type WarningRecord struct {
	TextRange source.TextRange
	Msg       string
}

func (w WarningRecord) Error() string {
	return fmt.Sprintf("Warning at %s: %s", w.TextRange, w.Msg)
}
func (w WarningRecord) Range() source.TextRange { return w.TextRange }
func (w WarningRecord) Severity() Severity      { return SeverityWarning }
func (w WarningRecord) Message() string         { return w.Msg }

// --- Control-flow errors ---

// CanceledError aborts an evaluation request when its context is done.
// It must reach the caller unmodified.
type CanceledError struct {
	Cause error // ctx.Err()
}

func (e *CanceledError) Error() string {
	return fmt.Sprintf("evaluation canceled: %v", e.Cause)
}
func (e *CanceledError) Unwrap() error { return e.Cause }

// NewCanceled wraps the context's error.
func NewCanceled(ctx context.Context) *CanceledError {
	return &CanceledError{Cause: ctx.Err()}
}

// FaultError describes a panic recovered while computing a node's type.
type FaultError struct {
	Node  string
	Value any
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("internal fault while evaluating %s: %v", e.Node, e.Value)
}

// Unwrap exposes the recovered value when it was itself an error.
func (e *FaultError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// --- Diagnostic Reporting ---

// DisplayDiagnostics writes diagnostics in a user-friendly format, including
// the source line and a marker under the offending span.
func DisplayDiagnostics(w io.Writer, file *source.SourceFile, diags []Diagnostic) {
	if len(diags) == 0 {
		return
	}
	var lines []string
	if file != nil {
		lines = file.Lines()
	}

	for _, d := range diags {
		pos := PositionOf(file, d.Range())
		lineIdx := pos.Line - 1
		if lineIdx < 0 || lineIdx >= len(lines) {
			fmt.Fprintf(w, "%s: %s\n", d.Severity(), d.Message())
			continue
		}

		fmt.Fprintf(w, "%s at %s:%d:%d: %s\n", d.Severity(), file.DisplayPath(), pos.Line, pos.Column, d.Message())
		fmt.Fprintf(w, "  %s\n", strings.TrimRight(lines[lineIdx], "\r\n\t "))

		width := pos.EndPos - pos.StartPos
		if rest := len(lines[lineIdx]) - (pos.Column - 1); width > rest {
			width = rest
		}
		if width < 1 {
			width = 1
		}
		fmt.Fprintf(w, "  %s^%s\n\n", strings.Repeat(" ", pos.Column-1), strings.Repeat("~", width-1))
	}
}
