package emerald

import (
	"fmt"
	"strings"
)

// Severity is either SeverityError, SeverityWarning or SeverityInfo.
// Only errors make a compilation fail.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
	SeverityInfo
)

func (s Severity) String() string {
	switch s {
	case SeverityError:
		return "Error"
	case SeverityWarning:
		return "Warning"
	case SeverityInfo:
		return "Info"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is a single message produced by the parser or the generator.
type Diagnostic struct {
	Severity    Severity
	Pos         Position
	Description string
}

// String formats the diagnostic as "Error: Ln <line>:<column>: <description>".
func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: Ln %d:%d: %s", d.Severity, d.Pos.Line, d.Pos.Column, d.Description)
}

// Diagnostics is an append-only, ordered collection of messages shared by
// every stage of one compilation.
type Diagnostics struct {
	messages []Diagnostic
}

func (d *Diagnostics) Add(msg Diagnostic) {
	d.messages = append(d.messages, msg)
}

// Errorf appends an error at pos.
func (d *Diagnostics) Errorf(pos Position, format string, args ...any) {
	d.Add(Diagnostic{Severity: SeverityError, Pos: pos, Description: fmt.Sprintf(format, args...)})
}

// Warnf appends a warning at pos.
func (d *Diagnostics) Warnf(pos Position, format string, args ...any) {
	d.Add(Diagnostic{Severity: SeverityWarning, Pos: pos, Description: fmt.Sprintf(format, args...)})
}

// HasErrors reports whether at least one error-severity message exists.
func (d *Diagnostics) HasErrors() bool {
	for _, msg := range d.messages {
		if msg.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (d *Diagnostics) Len() int {
	return len(d.messages)
}

// All returns the messages in insertion order.
func (d *Diagnostics) All() []Diagnostic {
	return d.messages
}

// String returns every message on its own line.
func (d *Diagnostics) String() string {
	var sb strings.Builder
	for i, msg := range d.messages {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(msg.String())
	}
	return sb.String()
}

// Excerpt renders msg followed by its source line and a caret under the
// column it points at. Messages without a matching line are returned as is.
func Excerpt(msg Diagnostic, source string) string {
	lines := strings.Split(source, "\n")
	if msg.Pos.Line < 1 || msg.Pos.Line > len(lines) {
		return msg.String()
	}
	line := strings.TrimRight(lines[msg.Pos.Line-1], "\r")
	gutter := fmt.Sprintf("%d | ", msg.Pos.Line)
	caret := strings.Repeat(" ", len(gutter)+max(msg.Pos.Column-1, 0)) + "^"
	return msg.String() + "\n" + gutter + line + "\n" + caret
}
