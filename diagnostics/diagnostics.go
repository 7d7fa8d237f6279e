// Package diagnostics implements the compiler's diagnostic sink described in
// spec §7: every compile stage reports problems as Diagnostic values instead
// of aborting, distinguishing Error severity (halt the current
// expression/statement, continue the file) from Warning (record, proceed).
//
// The emoji-prefixed Error() strings follow the teacher's own
// SyntaxError/SemanticError/DeveloperError convention.
package diagnostics

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Severity classifies how a Diagnostic affects compilation.
type Severity int

const (
	// Error halts the current expression or statement but lets the
	// compiler continue with the rest of the file.
	Error Severity = iota
	// Warning is recorded and compilation proceeds unaffected.
	Warning
)

func (s Severity) String() string {
	if s == Warning {
		return "warning"
	}
	return "error"
}

// Kind is a closed enumeration of the diagnostic categories the compiler
// pipeline can emit, per spec §7.
type Kind int

const (
	ParseError Kind = iota
	UnknownIdentifier
	UnknownVariable
	UnknownType
	UnresolvedPath
	UndefinedLabel
	UnsupportedFeature
	StackUnderflow
	MaxDepthExceeded
	InternalError
)

func (k Kind) String() string {
	switch k {
	case ParseError:
		return "ParseError"
	case UnknownIdentifier:
		return "UnknownIdentifier"
	case UnknownVariable:
		return "UnknownVariable"
	case UnknownType:
		return "UnknownType"
	case UnresolvedPath:
		return "UnresolvedPath"
	case UndefinedLabel:
		return "UndefinedLabel"
	case UnsupportedFeature:
		return "UnsupportedFeature"
	case StackUnderflow:
		return "StackUnderflow"
	case MaxDepthExceeded:
		return "MaxDepthExceeded"
	case InternalError:
		return "InternalError"
	default:
		return "Unknown"
	}
}

// Location pinpoints where a diagnostic was raised.
type Location struct {
	File   string
	Line   int32
	Column int
}

func (l Location) String() string {
	if l.File == "" {
		return fmt.Sprintf("line:%d, column:%d", l.Line, l.Column)
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// Diagnostic is a single compile-time problem report.
type Diagnostic struct {
	Kind     Kind
	Severity Severity
	Location Location
	Message  string
	// Cause, when set, is the underlying Go error an InternalError
	// diagnostic wraps (captured with a stack trace via pkg/errors).
	Cause error
}

func (d Diagnostic) Error() string {
	emoji := "💥"
	if d.Severity == Warning {
		emoji = "⚠️"
	}
	return fmt.Sprintf("%s %s (%s) at %s: %s", emoji, d.Severity, d.Kind, d.Location, d.Message)
}

// New builds a Diagnostic at Error severity.
func New(kind Kind, loc Location, message string) Diagnostic {
	return Diagnostic{Kind: kind, Severity: Error, Location: loc, Message: message}
}

// Newf builds a Diagnostic at Error severity with a formatted message.
func Newf(kind Kind, loc Location, format string, args ...any) Diagnostic {
	return New(kind, loc, fmt.Sprintf(format, args...))
}

// Warn builds a Diagnostic at Warning severity.
func Warn(kind Kind, loc Location, message string) Diagnostic {
	return Diagnostic{Kind: kind, Severity: Warning, Location: loc, Message: message}
}

// Internal wraps cause with a stack trace and builds an InternalError
// diagnostic from it. Used for conditions the compiler treats as
// developer-error bugs rather than user-facing source problems (e.g. a
// Reference factory given an out-of-range id) — the DeveloperError
// counterpart in the teacher's own error set.
func Internal(loc Location, cause error) Diagnostic {
	wrapped := errors.WithStack(cause)
	return Diagnostic{
		Kind:     InternalError,
		Severity: Error,
		Location: loc,
		Message:  cause.Error(),
		Cause:    wrapped,
	}
}

// Sink accumulates diagnostics for a single compile pass and logs each one
// as it's recorded, per the AMBIENT STACK logging convention (Debug for
// warnings the pipeline tolerates, Warn for everything that surfaces to the
// caller).
type Sink struct {
	log   logrus.FieldLogger
	items []Diagnostic
}

// NewSink returns a Sink. A nil logger defaults to logrus's standard logger.
func NewSink(log logrus.FieldLogger) *Sink {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Sink{log: log}
}

// Report records d and logs it.
func (s *Sink) Report(d Diagnostic) {
	s.items = append(s.items, d)
	fields := logrus.Fields{
		"kind":     d.Kind.String(),
		"severity": d.Severity.String(),
		"location": d.Location.String(),
	}
	entry := s.log.WithFields(fields)
	if d.Severity == Warning {
		entry.Debug(d.Message)
		return
	}
	entry.Warn(d.Message)
}

// Diagnostics returns every diagnostic recorded so far, in report order.
func (s *Sink) Diagnostics() []Diagnostic {
	return s.items
}

// HasErrors reports whether any Error-severity diagnostic was recorded.
func (s *Sink) HasErrors() bool {
	for _, d := range s.items {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// Reset clears all recorded diagnostics, for reuse across compile units.
func (s *Sink) Reset() {
	s.items = s.items[:0]
}
