package diag

import (
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic.
type Severity int

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Category classifies semantic violations for filtering.
type Category string

const (
	CategoryTypeMismatch     Category = "type-mismatch"
	CategoryCardinality      Category = "cardinality"
	CategoryReference        Category = "reference"
	CategoryIllegalConstruct Category = "illegal-construct"
	CategoryRestriction      Category = "restriction"
	CategoryUniqueness       Category = "uniqueness"
	CategoryInternal         Category = "internal"
)

// Location is a source position. Line and Column are 1-based; 0 means unknown.
type Location struct {
	File   string `json:"file,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

func (l Location) String() string {
	if l.File == "" && l.Line == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(l.File)
	if l.Line > 0 {
		fmt.Fprintf(&sb, ":%d", l.Line)
		if l.Column > 0 {
			fmt.Fprintf(&sb, ":%d", l.Column)
		}
	}
	return sb.String()
}

// Diagnostic is a single semantic error or warning.
type Diagnostic struct {
	Severity Severity
	Category Category
	Location Location
	Message  string
}

// String formats the diagnostic for display.
func (d Diagnostic) String() string {
	var sb strings.Builder
	if loc := d.Location.String(); loc != "" {
		sb.WriteString(loc)
		sb.WriteString(": ")
	}
	sb.WriteString(d.Severity.String())
	sb.WriteString(": ")
	if d.Category != "" {
		sb.WriteString("[")
		sb.WriteString(string(d.Category))
		sb.WriteString("] ")
	}
	sb.WriteString(d.Message)
	return sb.String()
}

// Sink receives diagnostics as they are detected.
type Sink interface {
	Report(d Diagnostic)
}

// SinkFunc adapts a plain function to Sink.
type SinkFunc func(d Diagnostic)

// Report implements Sink.
func (f SinkFunc) Report(d Diagnostic) { f(d) }

// Tee fans a diagnostic out to several sinks.
func Tee(sinks ...Sink) Sink {
	return SinkFunc(func(d Diagnostic) {
		for _, s := range sinks {
			if s != nil {
				s.Report(d)
			}
		}
	})
}
