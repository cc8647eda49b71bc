package diag

import (
	"fmt"
	"strings"
)

// Collector collects diagnostics during analysis.
type Collector struct {
	diagnostics []Diagnostic
	strict      bool // if true, warnings become errors
	quiet       bool // if true, suppress warnings
}

// NewCollector creates a new diagnostic collector.
func NewCollector(strict, quiet bool) *Collector {
	return &Collector{
		strict: strict,
		quiet:  quiet,
	}
}

// Report implements Sink.
func (c *Collector) Report(d Diagnostic) {
	if c == nil {
		return
	}
	if d.Severity == SeverityWarning {
		if c.quiet {
			return
		}
		if c.strict {
			d.Severity = SeverityError
		}
	}
	c.diagnostics = append(c.diagnostics, d)
}

// Errorf adds an error diagnostic.
func (c *Collector) Errorf(category Category, loc Location, format string, args ...any) {
	c.Report(Diagnostic{Severity: SeverityError, Category: category, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Warnf adds a warning diagnostic.
func (c *Collector) Warnf(category Category, loc Location, format string, args ...any) {
	c.Report(Diagnostic{Severity: SeverityWarning, Category: category, Location: loc, Message: fmt.Sprintf(format, args...)})
}

// Diagnostics returns all collected diagnostics.
func (c *Collector) Diagnostics() []Diagnostic {
	if c == nil {
		return nil
	}
	return c.diagnostics
}

// Reset drops everything collected so far, e.g. before a new analysis pass.
func (c *Collector) Reset() {
	if c == nil {
		return
	}
	c.diagnostics = nil
}

// Messages returns the message texts, in report order.
func (c *Collector) Messages() []string {
	if c == nil {
		return nil
	}
	out := make([]string, len(c.diagnostics))
	for i, d := range c.diagnostics {
		out[i] = d.Message
	}
	return out
}

// HasErrors returns true if any error-level diagnostics exist.
func (c *Collector) HasErrors() bool {
	return c.ErrorCount() > 0
}

// ErrorCount returns the number of error diagnostics.
func (c *Collector) ErrorCount() int {
	return c.count(SeverityError)
}

// WarningCount returns the number of warning diagnostics.
func (c *Collector) WarningCount() int {
	return c.count(SeverityWarning)
}

func (c *Collector) count(sev Severity) int {
	if c == nil {
		return 0
	}
	count := 0
	for _, d := range c.diagnostics {
		if d.Severity == sev {
			count++
		}
	}
	return count
}

// FormatAll formats all diagnostics as a multi-line string.
func (c *Collector) FormatAll() string {
	if c == nil || len(c.diagnostics) == 0 {
		return ""
	}
	var sb strings.Builder
	for _, d := range c.diagnostics {
		sb.WriteString(d.String())
		sb.WriteString("\n")
	}
	return sb.String()
}

// Summary returns a summary line like "1 error(s), 2 warning(s)".
func (c *Collector) Summary() string {
	if c == nil {
		return ""
	}
	warnings := c.WarningCount()
	errors := c.ErrorCount()

	parts := []string{}
	if errors > 0 {
		parts = append(parts, fmt.Sprintf("%d error(s)", errors))
	}
	if warnings > 0 {
		parts = append(parts, fmt.Sprintf("%d warning(s)", warnings))
	}
	if len(parts) == 0 {
		return "no issues"
	}
	return strings.Join(parts, ", ")
}
