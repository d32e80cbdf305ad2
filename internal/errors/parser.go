package errors

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Severity classifies a compiler diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one message reported by the Sass compiler, with the
// location of the offending source when the compiler printed one.
type Diagnostic struct {
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Message  string   `json:"message"`
	Context  []string `json:"context,omitempty"`
}

var (
	// Error: Undefined variable.
	// Deprecation Warning: ...
	sassHeaderPattern = regexp.MustCompile(`^(Error|Warning|WARNING|Deprecation Warning|DEPRECATION WARNING)(?: \[[^\]]+\])?: ?(.*)$`)
	// "  scss/_core.scss 3:10  root stylesheet"
	sassTracePattern = regexp.MustCompile(`^\s+(\S.*?) (\d+):(\d+)\s+\S.*$`)
	// "file:///abs/icons.scss:3:10: Undefined variable."
	sassInlinePattern = regexp.MustCompile(`^((?:file://)?[^\s:]+(?::\\[^\s:]+)?):(\d+):(\d+): (.+)$`)
	// Excerpt lines drawn with box characters.
	sassExcerptPattern = regexp.MustCompile(`^\s*(\d+\s*)?[│╷╵|,']`)
)

// ParseSassOutput extracts the diagnostics from the standard error of the
// sass executable or from an embedded compiler message. Lines that belong
// to no diagnostic are ignored.
func ParseSassOutput(output string) []*Diagnostic {
	var diagnostics []*Diagnostic
	var current *Diagnostic

	for _, line := range strings.Split(strings.ReplaceAll(output, "\r\n", "\n"), "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := sassHeaderPattern.FindStringSubmatch(trimmed); m != nil && line == strings.TrimLeft(line, " \t") {
			severity := SeverityWarning
			if m[1] == "Error" {
				severity = SeverityError
			}
			current = &Diagnostic{Severity: severity, Message: strings.TrimSpace(m[2])}
			diagnostics = append(diagnostics, current)
			continue
		}

		if m := sassInlinePattern.FindStringSubmatch(trimmed); m != nil {
			current = &Diagnostic{Severity: SeverityError, Message: m[4]}
			current.setLocation(strings.TrimPrefix(m[1], "file://"), m[2], m[3])
			diagnostics = append(diagnostics, current)
			continue
		}

		if current == nil {
			continue
		}

		switch {
		case sassExcerptPattern.MatchString(line):
			current.Context = append(current.Context, strings.TrimRight(line, " "))
		case current.File == "":
			if m := sassTracePattern.FindStringSubmatch(line); m != nil {
				current.setLocation(m[1], m[2], m[3])
			}
		}
	}

	return diagnostics
}

func (d *Diagnostic) setLocation(file, line, column string) {
	d.File = file
	d.Line, _ = strconv.Atoi(line)
	d.Column, _ = strconv.Atoi(column)
}

// FirstError returns the first error diagnostic, or nil.
func FirstError(diagnostics []*Diagnostic) *Diagnostic {
	for _, d := range diagnostics {
		if d.Severity == SeverityError {
			return d
		}
	}

	return nil
}

// Error implements the error interface so a diagnostic can be wrapped as the
// cause of a style error.
func (d *Diagnostic) Error() string {
	if d.File == "" {
		return d.Message
	}

	return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
}

// FormatError renders the diagnostic with its source excerpt for terminal
// output.
func (d *Diagnostic) FormatError() string {
	var b strings.Builder
	b.WriteString(strings.ToUpper(string(d.Severity)))
	b.WriteString(": ")
	b.WriteString(d.Error())
	for _, line := range d.Context {
		b.WriteString("\n")
		b.WriteString(line)
	}

	return b.String()
}
