package diagnostic

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Severity represents the severity level of a diagnostic message
type Severity int

const (
	Error Severity = iota
	Warning
	Suggestion
)

// String returns the string representation of the severity level
func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Suggestion:
		return "suggestion"
	default:
		return "unknown"
	}
}

// Code identifies the category of a diagnostic
type Code int

const (
	LexError Code = iota
	ParseError
	DuplicateDeclaration
	UnknownReference
	TypeMismatch
	ConstraintViolation
	UnsupportedConstruct
	InternalError
)

// String returns the string representation of the diagnostic code
func (c Code) String() string {
	switch c {
	case LexError:
		return "LexError"
	case ParseError:
		return "ParseError"
	case DuplicateDeclaration:
		return "DuplicateDeclaration"
	case UnknownReference:
		return "UnknownReference"
	case TypeMismatch:
		return "TypeMismatch"
	case ConstraintViolation:
		return "ConstraintViolation"
	case UnsupportedConstruct:
		return "UnsupportedConstruct"
	case InternalError:
		return "InternalError"
	default:
		return "UnknownCode"
	}
}

// Diagnostic represents a single compiler error, warning, or suggestion
type Diagnostic struct {
	Severity   Severity
	Code       Code
	File       string
	Line       int
	Column     int
	Message    string
	Suggestion string // optional "did you mean" name
}

// Diagnostics manages an ordered collection of diagnostic messages.
// Problems are accumulated here across all compiler passes, never
// raised as control flow.
type Diagnostics struct {
	items []Diagnostic
}

// New creates a new empty Diagnostics collection
func New() *Diagnostics {
	return &Diagnostics{
		items: make([]Diagnostic, 0),
	}
}

// Add appends an error diagnostic with a formatted message
func (d *Diagnostics) Add(code Code, file string, line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Error,
		Code:     code,
		File:     file,
		Line:     line,
		Column:   col,
		Message:  fmt.Sprintf(format, args...),
	})
}

// Warn appends a warning diagnostic with a formatted message
func (d *Diagnostics) Warn(code Code, file string, line, col int, format string, args ...interface{}) {
	d.items = append(d.items, Diagnostic{
		Severity: Warning,
		Code:     code,
		File:     file,
		Line:     line,
		Column:   col,
		Message:  fmt.Sprintf(format, args...),
	})
}

// AddWithSuggestion appends an error diagnostic carrying a nearest-name
// suggestion.
func (d *Diagnostics) AddWithSuggestion(code Code, file string, line, col int, msg, suggestion string) {
	d.items = append(d.items, Diagnostic{
		Severity:   Error,
		Code:       code,
		File:       file,
		Line:       line,
		Column:     col,
		Message:    msg,
		Suggestion: suggestion,
	})
}

// HasErrors returns true if there are any error-level diagnostics
func (d *Diagnostics) HasErrors() bool {
	for _, item := range d.items {
		if item.Severity == Error {
			return true
		}
	}
	return false
}

// Errors returns only the error-level diagnostics
func (d *Diagnostics) Errors() []Diagnostic {
	errors := make([]Diagnostic, 0)
	for _, item := range d.items {
		if item.Severity == Error {
			errors = append(errors, item)
		}
	}
	return errors
}

// All returns all diagnostics in the order they were added
func (d *Diagnostics) All() []Diagnostic {
	return d.items
}

// Count returns the total number of diagnostics
func (d *Diagnostics) Count() int {
	return len(d.items)
}

// ErrorCount returns the number of error-level diagnostics
func (d *Diagnostics) ErrorCount() int {
	count := 0
	for _, item := range d.items {
		if item.Severity == Error {
			count++
		}
	}
	return count
}

// WarningCount returns the number of warning-level diagnostics
func (d *Diagnostics) WarningCount() int {
	count := 0
	for _, item := range d.items {
		if item.Severity == Warning {
			count++
		}
	}
	return count
}

// Escalate promotes every warning to an error. The strict policy is
// supplied by the caller; the verifier itself never escalates.
func (d *Diagnostics) Escalate() {
	for i := range d.items {
		if d.items[i].Severity == Warning {
			d.items[i].Severity = Error
		}
	}
}

// Format returns human-readable diagnostic messages.
// Output format:
//
//	error[UnknownReference] app.shep:3:10: unknown field 'missng'
//	  did you mean: missing
//	warning[ConstraintViolation] app.shep:5:1: field is both required and defaulted
func (d *Diagnostics) Format(filename string) string {
	if len(d.items) == 0 {
		return ""
	}

	var builder strings.Builder
	for i, item := range d.items {
		fileToUse := filename
		if item.File != "" {
			fileToUse = item.File
		}

		// Internal errors render in a visibly distinct category: they
		// are compiler defects, never user mistakes.
		if item.Code == InternalError {
			builder.WriteString(fmt.Sprintf("internal compiler error %s:%d:%d: %s (this is a bug in shepc)",
				fileToUse, item.Line, item.Column, item.Message))
		} else {
			builder.WriteString(fmt.Sprintf("%s[%s] %s:%d:%d: %s",
				item.Severity.String(),
				item.Code.String(),
				fileToUse,
				item.Line,
				item.Column,
				item.Message,
			))
		}

		if item.Suggestion != "" {
			builder.WriteString(fmt.Sprintf("\n  did you mean: %s", item.Suggestion))
		}

		if i < len(d.items)-1 {
			builder.WriteString("\n")
		}
	}

	return builder.String()
}

// jsonDiagnostic is the machine-readable shape of a diagnostic
type jsonDiagnostic struct {
	Severity   string `json:"severity"`
	Code       string `json:"code"`
	File       string `json:"file"`
	Line       int    `json:"line"`
	Column     int    `json:"column"`
	Message    string `json:"message"`
	Suggestion string `json:"suggestion,omitempty"`
}

// MarshalJSON renders the collection as a JSON array for editor and CI
// consumers.
func (d *Diagnostics) MarshalJSON() ([]byte, error) {
	out := make([]jsonDiagnostic, 0, len(d.items))
	for _, item := range d.items {
		out = append(out, jsonDiagnostic{
			Severity:   item.Severity.String(),
			Code:       item.Code.String(),
			File:       item.File,
			Line:       item.Line,
			Column:     item.Column,
			Message:    item.Message,
			Suggestion: item.Suggestion,
		})
	}
	return json.Marshal(out)
}
