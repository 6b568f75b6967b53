package schema

// Severity classifies a diagnostic.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Diagnostic is one structured finding about a configuration value. Attribute
// holds the dot-notation path to the offending value when known, for example
// "ingress.0.port".
type Diagnostic struct {
	Severity  Severity `json:"severity"`
	Summary   string   `json:"summary"`
	Detail    string   `json:"detail,omitempty"`
	Attribute string   `json:"attribute,omitempty"`
}

// ErrorDiag returns an error-severity diagnostic with the given summary.
func ErrorDiag(summary string) Diagnostic {
	return Diagnostic{Severity: SeverityError, Summary: summary}
}

// WarningDiag returns a warning-severity diagnostic with the given summary.
func WarningDiag(summary string) Diagnostic {
	return Diagnostic{Severity: SeverityWarning, Summary: summary}
}

// WithDetail sets the diagnostic's detail text.
func (d Diagnostic) WithDetail(detail string) Diagnostic {
	d.Detail = detail
	return d
}

// WithAttribute sets the diagnostic's attribute path.
func (d Diagnostic) WithAttribute(path string) Diagnostic {
	d.Attribute = path
	return d
}

// IsError reports whether the diagnostic has error severity.
func (d Diagnostic) IsError() bool { return d.Severity == SeverityError }

// Diagnostics is a list of diagnostics.
type Diagnostics []Diagnostic

// HasErrors reports whether any diagnostic has error severity.
func (ds Diagnostics) HasErrors() bool {
	for _, d := range ds {
		if d.IsError() {
			return true
		}
	}
	return false
}

// Errors returns only the error-severity diagnostics.
func (ds Diagnostics) Errors() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if d.IsError() {
			out = append(out, d)
		}
	}
	return out
}

// Warnings returns only the warning-severity diagnostics.
func (ds Diagnostics) Warnings() Diagnostics {
	var out Diagnostics
	for _, d := range ds {
		if !d.IsError() {
			out = append(out, d)
		}
	}
	return out
}
