package validator

import "sort"

// Kind classifies a finding.
type Kind string

const (
	KindSyntax        Kind = "syntax"
	KindType          Kind = "type"
	KindImport        Kind = "import"
	KindSecurity      Kind = "security"
	KindAccessibility Kind = "accessibility"
	KindStructure     Kind = "structure"
)

// Severity of a finding.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Finding is one diagnostic. Line and Column are 1-based; zero means unknown.
type Finding struct {
	Kind     Kind     `json:"kind"`
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Line     int      `json:"line,omitempty"`
	Column   int      `json:"column,omitempty"`
	Severity Severity `json:"severity"`
}

// Check names one stage of validation.
type Check string

const (
	CheckCompile       Check = "compile"
	CheckSecurity      Check = "security"
	CheckImports       Check = "imports"
	CheckStructure     Check = "structure"
	CheckAccessibility Check = "accessibility"
)

// CheckResult is what a single check reports.
type CheckResult struct {
	Check    Check
	Findings []Finding
	// Score is only meaningful for the accessibility check.
	Score int
}

// Valid reports whether the check produced no error findings.
func (r CheckResult) Valid() bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError {
			return false
		}
	}
	return true
}

// Outcome is the aggregated verdict over all checks.
type Outcome struct {
	Valid              bool           `json:"valid"`
	Checks             map[Check]bool `json:"checks"`
	Findings           []Finding      `json:"findings"`
	AccessibilityScore int            `json:"accessibility_score"`
}

// gating lists the checks whose errors make an outcome invalid.
var gating = map[Check]bool{
	CheckSecurity: true,
	CheckImports:  true,
}

// Aggregate combines check results. Only security and import errors decide validity.
// A check reported more than once passes only if every report passes.
func Aggregate(results ...CheckResult) Outcome {
	out := Outcome{
		Valid:              true,
		Checks:             make(map[Check]bool, len(results)),
		Findings:           []Finding{},
		AccessibilityScore: 100,
	}
	for _, r := range results {
		ok := r.Valid()
		if prev, seen := out.Checks[r.Check]; seen {
			ok = ok && prev
		}
		out.Checks[r.Check] = ok
		if gating[r.Check] && !ok {
			out.Valid = false
		}
		if r.Check == CheckAccessibility {
			out.AccessibilityScore = r.Score
		}
		out.Findings = append(out.Findings, r.Findings...)
	}
	sort.SliceStable(out.Findings, func(i, j int) bool {
		a, b := out.Findings[i], out.Findings[j]
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return out
}

// Errors returns error findings.
func (o Outcome) Errors() []Finding { return o.filter(SeverityError) }

// Warnings returns warning findings.
func (o Outcome) Warnings() []Finding { return o.filter(SeverityWarning) }

// Compiles reports whether the source compiled without diagnostics.
func (o Outcome) Compiles() bool {
	ok, ran := o.Checks[CheckCompile]
	return !ran || ok
}

// Acceptable reports whether the artifact may be stored as generated.
func (o Outcome) Acceptable() bool {
	return o.Valid && o.Compiles()
}

// HasKind reports whether any finding of kind k is present.
func (o Outcome) HasKind(k Kind) bool {
	for _, f := range o.Findings {
		if f.Kind == k {
			return true
		}
	}
	return false
}

func (o Outcome) filter(s Severity) []Finding {
	var out []Finding
	for _, f := range o.Findings {
		if f.Severity == s {
			out = append(out, f)
		}
	}
	return out
}
