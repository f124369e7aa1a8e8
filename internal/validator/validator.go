package validator

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"uigen/internal/domain"
)

// CheckFunc is one validation stage. Checks are independent and must not mutate the Source.
type CheckFunc func(*Source) CheckResult

// DefaultChecks is the full validation pipeline.
var DefaultChecks = []CheckFunc{
	CheckCompileSource,
	CheckSecuritySource,
	CheckImportsSource,
	CheckStructureSource,
	CheckAccessibilitySource,
}

// Validator runs every check over a candidate and aggregates the results.
// A single Validator is safe for concurrent use.
type Validator struct {
	parser *tsxParser
	checks []CheckFunc
	log    zerolog.Logger
}

// New builds a Validator with the default checks.
func New(log zerolog.Logger) *Validator {
	return &Validator{
		parser: newTSXParser(),
		checks: DefaultChecks,
		log:    log.With().Str("component", "validator").Logger(),
	}
}

// Validate runs all checks concurrently. Every check always runs, even when an earlier
// one has already found errors.
func (v *Validator) Validate(ctx context.Context, code string, category domain.Category) Outcome {
	start := time.Now()
	src := newSource(ctx, code, category, v.parser)

	results := make([]CheckResult, len(v.checks))
	var wg sync.WaitGroup
	for i, check := range v.checks {
		wg.Add(1)
		go func(i int, check CheckFunc) {
			defer wg.Done()
			results[i] = runCheck(check, src)
		}(i, check)
	}
	wg.Wait()

	out := Aggregate(results...)
	v.log.Debug().
		Bool("valid", out.Valid).
		Int("errors", len(out.Errors())).
		Int("warnings", len(out.Warnings())).
		Int("a11y_score", out.AccessibilityScore).
		Dur("took", time.Since(start)).
		Msg("validated component")
	return out
}

// runCheck converts a panicking check into an error finding so one broken stage
// cannot take down the others.
func runCheck(check CheckFunc, src *Source) (res CheckResult) {
	defer func() {
		if r := recover(); r != nil {
			res = CheckResult{Check: CheckSecurity, Findings: []Finding{{
				Kind:     KindSecurity,
				Code:     "check-crashed",
				Message:  "validation stage failed to complete",
				Severity: SeverityError,
			}}}
		}
	}()
	return check(src)
}

// Summary reduces an outcome to what is stored alongside a component.
func Summary(o Outcome) domain.ValidationSummary {
	return domain.ValidationSummary{
		Valid:              o.Valid,
		Errors:             len(o.Errors()),
		Warnings:           len(o.Warnings()),
		AccessibilityScore: o.AccessibilityScore,
	}
}
