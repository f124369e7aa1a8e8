package validator

import (
	"strings"

	"github.com/evanw/esbuild/pkg/api"
)

// compileTsconfig is the fixed profile candidates are compiled under.
const compileTsconfig = `{
  "compilerOptions": {
    "strict": true,
    "jsx": "react",
    "jsxFactory": "React.createElement",
    "jsxFragmentFactory": "React.Fragment",
    "useDefineForClassFields": true
  }
}`

// CompileOptions returns the esbuild options used to check a TSX candidate.
func CompileOptions() api.TransformOptions {
	return api.TransformOptions{
		Loader:      api.LoaderTSX,
		Target:      api.ES2020,
		Format:      api.FormatESModule,
		JSX:         api.JSXTransform,
		JSXFactory:  "React.createElement",
		JSXFragment: "React.Fragment",
		TsconfigRaw: compileTsconfig,
		Sourcefile:  "Component.tsx",
		LogLevel:    api.LogLevelSilent,
	}
}

// CheckCompileSource compiles the candidate and reports every diagnostic.
func CheckCompileSource(s *Source) CheckResult {
	res := CheckResult{Check: CheckCompile}
	if strings.TrimSpace(s.Code) == "" {
		res.Findings = append(res.Findings, Finding{
			Kind:     KindSyntax,
			Code:     "empty-source",
			Message:  "source is empty",
			Severity: SeverityError,
		})
		return res
	}

	out := api.Transform(s.Code, CompileOptions())
	for _, m := range out.Errors {
		res.Findings = append(res.Findings, messageFinding(m, SeverityError))
	}
	for _, m := range out.Warnings {
		res.Findings = append(res.Findings, messageFinding(m, SeverityWarning))
	}
	return res
}

func messageFinding(m api.Message, sev Severity) Finding {
	f := Finding{
		Kind:     compileKind(m.Text),
		Code:     "compile-error",
		Message:  m.Text,
		Severity: sev,
	}
	if sev == SeverityWarning {
		f.Code = "compile-warning"
	}
	if m.Location != nil {
		f.Line = m.Location.Line
		f.Column = m.Location.Column + 1
	}
	return f
}

func compileKind(text string) Kind {
	lower := strings.ToLower(text)
	if strings.Contains(lower, "typescript") || strings.Contains(lower, " type ") || strings.HasPrefix(lower, "type ") {
		return KindType
	}
	return KindSyntax
}
