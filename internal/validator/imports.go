package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// AllowedImports are the bare module specifiers a component may import.
// Sub-paths of each entry are allowed too.
var AllowedImports = []string{
	"react",
	"@mui/material",
	"@mui/icons-material",
	"@mui/x-data-grid",
	"react-hook-form",
}

// ImportAllowed reports whether spec is relative or on the allow-list.
func ImportAllowed(spec string) bool {
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		return true
	}
	for _, allowed := range AllowedImports {
		if spec == allowed || strings.HasPrefix(spec, allowed+"/") {
			return true
		}
	}
	return false
}

// importRef is one import site.
type importRef struct {
	spec    string
	line    int
	column  int
	literal bool
}

var (
	staticImportRe  = regexp.MustCompile(`(?m)^\s*(?:import|export)\b[^'"` + "`" + `;]*?\bfrom\s*['"]([^'"]+)['"]|^\s*import\s*['"]([^'"]+)['"]`)
	dynamicImportRe = regexp.MustCompile(`\b(?:import|require)\s*\(\s*(?:['"]([^'"]+)['"]|([^)\s][^)]*))\)`)
)

// CheckImportsSource verifies every static and dynamic import against the allow-list.
// When the source cannot be parsed it falls back to a textual scan.
func CheckImportsSource(s *Source) CheckResult {
	res := CheckResult{Check: CheckImports}

	var refs []importRef
	root, release, err := s.Tree()
	defer release()
	if err != nil || root.HasError() {
		refs = scanImports(s)
	} else {
		refs = collectImports(s, root)
	}

	for _, r := range refs {
		switch {
		case !r.literal:
			res.Findings = append(res.Findings, Finding{
				Kind:     KindImport,
				Code:     "non-literal-import",
				Message:  fmt.Sprintf("dynamic import with computed specifier %s", r.spec),
				Line:     r.line,
				Column:   r.column,
				Severity: SeverityError,
			})
		case !ImportAllowed(r.spec):
			res.Findings = append(res.Findings, Finding{
				Kind:     KindImport,
				Code:     "forbidden-import",
				Message:  fmt.Sprintf("import %q is not on the allow-list", r.spec),
				Line:     r.line,
				Column:   r.column,
				Severity: SeverityError,
			})
		}
	}
	return res
}

// ImportSpecifiers lists the literal specifiers a source imports, in order.
func ImportSpecifiers(code string) []string {
	s := newSource(context.Background(), code, "", nil)
	var out []string
	for _, r := range scanImports(s) {
		if r.literal {
			out = append(out, r.spec)
		}
	}
	return out
}

func collectImports(s *Source, root *sitter.Node) []importRef {
	var refs []importRef
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "import_statement", "export_statement":
			if src := n.ChildByFieldName("source"); src != nil {
				refs = append(refs, refAt(src, unquote(s.Text(src)), true))
			}
		case "call_expression":
			fn := n.ChildByFieldName("function")
			if fn == nil {
				return true
			}
			if fn.Type() != "import" && !(fn.Type() == "identifier" && s.Text(fn) == "require") {
				return true
			}
			args := n.ChildByFieldName("arguments")
			if args == nil || args.NamedChildCount() == 0 {
				refs = append(refs, refAt(n, s.Text(n), false))
				return true
			}
			arg := args.NamedChild(0)
			if spec, ok := literalSpecifier(s, arg); ok {
				refs = append(refs, refAt(arg, spec, true))
			} else {
				refs = append(refs, refAt(arg, s.Text(arg), false))
			}
		}
		return true
	})
	return refs
}

func literalSpecifier(s *Source, n *sitter.Node) (string, bool) {
	switch n.Type() {
	case "string":
		return unquote(s.Text(n)), true
	case "template_string":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "template_substitution" {
				return "", false
			}
		}
		return unquote(s.Text(n)), true
	}
	return "", false
}

func scanImports(s *Source) []importRef {
	var refs []importRef
	for _, m := range staticImportRe.FindAllStringSubmatchIndex(s.Code, -1) {
		for g := 1; g <= 2; g++ {
			if m[2*g] >= 0 {
				line, col := s.position(m[2*g])
				refs = append(refs, importRef{spec: s.Code[m[2*g]:m[2*g+1]], line: line, column: col, literal: true})
			}
		}
	}
	for _, m := range dynamicImportRe.FindAllStringSubmatchIndex(s.Code, -1) {
		if m[2] >= 0 {
			line, col := s.position(m[2])
			refs = append(refs, importRef{spec: s.Code[m[2]:m[3]], line: line, column: col, literal: true})
			continue
		}
		if m[4] >= 0 {
			line, col := s.position(m[4])
			refs = append(refs, importRef{spec: strings.TrimSpace(s.Code[m[4]:m[5]]), line: line, column: col})
		}
	}
	return refs
}

func refAt(n *sitter.Node, spec string, literal bool) importRef {
	p := n.StartPoint()
	return importRef{spec: spec, line: int(p.Row) + 1, column: int(p.Column) + 1, literal: literal}
}

func unquote(s string) string {
	if len(s) >= 2 {
		switch s[0] {
		case '"', '\'', '`':
			if s[len(s)-1] == s[0] {
				return s[1 : len(s)-1]
			}
		}
	}
	return s
}
