package validator

import (
	"fmt"
	"regexp"

	sitter "github.com/smacker/go-tree-sitter"
)

type forbiddenPattern struct {
	name string
	re   *regexp.Regexp
	// prose patterns also match ordinary English and are not applied to JSX text
	// or comments.
	prose bool
}

// forbiddenPatterns are matched against raw text, so they also catch usages hidden
// in strings that a later transform could revive.
var forbiddenPatterns = []forbiddenPattern{
	{name: "window access", re: regexp.MustCompile(`\bwindow\s*[.\[]`), prose: true},
	{name: "document access", re: regexp.MustCompile(`\bdocument\s*[.\[]`), prose: true},
	{name: "globalThis access", re: regexp.MustCompile(`\bglobalThis\b`)},
	{name: "eval", re: regexp.MustCompile(`\beval\s*\(`)},
	{name: "Function constructor", re: regexp.MustCompile(`\bnew\s+Function\s*\(|\bFunction\s*\(\s*['"` + "`" + `]`)},
	{name: "timer", re: regexp.MustCompile(`\bset(?:Timeout|Interval|Immediate)\s*\(`)},
	{name: "network", re: regexp.MustCompile(`\bfetch\s*\(|\bXMLHttpRequest\b|\bWebSocket\b|\bEventSource\b|\bnavigator\.sendBeacon\b`)},
	{name: "storage", re: regexp.MustCompile(`\b(?:localStorage|sessionStorage|indexedDB)\b|\bdocument\.cookie\b`)},
	{name: "script tag", re: regexp.MustCompile(`(?i)<\s*script\b`)},
	{name: "javascript URL", re: regexp.MustCompile(`(?i)javascript\s*:`)},
	{name: "inline event handler", re: regexp.MustCompile(`<[A-Za-z][^<>]*\son[a-z]+\s*=`)},
	{name: "raw HTML injection", re: regexp.MustCompile(`\bdangerouslySetInnerHTML\b|\.(?:inner|outer)HTML\s*=`)},
	{name: "worker script import", re: regexp.MustCompile(`\bimportScripts\s*\(`)},
}

// forbiddenIdentifiers may not be referenced as bare identifiers.
var forbiddenIdentifiers = map[string]bool{
	"window":         true,
	"document":       true,
	"globalThis":     true,
	"eval":           true,
	"Function":       true,
	"XMLHttpRequest": true,
	"WebSocket":      true,
	"EventSource":    true,
	"fetch":          true,
	"localStorage":   true,
	"sessionStorage": true,
	"indexedDB":      true,
	"setTimeout":     true,
	"setInterval":    true,
	"setImmediate":   true,
	"importScripts":  true,
	"parent":         true,
	"top":            true,
	"self":           true,
	"opener":         true,
	"frames":         true,
	"location":       true,
	"navigator":      true,
}

// sensitiveGlobals are objects whose computed member access is reported.
var sensitiveGlobals = map[string]bool{
	"window":     true,
	"document":   true,
	"globalThis": true,
	"self":       true,
	"top":        true,
	"parent":     true,
	"frames":     true,
}

// CheckSecuritySource runs the textual scan and the syntax tree walk.
func CheckSecuritySource(s *Source) CheckResult {
	res := CheckResult{Check: CheckSecurity}

	root, release, err := s.Tree()
	defer release()
	var prose []span
	if err == nil && !root.HasError() {
		prose = proseSpans(root)
	}
	res.Findings = append(res.Findings, scanForbiddenPatterns(s, prose)...)
	if err != nil {
		return res
	}
	res.Findings = append(res.Findings, walkSecurity(s, root)...)
	return res
}

// span is a half-open byte range of the source.
type span struct{ start, end int }

// proseSpans returns the JSX text and comment ranges of a cleanly parsed tree.
func proseSpans(root *sitter.Node) []span {
	var out []span
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "jsx_text", "comment":
			out = append(out, span{int(n.StartByte()), int(n.EndByte())})
			return false
		}
		return true
	})
	return out
}

func inSpans(spans []span, offset int) bool {
	for _, sp := range spans {
		if offset >= sp.start && offset < sp.end {
			return true
		}
	}
	return false
}

func scanForbiddenPatterns(s *Source, prose []span) []Finding {
	var out []Finding
	for _, p := range forbiddenPatterns {
		for _, loc := range p.re.FindAllStringIndex(s.Code, -1) {
			if p.prose && inSpans(prose, loc[0]) {
				continue
			}
			line, col := s.position(loc[0])
			out = append(out, Finding{
				Kind:     KindSecurity,
				Code:     "forbidden-pattern",
				Message:  fmt.Sprintf("%s is not allowed: %q", p.name, s.Code[loc[0]:loc[1]]),
				Line:     line,
				Column:   col,
				Severity: SeverityError,
			})
		}
	}
	return out
}

func walkSecurity(s *Source, root *sitter.Node) []Finding {
	var out []Finding
	walk(root, func(n *sitter.Node) bool {
		switch n.Type() {
		case "identifier":
			name := s.Text(n)
			if forbiddenIdentifiers[name] && !isDeclarationName(n) {
				out = append(out, nodeFinding(n, KindSecurity, "forbidden-identifier",
					fmt.Sprintf("reference to %s is not allowed", name), SeverityError))
			}
		case "subscript_expression":
			obj := n.ChildByFieldName("object")
			if obj != nil && obj.Type() == "identifier" && sensitiveGlobals[s.Text(obj)] {
				out = append(out, nodeFinding(n, KindSecurity, "dynamic-access",
					fmt.Sprintf("computed access on %s", s.Text(obj)), SeverityWarning))
			}
			if idx := n.ChildByFieldName("index"); idx != nil && isConstructorKey(s, idx) {
				out = append(out, nodeFinding(n, KindSecurity, "constructor-access",
					"computed access to constructor", SeverityWarning))
			}
		case "member_expression":
			if isConstructorChain(s, n) {
				out = append(out, nodeFinding(n, KindSecurity, "constructor-escape",
					"constructor chain can reach the Function constructor", SeverityError))
				return false
			}
		}
		return true
	})
	return out
}

// isDeclarationName reports whether n names a local binding such as a prop or parameter,
// which shadows the global and is harmless.
func isDeclarationName(n *sitter.Node) bool {
	p := n.Parent()
	if p == nil {
		return false
	}
	switch p.Type() {
	case "variable_declarator":
		return sameNode(p.ChildByFieldName("name"), n)
	case "required_parameter", "optional_parameter":
		return sameNode(p.ChildByFieldName("pattern"), n)
	}
	return false
}

func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return false
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

func isConstructorKey(s *Source, n *sitter.Node) bool {
	if n.Type() != "string" {
		return false
	}
	txt := s.Text(n)
	return len(txt) >= 2 && txt[1:len(txt)-1] == "constructor"
}

// isConstructorChain matches x.constructor.constructor.
func isConstructorChain(s *Source, n *sitter.Node) bool {
	prop := n.ChildByFieldName("property")
	obj := n.ChildByFieldName("object")
	if prop == nil || obj == nil || s.Text(prop) != "constructor" {
		return false
	}
	if obj.Type() != "member_expression" {
		return false
	}
	inner := obj.ChildByFieldName("property")
	return inner != nil && s.Text(inner) == "constructor"
}
