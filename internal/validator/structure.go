package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	sitter "github.com/smacker/go-tree-sitter"
)

var (
	uiImportRe      = regexp.MustCompile(`(?m)^\s*import\b[^;]*?['"]@mui/material(?:/[^'"]*)?['"]`)
	defaultExportRe = regexp.MustCompile(`(?m)^\s*export\s+default\b`)
	componentDeclRe = regexp.MustCompile(`(?m)^(?:export\s+(?:default\s+)?)?(?:function\s+([A-Z][A-Za-z0-9_]*)\s*[<(]|(?:const|let)\s+([A-Z][A-Za-z0-9_]*)\s*(?::[^=]+)?=\s*(?:\(|async\s*\(|React\.(?:memo|forwardRef)|memo\(|forwardRef\(|function\b|[A-Za-z_]\w*\s*=>))`)
)

// BaseUILibrary is the component library every generated component builds on.
const BaseUILibrary = "@mui/material"

func isBaseUIImport(spec string) bool {
	return spec == BaseUILibrary || strings.HasPrefix(spec, BaseUILibrary+"/")
}

// CheckStructureSource verifies the component shape. Its findings never affect validity.
func CheckStructureSource(s *Source) CheckResult {
	res := CheckResult{Check: CheckStructure}

	var shape componentShape
	root, release, err := s.Tree()
	defer release()
	if err != nil || root.HasError() {
		shape = scanShape(s)
	} else {
		shape = treeShape(s, root)
	}

	warn := func(code, msg string) {
		res.Findings = append(res.Findings, Finding{
			Kind:     KindStructure,
			Code:     code,
			Message:  msg,
			Severity: SeverityWarning,
		})
	}

	if !shape.uiImport {
		warn("missing-ui-import", "component does not import "+BaseUILibrary)
	}
	switch len(shape.components) {
	case 0:
		warn("no-component", "no capitalized top-level component found")
	case 1:
		name := shape.components[0]
		if !shape.propsTypes[name+"Props"] {
			warn("missing-props-type", fmt.Sprintf("expected an interface or type named %sProps", name))
		}
	default:
		warn("multiple-components", fmt.Sprintf("expected exactly one top-level component, found %s", strings.Join(shape.components, ", ")))
	}
	if !shape.defaultExport {
		warn("missing-default-export", "component has no default export")
	}
	return res
}

// ComponentName returns the single top-level component name, if there is exactly one.
func ComponentName(code string) (string, bool) {
	shape := scanShape(newSource(context.Background(), code, "", nil))
	if len(shape.components) != 1 {
		return "", false
	}
	return shape.components[0], true
}

type componentShape struct {
	uiImport      bool
	defaultExport bool
	components    []string
	propsTypes    map[string]bool
}

func treeShape(s *Source, root *sitter.Node) componentShape {
	shape := componentShape{propsTypes: map[string]bool{}}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		n := root.NamedChild(i)
		switch n.Type() {
		case "import_statement":
			if src := n.ChildByFieldName("source"); src != nil && isBaseUIImport(unquote(s.Text(src))) {
				shape.uiImport = true
			}
		case "export_statement":
			if hasDefaultKeyword(s, n) {
				shape.defaultExport = true
			}
			if decl := n.ChildByFieldName("declaration"); decl != nil {
				shape.addDeclaration(s, decl)
			} else if val := n.ChildByFieldName("value"); val != nil {
				shape.addDeclaration(s, val)
			}
		default:
			shape.addDeclaration(s, n)
		}
	}
	return shape
}

func hasDefaultKeyword(s *Source, n *sitter.Node) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if c := n.Child(i); !c.IsNamed() && s.Text(c) == "default" {
			return true
		}
	}
	return false
}

func (shape *componentShape) addDeclaration(s *Source, n *sitter.Node) {
	switch n.Type() {
	case "function_declaration", "function", "function_expression", "class_declaration", "class":
		if name := n.ChildByFieldName("name"); name != nil && isCapitalized(s.Text(name)) {
			shape.addComponent(s.Text(name))
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(n.NamedChildCount()); i++ {
			d := n.NamedChild(i)
			if d.Type() != "variable_declarator" {
				continue
			}
			name, value := d.ChildByFieldName("name"), d.ChildByFieldName("value")
			if name == nil || value == nil || !isCapitalized(s.Text(name)) {
				continue
			}
			switch value.Type() {
			case "arrow_function", "function", "function_expression":
				shape.addComponent(s.Text(name))
			case "call_expression":
				if fn := value.ChildByFieldName("function"); fn != nil && componentWrappers[s.Text(fn)] {
					shape.addComponent(s.Text(name))
				}
			}
		}
	case "interface_declaration", "type_alias_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			shape.propsTypes[s.Text(name)] = true
		}
	}
}

func (shape *componentShape) addComponent(name string) {
	for _, existing := range shape.components {
		if existing == name {
			return
		}
	}
	shape.components = append(shape.components, name)
}

var componentWrappers = map[string]bool{
	"memo":             true,
	"forwardRef":       true,
	"React.memo":       true,
	"React.forwardRef": true,
}

var propsTypeRe = regexp.MustCompile(`(?m)^\s*(?:export\s+)?(?:interface|type)\s+([A-Za-z_]\w*)`)

func scanShape(s *Source) componentShape {
	shape := componentShape{
		uiImport:      uiImportRe.MatchString(s.Code),
		defaultExport: defaultExportRe.MatchString(s.Code),
		propsTypes:    map[string]bool{},
	}
	for _, m := range componentDeclRe.FindAllStringSubmatch(s.Code, -1) {
		if m[1] != "" {
			shape.addComponent(m[1])
		} else if m[2] != "" {
			shape.addComponent(m[2])
		}
	}
	for _, m := range propsTypeRe.FindAllStringSubmatch(s.Code, -1) {
		shape.propsTypes[m[1]] = true
	}
	return shape
}

func isCapitalized(name string) bool {
	for _, r := range name {
		return unicode.IsUpper(r)
	}
	return false
}
