package templates

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
)

var errMalformedTemplate = errors.New("malformed template")

type nodeKind int

const (
	textNode nodeKind = iota
	varNode
	ifNode
	eachNode
)

type node struct {
	kind     nodeKind
	text     string // literal text, or the raw tag for variables
	path     string
	children []node
}

// Template is a parsed logic-less template. It supports {{path}}, {{#if path}}...{{/if}}
// and {{#each path}}...{{/each}}. Variables that cannot be resolved are emitted verbatim.
type Template struct {
	name  string
	nodes []node
}

// Parse compiles src. Only unbalanced block tags are errors.
func Parse(name, src string) (*Template, error) {
	root := &node{}
	stack := []*node{root}
	top := func() *node { return stack[len(stack)-1] }
	appendText := func(s string) {
		if s == "" {
			return
		}
		t := top()
		if n := len(t.children); n > 0 && t.children[n-1].kind == textNode {
			t.children[n-1].text += s
			return
		}
		t.children = append(t.children, node{kind: textNode, text: s})
	}

	pos := 0
	for pos < len(src) {
		i := strings.Index(src[pos:], "{{")
		if i < 0 {
			break
		}
		start := pos + i
		j := strings.Index(src[start+2:], "}}")
		if j < 0 {
			break
		}
		end := start + 2 + j + 2
		inner := strings.TrimSpace(src[start+2 : end-2])

		textEnd, next := start, end
		if isBlockTag(inner) {
			if ls, le, ok := standalone(src, pos, start, end); ok {
				textEnd, next = ls, le
			}
		}
		appendText(src[pos:textEnd])

		switch {
		case strings.HasPrefix(inner, "#if "):
			stack = append(stack, &node{kind: ifNode, path: strings.TrimSpace(inner[4:])})
		case strings.HasPrefix(inner, "#each "):
			stack = append(stack, &node{kind: eachNode, path: strings.TrimSpace(inner[6:])})
		case inner == "/if" || inner == "/each":
			want := ifNode
			if inner == "/each" {
				want = eachNode
			}
			if len(stack) == 1 || top().kind != want {
				return nil, fmt.Errorf("%w: %s: unexpected {{%s}} at offset %d", errMalformedTemplate, name, inner, start)
			}
			closed := *top()
			stack = stack[:len(stack)-1]
			top().children = append(top().children, closed)
		case isPath(inner):
			top().children = append(top().children, node{kind: varNode, text: src[start:end], path: inner})
		default:
			appendText(src[start:end])
		}
		pos = next
	}
	appendText(src[pos:])

	if len(stack) != 1 {
		return nil, fmt.Errorf("%w: %s: unclosed block {{%s}}", errMalformedTemplate, name, top().path)
	}
	return &Template{name: name, nodes: root.children}, nil
}

// Execute renders the template against data and collapses redundant blank lines.
func (t *Template) Execute(data any) string {
	var b strings.Builder
	render(&b, t.nodes, &scope{data: data})
	return collapseBlankLines(b.String())
}

var pathRe = regexp.MustCompile(`^(?:this|@index|[A-Za-z_][A-Za-z0-9_]*)(?:\.[A-Za-z_][A-Za-z0-9_]*)*$`)

func isPath(s string) bool { return pathRe.MatchString(s) }

func isBlockTag(inner string) bool {
	return strings.HasPrefix(inner, "#if ") || strings.HasPrefix(inner, "#each ") ||
		inner == "/if" || inner == "/each"
}

// standalone reports whether the tag at [start,end) is alone on its line and, if so,
// returns the span of the whole line including its newline.
func standalone(src string, pos, start, end int) (int, int, bool) {
	ls := strings.LastIndexByte(src[:start], '\n') + 1
	if ls < pos || strings.TrimLeft(src[ls:start], " \t") != "" {
		return 0, 0, false
	}
	rest := src[end:]
	nl := strings.IndexByte(rest, '\n')
	if nl < 0 {
		if strings.TrimSpace(rest) != "" {
			return 0, 0, false
		}
		return ls, len(src), true
	}
	if strings.TrimRight(rest[:nl], " \t\r") != "" {
		return 0, 0, false
	}
	return ls, end + nl + 1, true
}

type scope struct {
	data     any
	index    int
	hasIndex bool
	parent   *scope
}

func (s *scope) lookup(path string) (any, bool) {
	switch {
	case path == "this":
		return s.data, s.data != nil
	case path == "@index":
		for sc := s; sc != nil; sc = sc.parent {
			if sc.hasIndex {
				return sc.index, true
			}
		}
		return nil, false
	case strings.HasPrefix(path, "this."):
		return resolve(s.data, strings.Split(path[5:], "."))
	}
	parts := strings.Split(path, ".")
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := resolve(sc.data, parts); ok {
			return v, true
		}
	}
	return nil, false
}

func resolve(data any, parts []string) (any, bool) {
	cur := data
	for _, p := range parts {
		rv := reflect.ValueOf(cur)
		if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		v := rv.MapIndex(reflect.ValueOf(p).Convert(rv.Type().Key()))
		if !v.IsValid() {
			return nil, false
		}
		cur = v.Interface()
	}
	if cur == nil {
		return nil, false
	}
	return cur, true
}

func render(b *strings.Builder, nodes []node, sc *scope) {
	for _, n := range nodes {
		switch n.kind {
		case textNode:
			b.WriteString(n.text)
		case varNode:
			v, ok := sc.lookup(n.path)
			if !ok {
				b.WriteString(n.text)
				continue
			}
			b.WriteString(format(v))
		case ifNode:
			if v, ok := sc.lookup(n.path); ok && truthy(v) {
				render(b, n.children, sc)
			}
		case eachNode:
			v, ok := sc.lookup(n.path)
			if !ok {
				continue
			}
			rv := reflect.ValueOf(v)
			if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
				continue
			}
			for i := 0; i < rv.Len(); i++ {
				render(b, n.children, &scope{data: rv.Index(i).Interface(), index: i, hasIndex: true, parent: sc})
			}
		}
	}
}

func format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Bool:
		return rv.Bool()
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// collapseBlankLines trims trailing spaces, squeezes runs of blank lines to one and
// ends the output with exactly one newline.
func collapseBlankLines(s string) string {
	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, l := range lines {
		l = strings.TrimRight(l, " \t\r")
		if l == "" {
			if blank || len(out) == 0 {
				continue
			}
			blank = true
			out = append(out, "")
			continue
		}
		blank = false
		out = append(out, l)
	}
	for len(out) > 0 && out[len(out)-1] == "" {
		out = out[:len(out)-1]
	}
	return strings.Join(out, "\n") + "\n"
}
