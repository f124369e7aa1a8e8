package templates

import (
	"regexp"
	"strings"

	"uigen/internal/domain"
)

// Import is one extra import line rendered into a template.
type Import struct {
	Clause string
	From   string
}

// TemplateContext is the data a category template is expanded with.
type TemplateContext struct {
	Name        string
	Description string
	Props       []domain.PropDescriptor
	Imports     []Import
	Types       []string
	Methods     []string
	Theme       domain.Theme
	Title       string
}

func (c TemplateContext) data() map[string]any {
	props := make([]any, 0, len(c.Props))
	for _, p := range c.Props {
		props = append(props, map[string]any{
			"name":        p.Name,
			"type":        p.Type,
			"required":    p.Required,
			"optional":    !p.Required,
			"default":     p.Default,
			"description": p.Description,
		})
	}
	imports := make([]any, 0, len(c.Imports))
	for _, im := range c.Imports {
		imports = append(imports, map[string]any{"clause": im.Clause, "from": im.From})
	}
	types := make([]any, 0, len(c.Types))
	for _, t := range c.Types {
		types = append(types, t)
	}
	methods := make([]any, 0, len(c.Methods))
	for _, m := range c.Methods {
		methods = append(methods, m)
	}
	title := c.Title
	if title == "" {
		title = splitWords(c.Name)
	}
	return map[string]any{
		"name":    c.Name,
		"title":   title,
		"props":   props,
		"imports": imports,
		"types":   types,
		"methods": methods,
		"dark":    c.Theme == domain.ThemeDark,
	}
}

var (
	identRe    = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	safeTypeRe = regexp.MustCompile(`^[A-Za-z0-9_\[\]<>|&,.:?() '"=-]+$`)
	titleRe    = regexp.MustCompile(`^[A-Za-z0-9 ,.!?'-]*$`)
)

// defaultProps is the prop set each category template relies on.
var defaultProps = map[domain.Category][]domain.PropDescriptor{
	domain.CategoryButton: {
		{Name: "label", Type: "string", Required: true, Description: "Button text"},
		{Name: "onClick", Type: "() => void", Description: "Click handler"},
		{Name: "disabled", Type: "boolean", Default: "false"},
		{Name: "variant", Type: "'text' | 'outlined' | 'contained'", Default: "'contained'"},
	},
	domain.CategoryCard: {
		{Name: "title", Type: "string", Required: true},
		{Name: "subtitle", Type: "string"},
		{Name: "body", Type: "string"},
		{Name: "actionLabel", Type: "string", Default: "'Learn more'"},
		{Name: "onAction", Type: "() => void"},
	},
	domain.CategoryForm: {
		{Name: "title", Type: "string"},
		{Name: "submitLabel", Type: "string", Default: "'Submit'"},
		{Name: "onSubmit", Type: "(values: FormValues) => void"},
	},
	domain.CategoryTable: {
		{Name: "rows", Type: "Array<Record<string, string | number>>", Required: true},
		{Name: "columns", Type: "Array<{ field: string; headerName: string }>", Required: true},
		{Name: "onRowClick", Type: "(row: Record<string, string | number>) => void"},
	},
	domain.CategoryDataGrid: {
		{Name: "rows", Type: "GridRowsProp", Required: true},
		{Name: "columns", Type: "GridColDef[]", Required: true},
		{Name: "onEdit", Type: "(id: GridRowId) => void"},
		{Name: "onDelete", Type: "(id: GridRowId) => void"},
	},
	domain.CategoryModal: {
		{Name: "open", Type: "boolean", Required: true},
		{Name: "title", Type: "string", Required: true},
		{Name: "onClose", Type: "() => void", Required: true},
		{Name: "confirmLabel", Type: "string", Default: "'Confirm'"},
		{Name: "onConfirm", Type: "() => void"},
		{Name: "children", Type: "React.ReactNode"},
	},
	domain.CategoryNavbar: {
		{Name: "title", Type: "string", Required: true},
		{Name: "links", Type: "Array<{ label: string; href: string }>", Default: "[]"},
		{Name: "onMenuClick", Type: "() => void"},
	},
	domain.CategoryList: {
		{Name: "items", Type: "Array<{ id: string; primary: string; secondary?: string }>", Required: true},
		{Name: "onSelect", Type: "(id: string) => void"},
	},
}

// DefaultProps returns a copy of the props a category template expects.
func DefaultProps(category domain.Category) []domain.PropDescriptor {
	return append([]domain.PropDescriptor(nil), defaultProps[category]...)
}

// ContextFor builds the expansion context for a fallback. Extra props proposed by the
// model are kept when their name and type are plain enough to render safely.
func ContextFor(category domain.Category, name string, req domain.GenerationRequest, proposed []domain.PropDescriptor) TemplateContext {
	props := DefaultProps(category)
	seen := make(map[string]bool, len(props))
	for _, p := range props {
		seen[p.Name] = true
	}
	for _, p := range proposed {
		if seen[p.Name] || !identRe.MatchString(p.Name) {
			continue
		}
		if !safeTypeRe.MatchString(p.Type) {
			p.Type = "unknown"
		}
		p.Default = ""
		p.Description = ""
		seen[p.Name] = true
		props = append(props, p)
	}
	ctx := TemplateContext{
		Name:  name,
		Props: props,
		Theme: req.Context.Theme,
	}
	if req.Options.IncludeComments {
		ctx.Description = "Generated " + string(category) + " component."
	}
	return ctx
}

// SafeTitle returns s when it is plain text that can be embedded in a template.
func SafeTitle(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 60 || !titleRe.MatchString(s) {
		return ""
	}
	return s
}

func splitWords(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
