package sandbox

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode"

	"uigen/internal/domain"
)

// ShimKind selects how imports of a module are materialized in the preview document.
type ShimKind int

const (
	// ShimNamespace modules expose a namespace object on a browser global.
	ShimNamespace ShimKind = iota
	// ShimIcons modules resolve each imported icon to a font ligature component.
	ShimIcons
)

// Shim maps one allow-listed module onto what the preview document provides.
type Shim struct {
	Kind ShimKind
	// Global holds the module namespace inside the document.
	Global string
	// Script is the UMD bundle defining Global. Empty when the prelude defines it.
	Script string
}

// Shims is the single rewrite table for module imports. Every allow-listed module
// needs an entry.
var Shims = map[string]Shim{
	"react": {
		Global: "React",
		Script: "https://unpkg.com/react@18.3.1/umd/react.production.min.js",
	},
	"@mui/material": {
		Global: "MaterialUI",
		Script: "https://unpkg.com/@mui/material@5.15.20/umd/material-ui.production.min.js",
	},
	"@mui/icons-material": {
		Kind:   ShimIcons,
		Global: "__icons",
	},
	"@mui/x-data-grid": {
		Global: "__dataGrid",
	},
	"react-hook-form": {
		Global: "ReactHookForm",
		Script: "https://unpkg.com/react-hook-form@7.52.0/dist/index.umd.js",
	},
}

// reactDOMScript mounts the component. It is not importable by components.
const reactDOMScript = "https://unpkg.com/react-dom@18.3.1/umd/react-dom.production.min.js"

// IconAliases map icon names models commonly invent onto real Material icon names.
var IconAliases = map[string]string{
	"Trash":     "Delete",
	"Bin":       "Delete",
	"Pencil":    "Edit",
	"Cog":       "Settings",
	"Gear":      "Settings",
	"Hamburger": "Menu",
	"Cross":     "Close",
	"X":         "Close",
	"Plus":      "Add",
	"Minus":     "Remove",
	"Magnify":   "Search",
	"User":      "Person",
	"Profile":   "Person",
	"Mail":      "Email",
	"Bell":      "Notifications",
	"Heart":     "Favorite",
}

var iconVariants = []string{"Icon", "Outlined", "Rounded", "Sharp", "TwoTone"}

// IconLigature returns the Material Icons font ligature for an icon component name.
func IconLigature(name string) string {
	for _, suffix := range iconVariants {
		if trimmed := strings.TrimSuffix(name, suffix); trimmed != "" {
			name = trimmed
		}
	}
	if alias, ok := IconAliases[name]; ok {
		name = alias
	}
	var b strings.Builder
	for i, r := range name {
		if i > 0 && (unicode.IsUpper(r) || (unicode.IsDigit(r) && !unicode.IsDigit(rune(name[i-1])))) {
			b.WriteByte('_')
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}

// seedBindings are globals defined before table-like components run, so loosely
// written action handlers find a params object.
var seedBindings = map[domain.Category]string{
	domain.CategoryTable:    `var params = { id: 0, row: {}, value: null, field: "" };`,
	domain.CategoryDataGrid: `var params = { id: 0, row: {}, value: null, field: "" }; var apiRef = { current: null };`,
}

// importClauseRe captures the clause and specifier of one static import.
var importClauseRe = regexp.MustCompile(`(?m)^\s*import\s+(type\s+)?([^'"` + "`" + `;]*?)\s*from\s*['"]([^'"]+)['"]`)

var namedImportRe = regexp.MustCompile(`\{([^}]*)\}`)

// moduleRef is one module the compiled component will require.
type moduleRef struct {
	spec  string
	names []string
}

func collectModules(code string) []moduleRef {
	bySpec := map[string]*moduleRef{}
	var order []string
	for _, m := range importClauseRe.FindAllStringSubmatch(code, -1) {
		if m[1] != "" {
			continue
		}
		spec := m[3]
		ref, ok := bySpec[spec]
		if !ok {
			ref = &moduleRef{spec: spec}
			bySpec[spec] = ref
			order = append(order, spec)
		}
		if named := namedImportRe.FindStringSubmatch(m[2]); named != nil {
			for _, part := range strings.Split(named[1], ",") {
				part = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(part), "type "))
				if fields := strings.Fields(part); len(fields) > 0 {
					ref.names = append(ref.names, fields[0])
				}
			}
		}
	}
	for _, spec := range sideEffectImports(code) {
		if _, ok := bySpec[spec]; !ok {
			bySpec[spec] = &moduleRef{spec: spec}
			order = append(order, spec)
		}
	}
	out := make([]moduleRef, 0, len(order))
	for _, spec := range order {
		out = append(out, *bySpec[spec])
	}
	return out
}

var sideEffectRe = regexp.MustCompile(`(?m)^\s*import\s*['"]([^'"]+)['"]`)

func sideEffectImports(code string) []string {
	var out []string
	for _, m := range sideEffectRe.FindAllStringSubmatch(code, -1) {
		out = append(out, m[1])
	}
	return out
}

// resolveModule returns the document expression that provides ref.
func resolveModule(ref moduleRef) (string, error) {
	spec := ref.spec
	if strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../") {
		return fmt.Sprintf("__placeholder(%s)", jsString(spec)), nil
	}
	module, sub := splitSpec(spec)
	shim, ok := Shims[module]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedModule, spec)
	}
	switch shim.Kind {
	case ShimIcons:
		if sub != "" {
			return fmt.Sprintf("__iconModule(%s)", jsString(IconLigature(sub))), nil
		}
		names := append([]string(nil), ref.names...)
		sort.Strings(names)
		pairs := make([]string, 0, len(names))
		for _, n := range names {
			pairs = append(pairs, fmt.Sprintf("%s: %s", jsString(n), jsString(IconLigature(n))))
		}
		return fmt.Sprintf("__iconSet({%s})", strings.Join(pairs, ", ")), nil
	default:
		if sub == "" {
			return fmt.Sprintf("__ns(%s)", jsString(shim.Global)), nil
		}
		return fmt.Sprintf("__sub(%s, %s)", jsString(shim.Global), jsString(sub)), nil
	}
}

// splitSpec splits "@mui/material/Button" into the allow-listed module and the member.
func splitSpec(spec string) (string, string) {
	for module := range Shims {
		if spec == module {
			return module, ""
		}
		if strings.HasPrefix(spec, module+"/") {
			rest := strings.TrimPrefix(spec, module+"/")
			if i := strings.IndexByte(rest, '/'); i >= 0 {
				rest = rest[:i]
			}
			return module, rest
		}
	}
	return spec, ""
}

// moduleTable renders the JS object literal mapping every imported specifier to its shim.
func moduleTable(code string) (string, error) {
	refs := collectModules(code)
	entries := make([]string, 0, len(refs))
	for _, ref := range refs {
		expr, err := resolveModule(ref)
		if err != nil {
			return "", err
		}
		entries = append(entries, fmt.Sprintf("  %s: function () { return %s; }", jsString(ref.spec), expr))
	}
	return "{\n" + strings.Join(entries, ",\n") + "\n}", nil
}

// shimScripts lists the script URLs a document needs, in load order: React, ReactDOM,
// then every other shim bundle.
func shimScripts() []string {
	out := []string{Shims["react"].Script, reactDOMScript}
	modules := make([]string, 0, len(Shims))
	for module, shim := range Shims {
		if module != "react" && shim.Script != "" {
			modules = append(modules, module)
		}
	}
	sort.Strings(modules)
	for _, module := range modules {
		out = append(out, Shims[module].Script)
	}
	return out
}
