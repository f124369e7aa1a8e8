package sandbox

import (
	"encoding/json"
	"sort"
	"strings"

	"uigen/internal/domain"
)

const (
	sampleRows = `[
  { "id": 1, "name": "Ada Lovelace", "email": "ada@example.com", "role": "Admin", "status": "Active" },
  { "id": 2, "name": "Alan Turing", "email": "alan@example.com", "role": "Editor", "status": "Active" },
  { "id": 3, "name": "Grace Hopper", "email": "grace@example.com", "role": "Viewer", "status": "Invited" }
]`
	sampleColumns = `[
  { "field": "name", "headerName": "Name", "flex": 1 },
  { "field": "email", "headerName": "Email", "flex": 1 },
  { "field": "role", "headerName": "Role" },
  { "field": "status", "headerName": "Status" }
]`
	sampleItems = `[
  { "id": "1", "primary": "Inbox", "secondary": "3 unread" },
  { "id": "2", "primary": "Drafts" },
  { "id": "3", "primary": "Archive" }
]`
	sampleLinks = `[{ "label": "Home", "href": "#" }, { "label": "Docs", "href": "#" }]`
)

// namedSamples seed props whose names imply a data shape.
var namedSamples = map[string]string{
	"rows":    sampleRows,
	"data":    sampleRows,
	"columns": sampleColumns,
	"items":   sampleItems,
	"links":   sampleLinks,
	"open":    "true",
}

// sampleProps builds the JS object literal passed to the previewed component.
func sampleProps(props []domain.PropDescriptor) string {
	entries := map[string]string{}
	for _, p := range props {
		if v, ok := sampleValue(p); ok {
			entries[p.Name] = v
		}
	}
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString("{")
	for i, k := range keys {
		if i > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n  ")
		b.WriteString(jsString(k))
		b.WriteString(": ")
		b.WriteString(entries[k])
	}
	if len(keys) > 0 {
		b.WriteString("\n")
	}
	b.WriteString("}")
	return b.String()
}

func sampleValue(p domain.PropDescriptor) (string, bool) {
	typ := strings.TrimSpace(p.Type)
	if strings.Contains(typ, "=>") {
		return "function () {}", true
	}
	if v, ok := literalDefault(p.Default); ok {
		return v, true
	}
	if v, ok := namedSamples[p.Name]; ok {
		return v, true
	}
	switch {
	case typ == "string":
		return jsString(humanize(p.Name)), true
	case typ == "number":
		return "42", true
	case typ == "boolean":
		return "false", true
	case strings.HasSuffix(typ, "[]") || strings.HasPrefix(typ, "Array<"):
		return "[]", true
	case strings.Contains(typ, "ReactNode"):
		return jsString(humanize(p.Name)), true
	case strings.HasPrefix(typ, "'") || strings.HasPrefix(typ, `"`):
		first := strings.TrimSpace(strings.SplitN(typ, "|", 2)[0])
		return jsString(strings.Trim(first, `'"`)), true
	}
	if p.Required {
		return "{}", true
	}
	return "", false
}

// literalDefault re-encodes a JSON or single-quoted default. Anything else is ignored
// rather than evaluated.
func literalDefault(def string) (string, bool) {
	def = strings.TrimSpace(def)
	if def == "" {
		return "", false
	}
	if len(def) >= 2 && def[0] == '\'' && def[len(def)-1] == '\'' {
		return jsString(def[1 : len(def)-1]), true
	}
	var v any
	if err := json.Unmarshal([]byte(def), &v); err != nil {
		return "", false
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(raw), true
}

func humanize(name string) string {
	var b strings.Builder
	for i, r := range name {
		if i > 0 && r >= 'A' && r <= 'Z' {
			b.WriteByte(' ')
			r += 'a' - 'A'
		}
		if i == 0 && r >= 'a' && r <= 'z' {
			r -= 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}
