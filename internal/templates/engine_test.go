package templates

import (
	"errors"
	"testing"
)

func mustParse(t *testing.T, src string) *Template {
	t.Helper()
	tpl, err := Parse("test", src)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return tpl
}

func TestExecute(t *testing.T) {
	data := map[string]any{
		"name":  "Card",
		"user":  map[string]any{"email": "a@b.c"},
		"flag":  true,
		"empty": "",
		"items": []any{
			map[string]any{"label": "one"},
			map[string]any{"label": "two"},
		},
		"tags": []string{"x", "y"},
	}
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"variable", "hello {{name}}", "hello Card\n"},
		{"nested path", "{{user.email}}", "a@b.c\n"},
		{"unknown verbatim", "{{missing}} and {{user.phone}}", "{{missing}} and {{user.phone}}\n"},
		{"non path verbatim", "sx={{ p: 2 }}", "sx={{ p: 2 }}\n"},
		{"if true", "{{#if flag}}on{{/if}}", "on\n"},
		{"if empty string", "a{{#if empty}}on{{/if}}b", "ab\n"},
		{"if missing", "a{{#if nope}}on{{/if}}b", "ab\n"},
		{"each with index", "{{#each items}}{{@index}}:{{label}} {{/each}}", "0:one 1:two\n"},
		{"each this", "{{#each tags}}[{{this}}]{{/each}}", "[x][y]\n"},
		{"each falls back to parent", "{{#each tags}}{{name}}{{/each}}", "CardCard\n"},
		{"standalone block lines", "a\n{{#each tags}}\n- {{this}}\n{{/each}}\nb", "a\n- x\n- y\nb\n"},
		{"collapse blank lines", "a\n\n\n\nb\n\n", "a\n\nb\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := mustParse(t, tc.src).Execute(data)
			if got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestParseRejectsUnbalancedBlocks(t *testing.T) {
	for _, src := range []string{
		"{{#if a}}x",
		"{{/each}}",
		"{{#each a}}{{/if}}",
	} {
		if _, err := Parse("bad", src); !errors.Is(err, errMalformedTemplate) {
			t.Fatalf("Parse(%q) err = %v, want malformed", src, err)
		}
	}
}

func TestExecuteIsIdempotent(t *testing.T) {
	tpl := mustParse(t, "{{#each items}}{{label}} {{unknown}}\n{{/each}}\n\n\n{{name}}")
	data := map[string]any{"name": "X", "items": []any{map[string]any{"label": "a"}}}

	first := tpl.Execute(data)
	if again := tpl.Execute(data); again != first {
		t.Fatalf("execute not deterministic: %q vs %q", first, again)
	}
	if reexpanded := mustParse(t, first).Execute(data); reexpanded != first {
		t.Fatalf("re-expansion changed output: %q vs %q", first, reexpanded)
	}
}
