package main

import (
	"strings"
	"testing"
)

const lintFixture = "package q\n\n" +
	"const QGood = `--sql 11111111-2222-3333-4444-555555555555\nselect 1`\n\n" +
	"const QMissing = `select id from components`\n\n" +
	"const QBadMarker = \"--sql not-a-uuid\\nupdate t set x = 1\"\n\n" +
	"const Label = \"component\"\n\n" +
	"const QAgain = `--sql 11111111-2222-3333-4444-555555555555\ndelete from t`\n"

func TestLintSource(t *testing.T) {
	violations, queries, err := lintSource("q.go", []byte(lintFixture))
	if err != nil {
		t.Fatalf("lintSource returned error: %v", err)
	}
	if len(violations) != 2 {
		t.Fatalf("violations = %+v, want 2", violations)
	}
	if violations[0].name != "QMissing" || violations[1].name != "QBadMarker" {
		t.Fatalf("unexpected violations %+v", violations)
	}
	if violations[0].line != 6 {
		t.Fatalf("line = %d, want 6", violations[0].line)
	}
	if len(queries) != 2 || queries[0].name != "QGood" || queries[1].name != "QAgain" {
		t.Fatalf("unexpected queries %+v", queries)
	}

	dups := duplicateMarkers(queries)
	if len(dups) != 1 || dups[0].name != "QAgain" || !strings.Contains(dups[0].message, "QGood") {
		t.Fatalf("unexpected duplicates %+v", dups)
	}
}

func TestLintSourceRejectsInvalidGo(t *testing.T) {
	if _, _, err := lintSource("bad.go", []byte("package")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFirstLine(t *testing.T) {
	cases := map[string]string{
		"\n  --sql x\nselect": "--sql x",
		"select 1":            "select 1",
		"":                    "",
	}
	for in, want := range cases {
		if got := firstLine(in); got != want {
			t.Fatalf("firstLine(%q) = %q, want %q", in, got, want)
		}
	}
}
