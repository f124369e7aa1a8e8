package sandbox

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uigen/internal/domain"
	"uigen/internal/storage"
	"uigen/internal/templates"
	"uigen/internal/validator"
)

func TestEveryAllowedImportHasShim(t *testing.T) {
	for _, module := range validator.AllowedImports {
		_, ok := Shims[module]
		require.True(t, ok, "no shim for %s", module)

		_, err := resolveModule(moduleRef{spec: module})
		assert.NoError(t, err, module)
		_, err = resolveModule(moduleRef{spec: module + "/Something"})
		assert.NoError(t, err, module+"/Something")
	}
}

func TestIconLigature(t *testing.T) {
	cases := map[string]string{
		"Delete":             "delete",
		"DeleteIcon":         "delete",
		"DeleteOutlinedIcon": "delete",
		"ArrowBackIosNew":    "arrow_back_ios_new",
		"Trash":              "delete",
		"X":                  "close",
		"Looks3":             "looks_3",
	}
	for in, want := range cases {
		assert.Equal(t, want, IconLigature(in), in)
	}
}

func TestModuleTable(t *testing.T) {
	code := `import React from 'react';
import Box from '@mui/material/Box';
import { ThemeProvider } from '@mui/material/styles';
import { DataGrid, GridColDef } from '@mui/x-data-grid';
import EditIcon from '@mui/icons-material/Edit';
import { Delete as Trash, Add } from '@mui/icons-material';
import type { Row } from './types';
import Helper from './Helper';
`
	table, err := moduleTable(code)
	require.NoError(t, err)

	want := []string{
		`"react": function () { return __ns("React"); }`,
		`"@mui/material/Box": function () { return __sub("MaterialUI", "Box"); }`,
		`"@mui/material/styles": function () { return __sub("MaterialUI", "styles"); }`,
		`"@mui/x-data-grid": function () { return __ns("__dataGrid"); }`,
		`"@mui/icons-material/Edit": function () { return __iconModule("edit"); }`,
		`"@mui/icons-material": function () { return __iconSet({"Add": "add", "Delete": "delete"}); }`,
		`"./Helper": function () { return __placeholder("./Helper"); }`,
	}
	for _, w := range want {
		assert.Contains(t, table, w)
	}
	assert.NotContains(t, table, "./types", "type-only imports are erased by the compiler")

	_, err = moduleTable("import axios from 'axios';")
	assert.ErrorIs(t, err, ErrUnsupportedModule)
}

func TestSampleProps(t *testing.T) {
	props := sampleProps(templates.DefaultProps(domain.CategoryCard))
	assert.Contains(t, props, `"actionLabel": "Learn more"`)
	assert.Contains(t, props, `"onAction": function () {}`)
	assert.Contains(t, props, `"title": "Title"`)

	table := sampleProps(templates.DefaultProps(domain.CategoryDataGrid))
	assert.Contains(t, table, `"Ada Lovelace"`)
	assert.Contains(t, table, `"headerName": "Email"`)

	assert.Equal(t, "{}", sampleProps(nil))
	escaped := sampleProps([]domain.PropDescriptor{{Name: "x", Type: "string", Default: "'</script>'"}})
	assert.NotContains(t, escaped, "</script>")
	assert.Contains(t, escaped, `\u003c/script\u003e`)
}

func TestScriptSafe(t *testing.T) {
	assert.Equal(t, `a<\/script>b<\/SCRIPT>`, scriptSafe(`a</script>b</SCRIPT>`))
	assert.Equal(t, `<\!-- x`, scriptSafe(`<!-- x`))
}

func newRenderer(t *testing.T) (*Renderer, *storage.MemoryStore) {
	t.Helper()
	store := storage.NewMemoryStore()
	return NewRenderer(validator.New(zerolog.Nop()), Options{BaseURL: "/v1/previews/", Store: store}, zerolog.Nop()), store
}

func templateInput(t *testing.T, category domain.Category, name string) Input {
	t.Helper()
	engine := templates.MustEngine()
	a, err := engine.Artifact(category, templates.ContextFor(category, name, domain.GenerationRequest{}, nil))
	require.NoError(t, err)
	return Input{Key: "component-1", Name: a.Name, Category: category, Code: a.Code, Props: a.Props}
}

func TestRenderCompilesComponent(t *testing.T) {
	r, _ := newRenderer(t)
	ctx := context.Background()

	p, err := r.Render(ctx, templateInput(t, domain.CategoryDataGrid, "UserGrid"))
	require.NoError(t, err)
	assert.Equal(t, ModeCompiled, p.Mode)
	assert.Empty(t, p.Error)
	assert.Equal(t, "/v1/previews/"+p.Handle, p.URL)
	assert.Equal(t, SandboxAttributes, p.Sandbox)
	assert.Equal(t, DefaultReadyTimeout.Milliseconds(), p.ReadyTimeoutMS)

	raw, err := r.Document(ctx, p.Handle)
	require.NoError(t, err)
	doc := string(raw)
	assert.Contains(t, doc, `http-equiv="Content-Security-Policy"`)
	assert.Contains(t, doc, `var channel = "`+p.Channel+`";`)
	assert.Contains(t, doc, MessageReady)
	assert.Contains(t, doc, `require("react")`)
	assert.Contains(t, doc, "var params =", "grid previews seed action parameters")
	assert.Contains(t, doc, `"@mui/x-data-grid": function () { return __ns("__dataGrid"); }`)
	assert.NotContains(t, doc, "interface UserGridProps", "types are compiled away")
	assert.Equal(t, 1, strings.Count(doc, "<title>UserGrid</title>"))
}

func TestRenderReleasesPreviousHandle(t *testing.T) {
	r, store := newRenderer(t)
	ctx := context.Background()
	in := templateInput(t, domain.CategoryButton, "SaveButton")

	first, err := r.Render(ctx, in)
	require.NoError(t, err)
	second, err := r.Render(ctx, in)
	require.NoError(t, err)
	require.NotEqual(t, first.Handle, second.Handle)

	_, err = r.Document(ctx, first.Handle)
	assert.ErrorIs(t, err, ErrPreviewNotFound)
	_, err = r.Document(ctx, second.Handle)
	assert.NoError(t, err)
	assert.Equal(t, 1, store.Len())

	current, ok := r.Current(in.Key)
	require.True(t, ok)
	assert.Equal(t, second.Handle, current)

	require.NoError(t, r.Release(ctx, second.Handle))
	_, ok = r.Current(in.Key)
	assert.False(t, ok)
	assert.Zero(t, store.Len())
}

func TestRenderRefusesUnsafeCode(t *testing.T) {
	r, store := newRenderer(t)
	code := "import React from 'react';\nexport default function Bad() { eval('1'); return null; }\n"
	_, err := r.Render(context.Background(), Input{Key: "bad", Name: "Bad", Category: domain.CategoryCustom, Code: code})
	assert.ErrorIs(t, err, ErrUnsafeCode)
	assert.Zero(t, store.Len())
}

func TestRenderCompileErrorIsShownInline(t *testing.T) {
	r, _ := newRenderer(t)
	ctx := context.Background()
	code := "import React from 'react';\nexport default function Broken() { return <div>; }\n"

	p, err := r.Render(ctx, Input{Key: "broken", Name: "Broken", Category: domain.CategoryCustom, Code: code})
	require.NoError(t, err)
	assert.Equal(t, ModeError, p.Mode)
	assert.NotEmpty(t, p.Error)

	raw, err := r.Document(ctx, p.Handle)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "window.__preview.fail(new Error(")
	assert.Contains(t, string(raw), MessageError)
}

func TestRenderPrefersProvidedDocument(t *testing.T) {
	r, _ := newRenderer(t)
	ctx := context.Background()
	in := templateInput(t, domain.CategoryCard, "PlanCard")
	in.PreviewHTML = "<!doctype html><html><head><title>Plan</title></head><body><div id=\"app\">plan</div></body></html>"

	p, err := r.Render(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, ModeProvided, p.Mode)

	raw, err := r.Document(ctx, p.Handle)
	require.NoError(t, err)
	doc := string(raw)
	head := strings.Index(doc, "<head>")
	bridge := strings.Index(doc, "var channel =")
	assert.True(t, head >= 0 && bridge > head, "bridge goes right after <head>")
	assert.Contains(t, doc, `<div id="app">plan</div>`)
	assert.Contains(t, doc, `window.addEventListener("load"`)
}

func TestRenderRejectsUnsafeProvidedDocument(t *testing.T) {
	r, _ := newRenderer(t)
	ctx := context.Background()
	in := templateInput(t, domain.CategoryCard, "PlanCard")
	in.PreviewHTML = "<html><body><script>parent.document.body.innerHTML='pwned'; fetch('/x?'+document.cookie); eval(atob('x'))</script></body></html>"

	p, err := r.Render(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, ModeCompiled, p.Mode)
	assert.Empty(t, p.Error)

	raw, err := r.Document(ctx, p.Handle)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "pwned")
	assert.Contains(t, string(raw), `require("react")`)
}

func TestHostDocument(t *testing.T) {
	r, _ := newRenderer(t)
	ctx := context.Background()
	p, err := r.Render(ctx, templateInput(t, domain.CategoryButton, "GoButton"))
	require.NoError(t, err)

	host := r.Host(p, "GoButton")
	assert.Contains(t, host, `sandbox="allow-scripts"`)
	assert.NotContains(t, host, "allow-same-origin")
	assert.Contains(t, host, "e.source !== frame.contentWindow")
	assert.Contains(t, host, `src="`+p.URL+`"`)
	assert.Contains(t, host, `var channel = "`+p.Channel+`";`)
	assert.Contains(t, host, "var timeoutMs = 5000;")

	rebuilt, err := r.HostFor(ctx, p.Handle)
	require.NoError(t, err)
	assert.Contains(t, rebuilt, `var channel = "`+p.Channel+`";`)
	assert.Contains(t, rebuilt, "<title>Preview: GoButton</title>")

	_, err = r.HostFor(ctx, "nope")
	assert.ErrorIs(t, err, ErrPreviewNotFound)
}
