package validator

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// documentScriptHosts are the only origins a preview document may load scripts from.
var documentScriptHosts = map[string]bool{
	"unpkg.com": true,
}

// forbiddenElements embed or navigate to other documents.
var forbiddenElements = map[atom.Atom]bool{
	atom.Iframe:   true,
	atom.Frame:    true,
	atom.Frameset: true,
	atom.Object:   true,
	atom.Embed:    true,
	atom.Applet:   true,
	atom.Base:     true,
}

// executableSchemes run code when a URL attribute is followed.
var executableSchemes = []string{"javascript:", "vbscript:", "data:text/html"}

// documentScript is inline code found in a preview document. Line is where it starts.
type documentScript struct {
	code string
	line int
}

// ValidateDocument checks a standalone preview document. Inline scripts and event
// handler attributes go through the security and import checks; external script
// sources, executable URLs and embedding elements are reported directly.
func (v *Validator) ValidateDocument(ctx context.Context, doc string) Outcome {
	start := time.Now()
	scripts, findings := scanDocument(doc)

	results := []CheckResult{
		{Check: CheckSecurity, Findings: findings},
		{Check: CheckImports},
	}
	for _, sc := range scripts {
		src := newSource(ctx, sc.code, "", v.parser)
		results = append(results,
			shiftLines(runCheck(CheckSecuritySource, src), sc.line),
			shiftLines(runCheck(CheckImportsSource, src), sc.line),
		)
	}

	out := Aggregate(results...)
	v.log.Debug().
		Bool("valid", out.Valid).
		Int("scripts", len(scripts)).
		Int("errors", len(out.Errors())).
		Dur("took", time.Since(start)).
		Msg("validated preview document")
	return out
}

func shiftLines(r CheckResult, line int) CheckResult {
	for i := range r.Findings {
		if r.Findings[i].Line > 0 {
			r.Findings[i].Line += line - 1
		}
	}
	return r
}

// scanDocument tokenizes doc and collects its inline code plus the findings that
// need no parsing.
func scanDocument(doc string) ([]documentScript, []Finding) {
	var (
		scripts  []documentScript
		findings []Finding
		inScript bool
		line     = 1
	)
	report := func(code, msg string, at int) {
		findings = append(findings, Finding{
			Kind:     KindSecurity,
			Code:     code,
			Message:  msg,
			Line:     at,
			Severity: SeverityError,
		})
	}

	z := html.NewTokenizer(strings.NewReader(doc))
	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			return scripts, findings
		}
		raw := z.Raw()
		at := line
		line += bytes.Count(raw, []byte("\n"))

		switch tt {
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if forbiddenElements[tok.DataAtom] {
				report("forbidden-element", fmt.Sprintf("<%s> is not allowed in a preview document", tok.Data), at)
			}
			for _, attr := range tok.Attr {
				key := strings.ToLower(attr.Key)
				switch {
				case strings.HasPrefix(key, "on"):
					scripts = append(scripts, documentScript{code: attr.Val, line: at})
				case executableURL(attr.Val):
					report("script-url", fmt.Sprintf("%s attribute holds an executable URL", key), at)
				case key == "srcdoc":
					report("forbidden-element", "srcdoc documents are not allowed", at)
				case key == "http-equiv" && strings.EqualFold(strings.TrimSpace(attr.Val), "refresh"):
					report("forbidden-element", "meta refresh is not allowed", at)
				}
			}
			if tok.DataAtom != atom.Script {
				continue
			}
			if typ, ok := attrValue(tok, "type"); ok && strings.EqualFold(strings.TrimSpace(typ), "importmap") {
				report("forbidden-script-source", "import maps are not allowed", at)
			}
			if src, ok := attrValue(tok, "src"); ok && !allowedScriptSource(src) {
				report("forbidden-script-source", fmt.Sprintf("script source %q is not allowed", src), at)
			}
			inScript = tt == html.StartTagToken
		case html.TextToken:
			if inScript {
				if code := string(z.Text()); strings.TrimSpace(code) != "" {
					scripts = append(scripts, documentScript{code: code, line: at})
				}
			}
		case html.EndTagToken:
			inScript = false
		}
	}
}

func attrValue(tok html.Token, key string) (string, bool) {
	for _, a := range tok.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// executableURL reports URLs that run code. Browsers ignore whitespace and control
// characters inside the scheme, so those are dropped before comparing.
func executableURL(val string) bool {
	var b strings.Builder
	for _, r := range strings.ToLower(val) {
		if r > ' ' && r != 0x7f {
			b.WriteRune(r)
		}
	}
	v := b.String()
	for _, scheme := range executableSchemes {
		if strings.HasPrefix(v, scheme) {
			return true
		}
	}
	return false
}

func allowedScriptSource(src string) bool {
	u, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return false
	}
	return u.Scheme == "https" && documentScriptHosts[strings.ToLower(u.Hostname())]
}
