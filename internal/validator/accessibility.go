package validator

import (
	"regexp"
	"strings"
)

type a11yRule struct {
	code    string
	message string
	// tag matches the opening tag of the element under test.
	tag *regexp.Regexp
	// ok reports whether the matched tag text satisfies the rule.
	ok func(tag string) bool
}

// attrs matches tag attributes, allowing one level of {...} expressions so arrow
// functions inside handlers do not end the tag early.
const attrs = `(?:[^<>{]|\{[^{}]*(?:\{[^{}]*\}[^{}]*)*\})*`

var (
	iconButtonTagRe = regexp.MustCompile(`<IconButton\b` + attrs + `>`)
	selfClosingBtn  = regexp.MustCompile(`<(?:button|Button)\b` + attrs + `/>`)
	imgTagRe        = regexp.MustCompile(`<(?:img|Avatar|CardMedia)\b` + attrs + `>`)
	inputTagRe      = regexp.MustCompile(`<(?:input|select|textarea)\b` + attrs + `>`)
	textFieldTagRe  = regexp.MustCompile(`<(?:TextField|Select|Checkbox|Switch|Slider)\b` + attrs + `>`)
	clickableTagRe  = regexp.MustCompile(`<(?:div|span|Box)\b` + attrs + `\bonClick\b` + attrs + `>`)
)

func hasAttr(tag string, names ...string) bool {
	for _, n := range names {
		if strings.Contains(tag, n+"=") || strings.Contains(tag, n+" =") {
			return true
		}
	}
	return false
}

var a11yRules = []a11yRule{
	{
		code:    "icon-button-label",
		message: "IconButton needs an aria-label",
		tag:     iconButtonTagRe,
		ok:      func(t string) bool { return hasAttr(t, "aria-label", "aria-labelledby", "title") },
	},
	{
		code:    "button-label",
		message: "button without content needs an aria-label",
		tag:     selfClosingBtn,
		ok:      func(t string) bool { return hasAttr(t, "aria-label", "aria-labelledby", "title") },
	},
	{
		code:    "image-alt",
		message: "image needs alt text",
		tag:     imgTagRe,
		ok: func(t string) bool {
			if strings.HasPrefix(t, "<Avatar") && !hasAttr(t, "src") {
				return true
			}
			return hasAttr(t, "alt", "aria-label", "role")
		},
	},
	{
		code:    "input-label",
		message: "form control needs an accessible label",
		tag:     inputTagRe,
		ok: func(t string) bool {
			return hasAttr(t, "aria-label", "aria-labelledby", "id") || strings.Contains(t, `type="hidden"`)
		},
	},
	{
		code:    "field-label",
		message: "form field needs a label",
		tag:     textFieldTagRe,
		ok: func(t string) bool {
			return hasAttr(t, "label", "aria-label", "inputProps", "slotProps", "labelId", "aria-labelledby")
		},
	},
	{
		code:    "click-role",
		message: "clickable non-interactive element needs a role and keyboard handler",
		tag:     clickableTagRe,
		ok: func(t string) bool {
			return hasAttr(t, "role") && (hasAttr(t, "onKeyDown") || hasAttr(t, "onKeyUp"))
		},
	},
}

// accessibilityPenalty is subtracted from the score per finding.
const accessibilityPenalty = 10

// CheckAccessibilitySource applies heuristic accessibility rules. It only produces warnings.
func CheckAccessibilitySource(s *Source) CheckResult {
	res := CheckResult{Check: CheckAccessibility}
	for _, rule := range a11yRules {
		for _, loc := range rule.tag.FindAllStringIndex(s.Code, -1) {
			tag := s.Code[loc[0]:loc[1]]
			if rule.ok(tag) {
				continue
			}
			line, col := s.position(loc[0])
			res.Findings = append(res.Findings, Finding{
				Kind:     KindAccessibility,
				Code:     rule.code,
				Message:  rule.message,
				Line:     line,
				Column:   col,
				Severity: SeverityWarning,
			})
		}
	}
	res.Score = 100 - accessibilityPenalty*len(res.Findings)
	if res.Score < 0 {
		res.Score = 0
	}
	return res
}
