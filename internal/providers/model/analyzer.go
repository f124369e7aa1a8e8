package model

import (
	"sort"
	"strings"
	"unicode"

	"uigen/internal/domain"
)

// categoryKeywords drive the offline analyzer. Weights favour specific terms.
var categoryKeywords = map[domain.Category]map[string]float64{
	domain.CategoryDataGrid:  {"datagrid": 3, "data grid": 3, "grid": 3, "spreadsheet": 2, "sortable": 1, "pagination": 1, "editable": 1},
	domain.CategoryTable:     {"table": 3, "rows": 1, "columns": 1, "tabular": 2},
	domain.CategoryForm:      {"form": 3, "input": 1, "signup": 2, "sign up": 2, "login": 2, "register": 2, "field": 1, "checkout": 1},
	domain.CategoryButton:    {"button": 3, "cta": 2, "toggle": 1},
	domain.CategoryCard:      {"card": 3, "profile": 1, "tile": 1, "pricing": 1},
	domain.CategoryModal:     {"modal": 3, "dialog": 3, "popup": 2, "confirm": 1},
	domain.CategoryNavbar:    {"navbar": 3, "navigation": 2, "nav": 2, "header": 1, "menu": 1, "app bar": 2},
	domain.CategoryList:      {"list": 3, "items": 1, "todo": 1, "feed": 1},
	domain.CategoryDashboard: {"dashboard": 3, "metrics": 1, "chart": 1, "kpi": 2, "analytics": 1},
}

// KeywordAnalyzer ranks categories by keyword hits. It never fails.
type KeywordAnalyzer struct{}

// Analyze returns candidates ordered by confidence. The result is empty when nothing matches.
func (KeywordAnalyzer) Analyze(prompt string) []CategoryCandidate {
	text := " " + normalizeText(prompt) + " "
	scores := map[domain.Category]float64{}
	var total float64
	for cat, words := range categoryKeywords {
		for word, weight := range words {
			if strings.Contains(text, " "+word+" ") || strings.Contains(text, " "+word+"s ") {
				scores[cat] += weight
				total += weight
			}
		}
	}
	out := make([]CategoryCandidate, 0, len(scores))
	for cat, score := range scores {
		out = append(out, CategoryCandidate{Category: cat, Confidence: score / total})
	}
	return rankCandidates(out)
}

// Best returns the top candidate of an analysis, if any.
func Best(candidates []CategoryCandidate) (domain.Category, bool) {
	if len(candidates) == 0 {
		return "", false
	}
	return candidates[0].Category, true
}

func rankCandidates(in []CategoryCandidate) []CategoryCandidate {
	sort.SliceStable(in, func(i, j int) bool {
		if in[i].Confidence != in[j].Confidence {
			return in[i].Confidence > in[j].Confidence
		}
		return in[i].Category < in[j].Category
	})
	if len(in) > 3 {
		in = in[:3]
	}
	return in
}

func normalizeText(s string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			lastSpace = false
			continue
		}
		if !lastSpace {
			b.WriteByte(' ')
			lastSpace = true
		}
	}
	return strings.TrimSpace(b.String())
}
