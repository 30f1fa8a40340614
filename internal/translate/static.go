package translate

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// termMap is the offline substitution table for the business terms that
// dominate contract filenames. Longest keys are applied first so compound
// terms win over their components.
var termMap = map[string]string{
	"秘密保持契約書": "NDA",
	"業務委託契約書": "Outsourcing_Contract",
	"御見積書":    "Quotation",
	"見積書":     "Quotation",
	"請求書":     "Invoice",
	"契約書":     "Contract",
	"発注書":     "Purchase_Order",
	"注文書":     "Order",
	"納品書":     "Delivery_Note",
	"覚書":      "Memorandum",
	"株式会社":    "Co_Ltd",
	"有限会社":    "Ltd",
	"システム":    "System",
	"サポート":    "Support",
	"サービス":    "Service",
	"運用":      "Operation",
	"保守":      "Maintenance",
	"開発":      "Development",
	"業務":      "Business",
	"委託":      "Outsourcing",
	"更新":      "Renewal",
	"年度":      "FY",
	"御中":      "",
	"様":       "",
}

// Static is the last-resort tier: a deterministic term table plus
// compatibility decomposition for full-width characters. It never fails, but
// its output may be partially translated; callers treat it as degraded.
type Static struct {
	terms      []string
	decomposer transform.Transformer
}

// NewStatic builds the fallback with its term table sorted longest-first.
func NewStatic() *Static {
	terms := make([]string, 0, len(termMap))
	for term := range termMap {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if len(terms[i]) != len(terms[j]) {
			return len(terms[i]) > len(terms[j])
		}
		return terms[i] < terms[j]
	})
	return &Static{
		terms: terms,
		decomposer: transform.Chain(
			norm.NFKD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
	}
}

// Name implements Provider for completeness; the chain calls Translate
// directly since this tier cannot fail.
func (s *Static) Name() string { return "static" }

// Translate substitutes known terms and folds full-width compatibility
// characters to ASCII. Unknown script passes through unchanged, which the
// chain detects and reports as exhaustion.
func (s *Static) Translate(text string) string {
	for _, term := range s.terms {
		text = strings.ReplaceAll(text, term, "_"+termMap[term]+"_")
	}
	if folded, _, err := transform.String(s.decomposer, text); err == nil {
		text = folded
	}
	return strings.Trim(text, "_ ")
}
