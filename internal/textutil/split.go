package textutil

import "strings"

// translationDelimiters are the separators contract filenames are split on
// before translation: ASCII separators plus the CJK punctuation that shows up
// in scanned Japanese contract names.
var translationDelimiters = map[rune]struct{}{
	'_': {}, '-': {}, ' ': {},
	'　': {}, '、': {}, '。': {},
	'（': {}, '）': {}, '【': {}, '】': {},
}

// SplitForTranslation breaks a filename base (no extension) into translatable
// fragments. Fragments of fewer than two runes are dropped: single characters
// carry no translatable meaning and pollute the cache.
func SplitForTranslation(base string) []string {
	fragments := strings.FieldsFunc(base, func(r rune) bool {
		_, ok := translationDelimiters[r]
		return ok
	})
	out := make([]string, 0, len(fragments))
	for _, frag := range fragments {
		if len([]rune(frag)) < 2 {
			continue
		}
		out = append(out, frag)
	}
	return out
}

// CleanTranslated normalizes a provider's output into a filename fragment:
// quotes are stripped, runs of non-word characters collapse to a single
// underscore, and leading/trailing underscores are trimmed.
func CleanTranslated(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, "\"'“”‘’")
	var b strings.Builder
	pendingSep := false
	for _, r := range text {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			if pendingSep && b.Len() > 0 {
				b.WriteByte('_')
			}
			pendingSep = false
			b.WriteRune(r)
		default:
			pendingSep = true
		}
	}
	return b.String()
}
