package lead

import (
	"regexp"
	"strings"
)

// NormalizePhone canonicalizes a raw phone value to +1XXXXXXXXXX (NANP).
//
// Rules:
// - 10 digits: prefix +1.
// - 11 digits starting with country code 1: keep as +1XXXXXXXXXX.
// - more than 11 digits: keep the trailing 10 with a +1 prefix
//   (extensions and pasted junk end up in front).
// - fewer than 10 digits: not usable.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 10:
		return "+1" + digits, true
	case len(digits) == 11 && digits[0] == '1':
		return "+" + digits, true
	case len(digits) > 11:
		return "+1" + digits[len(digits)-10:], true
	default:
		return "", false
	}
}

// candidateRe matches US phone shapes inside free text: optional +1/1 prefix,
// then area code and subscriber number with common separators.
var candidateRe = regexp.MustCompile(`(?:\+?1[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}`)

// ExtractPhoneCandidates scans document text (already extracted from a PDF or
// similar) for phone-number candidates and returns them normalized, deduped,
// in first-seen order.
func ExtractPhoneCandidates(text string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, m := range candidateRe.FindAllString(text, -1) {
		p, ok := NormalizePhone(m)
		if !ok {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
