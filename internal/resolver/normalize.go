package resolver

import (
	"strings"
	"unicode"
)

// Tokens that carry no search signal in track titles or user queries.
var noiseTokens = map[string]struct{}{
	"audio":      {},
	"clean":      {},
	"deluxe":     {},
	"edit":       {},
	"edition":    {},
	"explicit":   {},
	"feat":       {},
	"featuring":  {},
	"ft":         {},
	"live":       {},
	"lyrics":     {},
	"mix":        {},
	"mono":       {},
	"official":   {},
	"radio":      {},
	"remaster":   {},
	"remastered": {},
	"stereo":     {},
	"version":    {},
	"video":      {},
}

// normalizeQuery lowercases, drops bracketed qualifiers and punctuation, and
// removes noise tokens so "Track (Remastered 2011)" matches "track".
func normalizeQuery(input string) string {
	if input == "" {
		return ""
	}

	tokens := strings.Fields(foldSeparators(stripBrackets(strings.ToLower(input))))
	kept := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if _, drop := noiseTokens[token]; drop {
			continue
		}
		kept = append(kept, token)
	}
	return strings.Join(kept, " ")
}

// stripBrackets removes (...) and [...] segments, including nested ones.
func stripBrackets(input string) string {
	var out strings.Builder
	depth := 0
	for _, r := range input {
		switch r {
		case '(', '[':
			depth++
		case ')', ']':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				out.WriteRune(r)
			}
		}
	}
	return out.String()
}

// foldSeparators replaces every non-alphanumeric run with a single space.
func foldSeparators(input string) string {
	var out strings.Builder
	pendingSpace := false
	for _, r := range input {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			out.WriteRune(r)
			pendingSpace = false
			continue
		}
		if !pendingSpace {
			out.WriteRune(' ')
			pendingSpace = true
		}
	}
	return out.String()
}
