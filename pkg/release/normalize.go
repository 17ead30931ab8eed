package release

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// romanRe matches II-IX after a space. A leading numeral and a bare I or X
// are left alone ("VII Days", "I Robot", "American History X").
var romanRe = regexp.MustCompile(`(?i) (ii|iii|iv|v|vi|vii|viii|ix)\b`)

var romanDigits = map[string]string{
	"ii": "2", "iii": "3", "iv": "4", "v": "5",
	"vi": "6", "vii": "7", "viii": "8", "ix": "9",
}

var (
	articles    = []string{"the ", "a ", "an "}
	punctuation = strings.NewReplacer("&", " and ", "-", " ", "'", "", ".", " ", "_", " ")
)

// CleanTitle folds a title into a comparison key: lower case, no accents,
// no leading articles, Arabic sequel numbers and single spaces.
func CleanTitle(title string) string {
	s := strings.ToLower(title)
	s = romanRe.ReplaceAllStringFunc(s, func(m string) string {
		return " " + romanDigits[strings.TrimSpace(m)]
	})
	s = stripAccents(s)
	s = punctuation.Replace(s)

	// Each colon-separated part may carry its own article ("Léon: The Professional").
	parts := strings.Split(s, ":")
	for i, p := range parts {
		p = strings.TrimSpace(p)
		for _, a := range articles {
			if strings.HasPrefix(p, a) {
				p = strings.TrimPrefix(p, a)
				break
			}
		}
		parts[i] = p
	}

	s = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, strings.Join(parts, " "))

	return strings.Join(strings.Fields(s), " ")
}

func stripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
