package cityindex

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// letters without a canonical decomposition
var foldReplacer = strings.NewReplacer(
	"ł", "l",
	"đ", "d",
	"ø", "o",
	"æ", "ae",
	"œ", "oe",
	"ß", "ss",
)

// normalize folds case, strips diacritics and collapses whitespace so that
// "Bogotá", "BOGOTA" and " bogota " compare equal.
func normalize(s string) string {
	t := transform.Chain(
		cases.Fold(),
		norm.NFD,
		runes.Remove(runes.In(unicode.Mn)),
		norm.NFC,
	)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = strings.ToLower(s)
	}
	out = foldReplacer.Replace(out)
	return strings.Join(strings.Fields(out), " ")
}
