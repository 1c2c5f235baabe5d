package parcel

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// commonAbbreviations folds word pairs that name the same place in
// different sources ("Fort Bend" vs "Ft Bend").
var commonAbbreviations = [...][2]string{
	{"fort", "ft"},
	{"saint", "st"},
	{"avenue", "ave"},
	{"boulevard", "blvd"},
	{"circle", "cir"},
	{"court", "ct"},
	{"drive", "dr"},
	{"interstate", "i"},
	{"lane", "ln"},
	{"parkway", "pkwy"},
	{"place", "pl"},
	{"street", "st"},
	{"road", "rd"},
	{"terrace", "ter"},
	{"trail", "tr"},
	{"east", "e"},
	{"north", "n"},
	{"south", "s"},
	{"west", "w"},
}

var accentStripper = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// StandardizeName removes accents, lowercases, drops spaces and
// punctuation, and folds common abbreviations so names from different
// sources can be compared directly.
func StandardizeName(s string) string {
	folded, _, err := transform.String(accentStripper, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}

	out := b.String()
	for _, pair := range commonAbbreviations {
		out = strings.ReplaceAll(out, pair[0], pair[1])
	}
	return out
}
