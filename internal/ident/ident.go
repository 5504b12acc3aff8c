// Package ident generates the human-facing codes used across the API:
// product SKUs and order/reservation/bill numbers. Codes are short and
// random, so uniqueness is enforced by the database and a retry loop in
// the repositories, not by construction.
package ident

import (
	"math/rand/v2"
	"strings"
	"unicode"
)

const (
	digits       = "0123456789"
	alphanumeric = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

	suffixLen = 5

	// Prefix used for SKUs when the product name slugifies to nothing.
	fallbackSKUPrefix = "PRD"
)

// Kind selects the code format to generate.
type Kind int

const (
	KindSKU Kind = iota
	KindOrderNumber
	KindReservationNumber
	KindBillNumber
)

var numberPrefixes = map[Kind]string{
	KindOrderNumber:       "ORD",
	KindReservationNumber: "RES",
	KindBillNumber:        "BILL",
}

// Generate returns a fresh code of the given kind. For KindSKU the name is
// slugified and its first three characters, uppercased, become the prefix;
// the other kinds use a fixed literal prefix and a numeric suffix. The name
// argument is ignored for non-SKU kinds.
func Generate(kind Kind, name string) string {
	if kind == KindSKU {
		return skuPrefix(name) + "-" + randomSuffix(alphanumeric)
	}
	return numberPrefixes[kind] + "-" + randomSuffix(digits)
}

func skuPrefix(name string) string {
	slug := Slugify(name)
	if slug == "" {
		return fallbackSKUPrefix
	}
	if len(slug) > 3 {
		slug = slug[:3]
	}
	return strings.ToUpper(slug)
}

func randomSuffix(alphabet string) string {
	var b strings.Builder
	b.Grow(suffixLen)
	for i := 0; i < suffixLen; i++ {
		b.WriteByte(alphabet[rand.IntN(len(alphabet))])
	}
	return b.String()
}

// Slugify lowercases the name and collapses every run of non-alphanumeric
// characters into a single hyphen.
func Slugify(name string) string {
	var b strings.Builder
	lastHyphen := true // suppress a leading hyphen
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if (unicode.IsLetter(r) || unicode.IsDigit(r)) && r < unicode.MaxASCII {
			b.WriteRune(r)
			lastHyphen = false
			continue
		}
		if !lastHyphen {
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
