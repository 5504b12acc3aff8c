package ident_test

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nicksonlangat/clinicsync-api/internal/ident"
)

func TestGenerate_SKU(t *testing.T) {
	tests := []struct {
		name       string
		entityName string
		wantPrefix string
	}{
		{name: "plain_name", entityName: "Unique Product", wantPrefix: "UNI-"},
		{name: "short_name", entityName: "Ox", wantPrefix: "OX-"},
		{name: "punctuated_name", entityName: "B+ Syringe Pack", wantPrefix: "B-S-"},
		{name: "empty_name", entityName: "", wantPrefix: "PRD-"},
		{name: "symbols_only", entityName: "+++", wantPrefix: "PRD-"},
		{name: "non_ascii_digits", entityName: "٣٣٣ mask", wantPrefix: "MAS-"},
		{name: "non_ascii_only", entityName: "٣٣٣", wantPrefix: "PRD-"},
	}

	suffix := regexp.MustCompile(`^[A-Z0-9]{5}$`)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sku := ident.Generate(ident.KindSKU, tt.entityName)
			assert.True(t, len(sku) > len(tt.wantPrefix), "sku too short: %q", sku)
			assert.Equal(t, tt.wantPrefix, sku[:len(tt.wantPrefix)])
			assert.Regexp(t, suffix, sku[len(tt.wantPrefix):])
		})
	}
}

func TestGenerate_Numbers(t *testing.T) {
	tests := []struct {
		name    string
		kind    ident.Kind
		pattern string
	}{
		{name: "order", kind: ident.KindOrderNumber, pattern: `^ORD-[0-9]{5}$`},
		{name: "reservation", kind: ident.KindReservationNumber, pattern: `^RES-[0-9]{5}$`},
		{name: "bill", kind: ident.KindBillNumber, pattern: `^BILL-[0-9]{5}$`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Regexp(t, tt.pattern, ident.Generate(tt.kind, ""))
		})
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "unique-product", ident.Slugify("Unique  Product"))
	assert.Equal(t, "a-b-c", ident.Slugify("  A/b_C!  "))
	assert.Equal(t, "", ident.Slugify("+++"))
	// Non-ASCII letters and digits are dropped so a prefix cut can never
	// land mid-rune.
	assert.Equal(t, "mask", ident.Slugify("٣٣٣ mask"))
	assert.Equal(t, "", ident.Slugify("٣٣٣"))
}
