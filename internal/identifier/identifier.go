// Package identifier classifies external record identifiers as numeric keys
// or opaque strings (document ids and slugs).
package identifier

import (
	"strconv"
)

// Kind tags an Identifier.
type Kind uint8

const (
	KindOpaque Kind = iota
	KindNumeric
)

func (k Kind) String() string {
	if k == KindNumeric {
		return "numeric"
	}
	return "opaque"
}

// Identifier is an immutable classified identifier. The raw value is always
// kept so numeric identifiers can still be used as document ids.
type Identifier struct {
	raw  string
	kind Kind
	num  int64
}

// Classify returns a numeric identifier when the whole string parses as a
// base-10 signed 64-bit integer, otherwise an opaque identifier.
func Classify(raw string) Identifier {
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return Identifier{raw: raw, kind: KindNumeric, num: n}
	}
	return Identifier{raw: raw, kind: KindOpaque}
}

// Kind reports the classification.
func (id Identifier) Kind() Kind { return id.kind }

// IsNumeric reports whether the identifier is a numeric key.
func (id Identifier) IsNumeric() bool { return id.kind == KindNumeric }

// Int returns the numeric value and true for numeric identifiers.
func (id Identifier) Int() (int64, bool) {
	return id.num, id.kind == KindNumeric
}

// String returns the raw identifier as received.
func (id Identifier) String() string { return id.raw }

// IsZero reports whether the identifier is empty.
func (id Identifier) IsZero() bool { return id.raw == "" }
