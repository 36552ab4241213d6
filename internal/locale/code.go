package locale

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var (
	ErrEmptyLocaleSet     = errors.New("locale: at least one supported locale is required")
	ErrDefaultLocaleCount = errors.New("locale: exactly one default locale is required")
	ErrInvalidLocaleCode  = errors.New("locale: locale code is invalid")
)

// Code is a lowercase locale code such as "en" or "ar".
type Code string

func (c Code) String() string { return string(c) }

// Normalize lowercases and trims a raw locale value.
func Normalize(value string) Code {
	return Code(strings.ToLower(strings.TrimSpace(value)))
}

// Definition describes one supported locale together with its display names.
type Definition struct {
	Code       string
	Name       string
	NativeName string
	RTL        bool
	IsDefault  bool
}

// DefaultDefinitions lists the locales shipped with the runtime.
func DefaultDefinitions() []Definition {
	return []Definition{
		{Code: "en", Name: "English", NativeName: "English", IsDefault: true},
		{Code: "ur", Name: "Urdu", NativeName: "اردو", RTL: true},
		{Code: "ar", Name: "Arabic", NativeName: "العربية", RTL: true},
		{Code: "fa", Name: "Persian", NativeName: "فارسی", RTL: true},
	}
}

// Set is the immutable collection of supported locales. Exactly one member is
// the default locale.
type Set struct {
	codes []Code
	def   Code
}

// NewSet builds a set from the supplied codes, marking defaultCode as the default.
// Codes are normalized and deduplicated while preserving order.
func NewSet(defaultCode string, codes ...string) (*Set, error) {
	def := Normalize(defaultCode)
	if def == "" {
		return nil, ErrDefaultLocaleCount
	}
	out := make([]Code, 0, len(codes))
	for _, raw := range codes {
		code := Normalize(raw)
		if code == "" {
			continue
		}
		if strings.ContainsAny(string(code), " ,;") {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLocaleCode, raw)
		}
		if !slices.Contains(out, code) {
			out = append(out, code)
		}
	}
	if len(out) == 0 {
		return nil, ErrEmptyLocaleSet
	}
	if !slices.Contains(out, def) {
		return nil, fmt.Errorf("%w: default %q is not supported", ErrDefaultLocaleCount, def)
	}
	return &Set{codes: out, def: def}, nil
}

// SetFromDefinitions builds a set and enforces that exactly one definition is
// marked as default.
func SetFromDefinitions(defs []Definition) (*Set, error) {
	if len(defs) == 0 {
		return nil, ErrEmptyLocaleSet
	}
	var defaults []string
	codes := make([]string, 0, len(defs))
	for _, def := range defs {
		codes = append(codes, def.Code)
		if def.IsDefault {
			defaults = append(defaults, def.Code)
		}
	}
	if len(defaults) != 1 {
		return nil, fmt.Errorf("%w: found %d", ErrDefaultLocaleCount, len(defaults))
	}
	return NewSet(defaults[0], codes...)
}

// MustSet is NewSet for static configuration; it panics on invalid input.
func MustSet(defaultCode string, codes ...string) *Set {
	set, err := NewSet(defaultCode, codes...)
	if err != nil {
		panic(err)
	}
	return set
}

// Default returns the default locale.
func (s *Set) Default() Code { return s.def }

// Codes returns the supported locales in configuration order.
func (s *Set) Codes() []Code { return slices.Clone(s.codes) }

// Supports reports whether code is a member of the set.
func (s *Set) Supports(code Code) bool {
	return slices.Contains(s.codes, code)
}

// IsDefault reports whether code is the default locale.
func (s *Set) IsDefault(code Code) bool { return code == s.def }

// SearchOrder returns first followed by every other supported locale. An
// unsupported first value is still tried first so callers can scan stores
// holding locales outside the configured set.
func (s *Set) SearchOrder(first Code) []Code {
	order := make([]Code, 0, len(s.codes)+1)
	if first != "" {
		order = append(order, first)
	}
	for _, code := range s.codes {
		if code != first {
			order = append(order, code)
		}
	}
	return order
}
