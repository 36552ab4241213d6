package locale

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/language"
)

// Preference is one entry of a weighted language-preference header.
type Preference struct {
	Tag     string
	Primary Code
	Weight  float64
}

// Negotiator maps an explicit locale parameter or an Accept-Language header
// onto a supported locale. It never fails; invalid input yields the default.
type Negotiator struct {
	set *Set
}

// NewNegotiator returns a negotiator for the supplied set.
func NewNegotiator(set *Set) *Negotiator {
	if set == nil {
		panic("locale: negotiator requires a locale set")
	}
	return &Negotiator{set: set}
}

// Set exposes the supported locales.
func (n *Negotiator) Set() *Set { return n.set }

// Default returns the default locale.
func (n *Negotiator) Default() Code { return n.set.Default() }

// Negotiate returns the explicit value when it is supported, otherwise the
// first supported primary subtag of header by descending weight, otherwise
// the default locale.
func (n *Negotiator) Negotiate(explicit, header string) Code {
	if code := Normalize(explicit); code != "" && n.set.Supports(code) {
		return code
	}
	if strings.TrimSpace(header) != "" {
		for _, pref := range ParseAcceptLanguage(header) {
			if n.set.Supports(pref.Primary) {
				return pref.Primary
			}
		}
	}
	return n.set.Default()
}

// Normalize validates a single locale value, falling back to the default when
// it is empty or unsupported.
func (n *Negotiator) Normalize(value string) Code {
	return n.Negotiate(value, "")
}

// ParseAcceptLanguage splits header into preferences sorted by descending
// weight. Entries keep their header order when weights tie. A missing weight
// counts as 1.0, an unparseable one as 0; weights outside [0,1] are clamped.
func ParseAcceptLanguage(header string) []Preference {
	parts := strings.Split(header, ",")
	prefs := make([]Preference, 0, len(parts))
	for _, part := range parts {
		tag, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		prefs = append(prefs, Preference{
			Tag:     tag,
			Primary: primarySubtag(tag),
			Weight:  parseWeight(params),
		})
	}
	sort.SliceStable(prefs, func(i, j int) bool {
		return prefs[i].Weight > prefs[j].Weight
	})
	return prefs
}

func primarySubtag(tag string) Code {
	raw, _, _ := strings.Cut(tag, "-")
	raw = strings.ToLower(strings.TrimSpace(raw))
	if parsed, err := language.Parse(raw); err == nil {
		if base, confidence := parsed.Base(); confidence != language.No && base.String() != "und" {
			return Code(base.String())
		}
	}
	return Code(raw)
}

func parseWeight(params string) float64 {
	for _, param := range strings.Split(params, ";") {
		key, value, ok := strings.Cut(strings.TrimSpace(param), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "q") {
			continue
		}
		weight, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || math.IsNaN(weight) {
			return 0
		}
		switch {
		case weight < 0:
			return 0
		case weight > 1:
			return 1
		default:
			return weight
		}
	}
	return 1.0
}
