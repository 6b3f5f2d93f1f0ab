package models

import (
	"maps"
	"strings"
)

// Normalizer resolves model aliases to full identifiers. It is safe for
// concurrent use once built.
type Normalizer struct {
	aliases map[string]string
}

var defaultNormalizer = NewNormalizer(nil)

// NewNormalizer builds a normalizer from the catalog plus extra aliases.
// Extra entries win over catalog aliases. Keys are matched ignoring case.
func NewNormalizer(extra map[string]string) *Normalizer {
	aliases := make(map[string]string, len(catalog)*4+len(extra))

	// Walk oldest first so newer models own shared aliases.
	for i := len(catalog) - 1; i >= 0; i-- {
		m := catalog[i]
		aliases[strings.ToLower(m.ID)] = m.ID

		for _, a := range m.Aliases {
			aliases[strings.ToLower(a)] = m.ID
		}
	}

	for k, v := range extra {
		aliases[strings.ToLower(strings.TrimSpace(k))] = v
	}

	return &Normalizer{aliases: aliases}
}

// Normalize returns the full identifier for name. Unknown names, including
// dated identifiers, are returned unchanged.
func (n *Normalizer) Normalize(name string) string {
	key := strings.ToLower(strings.TrimSpace(name))
	if key == "" {
		return name
	}

	if id, ok := n.aliases[key]; ok {
		return id
	}

	return name
}

// Aliases returns a copy of the alias table.
func (n *Normalizer) Aliases() map[string]string {
	return maps.Clone(n.aliases)
}

// Normalize resolves name with the catalog aliases only.
func Normalize(name string) string {
	return defaultNormalizer.Normalize(name)
}
