// Package models provides the catalog of known Claude models and resolves
// the short names users type into the identifiers passed to the CLI.
package models

import (
	"slices"
	"strings"
)

// Family groups models of the same class.
type Family string

const (
	// FamilyOpus is the largest model class.
	FamilyOpus Family = "opus"
	// FamilySonnet is the balanced model class.
	FamilySonnet Family = "sonnet"
	// FamilyHaiku is the fastest model class.
	FamilyHaiku Family = "haiku"
)

// Model holds metadata for a single Claude model.
type Model struct {
	// ID is the API model identifier (e.g. "claude-opus-4-6").
	ID string `json:"id"`
	// Name is the human-readable display name.
	Name string `json:"name"`
	// Family is the model class.
	Family Family `json:"family"`
	// Aliases are shorthand names that resolve to ID (e.g. "opus").
	Aliases []string `json:"aliases,omitempty"`
	// ContextWindow is the default context window size in tokens.
	ContextWindow int `json:"contextWindow"`
	// MaxOutputTokens is the maximum number of output tokens.
	MaxOutputTokens int `json:"maxOutputTokens"`
}

// Matches reports whether name is the model's ID or one of its aliases,
// ignoring case.
func (m Model) Matches(name string) bool {
	if strings.EqualFold(m.ID, name) {
		return true
	}

	return slices.ContainsFunc(m.Aliases, func(a string) bool {
		return strings.EqualFold(a, name)
	})
}

// All returns a copy of every known model in the catalog, newest first.
func All() []Model {
	out := make([]Model, len(catalog))
	copy(out, catalog)

	return out
}

// ByID looks up a model by its identifier. It checks in order:
//  1. Exact match on ID or alias, ignoring case
//  2. Prefix match (for dated model IDs like "claude-opus-4-6-20260205")
//
// Returns nil if no model is found.
func ByID(id string) *Model {
	if id == "" {
		return nil
	}

	for i := range catalog {
		if catalog[i].Matches(id) {
			m := catalog[i]

			return &m
		}
	}

	lower := strings.ToLower(id)

	for i := range catalog {
		if strings.HasPrefix(lower, catalog[i].ID+"-") {
			m := catalog[i]

			return &m
		}
	}

	return nil
}

// ByFamily returns all models of the given family, newest first.
func ByFamily(f Family) []Model {
	var out []Model

	for _, m := range catalog {
		if m.Family == f {
			out = append(out, m)
		}
	}

	return out
}
