package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll(t *testing.T) {
	all := All()
	require.NotEmpty(t, all, "catalog must not be empty")

	for _, m := range all {
		assert.NotEmpty(t, m.ID, "model ID must not be empty")
		assert.NotEmpty(t, m.Name, "model Name must not be empty")
		assert.NotEmpty(t, m.Family, "model Family must not be empty")
		assert.Greater(t, m.ContextWindow, 0, "model ContextWindow must be positive")
		assert.Greater(t, m.MaxOutputTokens, 0, "model MaxOutputTokens must be positive")
	}
}

func TestAll_ReturnsCopy(t *testing.T) {
	a := All()
	b := All()
	a[0].ID = "mutated"

	assert.NotEqual(t, "mutated", b[0].ID, "All() must return independent copies")
}

func TestNoDuplicateNames(t *testing.T) {
	seen := make(map[string]string)

	for _, m := range catalog {
		for _, name := range append([]string{m.ID}, m.Aliases...) {
			owner, dup := seen[name]
			assert.False(t, dup, "%s is used by %s and %s", name, owner, m.ID)
			seen[name] = m.ID
		}
	}
}

func TestByID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantID  string
		wantNil bool
	}{
		{name: "exact match", input: "claude-opus-4-6", wantID: "claude-opus-4-6"},
		{name: "alias match opus", input: "opus", wantID: "claude-opus-4-6"},
		{name: "alias match sonnet", input: "sonnet", wantID: "claude-sonnet-4-6"},
		{name: "alias match haiku", input: "haiku", wantID: "claude-haiku-4-5"},
		{name: "case insensitive", input: "Claude-Sonnet-4", wantID: "claude-sonnet-4-6"},
		{name: "prefix match dated ID", input: "claude-opus-4-6-20260205", wantID: "claude-opus-4-6"},
		{name: "not found", input: "gpt-4", wantNil: true},
		{name: "empty string", input: "", wantNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ByID(tt.input)
			if tt.wantNil {
				assert.Nil(t, got)

				return
			}

			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestByFamily(t *testing.T) {
	for _, f := range []Family{FamilyOpus, FamilySonnet, FamilyHaiku} {
		got := ByFamily(f)
		require.NotEmpty(t, got, "family %s", f)

		for _, m := range got {
			assert.Equal(t, f, m.Family)
		}

		assert.True(t, got[0].Matches(string(f)), "newest %s model owns the family alias", f)
	}

	assert.Empty(t, ByFamily(Family("unknown")))
}
