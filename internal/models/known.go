package models

// catalog is the list of known Claude models, newest first within each
// family. Only the latest model per family gets the bare family alias.
var catalog = []Model{
	{
		ID:              "claude-opus-4-6",
		Name:            "Claude Opus 4.6",
		Family:          FamilyOpus,
		Aliases:         []string{"opus", "claude-opus-4", "opus-4.6"},
		ContextWindow:   200_000,
		MaxOutputTokens: 128_000,
	},
	{
		ID:              "claude-sonnet-4-6",
		Name:            "Claude Sonnet 4.6",
		Family:          FamilySonnet,
		Aliases:         []string{"sonnet", "claude-sonnet-4", "sonnet-4.6"},
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-haiku-4-5",
		Name:            "Claude Haiku 4.5",
		Family:          FamilyHaiku,
		Aliases:         []string{"haiku", "claude-haiku-4", "haiku-4.5"},
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-opus-4-5",
		Name:            "Claude Opus 4.5",
		Family:          FamilyOpus,
		Aliases:         []string{"opus-4.5"},
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-sonnet-4-5",
		Name:            "Claude Sonnet 4.5",
		Family:          FamilySonnet,
		Aliases:         []string{"sonnet-4.5"},
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
	{
		ID:              "claude-opus-4-1",
		Name:            "Claude Opus 4.1",
		Family:          FamilyOpus,
		ContextWindow:   200_000,
		MaxOutputTokens: 32_000,
	},
	{
		ID:              "claude-opus-4-0",
		Name:            "Claude Opus 4",
		Family:          FamilyOpus,
		ContextWindow:   200_000,
		MaxOutputTokens: 32_000,
	},
	{
		ID:              "claude-sonnet-4-0",
		Name:            "Claude Sonnet 4",
		Family:          FamilySonnet,
		ContextWindow:   200_000,
		MaxOutputTokens: 64_000,
	},
}
