package config

import (
	"fmt"
	"slices"
)

// PermissionModes lists the permission modes the CLI accepts.
var PermissionModes = []string{
	"acceptEdits",
	"bypassPermissions",
	"default",
	"dontAsk",
	"plan",
}

// NormalizePermissionMode maps legacy permission mode names to current CLI values.
//
// Legacy mappings:
//   - "acceptAll" -> "bypassPermissions"
//   - "prompt" -> "default"
func NormalizePermissionMode(mode string) string {
	switch mode {
	case "acceptAll":
		return "bypassPermissions"
	case "prompt":
		return "default"
	default:
		return mode
	}
}

// ValidatePermissionMode normalizes mode and rejects values the CLI does not
// know. The empty string is valid and leaves the CLI default in place.
func ValidatePermissionMode(mode string) (string, error) {
	normalized := NormalizePermissionMode(mode)
	if normalized == "" || slices.Contains(PermissionModes, normalized) {
		return normalized, nil
	}

	return "", fmt.Errorf("unknown permission mode %q (valid: %v)", mode, PermissionModes)
}
