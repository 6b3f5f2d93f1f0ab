// Package registry tracks which live Claude CLI subprocess belongs to which
// session key, so sessions can be cancelled and temporary keys can be
// replaced by the id the CLI assigns.
package registry
