// ============================================================================
// ct4pwd - Visual Programming Compiler
// ============================================================================
//
// Package:     version
// Description: Central version management for the compiler, service and CLI
// Author:      msto63
// Created:     2026-09-14
// License:     MIT
// ============================================================================

package version

import "fmt"

// Version constants for all ct4pwd components
const (
	// Platform version
	Platform = "0.3.0"

	// Component versions
	Lovelace = "0.3.0"
	CLI      = "0.3.0"
	Language = "1.1.0"
)

// Set via -ldflags at build time
var (
	Commit    = "dev"
	BuildDate = "unknown"
)

// ServiceVersion returns the version for a given component name
func ServiceVersion(name string) string {
	switch name {
	case "lovelace":
		return Lovelace
	case "ct4pwd", "cli":
		return CLI
	case "language", "vpl":
		return Language
	default:
		return Platform
	}
}

// String returns a one-line description of the build
func String(name string) string {
	return fmt.Sprintf("%s %s (language %s, commit %s, built %s)",
		name, ServiceVersion(name), Language, Commit, BuildDate)
}
