// Package engine implements the autostart entry registry: overlay
// resolution across the directory precedence table, debounced persistence
// of field mutations, and reconciliation of user overrides against their
// system originals.
package engine
