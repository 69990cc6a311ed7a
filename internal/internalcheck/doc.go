// Package internalcheck holds repository policy tests: cgo stays confined to
// internal/bindings, generated files carry the standard marker, and raw
// addresses never reach the logger unformatted.
//
// The package has no exported API.
package internalcheck
