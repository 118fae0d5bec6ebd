// Package diag defines the error model shared by the backend phases.
//
// The lowering stage assumes well-typed, symbol-resolved input and performs
// no user-facing diagnostics of its own. When one of its preconditions does
// not hold it fails fast with an *InternalError carrying a stable Code, never
// by silently emitting wrong code.
//
// Codes are grouped by range and render as a short identifier:
//
//   - 4000-4999 IO: unit files, caches, output files.
//   - 5000-5999 PRJ: configuration.
//   - 9000-9999 ICE: internal compiler errors raised by lowering and by the
//     bytecode sink.
//
// Callers match on codes with errors.Is:
//
//	if errors.Is(err, diag.ICEDuplicateCaseValue) { ... }
package diag
