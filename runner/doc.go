// Package runner executes registered test units in a structured, organized manner.
//
// The main components are:
//   - SessionRunner: Coordinates one run over all registered work and produces the session record
//   - Suite discovery: Replays a suite body once per case so every case sees a fresh setup
//   - Case executor: Runs one body, converts every failure shape into a tagged outcome
//   - Check evaluator: Captures a value, applies a comparison and pushes check events
//
// These components work together on a single goroutine: Session -> Suite ->
// Case -> Check, strictly depth-first. Non-local exits raised by fatal checks
// are recovered at the boundary that owns them and never escape a Run call.
package runner
