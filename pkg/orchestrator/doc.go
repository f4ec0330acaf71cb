// Package orchestrator wires the element collection → transformer → renderer
// pipeline behind a single entry point shared by the HTTP API and the CLI.
package orchestrator
