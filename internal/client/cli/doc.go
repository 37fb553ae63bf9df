// Package cli provides the interactive Codifyr command-line client.
//
// It wires configuration, the local SQLite store, the identity client, the
// session machine and the action services, then runs a REPL. Action
// outcomes arrive as notifications and session transitions as navigation
// requests; both are printed.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
