// Package cli implements the interactive command line of the canvasser field
// client: a small REPL over the address session, the sync queue and the
// login state.
package cli
