// Package cli implements the interactive triagekeeper command line: a small
// REPL over the server's HTTP API for reviewing one's own records and audit
// trail, uploading an avatar, and erasing all data.
package cli
