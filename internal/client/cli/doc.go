// Package cli provides the interactive gophauth terminal client.
//
// It wires configuration, local session storage, the API client and the
// session manager into a REPL where each command plays the role of a page:
// login, register, forgot, verify <token>, reset <token>, dashboard, whoami
// and logout. The stored session is revalidated in the background at start,
// so the prompt is usable immediately; the dashboard waits for that check.
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
// See App and runREPL for details.
package cli
