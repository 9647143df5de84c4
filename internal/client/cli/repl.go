package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Register(ctx context.Context) error
	Login(ctx context.Context) error
	ForgotPassword(ctx context.Context) error
	VerifyEmail(ctx context.Context, token string) error
	ResetPassword(ctx context.Context, token string) error
	Dashboard(ctx context.Context) error
	Whoami(ctx context.Context) error
	Logout(ctx context.Context) error
}

// runREPL starts a simple read–eval–print loop for the gophauth CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a'. Unknown commands are reported
// back to the user. The loop exits on scanner EOF or when the user types
// "exit" or "quit".
//
// Prompt & Commands
//
// The prompt shows the current status (from statusFn) and accepts commands:
//
//	Not logged in:
//	  - help               show available commands
//	  - login              sign in
//	  - register           create an account
//	  - forgot             request a password reset link
//	  - verify <token>     verify an email address
//	  - reset <token>      set a new password
//	  - dashboard          protected page (redirects to login)
//	  - exit | quit        leave the program
//
//	Logged in:
//	  - help               show available commands
//	  - dashboard          show account information
//	  - whoami             print the signed-in user
//	  - logout             sign out
//	  - exit | quit        leave the program
//
// Any errors returned by command handlers are ignored here; handlers report
// their own outcome. This keeps the REPL loop resilient and focused on I/O.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("gophauth (%s) > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: dashboard, whoami, logout, exit")
			} else {
				printlnFn("Available commands: login, register, forgot, verify <token>, reset <token>, dashboard, exit")
			}

		case "login":
			_ = a.Login(ctx)

		case "register":
			_ = a.Register(ctx)

		case "forgot":
			_ = a.ForgotPassword(ctx)

		case "verify":
			if len(args) != 1 {
				printlnFn("Usage: verify <token>")
				continue
			}
			_ = a.VerifyEmail(ctx, args[0])

		case "reset":
			if len(args) != 1 {
				printlnFn("Usage: reset <token>")
				continue
			}
			_ = a.ResetPassword(ctx, args[0])

		case "dashboard":
			_ = a.Dashboard(ctx)

		case "whoami":
			_ = a.Whoami(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}
	}
}
