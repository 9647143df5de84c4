// Package client talks to the remote auth backend.
//
// # Overview
//
//  1. Client is the transport-agnostic contract: ValidateToken, SignIn,
//     SignUp, ForgotPassword, VerifyEmail and ResetPassword, one request each.
//  2. HTTPClient implements it over the backend's JSON REST API
//     (GET /validate-token with a bearer token, POST for everything else).
//  3. InitDatabase and RunMigrations bootstrap the local SQLite file that
//     holds the durable session scope for the terminal client.
//
// # Error Handling
//
// Transport failures, timeouts and unreadable success bodies wrap
// ErrUnavailable. Non-2xx answers are *StatusError values carrying the
// backend's message; they unwrap to ErrUnauthorized (401/403) or ErrRejected.
// A caller-canceled context surfaces as context.Canceled.
//
// There are no retries: every failure is final for that attempt.
package client
