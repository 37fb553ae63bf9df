// Package client talks to the Codifyr identity service.
//
// # Overview
//
// The package provides:
//  1. The Client interface: sign-up, password sign-in, email confirmation,
//     password reset, sign-out, profile reads and verification submissions.
//  2. GRPCClient, a gRPC implementation that attaches the access token to
//     each call, rotates the token pair once when the server reports it
//     expired, and persists the session in the local metadata store.
//  3. Local database bootstrap (InitDatabase, RunMigrations) backed by
//     SQLite and embedded goose migrations.
//
// # Session changes
//
// OnSessionChange registers a listener for EventSignedIn, EventSignedOut and
// EventTokenRefreshed. Notifications are delivered on a dedicated goroutine
// in the order the changes happened, so a listener may call back into the
// client. A refresh token rejected by the server clears the session and
// delivers EventSignedOut.
//
// # Error Handling
//
// Failed provider calls return *ProviderError carrying the server reason
// code. Transport conditions match ErrUnavailable and ErrUnauthorized with
// errors.Is.
package client
