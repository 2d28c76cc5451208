// Package audit records security-relevant events: registrations, logins
// and failed logins, logouts, token refreshes, access denials and
// collaboration invitation transitions.
//
// # Sinks
//
// StructuredLogger writes events through observability.Logger, FileLogger
// appends newline-delimited JSON with size based rotation, and MultiLogger
// fans out to several sinks.
//
// # Request context
//
// Middleware stores the logger and the caller's address, user agent and
// path in the request context. Services then call
//
//	audit.FromContext(ctx).LogAuthentication(ctx, audit.EventTypeAuthLogin, userID, email, audit.EventStatusSuccess, "login")
//
// and the event is enriched with those details and the request id.
package audit
