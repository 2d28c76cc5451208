// Package memory provides process-local implementations of the account,
// admin, invitation and membership stores. They back development mode,
// when no database URL is configured, and the service tests.
package memory
