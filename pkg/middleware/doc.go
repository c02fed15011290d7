// Package middleware holds reusable chain middleware: structured logging,
// required context keys, context injection, input sanitization and rate
// limiting.
package middleware
