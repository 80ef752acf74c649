// Package middleware holds the HTTP middleware chain of the dashboard API:
// request IDs that double as log trace IDs, tracing spans, request logging
// with metrics, panic recovery and a global rate limit.
package middleware
