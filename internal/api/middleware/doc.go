// Package middleware holds the gin middleware stack: cross-origin
// policy and per-client rate limiting.
package middleware
