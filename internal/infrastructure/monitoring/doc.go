// Package monitoring provides Prometheus metrics for the session service.
//
// Collected metrics cover the HTTP surface (request counts and latency),
// the workspace (open tabs, message delivery states, retries, cancels),
// the conversation cache (hits, misses, evictions), and best-effort
// persistence (saves, loads, failures).
//
// Metrics are exposed through promhttp on /metrics.
package monitoring
