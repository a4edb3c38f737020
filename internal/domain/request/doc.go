// Package request tracks cancellable in-flight async operations.
//
// Sends and remote loads run in goroutines carrying a context derived
// through the coordinator. Switching tabs cancels everything tracked;
// there are no per-request timeouts, so a hung request stays pending
// until the next switch cancels it or it resolves naturally.
package request
