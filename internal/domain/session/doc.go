// Package session owns durable state: debounced conversation saves to
// the remote store, record assembly from transcripts, and the local
// workspace layout snapshot.
package session
