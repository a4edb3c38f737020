// Package ws streams workspace events over WebSocket and accepts
// interactive commands on the same connection.
package ws
