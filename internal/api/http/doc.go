// Package http exposes the workspace over a JSON REST surface: tab
// CRUD, message send/retry, and saved-conversation management.
package http
