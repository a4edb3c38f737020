// Package main is the entry point for the sessiond server.
//
// sessiond is the session backend for the ProCheck workspace: it owns
// the open tabs, their conversation histories, optimistic sends with
// retry, and debounced persistence to the conversation store.
//
// Configuration comes from environment variables, optionally overlaid
// by a YAML file passed with -config. SIGINT and SIGTERM trigger a
// graceful shutdown that flushes pending saves and the layout
// snapshot.
package main
