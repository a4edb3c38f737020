// Package server wires the workspace together: gateway clients, the
// tab manager and its collaborators, the middleware stack, and the
// REST plus WebSocket surface.
//
// Lifecycle:
//  1. Build gateway clients from configuration
//  2. Create the layout store, saver, cache, and event bus
//  3. Compose the tab manager and restore the previous session
//  4. Register routes and middleware
//  5. Serve until the context cancels, then flush and exit
package server
