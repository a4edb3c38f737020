// Package events provides the workspace event bus.
//
// Components publish discrete state changes (tab lifecycle, message
// status) and consumers subscribe explicitly, typically the WebSocket
// handler pushing updates to connected clients.
package events
