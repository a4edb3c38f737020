// Package tabs implements the tab registry: the ordered set of open
// workspace tabs, the active-tab pointer, and the dispatch path every
// user action takes.
//
// Invariants the registry maintains:
//   - exactly one tab is active at all times, and the tab set is never
//     empty (closing the last tab synthesizes a fresh default)
//   - each chat tab owns exactly one conversation id for its lifetime
//   - message status only moves along the guarded transitions; sent is
//     terminal
//   - switching tabs cancels every in-flight request, and a cancelled
//     completion never mutates state
package tabs
