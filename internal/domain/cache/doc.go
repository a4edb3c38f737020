// Package cache provides the bounded conversation cache.
//
// The cache maps conversation ids to message transcripts so that
// reopening a recently viewed conversation skips a remote load.
// Eviction is insertion-order FIFO with a fixed capacity (20 by
// default); this is a documented approximation of recency eviction,
// not true LRU.
package cache
