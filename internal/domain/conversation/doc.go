// Package conversation manages message histories and delivery state.
//
// The tracker owns every chat tab's ordered transcript and enforces the
// message status machine: pending resolves to sent or failed, failed
// re-enters through retrying, and sent is terminal. Failed messages are
// indexed for retry until they succeed or their tab is discarded.
package conversation
