// Package syncer keeps the local Record Store and the shared remote document
// of the current SyncId in step.
//
// A Session owns everything that used to be ambient state: the active
// SyncId, its subscription handle, the pending push slot and its timer.
// Its lifecycle is Open (load local data, probe the remote, subscribe),
// active use, then Close (flush, unsubscribe, wait).
//
// Pushes are coalesced: every edit replaces the pending payload and restarts
// the quiescence timer, and only the last payload is written when the timer
// fires. Writes run one at a time behind a weighted semaphore and each
// carries a timeout.
//
// Incoming documents are applied only when their timestamp is strictly newer
// than the watermark stored for the SyncId. Equal timestamps keep the local
// data.
package syncer
