// Package broadcast streams incremental graph updates to live subscribers.
//
// A Coordinator per document orders the messages of each applied chunk and
// enforces the node cap. Publishers deliver messages; Fanout combines several
// and Recorder keeps them in memory.
package broadcast
