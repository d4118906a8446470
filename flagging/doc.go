// Package flagging decides which readings of a stream have to be re-flagged
// after new data arrived, and asks an Oracle to flag them in one batch.
//
// For every reading that has no flag yet, two position windows are taken
// around it: a wide context window the oracle needs as a stable baseline and
// a narrower decision window whose results are accepted as new. Windows of all
// unflagged readings are unioned per stream, so the oracle is called at most
// once per stream and run.
package flagging
