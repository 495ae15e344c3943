// Package voting implements the vote ledger: the pure state machine that turns
// a viewer's current vote state and a button press into new scenario counters.
package voting
