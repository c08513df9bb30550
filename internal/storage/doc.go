// Package storage is the token record store.
//
// The pipeline treats it as an external collaborator with a narrow
// contract: filtered candidate reads, a count probe, and conditional
// single-row updates. Rows are written by the upstream discovery job
// and may mutate between our read and our write, so MarkAnnounced and
// MarkPoisoned are conditional updates whose affected-row count the
// caller must inspect (0 rows is a valid "someone got there first" or
// "already applied" outcome, not an error).
package storage
