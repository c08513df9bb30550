// Package agent runs the announcement pipeline on a fixed cadence.
//
// Each tick scans the record store, evaluates candidates against the
// announcement criteria, generates text for the first qualifier,
// publishes it, and durably marks the token announced. At most one
// announcement leaves per tick; ticks never overlap, a tick that fires
// while the previous one is still running is skipped.
package agent
