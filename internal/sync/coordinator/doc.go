// Package coordinator drives sync cycles in the background.
//
// A single timer is armed with the NextRun of every cycle result, whether
// the cycle was skipped by the freshness gate, completed, or ended early.
// Scheduled and manually triggered cycles share one singleflight group, so
// two cycles never overlap and concurrent callers share one result.
package coordinator
