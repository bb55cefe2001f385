// Package sync mirrors the container image tags of a GitHub organization
// into the image catalog.
//
// # Cycle
//
// Manager.RunCycle performs one pass:
//
//   - Unless forced, the freshness gate reads the sync state. A previous sync
//     younger than the interval skips the cycle and reports the remaining
//     time as NextRun, without any upstream request or store mutation.
//   - The sync state is replaced with the cycle start time.
//   - The rate limit is probed for logging and metrics only.
//   - The organization's public repositories are listed; ignored names are
//     dropped.
//   - Each remaining repository is walked (sources.TagSource), classified
//     (tags.Classify) and recorded through writer.SyncWriter when no record
//     with the same (name, tag, tag_trixie) key exists.
//
// Repositories are processed sequentially. Per-repository failures are
// logged and never end the cycle; a listing failure does, but NextRun is
// still the full interval so scheduling continues.
//
// # Coordinator Package
//
// The sync/coordinator subpackage owns the timer that calls RunCycle and
// guarantees that cycles never overlap.
package sync
