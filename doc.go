// Package writectrl implements the admission-control primitive that
// regulates write ingress for a log-structured key-value storage engine.
//
// A Controller combines independent stress signals (full memtables, too
// many level-0 files, pending compaction bytes) expressed as StopToken and
// DelayToken votes, and translates them into either a hard stop or a
// token-bucket sleep duration that paces writers at a configured byte rate.
// The Controller never sleeps itself and never spawns goroutines; it only
// answers "how long should I sleep" — waiting is the caller's job.
package writectrl
