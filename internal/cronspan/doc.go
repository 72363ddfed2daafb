// Package cronspan turns "every day at HH:MM:SS from date A to date B" into
// a handful of seven-field cron expressions (second minute hour day month
// day-of-week year).
//
// Decompose splits a closed date range into at most five non-overlapping
// fragments: the tail of the first month, whole months and whole years in
// between, and the head of the last month. Each date in the range is matched
// by exactly one fragment. Daily returns the unbounded equivalent.
//
// Everything here is a pure function of its inputs and safe for concurrent use.
package cronspan
