// Package schedule evaluates cron expressions and defers execution.
//
// Cron functions parse and validate seven-field expressions, compute upcoming
// run times, and walk an ordered list of fragments as one schedule.
// RunAt executes a function asynchronously at a specified time.
package schedule
