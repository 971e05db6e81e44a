// Package workspace owns the per-target execution context of a migration run.
//
// A Workspace is a freshly recreated directory with append-only stdout.log and
// stderr.log files. Every command it runs is announced in both logs, executed
// in the current working directory with the target's environment, and has its
// output appended to the logs.
package workspace
