// Package execshell provides structured helpers for invoking external tools.
//
// ShellExecutor wraps a CommandRunner with logging and lifecycle events,
// OSCommandRunner executes processes through os/exec and can mirror their
// output into caller supplied writers, and the helpers run git, gh, and
// migration scripts in a testable manner.
package execshell
