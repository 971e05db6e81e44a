// Package filesystem exposes the small filesystem surface used by workspaces
// and the campaign store so both can be exercised against temporary
// directories in tests.
package filesystem
