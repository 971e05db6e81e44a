// Package scheduler runs one task per campaign target with bounded concurrency and
// collects the final outcome of each target under its name.
package scheduler
