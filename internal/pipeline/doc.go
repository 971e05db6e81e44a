// Package pipeline runs the per-target step sequence of a campaign: Clone, PreFlight,
// each migration script, Push, and Publish. Every step yields a StepOutcome and the
// first outcome that is not a Continue ends the run for that target.
package pipeline
