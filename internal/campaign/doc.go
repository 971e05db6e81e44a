// Package campaign models the migration definition file: the recipe applied to every
// target, the targets themselves, and the pull request each target published.
//
// The file is TOML with kebab-case keys. Store backs the file up before a run and
// replaces it atomically afterwards. ErrorSummary records failed targets next to it.
package campaign
