// Package status implements the status command, which classifies every pull request a campaign
// has opened and prints them grouped by how close they are to landing.
package status
