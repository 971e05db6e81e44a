// Package followup runs an operator script against every open campaign pull request.
package followup
