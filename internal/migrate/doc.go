// Package migrate implements the run command: it loads a campaign definition, drives one
// pipeline per target through the bounded scheduler, records the resulting pull requests,
// and writes the error summary.
package migrate
