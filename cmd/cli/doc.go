// Package cli builds the clu root command and its init, run, status, and followup
// subcommands. Before any subcommand runs, the root loads .env files and the layered
// configuration, creates the loggers, and assigns the invocation a run identifier.
package cli
