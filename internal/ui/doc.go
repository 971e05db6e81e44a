// Package ui provides helpers for formatting human-readable console output.
//
// ConsoleCommandEventLogger turns command lifecycle events into concise log
// lines, and RenderMarkdown styles campaign reports when they are written to
// an interactive terminal.
package ui
