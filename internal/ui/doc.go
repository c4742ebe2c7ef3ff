// Package ui renders command output for the terminal with lipgloss styles.
//
// Renderers return strings so the CLI decides where they go. Colors are dropped automatically when the
// output is not a terminal.
package ui
