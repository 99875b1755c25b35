// Package ui renders topologies, bootstrap graphs and status reports for
// the terminal. Styling is optional so the same output works in pipes.
package ui
