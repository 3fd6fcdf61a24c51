// Package viz renders runs for the terminal: asciigraph line charts of the
// solution and the per-step discrepancy, and lipgloss panels for the run
// summary, epochs and warnings.
package viz
