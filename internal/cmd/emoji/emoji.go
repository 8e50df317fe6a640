// Package emoji provides symbol constants for CLI output.
package emoji

// Status symbols printed by long-running commands.
const (
	// Success marks a completed operation or a healthy state.
	Success = "✓"

	// Error marks a failed operation.
	Error = "✗"

	// Stop marks a shutdown in progress.
	Stop = "■"

	// Fallback marks values served from the catalog instead of a live endpoint.
	Fallback = "*"
)
