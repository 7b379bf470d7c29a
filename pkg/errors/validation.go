package errors

import (
	"strings"
	"unicode"
)

// MaxNodeIDLength bounds node identifiers accepted from untrusted input.
const MaxNodeIDLength = 256

// ValidateNodeID validates a node identifier read from untrusted input.
//
// The validation rules are intentionally conservative:
//   - No empty IDs
//   - No control characters
//   - Maximum length of MaxNodeIDLength bytes
func ValidateNodeID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidGraph, "node ID cannot be empty")
	}

	if len(id) > MaxNodeIDLength {
		return New(ErrCodeInvalidGraph, "node ID too long (max %d characters)", MaxNodeIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidGraph, "node ID contains invalid control characters")
		}
	}

	return nil
}

// ValidateGraphSize rejects graphs with more than maxNodes nodes or maxEdges
// edges. A limit of zero or less disables that check.
func ValidateGraphSize(nodes, edges, maxNodes, maxEdges int) error {
	if maxNodes > 0 && nodes > maxNodes {
		return New(ErrCodeGraphTooLarge, "graph has %d nodes (max %d)", nodes, maxNodes)
	}
	if maxEdges > 0 && edges > maxEdges {
		return New(ErrCodeGraphTooLarge, "graph has %d edges (max %d)", edges, maxEdges)
	}
	return nil
}

// ValidatePath validates a relative path such as a cache key or output name
// supplied by a client.
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
