// Package utils contains general helper functions used across the cattree tool.
package utils

import (
	"path/filepath"
)

// Noise directory names excluded from every traversal regardless of other rules.
const (
	GitDirectoryName         = ".git"
	NodeModulesDirectoryName = "node_modules"
	PycacheDirectoryName     = "__pycache__"
)

// GitIgnoreFileName is the name of the Git ignore file.
const GitIgnoreFileName = ".gitignore"

// IsHiddenName reports whether a base name follows the hidden-file convention.
func IsHiddenName(name string) bool {
	return len(name) > 0 && name[0] == '.'
}

// IsNoiseDirectoryName reports whether a directory name is a known
// dependency-cache or bytecode-cache directory.
func IsNoiseDirectoryName(name string) bool {
	switch name {
	case NodeModulesDirectoryName, PycacheDirectoryName:
		return true
	default:
		return false
	}
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving order.
// The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}

// RelativePathOrSelf calculates the slash-separated relative path from root
// to fullPath. Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, absoluteError := filepath.Abs(root)
	if absoluteError != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relativeError := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relativeError != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}
