// Package types defines every cross-package data structure used by the cattree CLI.
package types

import "strings"

const (
	NodeTypeFile      = "file"
	NodeTypeDirectory = "directory"
	NodeTypeBinary    = "binary"
)

// FileEntry describes one filesystem path considered during the walk.
// Entries are created during traversal and never mutated afterward.
type FileEntry struct {
	AbsolutePath string
	RelativePath string
	IsDir        bool
	Depth        int
}

// Name returns the base name of the entry.
func (entry FileEntry) Name() string {
	if entry.RelativePath == "." {
		return "."
	}
	segments := strings.Split(entry.RelativePath, "/")
	return segments[len(segments)-1]
}

// TreeNode is a node of the rendered hierarchy. Children keep the
// traversal order: directories before files, case-insensitive names.
type TreeNode struct {
	Entry    FileEntry
	Type     string
	Children []*TreeNode
	// OnlyTarget marks a directory explicitly named by --only so that
	// empty-directory pruning keeps it.
	OnlyTarget bool
}

// Files returns every file node of the subtree in traversal order.
func (node *TreeNode) Files() []*TreeNode {
	var collected []*TreeNode
	node.appendFiles(&collected)
	return collected
}

func (node *TreeNode) appendFiles(collected *[]*TreeNode) {
	if node == nil {
		return
	}
	if node.Type != NodeTypeDirectory {
		*collected = append(*collected, node)
		return
	}
	for _, child := range node.Children {
		child.appendFiles(collected)
	}
}

// RenderedFile is the display form of one file: the possibly truncated or
// compacted text plus line accounting, produced just before output and
// discarded after writing.
type RenderedFile struct {
	RelativePath string
	Body         string
	TotalLines   int
	ShownLines   int
	OmittedLines int
	IsBinary     bool
	ReadError    error
	Tokens       int
}
