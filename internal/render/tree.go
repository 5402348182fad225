// Package render formats the surviving hierarchy as a glyph tree and file
// bodies as headed, separated text blocks.
package render

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pabloskewes/cattree/internal/types"
)

const (
	treeBranchConnector = "├── "
	treeLastConnector   = "└── "
	treeBranchPadding   = "│   "
	treeLastPadding     = "    "

	directorySuffix = "/"
)

// WriteTree renders the hierarchy rooted at node to writer, one line per
// node. Directories carry a trailing slash. Ordering matches the walker's
// traversal order, so output is deterministic for an unchanged directory.
func WriteTree(writer io.Writer, root *types.TreeNode) {
	if root == nil {
		return
	}
	fmt.Fprintf(writer, "%s%s\n", filepath.Base(root.Entry.AbsolutePath), directorySuffix)
	writeChildren(writer, root, "")
}

func writeChildren(writer io.Writer, node *types.TreeNode, prefix string) {
	for index, child := range node.Children {
		isLast := index == len(node.Children)-1
		connector := treeBranchConnector
		childPrefix := prefix + treeBranchPadding
		if isLast {
			connector = treeLastConnector
			childPrefix = prefix + treeLastPadding
		}
		name := child.Entry.Name()
		if child.Type == types.NodeTypeDirectory {
			name += directorySuffix
		}
		fmt.Fprintf(writer, "%s%s%s\n", prefix, connector, name)
		if child.Type == types.NodeTypeDirectory {
			writeChildren(writer, child, childPrefix)
		}
	}
}
