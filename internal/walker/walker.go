// Package walker traverses a root directory, applies the filter rules at
// every entry, and builds the surviving TreeNode hierarchy.
package walker

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pabloskewes/cattree/internal/filter"
	"github.com/pabloskewes/cattree/internal/types"
	"github.com/pabloskewes/cattree/internal/utils"
)

const (
	warningReadDirectoryFormat   = "skipping directory %s: %v"
	warningStatEntryFormat       = "unable to stat %s: %v"
	warningSymlinkResolveFormat  = "unable to resolve symlink %s: %v"
	warningSymlinkCycleFormat    = "skipping %s: symlink cycle detected"
	errorRootNotDirectoryFormat  = "path %q is not a directory"
	errorRootInaccessibleFormat  = "unable to access %q: %w"
	errorRootSymlinkFormat       = "unable to resolve root %q: %w"
	currentDirectoryRelativePath = "."
)

// Options configures a single walk.
type Options struct {
	Root  string
	Rules *filter.RuleSet
	Warn  func(message string)
}

// pendingDirectory is one explicit-stack entry: the directory's node plus
// the coordinates needed to expand it.
type pendingDirectory struct {
	node         *types.TreeNode
	absolutePath string
	depth        int
}

// Walk traverses options.Root and returns the root TreeNode of the surviving
// hierarchy. Directories with zero surviving descendants are pruned unless
// explicitly targeted by --only. Traversal is iterative over an explicit
// stack so arbitrarily deep trees cannot exhaust the call stack.
func Walk(options Options) (*types.TreeNode, error) {
	warn := options.Warn
	if warn == nil {
		warn = func(string) {}
	}

	rootInfo, statError := os.Stat(options.Root)
	if statError != nil {
		return nil, fmt.Errorf(errorRootInaccessibleFormat, options.Root, statError)
	}
	if !rootInfo.IsDir() {
		return nil, fmt.Errorf(errorRootNotDirectoryFormat, options.Root)
	}

	rootRealPath, resolveError := filepath.EvalSymlinks(options.Root)
	if resolveError != nil {
		return nil, fmt.Errorf(errorRootSymlinkFormat, options.Root, resolveError)
	}
	visitedRealPaths := map[string]struct{}{rootRealPath: {}}

	rootNode := &types.TreeNode{
		Entry: types.FileEntry{
			AbsolutePath: options.Root,
			RelativePath: currentDirectoryRelativePath,
			IsDir:        true,
			Depth:        0,
		},
		Type: types.NodeTypeDirectory,
	}

	stack := []pendingDirectory{{node: rootNode, absolutePath: options.Root, depth: 0}}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, readError := os.ReadDir(current.absolutePath)
		if readError != nil {
			warn(fmt.Sprintf(warningReadDirectoryFormat, current.absolutePath, readError))
			continue
		}
		sortEntries(entries, current.absolutePath)

		for _, entry := range entries {
			childPath := filepath.Join(current.absolutePath, entry.Name())
			relativePath := utils.RelativePathOrSelf(childPath, options.Root)

			entryInfo, infoError := os.Stat(childPath)
			if infoError != nil {
				warn(fmt.Sprintf(warningStatEntryFormat, childPath, infoError))
				continue
			}

			if entryInfo.IsDir() {
				if !options.Rules.ShouldDescend(relativePath, entry.Name()) {
					continue
				}
				if entry.Type()&os.ModeSymlink != 0 {
					realPath, evalError := filepath.EvalSymlinks(childPath)
					if evalError != nil {
						warn(fmt.Sprintf(warningSymlinkResolveFormat, childPath, evalError))
						continue
					}
					if _, seen := visitedRealPaths[realPath]; seen {
						warn(fmt.Sprintf(warningSymlinkCycleFormat, childPath))
						continue
					}
					visitedRealPaths[realPath] = struct{}{}
				}

				childNode := &types.TreeNode{
					Entry: types.FileEntry{
						AbsolutePath: childPath,
						RelativePath: relativePath,
						IsDir:        true,
						Depth:        current.depth + 1,
					},
					Type:       types.NodeTypeDirectory,
					OnlyTarget: options.Rules.IsOnlyTarget(relativePath),
				}
				current.node.Children = append(current.node.Children, childNode)
				stack = append(stack, pendingDirectory{node: childNode, absolutePath: childPath, depth: current.depth + 1})
				continue
			}

			binaryKnown := false
			binaryValue := false
			isBinary := func() bool {
				if !binaryKnown {
					binaryValue = utils.IsFileBinary(childPath)
					binaryKnown = true
				}
				return binaryValue
			}

			if !options.Rules.ShouldIncludeFile(relativePath, entry.Name(), isBinary) {
				continue
			}

			nodeType := types.NodeTypeFile
			if isBinary() {
				nodeType = types.NodeTypeBinary
			}
			current.node.Children = append(current.node.Children, &types.TreeNode{
				Entry: types.FileEntry{
					AbsolutePath: childPath,
					RelativePath: relativePath,
					IsDir:        false,
					Depth:        current.depth + 1,
				},
				Type: nodeType,
			})
		}
	}

	pruneEmptyDirectories(rootNode)
	return rootNode, nil
}

// sortEntries fixes the traversal order: directories before files, then
// case-insensitive name ascending with a case-sensitive tiebreak. Symlinks
// sort by the type of their target.
func sortEntries(entries []os.DirEntry, parentPath string) {
	isDirectory := func(entry os.DirEntry) bool {
		if entry.IsDir() {
			return true
		}
		if entry.Type()&os.ModeSymlink == 0 {
			return false
		}
		info, statError := os.Stat(filepath.Join(parentPath, entry.Name()))
		return statError == nil && info.IsDir()
	}
	sort.SliceStable(entries, func(leftIndex, rightIndex int) bool {
		left, right := entries[leftIndex], entries[rightIndex]
		leftIsDirectory, rightIsDirectory := isDirectory(left), isDirectory(right)
		if leftIsDirectory != rightIsDirectory {
			return leftIsDirectory
		}
		leftFolded, rightFolded := strings.ToLower(left.Name()), strings.ToLower(right.Name())
		if leftFolded != rightFolded {
			return leftFolded < rightFolded
		}
		return left.Name() < right.Name()
	})
}

// pruneEmptyDirectories removes directory nodes with no surviving file
// descendants unless the directory was explicitly targeted by --only.
// Returns whether the node should be kept.
func pruneEmptyDirectories(node *types.TreeNode) bool {
	if node.Type != types.NodeTypeDirectory {
		return true
	}
	kept := node.Children[:0]
	for _, child := range node.Children {
		if pruneEmptyDirectories(child) {
			kept = append(kept, child)
		}
	}
	node.Children = kept
	if len(node.Children) > 0 || node.OnlyTarget || node.Entry.RelativePath == currentDirectoryRelativePath {
		return true
	}
	return false
}
