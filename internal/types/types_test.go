package types_test

import (
	"reflect"
	"testing"

	"github.com/pabloskewes/cattree/internal/types"
)

func TestFileEntryName(t *testing.T) {
	testCases := []struct {
		name         string
		relativePath string
		expected     string
	}{
		{name: "root", relativePath: ".", expected: "."},
		{name: "top level file", relativePath: "README.md", expected: "README.md"},
		{name: "nested file", relativePath: "src/pkg/main.py", expected: "main.py"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			entry := types.FileEntry{RelativePath: testCase.relativePath}
			if result := entry.Name(); result != testCase.expected {
				t.Fatalf("expected %q, got %q", testCase.expected, result)
			}
		})
	}
}

func TestTreeNodeFilesTraversalOrder(t *testing.T) {
	rootNode := &types.TreeNode{
		Entry: types.FileEntry{RelativePath: "."},
		Type:  types.NodeTypeDirectory,
		Children: []*types.TreeNode{
			{
				Entry: types.FileEntry{RelativePath: "src"},
				Type:  types.NodeTypeDirectory,
				Children: []*types.TreeNode{
					{Entry: types.FileEntry{RelativePath: "src/main.py"}, Type: types.NodeTypeFile},
					{Entry: types.FileEntry{RelativePath: "src/data.bin"}, Type: types.NodeTypeBinary},
				},
			},
			{Entry: types.FileEntry{RelativePath: "README.md"}, Type: types.NodeTypeFile},
		},
	}

	var collectedPaths []string
	for _, fileNode := range rootNode.Files() {
		collectedPaths = append(collectedPaths, fileNode.Entry.RelativePath)
	}

	expectedPaths := []string{"src/main.py", "src/data.bin", "README.md"}
	if !reflect.DeepEqual(collectedPaths, expectedPaths) {
		t.Fatalf("unexpected file order: got %v want %v", collectedPaths, expectedPaths)
	}
}

func TestTreeNodeFilesEmptyDirectory(t *testing.T) {
	rootNode := &types.TreeNode{
		Entry: types.FileEntry{RelativePath: "."},
		Type:  types.NodeTypeDirectory,
	}
	if fileNodes := rootNode.Files(); len(fileNodes) != 0 {
		t.Fatalf("expected no files, got %d", len(fileNodes))
	}
}
