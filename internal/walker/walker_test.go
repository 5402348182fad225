package walker_test

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/pabloskewes/cattree/internal/filter"
	"github.com/pabloskewes/cattree/internal/types"
	"github.com/pabloskewes/cattree/internal/walker"
)

// writeTestFile creates a file with the specified content, failing the test on error.
func writeTestFile(testingHandle *testing.T, filePath string, content string) {
	testingHandle.Helper()
	if writeError := os.WriteFile(filePath, []byte(content), 0o644); writeError != nil {
		testingHandle.Fatalf("failed to write %s: %v", filePath, writeError)
	}
}

// makeTestDirectory creates a directory, failing the test on error.
func makeTestDirectory(testingHandle *testing.T, directoryPath string) {
	testingHandle.Helper()
	if makeDirError := os.MkdirAll(directoryPath, 0o755); makeDirError != nil {
		testingHandle.Fatalf("failed to create directory %s: %v", directoryPath, makeDirError)
	}
}

// newRuleSet compiles filter options with the default allowlist applied.
func newRuleSet(testingHandle *testing.T, options filter.Options) *filter.RuleSet {
	testingHandle.Helper()
	if options.AllowedExtensions == nil {
		options.AllowedExtensions = filter.DefaultAllowedExtensions()
	}
	ruleSet, buildError := filter.NewRuleSet(options)
	if buildError != nil {
		testingHandle.Fatalf("NewRuleSet failed: %v", buildError)
	}
	return ruleSet
}

// collectRelativePaths flattens the tree into preorder relative paths.
func collectRelativePaths(node *types.TreeNode) []string {
	paths := []string{node.Entry.RelativePath}
	for _, child := range node.Children {
		paths = append(paths, collectRelativePaths(child)...)
	}
	return paths
}

func TestWalkDefaultAllowlist(t *testing.T) {
	rootDirectory := t.TempDir()

	makeTestDirectory(t, filepath.Join(rootDirectory, "src"))
	writeTestFile(t, filepath.Join(rootDirectory, "src", "main.py"), strings.Repeat("line\n", 30))
	writeTestFile(t, filepath.Join(rootDirectory, "src", "util.py"), strings.Repeat("line\n", 5))
	writeTestFile(t, filepath.Join(rootDirectory, "README.md"), "a\nb\nc\n")

	makeTestDirectory(t, filepath.Join(rootDirectory, ".git"))
	writeTestFile(t, filepath.Join(rootDirectory, ".git", "config"), "[core]\n")
	makeTestDirectory(t, filepath.Join(rootDirectory, "node_modules"))
	writeTestFile(t, filepath.Join(rootDirectory, "node_modules", "x.js"), "var x;\n")

	rootNode, walkError := walker.Walk(walker.Options{Root: rootDirectory, Rules: newRuleSet(t, filter.Options{})})
	if walkError != nil {
		t.Fatalf("Walk failed: %v", walkError)
	}

	expectedPaths := []string{".", "src", "src/main.py", "src/util.py", "README.md"}
	if actualPaths := collectRelativePaths(rootNode); !reflect.DeepEqual(actualPaths, expectedPaths) {
		t.Fatalf("unexpected tree: got %v want %v", actualPaths, expectedPaths)
	}
}

func TestWalkPrunesEmptyDirectories(t *testing.T) {
	rootDirectory := t.TempDir()

	makeTestDirectory(t, filepath.Join(rootDirectory, "empty"))
	makeTestDirectory(t, filepath.Join(rootDirectory, "assets"))
	writeTestFile(t, filepath.Join(rootDirectory, "assets", "logo.png"), "not really a png")
	writeTestFile(t, filepath.Join(rootDirectory, "kept.md"), "content\n")

	rootNode, walkError := walker.Walk(walker.Options{Root: rootDirectory, Rules: newRuleSet(t, filter.Options{})})
	if walkError != nil {
		t.Fatalf("Walk failed: %v", walkError)
	}

	expectedPaths := []string{".", "kept.md"}
	if actualPaths := collectRelativePaths(rootNode); !reflect.DeepEqual(actualPaths, expectedPaths) {
		t.Fatalf("unexpected tree: got %v want %v", actualPaths, expectedPaths)
	}
}

func TestWalkOnlyKeepsAncestorHierarchy(t *testing.T) {
	rootDirectory := t.TempDir()

	makeTestDirectory(t, filepath.Join(rootDirectory, "src"))
	writeTestFile(t, filepath.Join(rootDirectory, "src", "main.py"), "main\n")
	writeTestFile(t, filepath.Join(rootDirectory, "src", "util.py"), "util\n")
	writeTestFile(t, filepath.Join(rootDirectory, "README.md"), "readme\n")

	ruleSet := newRuleSet(t, filter.Options{OnlyPaths: []string{"src/util.py"}})
	rootNode, walkError := walker.Walk(walker.Options{Root: rootDirectory, Rules: ruleSet})
	if walkError != nil {
		t.Fatalf("Walk failed: %v", walkError)
	}

	expectedPaths := []string{".", "src", "src/util.py"}
	if actualPaths := collectRelativePaths(rootNode); !reflect.DeepEqual(actualPaths, expectedPaths) {
		t.Fatalf("unexpected tree: got %v want %v", actualPaths, expectedPaths)
	}
}

func TestWalkOnlyTargetDirectoryKeptWhenEmpty(t *testing.T) {
	rootDirectory := t.TempDir()
	makeTestDirectory(t, filepath.Join(rootDirectory, "reserved"))
	writeTestFile(t, filepath.Join(rootDirectory, "other.md"), "content\n")

	ruleSet := newRuleSet(t, filter.Options{OnlyPaths: []string{"reserved"}})
	rootNode, walkError := walker.Walk(walker.Options{Root: rootDirectory, Rules: ruleSet})
	if walkError != nil {
		t.Fatalf("Walk failed: %v", walkError)
	}

	expectedPaths := []string{".", "reserved"}
	if actualPaths := collectRelativePaths(rootNode); !reflect.DeepEqual(actualPaths, expectedPaths) {
		t.Fatalf("unexpected tree: got %v want %v", actualPaths, expectedPaths)
	}
}

func TestWalkOrdersDirectoriesFirstCaseInsensitive(t *testing.T) {
	rootDirectory := t.TempDir()

	makeTestDirectory(t, filepath.Join(rootDirectory, "zdir"))
	writeTestFile(t, filepath.Join(rootDirectory, "zdir", "inner.md"), "z\n")
	makeTestDirectory(t, filepath.Join(rootDirectory, "Adir"))
	writeTestFile(t, filepath.Join(rootDirectory, "Adir", "inner.md"), "a\n")
	writeTestFile(t, filepath.Join(rootDirectory, "b.py"), "b\n")
	writeTestFile(t, filepath.Join(rootDirectory, "A.py"), "a\n")

	rootNode, walkError := walker.Walk(walker.Options{Root: rootDirectory, Rules: newRuleSet(t, filter.Options{})})
	if walkError != nil {
		t.Fatalf("Walk failed: %v", walkError)
	}

	expectedPaths := []string{".", "Adir", "Adir/inner.md", "zdir", "zdir/inner.md", "A.py", "b.py"}
	if actualPaths := collectRelativePaths(rootNode); !reflect.DeepEqual(actualPaths, expectedPaths) {
		t.Fatalf("unexpected ordering: got %v want %v", actualPaths, expectedPaths)
	}
}

func TestWalkMarksBinaryFilesSelectedByOnly(t *testing.T) {
	rootDirectory := t.TempDir()
	binaryFilePath := filepath.Join(rootDirectory, "data.txt")
	if writeError := os.WriteFile(binaryFilePath, []byte{'a', 0, 'b'}, 0o644); writeError != nil {
		t.Fatalf("failed to write binary file: %v", writeError)
	}

	ruleSet := newRuleSet(t, filter.Options{OnlyPaths: []string{"data.txt"}})
	rootNode, walkError := walker.Walk(walker.Options{Root: rootDirectory, Rules: ruleSet})
	if walkError != nil {
		t.Fatalf("Walk failed: %v", walkError)
	}

	fileNodes := rootNode.Files()
	if len(fileNodes) != 1 {
		t.Fatalf("expected one file node, got %d", len(fileNodes))
	}
	if fileNodes[0].Type != types.NodeTypeBinary {
		t.Fatalf("expected binary node type, got %v", fileNodes[0].Type)
	}
}

func TestWalkSkipsSymlinkCycles(t *testing.T) {
	rootDirectory := t.TempDir()
	makeTestDirectory(t, filepath.Join(rootDirectory, "docs"))
	writeTestFile(t, filepath.Join(rootDirectory, "docs", "guide.md"), "guide\n")

	cyclePath := filepath.Join(rootDirectory, "docs", "loop")
	if symlinkError := os.Symlink(rootDirectory, cyclePath); symlinkError != nil {
		t.Skipf("symlinks unavailable: %v", symlinkError)
	}

	var warnings []string
	rootNode, walkError := walker.Walk(walker.Options{
		Root:  rootDirectory,
		Rules: newRuleSet(t, filter.Options{}),
		Warn:  func(message string) { warnings = append(warnings, message) },
	})
	if walkError != nil {
		t.Fatalf("Walk failed: %v", walkError)
	}

	for _, path := range collectRelativePaths(rootNode) {
		if strings.Contains(path, "loop") {
			t.Fatalf("cycle symlink should not appear in the tree: %v", collectRelativePaths(rootNode))
		}
	}
	foundCycleWarning := false
	for _, warning := range warnings {
		if strings.Contains(warning, "symlink cycle detected") {
			foundCycleWarning = true
		}
	}
	if !foundCycleWarning {
		t.Fatalf("expected a symlink cycle warning, got %v", warnings)
	}
}

func TestWalkRejectsNonDirectoryRoot(t *testing.T) {
	rootDirectory := t.TempDir()
	filePath := filepath.Join(rootDirectory, "plain.txt")
	writeTestFile(t, filePath, "content\n")

	if _, walkError := walker.Walk(walker.Options{Root: filePath, Rules: newRuleSet(t, filter.Options{})}); walkError == nil {
		t.Fatalf("expected an error for a non-directory root")
	}
}
