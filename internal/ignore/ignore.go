// Package ignore discovers ignore-pattern files under a root directory and
// compiles them into a single matcher with standard gitignore semantics.
package ignore

import (
	"bufio"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/pabloskewes/cattree/internal/utils"
)

const (
	commentPrefix  = "#"
	negationPrefix = "!"
	rootAnchor     = "/"
)

// Matcher reports whether a root-relative slash-separated path is ignored.
// Negated patterns un-ignore later matches, last match wins.
type Matcher interface {
	Matches(relativePath string) bool
}

type compiledMatcher struct {
	compiled *gitignore.GitIgnore
}

func (matcher *compiledMatcher) Matches(relativePath string) bool {
	if matcher == nil || matcher.compiled == nil {
		return false
	}
	return matcher.compiled.MatchesPath(relativePath)
}

// emptyMatcher matches nothing; returned when no ignore file exists.
type emptyMatcher struct{}

func (emptyMatcher) Matches(string) bool { return false }

// LoadPatterns walks rootDirectoryPath and aggregates patterns from every
// ignore file found. Patterns from nested directories are re-anchored with
// that directory's path relative to the root so a single matcher can apply
// them, mirroring per-directory ignore-file precedence. Blank lines and
// comments are skipped. Returns an empty slice when no ignore file exists.
func LoadPatterns(rootDirectoryPath string) ([]string, error) {
	var aggregatedPatterns []string

	walkFunction := func(currentPath string, directoryEntry fs.DirEntry, walkError error) error {
		if walkError != nil {
			return walkError
		}
		if !directoryEntry.IsDir() {
			return nil
		}
		entryName := directoryEntry.Name()
		if currentPath != rootDirectoryPath && (utils.IsHiddenName(entryName) || utils.IsNoiseDirectoryName(entryName)) {
			return filepath.SkipDir
		}

		relativeDirectory := utils.RelativePathOrSelf(currentPath, rootDirectoryPath)
		prefix := ""
		if relativeDirectory != "." {
			prefix = relativeDirectory + "/"
		}

		ignoreFilePath := filepath.Join(currentPath, utils.GitIgnoreFileName)
		filePatterns, loadError := loadIgnoreFileLines(ignoreFilePath)
		if loadError != nil {
			return fmt.Errorf("loading %s from %s: %w", utils.GitIgnoreFileName, currentPath, loadError)
		}
		for _, pattern := range filePatterns {
			aggregatedPatterns = append(aggregatedPatterns, anchorPattern(pattern, prefix))
		}
		return nil
	}

	if walkError := filepath.WalkDir(rootDirectoryPath, walkFunction); walkError != nil {
		return nil, walkError
	}

	return utils.DeduplicatePatterns(aggregatedPatterns), nil
}

// Compile turns an ordered pattern list into a Matcher. Later patterns
// override earlier ones on conflict, matching ignore-file precedence.
func Compile(patterns []string) Matcher {
	if len(patterns) == 0 {
		return emptyMatcher{}
	}
	return &compiledMatcher{compiled: gitignore.CompileIgnoreLines(patterns...)}
}

// LoadMatcher combines LoadPatterns and Compile for a root directory.
func LoadMatcher(rootDirectoryPath string) (Matcher, error) {
	patterns, loadError := LoadPatterns(rootDirectoryPath)
	if loadError != nil {
		return nil, loadError
	}
	return Compile(patterns), nil
}

// loadIgnoreFileLines reads one ignore file and returns its pattern lines,
// skipping blanks and comments. A missing file yields no patterns.
//
// #nosec G304
func loadIgnoreFileLines(ignoreFilePath string) ([]string, error) {
	fileHandle, openFileError := os.Open(ignoreFilePath)
	if openFileError != nil {
		if os.IsNotExist(openFileError) {
			return nil, nil
		}
		return nil, openFileError
	}
	defer func() {
		closeError := fileHandle.Close()
		if closeError != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close %s: %v\n", ignoreFilePath, closeError)
		}
	}()

	var patterns []string
	scanner := bufio.NewScanner(fileHandle)
	for scanner.Scan() {
		trimmedLine := strings.TrimSpace(scanner.Text())
		if trimmedLine == "" || strings.HasPrefix(trimmedLine, commentPrefix) {
			continue
		}
		patterns = append(patterns, trimmedLine)
	}
	if scanError := scanner.Err(); scanError != nil {
		return nil, scanError
	}
	return patterns, nil
}

// anchorPattern re-roots a pattern read from a nested directory's ignore
// file. Negation markers stay in front and root-anchored patterns lose the
// leading slash before the directory prefix is applied.
func anchorPattern(pattern string, prefix string) string {
	if prefix == "" {
		return pattern
	}
	negated := strings.HasPrefix(pattern, negationPrefix)
	body := pattern
	if negated {
		body = strings.TrimPrefix(body, negationPrefix)
	}
	body = strings.TrimPrefix(body, rootAnchor)
	anchored := prefix + body
	if negated {
		return negationPrefix + anchored
	}
	return anchored
}
