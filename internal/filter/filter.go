// Package filter implements the layered path-selection rules: hidden and
// noise exclusion, explicit --only selection, ignore patterns, include and
// exclude regexes, configured exclude globs, and the default extension
// allowlist.
package filter

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gobwas/glob"

	"github.com/pabloskewes/cattree/internal/ignore"
	"github.com/pabloskewes/cattree/internal/utils"
)

const (
	errorIncludePatternFormat = "invalid include pattern %q: %w"
	errorExcludePatternFormat = "invalid exclude pattern %q: %w"
	errorExcludeGlobFormat    = "invalid exclude glob %q: %w"
)

// DefaultAllowedExtensions is the extension allowlist applied when neither
// --only nor --include overrides it.
func DefaultAllowedExtensions() []string {
	return []string{"py", "md", "txt", "yml", "yaml", "json", "toml", "cpp", "h", "c"}
}

// Options carries everything a RuleSet is built from. The resulting RuleSet
// is immutable; all patterns are compiled once at construction.
type Options struct {
	AllowedExtensions []string
	OnlyPaths         []string
	IncludePattern    string
	ExcludePattern    string
	IgnoreMatcher     ignore.Matcher
	ExcludeGlobs      []string
}

// RuleSet evaluates candidate paths against the combined configuration.
type RuleSet struct {
	allowedExtensions map[string]struct{}
	onlySelections    map[string]struct{}
	includeRegex      *regexp.Regexp
	excludeRegex      *regexp.Regexp
	ignoreMatcher     ignore.Matcher
	excludeGlobs      []glob.Glob
}

// NewRuleSet compiles the provided options, failing fast on invalid regex or
// glob syntax.
func NewRuleSet(options Options) (*RuleSet, error) {
	ruleSet := &RuleSet{
		allowedExtensions: make(map[string]struct{}, len(options.AllowedExtensions)),
		onlySelections:    make(map[string]struct{}, len(options.OnlyPaths)),
		ignoreMatcher:     options.IgnoreMatcher,
	}

	for _, extension := range options.AllowedExtensions {
		normalized := strings.ToLower(strings.TrimPrefix(extension, "."))
		ruleSet.allowedExtensions[normalized] = struct{}{}
	}

	for _, onlyPath := range options.OnlyPaths {
		normalized := normalizeSelection(onlyPath)
		if normalized == "" {
			continue
		}
		ruleSet.onlySelections[normalized] = struct{}{}
	}

	if options.IncludePattern != "" {
		compiled, compileError := regexp.Compile(options.IncludePattern)
		if compileError != nil {
			return nil, fmt.Errorf(errorIncludePatternFormat, options.IncludePattern, compileError)
		}
		ruleSet.includeRegex = compiled
	}

	if options.ExcludePattern != "" {
		compiled, compileError := regexp.Compile(options.ExcludePattern)
		if compileError != nil {
			return nil, fmt.Errorf(errorExcludePatternFormat, options.ExcludePattern, compileError)
		}
		ruleSet.excludeRegex = compiled
	}

	for _, globPattern := range options.ExcludeGlobs {
		trimmedPattern := strings.TrimSpace(globPattern)
		if trimmedPattern == "" {
			continue
		}
		compiled, compileError := glob.Compile(trimmedPattern, '/')
		if compileError != nil {
			return nil, fmt.Errorf(errorExcludeGlobFormat, trimmedPattern, compileError)
		}
		ruleSet.excludeGlobs = append(ruleSet.excludeGlobs, compiled)
	}

	return ruleSet, nil
}

// HasOnlySelection reports whether an explicit --only selection is active.
func (ruleSet *RuleSet) HasOnlySelection() bool {
	return len(ruleSet.onlySelections) > 0
}

// IsOnlyTarget reports whether relativePath is itself listed in --only.
func (ruleSet *RuleSet) IsOnlyTarget(relativePath string) bool {
	_, listed := ruleSet.onlySelections[relativePath]
	return listed
}

// ShouldDescend decides whether the walker enters a directory. Excluded
// directories are pruned: entries beneath them are never visited.
func (ruleSet *RuleSet) ShouldDescend(relativePath string, name string) bool {
	if utils.IsHiddenName(name) || utils.IsNoiseDirectoryName(name) {
		return false
	}

	admittedByOnly := false
	if ruleSet.HasOnlySelection() {
		admittedByOnly = ruleSet.directoryAdmittedByOnly(relativePath)
		if !admittedByOnly {
			return false
		}
	}

	// Explicit --only selection is the most specific user intent and wins
	// over ignore patterns. Directory-only patterns ("build/") need the
	// trailing-slash form to match, so both forms are probed.
	if !admittedByOnly && ruleSet.ignoreMatcher != nil &&
		(ruleSet.ignoreMatcher.Matches(relativePath) || ruleSet.ignoreMatcher.Matches(relativePath+"/")) {
		return false
	}

	if ruleSet.excludeRegex != nil && ruleSet.excludeRegex.MatchString(relativePath) {
		return false
	}

	if ruleSet.matchesExcludeGlob(relativePath) {
		return false
	}

	return true
}

// ShouldIncludeFile decides whether a file appears in the output. isBinary is
// only consulted in default-allowlist mode and is passed as a callback so the
// sample read happens solely when the decision needs it.
func (ruleSet *RuleSet) ShouldIncludeFile(relativePath string, name string, isBinary func() bool) bool {
	if utils.IsHiddenName(name) {
		return false
	}

	admittedByOnly := false
	if ruleSet.HasOnlySelection() {
		admittedByOnly = ruleSet.fileAdmittedByOnly(relativePath)
		if !admittedByOnly {
			return false
		}
	}

	if !admittedByOnly && ruleSet.ignoreMatcher != nil && ruleSet.ignoreMatcher.Matches(relativePath) {
		return false
	}

	if ruleSet.includeRegex != nil && !ruleSet.includeRegex.MatchString(relativePath) {
		return false
	}

	if ruleSet.excludeRegex != nil && ruleSet.excludeRegex.MatchString(relativePath) {
		return false
	}

	if ruleSet.matchesExcludeGlob(relativePath) {
		return false
	}

	if ruleSet.HasOnlySelection() || ruleSet.includeRegex != nil {
		return true
	}

	extension := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if _, allowed := ruleSet.allowedExtensions[extension]; !allowed {
		return false
	}
	if isBinary != nil && isBinary() {
		return false
	}
	return true
}

// directoryAdmittedByOnly reports whether a directory is listed, is an
// ancestor of a listed path, or lies under a listed directory.
func (ruleSet *RuleSet) directoryAdmittedByOnly(relativePath string) bool {
	if ruleSet.IsOnlyTarget(relativePath) {
		return true
	}
	directoryPrefix := relativePath + "/"
	for selection := range ruleSet.onlySelections {
		if strings.HasPrefix(selection, directoryPrefix) {
			return true
		}
		if strings.HasPrefix(relativePath, selection+"/") {
			return true
		}
	}
	return false
}

// fileAdmittedByOnly reports whether a file is itself listed or lies under a
// listed directory.
func (ruleSet *RuleSet) fileAdmittedByOnly(relativePath string) bool {
	if ruleSet.IsOnlyTarget(relativePath) {
		return true
	}
	for selection := range ruleSet.onlySelections {
		if strings.HasPrefix(relativePath, selection+"/") {
			return true
		}
	}
	return false
}

func (ruleSet *RuleSet) matchesExcludeGlob(relativePath string) bool {
	for _, compiled := range ruleSet.excludeGlobs {
		if compiled.Match(relativePath) {
			return true
		}
	}
	return false
}

// normalizeSelection converts an --only argument into the root-relative
// slash-separated form used for matching.
func normalizeSelection(selection string) string {
	cleaned := filepath.ToSlash(filepath.Clean(strings.TrimSpace(selection)))
	cleaned = strings.TrimPrefix(cleaned, "./")
	cleaned = strings.TrimSuffix(cleaned, "/")
	if cleaned == "." {
		return ""
	}
	return cleaned
}
