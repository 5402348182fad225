// Package cli provides the command line interface.
package cli

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pabloskewes/cattree/internal/clipboard"
	"github.com/pabloskewes/cattree/internal/config"
	"github.com/pabloskewes/cattree/internal/filter"
	"github.com/pabloskewes/cattree/internal/ignore"
	"github.com/pabloskewes/cattree/internal/render"
	"github.com/pabloskewes/cattree/internal/tokenizer"
	"github.com/pabloskewes/cattree/internal/types"
	"github.com/pabloskewes/cattree/internal/utils"
	"github.com/pabloskewes/cattree/internal/walker"
)

const (
	onlyFlagName      = "only"
	onlyFlagShorthand = "o"
	onlyFlagUsage     = "restrict to these files/dirs, keeping ancestor hierarchy (repeatable)"

	gitignoreFlagName      = "gitignore"
	gitignoreFlagShorthand = "g"
	gitignoreFlagUsage     = "honor .gitignore patterns found under PATH"

	includeFlagName      = "include"
	includeFlagShorthand = "i"
	includeFlagUsage     = "only include files whose relative path matches this regex"

	excludeFlagName      = "exclude"
	excludeFlagShorthand = "e"
	excludeFlagUsage     = "exclude files/dirs whose relative path matches this regex"

	maxLinesFlagName      = "max-lines"
	maxLinesFlagShorthand = "m"
	maxLinesFlagUsage     = "truncate each shown file to N lines"

	compactFlagName      = "compact"
	compactFlagShorthand = "c"
	compactFlagUsage     = "strip extra blank lines and trailing whitespace"

	tokensFlagName  = "tokens"
	tokensFlagUsage = "include token counts"

	modelFlagName  = "model"
	modelFlagUsage = "tokenizer model to use for token counting"

	copyFlagName  = "copy"
	copyFlagUsage = "also copy the output to the system clipboard"

	configFlagName  = "config"
	configFlagUsage = "explicit configuration file path"

	versionFlagName  = "version"
	versionFlagUsage = "display application version"

	defaultPath               = "."
	defaultTokenizerModelName = "gpt-4o"
	versionTemplate           = "cattree version: %s\n"

	rootUse              = "cattree [path]"
	rootShortDescription = "print a directory tree with file contents"
	rootLongDescription  = `cattree walks a directory tree and prints its structure followed by the
contents of every file that survives filtering, for sharing codebase context.
Filters layer in order: hidden/noise exclusion, --only selection, .gitignore
patterns, --include/--exclude regexes, and a default extension allowlist.`
	rootUsageExample = `  # Everything the default allowlist admits
  cattree .

  # Just one file, with its ancestor directories
  cattree . --only src/util.py

  # Honor .gitignore and cap each file at 40 lines
  cattree . -g -m 40`

	errorAbsolutePathFormat     = "abs failed for '%s': %w"
	errorPathMissingFormat      = "path '%s' does not exist"
	errorStatFormat             = "stat failed for '%s': %w"
	errorNotDirectoryFormat     = "path '%s' is not a directory"
	errorNegativeMaxLinesFormat = "invalid --max-lines value %d: must be positive"
	warningClipboardFormat      = "failed to copy output to clipboard: %v"
)

// Execute runs the cattree application using the provided logger for
// warnings.
func Execute(loggerInstance *zap.Logger) error {
	rootCommand := createRootCommand(loggerInstance, os.Stdout)
	return rootCommand.Execute()
}

// runtimeOptions stores the flag values bound to the root command.
type runtimeOptions struct {
	onlyPaths       []string
	useGitignore    bool
	includePattern  string
	excludePattern  string
	maxLines        int
	compact         bool
	tokensEnabled   bool
	tokenModel      string
	copyToClipboard bool
	configFilePath  string
	showVersion     bool
}

// createRootCommand builds the root Cobra command writing results to stdout.
func createRootCommand(loggerInstance *zap.Logger, stdout io.Writer) *cobra.Command {
	var options runtimeOptions

	rootCommand := &cobra.Command{
		Use:          rootUse,
		Short:        rootShortDescription,
		Long:         rootLongDescription,
		Example:      rootUsageExample,
		Args:         cobra.MaximumNArgs(1),
		SilenceUsage: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if options.showVersion {
				fmt.Fprintf(stdout, versionTemplate, utils.GetApplicationVersion())
				return nil
			}
			rootPath := defaultPath
			if len(arguments) > 0 {
				rootPath = arguments[0]
			}
			return run(command, rootPath, options, loggerInstance, stdout)
		},
	}

	flags := rootCommand.Flags()
	flags.StringArrayVarP(&options.onlyPaths, onlyFlagName, onlyFlagShorthand, nil, onlyFlagUsage)
	flags.BoolVarP(&options.useGitignore, gitignoreFlagName, gitignoreFlagShorthand, false, gitignoreFlagUsage)
	flags.StringVarP(&options.includePattern, includeFlagName, includeFlagShorthand, "", includeFlagUsage)
	flags.StringVarP(&options.excludePattern, excludeFlagName, excludeFlagShorthand, "", excludeFlagUsage)
	flags.IntVarP(&options.maxLines, maxLinesFlagName, maxLinesFlagShorthand, 0, maxLinesFlagUsage)
	flags.BoolVarP(&options.compact, compactFlagName, compactFlagShorthand, false, compactFlagUsage)
	flags.BoolVar(&options.tokensEnabled, tokensFlagName, false, tokensFlagUsage)
	flags.StringVar(&options.tokenModel, modelFlagName, defaultTokenizerModelName, modelFlagUsage)
	flags.BoolVar(&options.copyToClipboard, copyFlagName, false, copyFlagUsage)
	flags.StringVar(&options.configFilePath, configFlagName, "", configFlagUsage)
	flags.BoolVar(&options.showVersion, versionFlagName, false, versionFlagUsage)

	return rootCommand
}

// run validates the root path, applies configuration-file defaults, builds
// the rule set, walks the tree, and writes tree plus contents to stdout.
func run(command *cobra.Command, rootPath string, options runtimeOptions, loggerInstance *zap.Logger, stdout io.Writer) error {
	resolvedRoot, resolveError := resolveAndValidateRoot(rootPath)
	if resolveError != nil {
		return resolveError
	}

	applicationConfiguration, configurationError := config.LoadApplicationConfiguration(config.LoadOptions{
		ExplicitFilePath: options.configFilePath,
	})
	if configurationError != nil {
		return configurationError
	}
	options = applyConfigurationDefaults(command, options, applicationConfiguration)

	if options.maxLines < 0 {
		return fmt.Errorf(errorNegativeMaxLinesFormat, options.maxLines)
	}

	warn := func(message string) {
		loggerInstance.Warn(message)
	}

	var ignoreMatcher ignore.Matcher
	if options.useGitignore {
		loadedMatcher, loadError := ignore.LoadMatcher(resolvedRoot)
		if loadError != nil {
			return loadError
		}
		ignoreMatcher = loadedMatcher
	}

	ruleSet, ruleSetError := filter.NewRuleSet(filter.Options{
		AllowedExtensions: filter.DefaultAllowedExtensions(),
		OnlyPaths:         options.onlyPaths,
		IncludePattern:    options.includePattern,
		ExcludePattern:    options.excludePattern,
		IgnoreMatcher:     ignoreMatcher,
		ExcludeGlobs:      applicationConfiguration.Exclude,
	})
	if ruleSetError != nil {
		return ruleSetError
	}

	var tokenCounter tokenizer.Counter
	tokenModel := ""
	if options.tokensEnabled {
		createdCounter, resolvedModel, counterError := tokenizer.NewCounter(options.tokenModel)
		if counterError != nil {
			return counterError
		}
		tokenCounter = createdCounter
		tokenModel = resolvedModel
	}

	rootNode, walkError := walker.Walk(walker.Options{
		Root:  resolvedRoot,
		Rules: ruleSet,
		Warn:  warn,
	})
	if walkError != nil {
		return walkError
	}

	var outputBuffer bytes.Buffer
	writeOutput(&outputBuffer, rootNode, render.ContentOptions{
		MaxLines: options.maxLines,
		Compact:  options.compact,
		Counter:  tokenCounter,
		Warn:     warn,
	}, tokenModel)

	outputText := outputBuffer.String()
	if _, writeError := io.WriteString(stdout, outputText); writeError != nil {
		return writeError
	}

	if options.copyToClipboard {
		copier := clipboard.NewService()
		if copyError := copier.Copy(outputText); copyError != nil {
			warn(fmt.Sprintf(warningClipboardFormat, copyError))
		}
	}

	return nil
}

// writeOutput renders the tree diagram followed by every surviving file's
// content. The content section references exactly the file set present in
// the tree.
func writeOutput(writer io.Writer, rootNode *types.TreeNode, contentOptions render.ContentOptions, tokenModel string) {
	render.WriteTree(writer, rootNode)

	fileNodes := rootNode.Files()
	if len(fileNodes) == 0 {
		return
	}
	fmt.Fprintln(writer)

	totalFiles := 0
	var totalBytes int64
	totalTokens := 0
	for _, fileNode := range fileNodes {
		rendered := render.RenderFile(fileNode, contentOptions)
		render.WriteFile(writer, rendered)
		totalFiles++
		if fileInfo, statError := os.Stat(fileNode.Entry.AbsolutePath); statError == nil {
			totalBytes += fileInfo.Size()
		}
		totalTokens += rendered.Tokens
	}

	if contentOptions.Counter != nil {
		fmt.Fprintln(writer, render.FormatSummaryLine(totalFiles, totalBytes, totalTokens, tokenModel))
	}
}

// applyConfigurationDefaults overlays configuration-file values onto flags
// the user did not explicitly set on the command line.
func applyConfigurationDefaults(command *cobra.Command, options runtimeOptions, applicationConfiguration config.ApplicationConfiguration) runtimeOptions {
	flags := command.Flags()
	if !flags.Changed(maxLinesFlagName) && applicationConfiguration.MaxLines != nil {
		options.maxLines = *applicationConfiguration.MaxLines
	}
	if !flags.Changed(compactFlagName) && applicationConfiguration.Compact != nil {
		options.compact = *applicationConfiguration.Compact
	}
	if !flags.Changed(gitignoreFlagName) && applicationConfiguration.Gitignore != nil {
		options.useGitignore = *applicationConfiguration.Gitignore
	}
	if !flags.Changed(tokensFlagName) && applicationConfiguration.Tokens.Enabled != nil {
		options.tokensEnabled = *applicationConfiguration.Tokens.Enabled
	}
	if !flags.Changed(modelFlagName) && applicationConfiguration.Tokens.Model != "" {
		options.tokenModel = applicationConfiguration.Tokens.Model
	}
	if !flags.Changed(copyFlagName) && applicationConfiguration.Copy != nil {
		options.copyToClipboard = *applicationConfiguration.Copy
	}
	return options
}

// resolveAndValidateRoot converts the input path to absolute form and
// verifies it is an existing directory.
func resolveAndValidateRoot(inputPath string) (string, error) {
	absolutePath, absolutePathError := filepath.Abs(inputPath)
	if absolutePathError != nil {
		return "", fmt.Errorf(errorAbsolutePathFormat, inputPath, absolutePathError)
	}
	cleanPath := filepath.Clean(absolutePath)
	info, fileStatusError := os.Stat(cleanPath)
	if fileStatusError != nil {
		if os.IsNotExist(fileStatusError) {
			return "", fmt.Errorf(errorPathMissingFormat, inputPath)
		}
		return "", fmt.Errorf(errorStatFormat, inputPath, fileStatusError)
	}
	if !info.IsDir() {
		return "", fmt.Errorf(errorNotDirectoryFormat, inputPath)
	}
	return cleanPath, nil
}
