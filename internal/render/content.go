package render

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pabloskewes/cattree/internal/tokenizer"
	"github.com/pabloskewes/cattree/internal/types"
	"github.com/pabloskewes/cattree/internal/utils"
)

const (
	fileHeaderFormat       = "File: %s\n"
	fileHeaderTokensFormat = "File: %s (%d tokens)\n"
	fileFooterFormat       = "End of file: %s\n"
	separatorLine          = "----------------------------------------"
	truncationMarkerFormat = "... [truncated: %d lines omitted]"
	binaryContentOmitted   = "(binary content omitted)"
	readErrorFormat        = "[Error reading file: %v]"
)

// ContentOptions controls how file bodies are produced.
type ContentOptions struct {
	// MaxLines truncates each file to at most this many lines; zero means
	// unlimited.
	MaxLines int
	// Compact collapses runs of blank lines and trims trailing whitespace
	// per line without altering non-whitespace content.
	Compact bool
	// Counter, when non-nil, produces a token count per rendered file.
	Counter tokenizer.Counter
	// Warn receives non-fatal notices such as token-counting failures.
	Warn func(message string)
}

// RenderFile reads the file behind node and produces its display form.
// Read failures and undecodable content are soft: the body becomes a notice
// instead of aborting the run.
func RenderFile(node *types.TreeNode, options ContentOptions) types.RenderedFile {
	rendered := types.RenderedFile{RelativePath: node.Entry.RelativePath}

	if node.Type == types.NodeTypeBinary {
		rendered.IsBinary = true
		rendered.Body = binaryContentOmitted
		return rendered
	}

	fileBytes, readError := os.ReadFile(node.Entry.AbsolutePath)
	if readError != nil {
		rendered.ReadError = readError
		rendered.Body = fmt.Sprintf(readErrorFormat, readError)
		return rendered
	}

	if utils.IsBinary(fileBytes) {
		rendered.IsBinary = true
		rendered.Body = binaryContentOmitted
		return rendered
	}

	lines := splitLines(string(fileBytes))
	if options.Compact {
		lines = compactLines(lines)
	}
	rendered.TotalLines = len(lines)
	rendered.ShownLines = len(lines)

	if options.MaxLines > 0 && len(lines) > options.MaxLines {
		rendered.OmittedLines = len(lines) - options.MaxLines
		rendered.ShownLines = options.MaxLines
		lines = lines[:options.MaxLines]
	}
	rendered.Body = strings.Join(lines, "\n")

	if options.Counter != nil {
		countResult, countError := tokenizer.CountBytes(options.Counter, fileBytes)
		if countError != nil {
			if options.Warn != nil {
				options.Warn(fmt.Sprintf("failed to count tokens for %s: %v", node.Entry.RelativePath, countError))
			}
		} else if countResult.Counted {
			rendered.Tokens = countResult.Tokens
		}
	}

	return rendered
}

// WriteFile writes one rendered file: header, body, truncation marker when
// lines were omitted, footer, separator.
func WriteFile(writer io.Writer, rendered types.RenderedFile) {
	if rendered.Tokens > 0 {
		fmt.Fprintf(writer, fileHeaderTokensFormat, rendered.RelativePath, rendered.Tokens)
	} else {
		fmt.Fprintf(writer, fileHeaderFormat, rendered.RelativePath)
	}
	fmt.Fprintln(writer, rendered.Body)
	if rendered.OmittedLines > 0 {
		fmt.Fprintf(writer, truncationMarkerFormat+"\n", rendered.OmittedLines)
	}
	fmt.Fprintf(writer, fileFooterFormat, rendered.RelativePath)
	fmt.Fprintln(writer, separatorLine)
}

// FormatSummaryLine formats the aggregate line printed when token counting
// is enabled.
func FormatSummaryLine(totalFiles int, totalBytes int64, totalTokens int, model string) string {
	label := "files"
	if totalFiles == 1 {
		label = "file"
	}
	tokenSuffix := ""
	if totalTokens > 0 {
		tokenSuffix = fmt.Sprintf(", %d tokens", totalTokens)
		if model != "" {
			tokenSuffix += fmt.Sprintf(" (model: %s)", model)
		}
	}
	return fmt.Sprintf("Summary: %d %s, %s%s", totalFiles, label, utils.FormatFileSize(totalBytes), tokenSuffix)
}

// splitLines splits content into display lines. A trailing newline does not
// create a phantom empty final line.
func splitLines(content string) []string {
	if content == "" {
		return []string{""}
	}
	trimmed := strings.TrimSuffix(content, "\n")
	return strings.Split(trimmed, "\n")
}

// compactLines trims trailing whitespace per line and collapses runs of
// blank lines down to a single blank line.
func compactLines(lines []string) []string {
	compacted := make([]string, 0, len(lines))
	previousBlank := false
	for _, line := range lines {
		trimmedLine := strings.TrimRight(line, " \t")
		isBlank := trimmedLine == ""
		if isBlank && previousBlank {
			continue
		}
		compacted = append(compacted, trimmedLine)
		previousBlank = isBlank
	}
	return compacted
}
