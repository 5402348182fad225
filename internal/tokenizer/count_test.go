package tokenizer_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/pabloskewes/cattree/internal/tokenizer"
)

// wordCounter is a network-free Counter counting whitespace-separated words.
type wordCounter struct{}

func (wordCounter) Name() string { return "words" }

func (wordCounter) CountString(input string) (int, error) {
	return len(strings.Fields(input)), nil
}

// failingCounter always errors.
type failingCounter struct{}

func (failingCounter) Name() string { return "failing" }

func (failingCounter) CountString(string) (int, error) {
	return 0, errors.New("count failed")
}

func TestCountBytesCountsText(t *testing.T) {
	result, countError := tokenizer.CountBytes(wordCounter{}, []byte("one two three"))
	if countError != nil {
		t.Fatalf("CountBytes failed: %v", countError)
	}
	if !result.Counted {
		t.Fatalf("expected the content to be counted")
	}
	if result.Tokens != 3 {
		t.Fatalf("expected 3 tokens, got %d", result.Tokens)
	}
}

func TestCountBytesEmptyContentIsCounted(t *testing.T) {
	result, countError := tokenizer.CountBytes(wordCounter{}, nil)
	if countError != nil {
		t.Fatalf("CountBytes failed: %v", countError)
	}
	if !result.Counted || result.Tokens != 0 {
		t.Fatalf("expected a counted zero, got %+v", result)
	}
}

func TestCountBytesSkipsBinaryContent(t *testing.T) {
	result, countError := tokenizer.CountBytes(wordCounter{}, []byte{'a', 0, 'b'})
	if countError != nil {
		t.Fatalf("CountBytes failed: %v", countError)
	}
	if result.Counted {
		t.Fatalf("binary content should not be counted")
	}
}

func TestCountBytesNilCounterFails(t *testing.T) {
	if _, countError := tokenizer.CountBytes(nil, []byte("text")); countError == nil {
		t.Fatalf("expected an error for a nil counter")
	}
}

func TestCountBytesPropagatesCounterErrors(t *testing.T) {
	if _, countError := tokenizer.CountBytes(failingCounter{}, []byte("text")); countError == nil {
		t.Fatalf("expected the counter error to propagate")
	}
}
