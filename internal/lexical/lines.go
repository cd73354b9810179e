package lexical

import (
	"fmt"
	"os"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LineSource returns the lines of a file.
type LineSource interface {
	Lines(path string) ([]string, error)
}

// FileLines reads files from disk and keeps the most recently used ones
// split into lines. It is safe for concurrent use.
type FileLines struct {
	cache *lru.Cache[string, []string]
}

// NewFileLines returns a FileLines holding at most size files.
func NewFileLines(size int) (*FileLines, error) {
	if size <= 0 {
		size = 1
	}
	cache, err := lru.New[string, []string](size)
	if err != nil {
		return nil, fmt.Errorf("creating line cache: %w", err)
	}
	return &FileLines{cache: cache}, nil
}

// Lines returns the lines of path without their terminators.
func (f *FileLines) Lines(path string) ([]string, error) {
	if lines, ok := f.cache.Get(path); ok {
		return lines, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := splitLines(string(data))
	f.cache.Add(path, lines)
	return lines, nil
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}
