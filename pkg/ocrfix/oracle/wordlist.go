package oracle

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/edsrzf/mmap-go"
)

// WordList is an in-memory word set loaded from a dictionary file.
// Each line holds a word, optionally followed by a frequency column.
// Lookups are case-insensitive.
type WordList struct {
	words map[string]struct{}
}

// NewWordList builds a word list from the given words.
func NewWordList(words []string) *WordList {
	wl := &WordList{words: make(map[string]struct{}, len(words))}
	for _, w := range words {
		wl.Add(w)
	}
	return wl
}

// LoadWordList maps the dictionary file into memory and indexes it.
func LoadWordList(path string) (*WordList, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dictionary: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat dictionary: %w", err)
	}
	wl := &WordList{words: make(map[string]struct{})}
	// mmap of a zero-length file fails on most platforms
	if info.Size() == 0 {
		return wl, nil
	}

	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap dictionary: %w", err)
	}
	defer data.Unmap()

	s := bufio.NewScanner(bytes.NewReader(data))
	s.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for s.Scan() {
		line := strings.TrimSpace(s.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		wl.Add(fields[0])
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return wl, nil
}

// Add inserts a word.
func (wl *WordList) Add(word string) {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return
	}
	wl.words[word] = struct{}{}
}

// Len returns the number of distinct words.
func (wl *WordList) Len() int { return len(wl.words) }

// Has implements Backend.
func (wl *WordList) Has(_ context.Context, word string) (bool, error) {
	_, ok := wl.words[strings.ToLower(word)]
	return ok, nil
}
