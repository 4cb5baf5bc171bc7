package repl

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const maxHistoryLines = 500

// History is the persistent list of sentences entered at the prompt, with a
// cursor for up/down recall.
type History struct {
	entries []string
	path    string
	cursor  int // len(entries) when not recalling
}

// NewHistory creates a History that loads from and saves to
// ~/.coursebot/repl_history.
func NewHistory() *History {
	return NewHistoryWithPath(historyPath())
}

// NewHistoryWithPath creates a History backed by path. An empty path keeps
// history in memory only.
func NewHistoryWithPath(path string) *History {
	h := &History{path: path}
	h.load()
	h.cursor = len(h.entries)
	return h
}

// Add appends a line, skipping blanks and consecutive duplicates, and resets
// the recall cursor.
func (h *History) Add(line string) {
	defer func() { h.cursor = len(h.entries) }()

	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	if len(h.entries) > 0 && h.entries[len(h.entries)-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > maxHistoryLines {
		h.entries = h.entries[len(h.entries)-maxHistoryLines:]
	}
}

// Entries returns all history entries, oldest first.
func (h *History) Entries() []string {
	return h.entries
}

// Prev moves the cursor back and returns that entry. It stays on the oldest
// entry once reached.
func (h *History) Prev() (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next moves the cursor forward. Past the newest entry it returns "" and
// false so the caller can restore an empty prompt.
func (h *History) Next() (string, bool) {
	if h.cursor >= len(h.entries)-1 {
		h.cursor = len(h.entries)
		return "", false
	}
	h.cursor++
	return h.entries[h.cursor], true
}

// Save writes history to disk.
func (h *History) Save() error {
	if h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0755); err != nil {
		return fmt.Errorf("creating history directory: %w", err)
	}

	f, err := os.Create(h.path)
	if err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	for _, entry := range h.entries {
		fmt.Fprintln(w, entry)
	}
	return w.Flush()
}

func (h *History) load() {
	if h.path == "" {
		return
	}

	f, err := os.Open(h.path)
	if err != nil {
		return // not written yet
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.entries = append(h.entries, line)
		}
	}
	if len(h.entries) > maxHistoryLines {
		h.entries = h.entries[len(h.entries)-maxHistoryLines:]
	}
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".coursebot", "repl_history")
}
