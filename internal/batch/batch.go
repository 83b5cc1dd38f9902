package batch

import (
	"fmt"
	"os"
	"strings"

	"codeberg.org/snonux/polyglot/internal/languages"
)

// Entry is one line of a batch file
type Entry struct {
	Text string
	// Language overrides the default target language when set
	Language string
}

// ReadBatchFile reads translation entries from a file, one per line.
// Supports formats:
// - Text only: "Where is the station?" (default target language)
// - With target: "Where is the station? = German"
//
// The last '=' separates the target, and only when the part after it is a
// known language. Otherwise the whole line is text.
func ReadBatchFile(filename string) ([]Entry, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	return Parse(string(content)), nil
}

// Parse parses batch file content
func Parse(content string) []Entry {
	var entries []Entry

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if i := strings.LastIndex(line, "="); i >= 0 {
			text := strings.TrimSpace(line[:i])
			target := strings.TrimSpace(line[i+1:])
			if lang, ok := languages.Lookup(target); ok {
				if text != "" {
					entries = append(entries, Entry{Text: text, Language: lang.Name})
				}
				continue
			}
		}

		entries = append(entries, Entry{Text: line})
	}

	return entries
}
