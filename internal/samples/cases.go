package samples

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Case is one sentence read from a cases file.
type Case struct {
	Line     int
	Sentence string
}

// ReadCases reads one sentence per line. Blank lines and lines starting
// with "#" are skipped.
func ReadCases(r io.Reader) ([]Case, error) {
	var cases []Case
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		cases = append(cases, Case{Line: line, Sentence: text})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading cases: %w", err)
	}
	return cases, nil
}

// LoadCases reads a cases file from disk.
func LoadCases(path string) ([]Case, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening cases: %w", err)
	}
	defer f.Close()
	return ReadCases(f)
}

// BuiltinCases returns the catalog sentences as cases numbered from 1.
func BuiltinCases() []Case {
	cases := make([]Case, len(allSamples))
	for i, s := range allSamples {
		cases[i] = Case{Line: i + 1, Sentence: s.Sentence}
	}
	return cases
}
