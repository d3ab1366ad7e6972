package runner

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Pair is one source record: a query and the answer text to embed.
type Pair struct {
	Query string `json:"query"`
	Text  string `json:"text"`
}

// ReadPairs loads a JSONL file with one pair per line. Blank lines are
// skipped; anything else that fails to decode aborts with the line number.
func ReadPairs(path string) (pairs []Pair, err error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("source file %s does not exist: %w", path, err)
		}
		return nil, fmt.Errorf("failed to open source file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var pair Pair
		if err := json.Unmarshal(raw, &pair); err != nil {
			return nil, fmt.Errorf("failed to parse %s line %d: %w", path, line, err)
		}
		if pair.Text == "" {
			return nil, fmt.Errorf("%s line %d has no text", path, line)
		}
		pairs = append(pairs, pair)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}

	return pairs, nil
}
