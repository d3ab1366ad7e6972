package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// SplitMarkdown splits markdown content into chunks, starting a new chunk at
// every heading line. Content before the first heading forms its own chunk;
// chunks that are only whitespace are dropped.
func SplitMarkdown(content string) []string {
	var chunks []string
	var current []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(current, "\n"))
		if text != "" {
			chunks = append(chunks, text)
		}
		current = current[:0]
	}

	for _, line := range strings.Split(content, "\n") {
		if isHeading(line) {
			flush()
		}
		current = append(current, line)
	}
	flush()

	return chunks
}

// isHeading reports whether line is an ATX heading: one to six leading '#'
// runes followed by a space.
func isHeading(line string) bool {
	hashes := len(line) - len(strings.TrimLeft(line, "#"))
	if hashes == 0 || hashes > 6 {
		return false
	}
	return strings.HasPrefix(line[hashes:], " ")
}

// GeneratePairs walks a documentation tree, chunks every markdown file and
// returns one pair per chunk, keyed by the file's slash-separated relative
// path. WalkDir's lexical order keeps the output deterministic.
func GeneratePairs(docsDir string) ([]Pair, error) {
	var pairs []Pair
	err := filepath.WalkDir(docsDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(p), ".md") {
			return nil
		}

		content, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}

		rel, err := filepath.Rel(docsDir, p)
		if err != nil {
			return err
		}

		name := filepath.ToSlash(rel)
		for _, chunk := range SplitMarkdown(string(content)) {
			pairs = append(pairs, Pair{Query: name, Text: chunk})
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("docs directory %s does not exist: %w", docsDir, err)
		}
		return nil, fmt.Errorf("failed to walk docs directory: %w", err)
	}

	return pairs, nil
}

// WritePairs writes pairs as JSONL, one object per line, in the form
// ReadPairs consumes. The parent directory is created if needed.
func WritePairs(path string, pairs []Pair) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create source directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create source file: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	w := bufio.NewWriter(f)
	for _, pair := range pairs {
		raw, err := json.Marshal(pair)
		if err != nil {
			return fmt.Errorf("failed to encode pair: %w", err)
		}
		if _, err := w.Write(append(raw, '\n')); err != nil {
			return fmt.Errorf("failed to write source file: %w", err)
		}
	}
	return w.Flush()
}

// Generate chunks the job's docs tree into query/text pairs and writes them
// to the source path that Build reads.
func (r *Runner) Generate(ctx context.Context) error {
	docs := r.job.Spec.Source.Docs
	if docs == nil {
		return fmt.Errorf("job %s has no docs source configured", r.job.Metadata.Name)
	}

	pairs, err := GeneratePairs(docs.Dir)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("docs directory %s has no markdown content", docs.Dir)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := WritePairs(r.job.Spec.Source.Path, pairs); err != nil {
		return err
	}

	r.logger.Info("source pairs generated",
		zap.Int("pairs", len(pairs)),
		zap.String("docs_dir", docs.Dir),
		zap.String("path", r.job.Spec.Source.Path))
	return nil
}
