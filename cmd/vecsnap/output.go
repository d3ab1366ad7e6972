package main

import (
	"encoding/json"
	"fmt"
	"os"

	"golang.org/x/term"

	"github.com/vecsnap/vecsnap/internal/store"
)

// printMatches writes results to stdout: a readable listing on a terminal,
// one JSON object per line otherwise so output pipes cleanly.
func printMatches(matches []store.Match) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		enc := json.NewEncoder(os.Stdout)
		for _, m := range matches {
			if err := enc.Encode(matchRecord(m)); err != nil {
				return fmt.Errorf("failed to encode match: %w", err)
			}
		}
		return nil
	}

	for i, m := range matches {
		fmt.Printf("%d. distance=%.4f\n", i+1, m.Distance)
		if m.Query != "" {
			fmt.Printf("   query: %s\n", m.Query)
		}
		if m.Text != "" {
			fmt.Printf("   text:  %s\n", m.Text)
		}
	}
	return nil
}

type jsonMatch struct {
	Query     string    `json:"query,omitempty"`
	Text      string    `json:"text,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
	Distance  float64   `json:"distance"`
}

func matchRecord(m store.Match) jsonMatch {
	return jsonMatch{
		Query:     m.Query,
		Text:      m.Text,
		Embedding: m.Embedding,
		Distance:  m.Distance,
	}
}
