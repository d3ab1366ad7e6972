package runner

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSource(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pairs.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestReadPairs(t *testing.T) {
	path := writeSource(t, `{"query":"q1","text":"t1"}

{"query":"q2","text":"t2"}
`)

	pairs, err := ReadPairs(path)
	require.NoError(t, err)
	assert.Equal(t, []Pair{{Query: "q1", Text: "t1"}, {Query: "q2", Text: "t2"}}, pairs)
}

func TestReadPairs_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{
			name:    "broken json",
			content: `{"query": "q1"` + "\n",
			want:    "line 1",
		},
		{
			name:    "missing text",
			content: `{"query":"q1","text":"t1"}` + "\n" + `{"query":"q2"}` + "\n",
			want:    "line 2 has no text",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadPairs(writeSource(t, tt.content))
			require.ErrorContains(t, err, tt.want)
		})
	}
}

func TestReadPairs_MissingFile(t *testing.T) {
	_, err := ReadPairs(filepath.Join(t.TempDir(), "nope.jsonl"))
	require.ErrorContains(t, err, "does not exist")
}
