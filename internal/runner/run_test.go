package runner

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	v1 "github.com/vecsnap/vecsnap/apis/v1"
	"github.com/vecsnap/vecsnap/internal/embed"
	"github.com/vecsnap/vecsnap/internal/remote"
	"github.com/vecsnap/vecsnap/internal/store"
)

// fakeProvider embeds texts as [len, 1] so ranking is deterministic.
type fakeProvider struct {
	calls int
}

func (f *fakeProvider) Embed(_ context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{float32(len(text)), 1}, nil
}

func (f *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for _, text := range texts {
		vector, err := f.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, vector)
	}
	return vectors, nil
}

func (f *fakeProvider) ModelName() string { return "fake" }
func (f *fakeProvider) Dimensions() int   { return 2 }

func TestParseDatasetJob(t *testing.T) {
	job, err := ParseDatasetJob([]byte(`
kind: DatasetJob
metadata:
  name: docs
spec:
  source:
    path: pairs.jsonl
  dataset:
    dir: ./docs-dataset
  batchSize: 16
  remote:
    s3:
      bucket: snapshots
      region: us-east-1
`))
	require.NoError(t, err)
	assert.Equal(t, "docs", job.Metadata.Name)
	assert.Equal(t, 16, job.Spec.BatchSize)
	require.NotNil(t, job.Spec.Remote.S3)
	assert.Equal(t, "snapshots", job.Spec.Remote.S3.Bucket)
}

func TestParseDatasetJob_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{
			name: "not yaml",
			doc:  "kind: [",
		},
		{
			name: "wrong kind",
			doc: `
kind: CollectJob
metadata: {name: docs}
spec:
  source: {path: p.jsonl}
  dataset: {dir: d}
`,
		},
		{
			name: "missing dataset dir",
			doc: `
kind: DatasetJob
metadata: {name: docs}
spec:
  source: {path: p.jsonl}
`,
		},
		{
			name: "negative batch size",
			doc: `
kind: DatasetJob
metadata: {name: docs}
spec:
  source: {path: p.jsonl}
  dataset: {dir: d}
  batchSize: -1
`,
		},
		{
			name: "s3 remote without bucket",
			doc: `
kind: DatasetJob
metadata: {name: docs}
spec:
  source: {path: p.jsonl}
  dataset: {dir: d}
  remote:
    s3: {region: us-east-1}
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDatasetJob([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func testJob(t *testing.T, pairs string) v1.DatasetJob {
	t.Helper()
	tmp := t.TempDir()
	sourcePath := filepath.Join(tmp, "pairs.jsonl")
	require.NoError(t, os.WriteFile(sourcePath, []byte(pairs), 0644))

	return v1.DatasetJob{
		Kind:     "DatasetJob",
		Metadata: v1.Metadata{Name: "docs"},
		Spec: v1.DatasetJobSpec{
			Source:    v1.SourceSpec{Path: sourcePath},
			Dataset:   v1.DatasetSpec{Dir: filepath.Join(tmp, "docs-dataset")},
			BatchSize: 2,
		},
	}
}

func TestRunner_Build(t *testing.T) {
	job := testJob(t, `{"query":"q1","text":"a"}
{"query":"q2","text":"bb"}
{"query":"q3","text":"ccc"}
`)

	provider := &fakeProvider{}
	r, err := New(t.Context(), zap.NewNop(), job, Credentials{}, WithEmbedder(provider))
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Build(t.Context()))

	n, err := r.Count(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.Equal(t, 3, provider.calls)

	// Nearest by construction: "bb" embeds to the same vector as the query.
	matches, err := r.Search(t.Context(), "xx", store.MetricL2, 1, nil)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "q2", matches[0].Query)
}

func TestRunner_BuildEmptySource(t *testing.T) {
	job := testJob(t, "")

	r, err := New(t.Context(), zap.NewNop(), job, Credentials{}, WithEmbedder(&fakeProvider{}))
	require.NoError(t, err)
	defer r.Close()

	require.ErrorContains(t, r.Build(t.Context()), "no pairs")
}

func TestRunner_SnapshotRequiresRemote(t *testing.T) {
	job := testJob(t, `{"query":"q","text":"t"}`)

	r, err := New(t.Context(), zap.NewNop(), job, Credentials{}, WithEmbedder(&fakeProvider{}))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Snapshot(t.Context())
	require.ErrorContains(t, err, "no remote configured")
}

func TestRunner_SnapshotRestoreRoundTrip(t *testing.T) {
	job := testJob(t, `{"query":"q1","text":"a"}
{"query":"q2","text":"bb"}
`)

	artifacts := remote.NewFilesystemStore(afero.NewMemMapFs())
	r, err := New(t.Context(), zap.NewNop(), job, Credentials{},
		WithEmbedder(&fakeProvider{}), WithArtifactStore(artifacts))
	require.NoError(t, err)
	defer r.Close()

	require.NoError(t, r.Build(t.Context()))

	key, err := r.Snapshot(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "docs-dataset.tar.gz", key)

	destDir := t.TempDir()
	restoredDir, err := r.Restore(t.Context(), destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "docs-dataset"), restoredDir)

	restored, err := store.Open(restoredDir)
	require.NoError(t, err)
	defer restored.Close()

	n, err := restored.Count(t.Context())
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
}

func TestRunner_BuildFailsFastWhenServiceDown(t *testing.T) {
	job := testJob(t, `{"query":"q","text":"t"}`)

	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()
	provider := embed.NewOllamaProvider(embed.WithBaseURL(server.URL))

	r, err := New(t.Context(), zap.NewNop(), job, Credentials{}, WithEmbedder(provider))
	require.NoError(t, err)
	defer r.Close()

	require.ErrorContains(t, r.Build(t.Context()), "embedding service unavailable")

	// Failing before any work means the dataset directory never appears.
	assert.NoDirExists(t, job.Spec.Dataset.Dir)

	_, err = r.Search(t.Context(), "q", store.MetricCosine, 1, nil)
	require.ErrorContains(t, err, "embedding service unavailable")
}

func TestRunner_RestoreLeavesDatasetDirUntouched(t *testing.T) {
	artifacts := remote.NewFilesystemStore(afero.NewMemMapFs())

	src, err := New(t.Context(), zap.NewNop(), testJob(t, `{"query":"q","text":"t"}`), Credentials{},
		WithEmbedder(&fakeProvider{}), WithArtifactStore(artifacts))
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Build(t.Context()))
	_, err = src.Snapshot(t.Context())
	require.NoError(t, err)

	// A second job restores the snapshot elsewhere; its own dataset
	// directory must not be created as a side effect.
	job := testJob(t, "")
	r, err := New(t.Context(), zap.NewNop(), job, Credentials{},
		WithEmbedder(&fakeProvider{}), WithArtifactStore(artifacts))
	require.NoError(t, err)
	defer r.Close()

	destDir := t.TempDir()
	restoredDir, err := r.Restore(t.Context(), destDir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(destDir, "docs-dataset"), restoredDir)

	assert.NoDirExists(t, job.Spec.Dataset.Dir)
	assert.NoFileExists(t, filepath.Join(job.Spec.Dataset.Dir, store.DBFileName))
}

func TestBuildArtifactStore_NoType(t *testing.T) {
	_, err := buildArtifactStore(t.Context(), v1.RemoteSpec{}, Credentials{})
	require.ErrorContains(t, err, "no store type")
}

func TestBuildArtifactStore_Folder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "artifacts")
	s, err := buildArtifactStore(t.Context(), v1.RemoteSpec{Folder: &v1.FolderRemoteSpec{Path: dir}}, Credentials{})
	require.NoError(t, err)
	assert.Contains(t, s.Name(), "filesystem")

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestRunner_BuildPropagatesEmbedderFailure(t *testing.T) {
	job := testJob(t, `{"query":"q","text":"t"}`)

	r, err := New(t.Context(), zap.NewNop(), job, Credentials{}, WithEmbedder(failingProvider{}))
	require.NoError(t, err)
	defer r.Close()

	require.ErrorContains(t, r.Build(t.Context()), "model offline")
}

type failingProvider struct{}

func (failingProvider) Embed(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("model offline")
}

func (f failingProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, fmt.Errorf("model offline")
}

func (failingProvider) ModelName() string { return "failing" }
func (failingProvider) Dimensions() int   { return 0 }
