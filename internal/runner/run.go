// Package runner orchestrates a DatasetJob end to end: build the vector
// table from source pairs, query it, and move snapshots to and from the
// artifact store. Everything runs sequentially; each stage is a plain
// function of its inputs.
package runner

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/samber/lo"
	"go.uber.org/zap"

	v1 "github.com/vecsnap/vecsnap/apis/v1"
	"github.com/vecsnap/vecsnap/internal/archive"
	"github.com/vecsnap/vecsnap/internal/embed"
	"github.com/vecsnap/vecsnap/internal/remote"
	"github.com/vecsnap/vecsnap/internal/store"
)

// DefaultBatchSize is the insert batch size when the job does not set one.
const DefaultBatchSize = 32

var defaultValidator = validator.New(validator.WithRequiredStructEnabled())

// ParseDatasetJob parses and validates a YAML or JSON job document.
func ParseDatasetJob(data []byte) (v1.DatasetJob, error) {
	var job v1.DatasetJob
	if err := yaml.Unmarshal(data, &job); err != nil {
		return v1.DatasetJob{}, fmt.Errorf("failed to unmarshal job document: %w", err)
	}

	if err := defaultValidator.Struct(job); err != nil {
		return v1.DatasetJob{}, fmt.Errorf("failed to validate job: %w", err)
	}

	return job, nil
}

// Credentials are explicit artifact-store credentials, resolved once at the
// command boundary.
type Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// Option overrides a collaborator the runner would otherwise build from the
// job spec.
type Option func(*Runner)

// WithEmbedder injects an embedding provider.
func WithEmbedder(p embed.Provider) Option {
	return func(r *Runner) { r.embedder = p }
}

// WithArtifactStore injects an artifact store.
func WithArtifactStore(s remote.Store) Option {
	return func(r *Runner) { r.artifacts = s }
}

// Runner executes a DatasetJob.
type Runner struct {
	logger    *zap.Logger
	job       v1.DatasetJob
	table     *store.Table
	embedder  embed.Provider
	artifacts remote.Store
}

// New wires the embedding provider and the artifact store described by the
// spec. The vector table is opened on first use so operations that never
// touch it, such as Restore, leave no trace at the dataset directory.
func New(ctx context.Context, logger *zap.Logger, job v1.DatasetJob, creds Credentials, opts ...Option) (*Runner, error) {
	logger.Info("creating runner", zap.String("job_name", job.Metadata.Name))

	r := &Runner{logger: logger, job: job}
	for _, opt := range opts {
		opt(r)
	}

	if r.embedder == nil {
		r.embedder = buildEmbedder(job.Spec.Embedding)
	}

	if r.artifacts == nil && job.Spec.Remote != nil {
		var err error
		r.artifacts, err = buildArtifactStore(ctx, *job.Spec.Remote, creds)
		if err != nil {
			return nil, err
		}
	}

	return r, nil
}

// openTable opens the job's vector table once, creating the dataset
// directory if needed, and reuses it for later calls.
func (r *Runner) openTable() (*store.Table, error) {
	if r.table != nil {
		return r.table, nil
	}

	table, err := store.Open(r.job.Spec.Dataset.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector table: %w", err)
	}
	r.table = table
	return table, nil
}

// probeEmbedder checks the embedding service before any embedding work when
// the provider supports it, so a downed service fails fast instead of midway
// through a batch.
func (r *Runner) probeEmbedder(ctx context.Context) error {
	probe, ok := r.embedder.(embed.Prober)
	if !ok {
		return nil
	}
	if err := probe.IsAvailable(ctx); err != nil {
		return fmt.Errorf("embedding service unavailable: %w", err)
	}
	return nil
}

// Build reads the source pairs, embeds their texts in fixed-size batches and
// inserts each batch in its own transaction.
func (r *Runner) Build(ctx context.Context) error {
	if err := r.probeEmbedder(ctx); err != nil {
		return err
	}

	pairs, err := ReadPairs(r.job.Spec.Source.Path)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		return fmt.Errorf("source %s has no pairs", r.job.Spec.Source.Path)
	}

	table, err := r.openTable()
	if err != nil {
		return err
	}

	batchSize := r.job.Spec.BatchSize
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}

	r.logger.Info("building dataset",
		zap.Int("pairs", len(pairs)),
		zap.Int("batch_size", batchSize),
		zap.String("model", r.embedder.ModelName()))

	for i, batch := range lo.Chunk(pairs, batchSize) {
		texts := lo.Map(batch, func(p Pair, _ int) string { return p.Text })
		vectors, err := r.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to embed batch %d: %w", i, err)
		}

		rows := make([]store.Row, len(batch))
		for j, pair := range batch {
			rows[j] = store.Row{Query: pair.Query, Text: pair.Text, Embedding: vectors[j]}
		}
		if err := table.InsertBatch(ctx, rows); err != nil {
			return fmt.Errorf("failed to insert batch %d: %w", i, err)
		}

		r.logger.Debug("batch inserted", zap.Int("batch", i), zap.Int("rows", len(rows)))
	}

	total, err := table.Count(ctx)
	if err != nil {
		return err
	}
	r.logger.Info("dataset built", zap.Int64("rows", total), zap.String("dir", table.Dir()))
	return nil
}

// Search embeds the query text and returns the nearest rows.
func (r *Runner) Search(ctx context.Context, text string, metric store.Metric, limit int, fields []string) ([]store.Match, error) {
	if err := r.probeEmbedder(ctx); err != nil {
		return nil, err
	}

	table, err := r.openTable()
	if err != nil {
		return nil, err
	}
	return table.Search(ctx, store.SearchRequest{
		Text:     text,
		Embedder: r.embedder,
		Metric:   metric,
		Limit:    limit,
		Fields:   fields,
	})
}

// Count returns the number of rows in the vector table.
func (r *Runner) Count(ctx context.Context) (int64, error) {
	table, err := r.openTable()
	if err != nil {
		return 0, err
	}
	return table.Count(ctx)
}

// Snapshot packs the dataset directory and uploads the archive under its
// base name. It returns the artifact key.
func (r *Runner) Snapshot(ctx context.Context) (string, error) {
	if r.artifacts == nil {
		return "", fmt.Errorf("job %s has no remote configured", r.job.Metadata.Name)
	}

	archivePath, err := archive.Pack(r.job.Spec.Dataset.Dir)
	if err != nil {
		return "", fmt.Errorf("failed to pack dataset: %w", err)
	}

	key := filepath.Base(archivePath)
	r.logger.Info("uploading snapshot",
		zap.String("archive", archivePath),
		zap.String("store", r.artifacts.Name()),
		zap.String("key", key))

	if err := r.artifacts.Upload(ctx, archivePath, key); err != nil {
		return "", err
	}
	return key, nil
}

// Restore downloads the dataset's snapshot into destDir and unpacks it,
// returning the restored directory path.
func (r *Runner) Restore(ctx context.Context, destDir string) (string, error) {
	if r.artifacts == nil {
		return "", fmt.Errorf("job %s has no remote configured", r.job.Metadata.Name)
	}

	key := archive.Default.ArchivePath(filepath.Base(filepath.Clean(r.job.Spec.Dataset.Dir)))
	r.logger.Info("downloading snapshot",
		zap.String("store", r.artifacts.Name()),
		zap.String("key", key))

	archivePath, err := r.artifacts.Download(ctx, key, destDir)
	if err != nil {
		return "", err
	}

	dir, err := archive.Unpack(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to unpack snapshot: %w", err)
	}
	return dir, nil
}

// Close releases the vector table if one was opened.
func (r *Runner) Close() error {
	if r.table == nil {
		return nil
	}
	return r.table.Close()
}

func buildEmbedder(spec *v1.EmbeddingSpec) embed.Provider {
	var opts []embed.OllamaOption
	if spec != nil {
		if spec.URL != "" {
			opts = append(opts, embed.WithBaseURL(spec.URL))
		}
		if spec.Model != "" {
			opts = append(opts, embed.WithModel(spec.Model))
		}
		if spec.Dimensions > 0 {
			opts = append(opts, embed.WithDimensions(spec.Dimensions))
		}
	}
	return embed.NewOllamaProvider(opts...)
}

func buildArtifactStore(ctx context.Context, spec v1.RemoteSpec, creds Credentials) (remote.Store, error) {
	switch {
	case spec.S3 != nil:
		s, err := remote.NewS3Store(ctx, remote.S3Config{
			Bucket:          spec.S3.Bucket,
			Region:          spec.S3.Region,
			Endpoint:        spec.S3.Endpoint,
			Prefix:          spec.S3.Prefix,
			AccessKeyID:     creds.AccessKeyID,
			SecretAccessKey: creds.SecretAccessKey,
			ForcePathStyle:  spec.S3.ForcePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create S3 store: %w", err)
		}
		return s, nil
	case spec.Folder != nil:
		s, err := remote.NewFilesystemStoreFromPath(spec.Folder.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to create folder store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("remote has no store type specified")
	}
}
