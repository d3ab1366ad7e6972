// Package v1 defines the DatasetJob document: a declarative description of a
// dataset build, where the source pairs live, where the file-backed vector
// table goes, how texts get embedded, and where snapshots are shipped.
package v1

type DatasetJob struct {
	Kind     string         `yaml:"kind" json:"kind" validate:"required,eq=DatasetJob"`
	Metadata Metadata       `yaml:"metadata" json:"metadata"`
	Spec     DatasetJobSpec `yaml:"spec" json:"spec"`
}

type Metadata struct {
	Name string `yaml:"name" json:"name" validate:"required"`
}

type DatasetJobSpec struct {
	// Source is the dataset of query/answer pairs to embed.
	Source SourceSpec `yaml:"source" json:"source"`

	// Dataset is the directory holding the vector table. This directory is
	// what snapshot packs and restore unpacks.
	Dataset DatasetSpec `yaml:"dataset" json:"dataset"`

	// Embedding configures the embedding provider (default: local Ollama).
	Embedding *EmbeddingSpec `yaml:"embedding,omitempty" json:"embedding,omitempty"`

	// BatchSize is the fixed insert batch size (default: 32).
	BatchSize int `yaml:"batchSize,omitempty" json:"batchSize,omitempty" validate:"omitempty,gt=0"`

	// Remote configures the artifact store for snapshots.
	Remote *RemoteSpec `yaml:"remote,omitempty" json:"remote,omitempty"`
}

// SourceSpec points at a JSONL file with one {"query": ..., "text": ...}
// object per line. When Docs is set, generate chunks the markdown tree under
// Docs.Dir and writes the pairs file at Path.
type SourceSpec struct {
	Path string    `yaml:"path" json:"path" validate:"required"`
	Docs *DocsSpec `yaml:"docs,omitempty" json:"docs,omitempty"`
}

// DocsSpec names a local documentation tree to chunk into source pairs.
type DocsSpec struct {
	Dir string `yaml:"dir" json:"dir" validate:"required"`
}

type DatasetSpec struct {
	Dir string `yaml:"dir" json:"dir" validate:"required"`
}

type EmbeddingSpec struct {
	// URL is the embedding service endpoint.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`

	// Model is the embedding model name.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`

	// Dimensions is the expected vector dimensionality.
	Dimensions int `yaml:"dimensions,omitempty" json:"dimensions,omitempty" validate:"omitempty,gt=0"`
}

// RemoteSpec configures the snapshot destination (one of the fields should
// be set).
type RemoteSpec struct {
	S3     *S3RemoteSpec     `yaml:"s3,omitempty" json:"s3,omitempty"`
	Folder *FolderRemoteSpec `yaml:"folder,omitempty" json:"folder,omitempty"`
}

// S3RemoteSpec configures an S3-compatible artifact store. Credentials are
// never part of the job document; they are passed in at the command boundary.
type S3RemoteSpec struct {
	Bucket         string `yaml:"bucket" json:"bucket" validate:"required"`
	Region         string `yaml:"region,omitempty" json:"region,omitempty"`
	Endpoint       string `yaml:"endpoint,omitempty" json:"endpoint,omitempty"`
	Prefix         string `yaml:"prefix,omitempty" json:"prefix,omitempty"`
	ForcePathStyle bool   `yaml:"forcePathStyle,omitempty" json:"forcePathStyle,omitempty"`
}

// FolderRemoteSpec configures a local directory as the artifact store.
type FolderRemoteSpec struct {
	Path string `yaml:"path" json:"path" validate:"required"`
}
