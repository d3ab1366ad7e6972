// Package store holds query/answer pairs with their embeddings in a SQLite
// database file inside a dataset directory. Keeping the table file-backed is
// what lets a whole dataset travel as a single packed archive.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	_ "modernc.org/sqlite"
)

// DBFileName is the table's database file inside a dataset directory.
const DBFileName = "records.db"

const schema = `
	CREATE TABLE IF NOT EXISTS records (
		id        INTEGER PRIMARY KEY,
		query     TEXT NOT NULL,
		text      TEXT NOT NULL,
		embedding BLOB NOT NULL
	);
`

// Row is one record of the vector table.
type Row struct {
	Query     string
	Text      string
	Embedding []float32
}

// Match is a search result: a row projected to the requested fields plus its
// distance from the query vector.
type Match struct {
	Row
	Distance float64
}

// Embedder turns raw query text into a vector. Satisfied by embed.Provider.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchRequest describes a similarity query. Either Vector or Text must be
// set; Text requires an Embedder to compute the vector.
type SearchRequest struct {
	Vector   []float32
	Text     string
	Embedder Embedder

	Metric Metric
	Limit  int

	// Fields projects the result rows. Valid names are "query", "text" and
	// "embedding"; empty means all fields.
	Fields []string
}

// Table is a file-backed vector table.
type Table struct {
	db  *sql.DB
	dir string
}

// Open opens or creates the vector table inside dir, creating the directory
// if needed.
func Open(dir string) (*Table, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset directory %s: %w", dir, err)
	}

	db, err := sql.Open("sqlite", filepath.Join(dir, DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open table: %w", err)
	}
	// SQLite does not support concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &Table{db: db, dir: dir}, nil
}

// Dir returns the dataset directory holding the table.
func (t *Table) Dir() string {
	return t.dir
}

// InsertBatch writes rows in a single transaction. Batch sizing is the
// caller's concern; an empty batch is a no-op.
func (t *Table) InsertBatch(ctx context.Context, rows []Row) (err error) {
	if len(rows) == 0 {
		return nil
	}

	tx, err := t.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records(query, text, embedding) VALUES(?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if len(row.Embedding) == 0 {
			return fmt.Errorf("row %q has no embedding", row.Query)
		}
		if _, err := stmt.ExecContext(ctx, row.Query, row.Text, encodeVector(row.Embedding)); err != nil {
			return fmt.Errorf("failed to insert row %q: %w", row.Query, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit batch: %w", err)
	}
	return nil
}

// Count returns the number of stored rows.
func (t *Table) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := t.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count rows: %w", err)
	}
	return n, nil
}

// Search scans the table and returns up to req.Limit matches ordered by
// ascending distance, nearest first.
func (t *Table) Search(ctx context.Context, req SearchRequest) ([]Match, error) {
	vector, err := t.resolveQueryVector(ctx, req)
	if err != nil {
		return nil, err
	}
	metric := req.Metric
	if metric == "" {
		metric = MetricCosine
	}
	if req.Limit <= 0 {
		return nil, fmt.Errorf("search limit must be positive, got %d", req.Limit)
	}
	if err := validateFields(req.Fields); err != nil {
		return nil, err
	}

	rows, err := t.db.QueryContext(ctx, `SELECT query, text, embedding FROM records`)
	if err != nil {
		return nil, fmt.Errorf("failed to scan table: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var row Row
		var blob []byte
		if err := rows.Scan(&row.Query, &row.Text, &blob); err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		row.Embedding, err = decodeVector(blob)
		if err != nil {
			return nil, err
		}

		distance, err := metric.Distance(vector, row.Embedding)
		if err != nil {
			return nil, fmt.Errorf("failed to rank row %q: %w", row.Query, err)
		}
		matches = append(matches, Match{Row: row, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan table: %w", err)
	}

	slices.SortStableFunc(matches, func(a, b Match) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		default:
			return 0
		}
	})
	if len(matches) > req.Limit {
		matches = matches[:req.Limit]
	}

	project(matches, req.Fields)
	return matches, nil
}

// Close closes the underlying database.
func (t *Table) Close() error {
	return t.db.Close()
}

func (t *Table) resolveQueryVector(ctx context.Context, req SearchRequest) ([]float32, error) {
	if len(req.Vector) > 0 {
		return req.Vector, nil
	}
	if req.Text == "" {
		return nil, fmt.Errorf("search request needs a vector or a text query")
	}
	if req.Embedder == nil {
		return nil, fmt.Errorf("text query %q needs an embedder", req.Text)
	}
	vector, err := req.Embedder.Embed(ctx, req.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vector, nil
}

func validateFields(fields []string) error {
	for _, f := range fields {
		switch f {
		case "query", "text", "embedding":
		default:
			return fmt.Errorf("unknown projection field %q", f)
		}
	}
	return nil
}

// project blanks the fields the request did not ask for. Distance is always
// kept: it is the ranking signal, not a stored field.
func project(matches []Match, fields []string) {
	if len(fields) == 0 {
		return
	}
	for i := range matches {
		if !slices.Contains(fields, "query") {
			matches[i].Query = ""
		}
		if !slices.Contains(fields, "text") {
			matches[i].Text = ""
		}
		if !slices.Contains(fields, "embedding") {
			matches[i].Embedding = nil
		}
	}
}
