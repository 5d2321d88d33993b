package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/captioner/helper"
)

// IndexType is a pgvector index method for the caption embeddings
type IndexType string

const (
	IndexHNSW    IndexType = "hnsw"
	IndexIVFFlat IndexType = "ivfflat"
)

// IndexOptions holds the build parameters of a vector index.
// Zero values use the pgvector defaults.
type IndexOptions struct {
	M              int // HNSW, default 16
	EfConstruction int // HNSW, default 64
	Lists          int // IVFFlat, default 100
}

// ChangeIndexType rebuilds the caption embedding index with another method
func (h *CaptionsDBHandler) ChangeIndexType(ctx context.Context, indexType IndexType, opts IndexOptions) error {
	var createIndexSQL string
	switch indexType {
	case IndexHNSW:
		m := 16
		if opts.M > 0 {
			m = opts.M
		}
		efConstruction := 64
		if opts.EfConstruction > 0 {
			efConstruction = opts.EfConstruction
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_captions_embedding ON captions USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			m, efConstruction,
		)
	case IndexIVFFlat:
		lists := 100
		if opts.Lists > 0 {
			lists = opts.Lists
		}
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_captions_embedding ON captions USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			lists,
		)
	default:
		return helper.InvalidInput("unsupported index type %q (use %q or %q)", indexType, IndexHNSW, IndexIVFFlat)
	}

	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_captions_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info("Rebuilt caption embedding index", slog.String("type", string(indexType)))

	return nil
}
