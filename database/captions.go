package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
	"github.com/siherrmann/captioner/sql"
)

// uniqueViolation is the postgres error code for a duplicate key
const uniqueViolation = "23505"

// CaptionsDBHandlerFunctions defines the interface for Captions database operations.
type CaptionsDBHandlerFunctions interface {
	InsertCaption(caption *model.StoredCaption) error
	SelectCaptionsByRun(runRID uuid.UUID) ([]*model.StoredCaption, error)
	SelectCaptionsBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.StoredCaption, error)
	DeleteCaption(id int64) error
}

// CaptionsDBHandler handles caption-related database operations
type CaptionsDBHandler struct {
	db           *helper.Database
	embeddingDim int
}

// NewCaptionsDBHandler creates a new captions database handler.
// The runs table must exist, captions reference it.
// If force is true, it will reload the SQL functions even if they already exist.
func NewCaptionsDBHandler(db *helper.Database, embeddingDim int, force bool) (*CaptionsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}
	if embeddingDim <= 0 {
		return nil, helper.InvalidInput("embedding dimension must be positive, got %d", embeddingDim)
	}

	captionsDbHandler := &CaptionsDBHandler{
		db:           db,
		embeddingDim: embeddingDim,
	}

	err := sql.LoadCaptionsSql(captionsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load captions sql", err)
	}

	err = captionsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized CaptionsDBHandler", "embedding_dim", embeddingDim)

	return captionsDbHandler, nil
}

// CreateTable creates the 'captions' table with its vector index if it does not exist.
func (h *CaptionsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_captions($1);`, h.embeddingDim)
	if err != nil {
		log.Panicf("error initializing captions table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table captions")

	return nil
}

// InsertCaption inserts a source caption of a run with its embedding.
// A second caption for the same source of a run is rejected as invalid input.
func (h *CaptionsDBHandler) InsertCaption(caption *model.StoredCaption) error {
	if caption == nil {
		return helper.InvalidInput("caption is nil")
	}
	if len(caption.Embedding) != h.embeddingDim {
		return helper.InvalidInput("embedding has %d dimensions, expected %d", len(caption.Embedding), h.embeddingDim)
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_caption($1, $2, $3, $4, $5)`,
		caption.RunID,
		caption.Source,
		caption.Text,
		pgvector.NewVector(caption.Embedding),
		caption.ConsensusScore,
	)

	err := scanCaption(row, caption)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return helper.InvalidInput("caption for source %q already stored for run %d", caption.Source, caption.RunID)
		}
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectCaptionsByRun retrieves the captions of a run in insertion order
func (h *CaptionsDBHandler) SelectCaptionsByRun(runRID uuid.UUID) ([]*model.StoredCaption, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_captions_by_run($1)`,
		runRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var captions []*model.StoredCaption
	for rows.Next() {
		caption := &model.StoredCaption{}
		err := scanCaption(rows, caption)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		captions = append(captions, caption)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return captions, nil
}

// SelectCaptionsBySimilarity performs a cosine similarity search over all stored captions.
// Only captions with a similarity of at least threshold are returned, most similar first.
func (h *CaptionsDBHandler) SelectCaptionsBySimilarity(embedding []float32, limit int, threshold float64) ([]*model.StoredCaption, error) {
	if len(embedding) != h.embeddingDim {
		return nil, helper.InvalidInput("embedding has %d dimensions, expected %d", len(embedding), h.embeddingDim)
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_captions_by_similarity($1, $2, $3)`,
		pgvector.NewVector(embedding),
		limit,
		threshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.StoredCaption
	for rows.Next() {
		caption := &model.StoredCaption{}
		var vector pgvector.Vector
		err := rows.Scan(
			&caption.ID,
			&caption.RunID,
			&caption.RunRID,
			&caption.Source,
			&caption.Text,
			&vector,
			&caption.ConsensusScore,
			&caption.CreatedAt,
			&caption.Similarity,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		caption.Embedding = vector.Slice()

		results = append(results, caption)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// DeleteCaption deletes a caption by ID
func (h *CaptionsDBHandler) DeleteCaption(id int64) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_caption($1)`,
		id,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

func scanCaption(row scanner, caption *model.StoredCaption) error {
	var vector pgvector.Vector
	err := row.Scan(
		&caption.ID,
		&caption.RunID,
		&caption.RunRID,
		&caption.Source,
		&caption.Text,
		&vector,
		&caption.ConsensusScore,
		&caption.CreatedAt,
	)
	if err != nil {
		return err
	}
	caption.Embedding = vector.Slice()
	return nil
}
