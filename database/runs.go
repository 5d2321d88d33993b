package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/captioner/helper"
	"github.com/siherrmann/captioner/model"
	"github.com/siherrmann/captioner/sql"
)

// RunsDBHandlerFunctions defines the interface for Runs database operations.
type RunsDBHandlerFunctions interface {
	InsertRun(run *model.Run) error
	SelectRun(rid uuid.UUID) (*model.Run, error)
	SelectRunsByImage(imageName string) ([]*model.Run, error)
	DeleteRun(rid uuid.UUID) error
}

// RunsDBHandler handles run-related database operations
type RunsDBHandler struct {
	db *helper.Database
}

// NewRunsDBHandler creates a new runs database handler.
// It loads the run-related SQL functions and creates the runs table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewRunsDBHandler(db *helper.Database, force bool) (*RunsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	runsDbHandler := &RunsDBHandler{
		db: db,
	}

	err := sql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("init database", err)
	}

	err = sql.LoadRunsSql(runsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load runs sql", err)
	}

	err = runsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized RunsDBHandler")

	return runsDbHandler, nil
}

// CreateTable creates the 'runs' table and its indexes if they do not exist.
func (h *RunsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_runs();`)
	if err != nil {
		log.Panicf("error initializing runs table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table runs")

	return nil
}

// InsertRun inserts a new run. A nil RID gets a generated one.
func (h *RunsDBHandler) InsertRun(run *model.Run) error {
	if run == nil {
		return helper.InvalidInput("run is nil")
	}

	var rid interface{}
	if run.RID != uuid.Nil {
		rid = run.RID
	}

	metadata := run.Metadata
	if metadata == nil {
		metadata = model.Metadata{}
	}

	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_run($1, $2, $3, $4, $5, $6)`,
		rid,
		run.ImageName,
		run.BestSource,
		run.FinalCaption,
		run.Explanation,
		metadata,
	)

	err := scanRun(row, run)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectRun retrieves a run by RID
func (h *RunsDBHandler) SelectRun(rid uuid.UUID) (*model.Run, error) {
	run := &model.Run{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_run($1)`,
		rid,
	)

	err := scanRun(row, run)
	if err != nil {
		return nil, helper.NewError("scan", err)
	}

	return run, nil
}

// SelectRunsByImage retrieves all runs of an image, newest first
func (h *RunsDBHandler) SelectRunsByImage(imageName string) ([]*model.Run, error) {
	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_runs_by_image($1)`,
		imageName,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var runs []*model.Run
	for rows.Next() {
		run := &model.Run{}
		err := scanRun(rows, run)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		runs = append(runs, run)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return runs, nil
}

// DeleteRun deletes a run and its captions by RID
func (h *RunsDBHandler) DeleteRun(rid uuid.UUID) error {
	_, err := h.db.Instance.Exec(
		`SELECT delete_run($1)`,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanRun(row scanner, run *model.Run) error {
	return row.Scan(
		&run.ID,
		&run.RID,
		&run.ImageName,
		&run.BestSource,
		&run.FinalCaption,
		&run.Explanation,
		&run.Metadata,
		&run.CreatedAt,
	)
}
