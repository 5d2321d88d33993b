package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed runs.sql
var runsSQL string

//go:embed captions.sql
var captionsSQL string

// Function lists for verification
var RunsFunctions = []string{
	"init_runs",
	"insert_run",
	"select_run",
	"select_runs_by_image",
	"delete_run",
}

var CaptionsFunctions = []string{
	"init_captions",
	"insert_caption",
	"select_captions_by_run",
	"select_captions_by_similarity",
	"delete_caption",
}

// Init intializes db extensions
func Init(db *sql.DB) error {
	_, err := db.Exec(initSQL)
	if err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadRunsSql loads run-related SQL functions
func LoadRunsSql(db *sql.DB, force bool) error {
	return loadSql(db, "runs", runsSQL, RunsFunctions, force)
}

// LoadCaptionsSql loads caption-related SQL functions
func LoadCaptionsSql(db *sql.DB, force bool) error {
	return loadSql(db, "captions", captionsSQL, CaptionsFunctions, force)
}

// LoadAllSql loads all SQL functions
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadRunsSql(db, force); err != nil {
		return err
	}

	if err := LoadCaptionsSql(db, force); err != nil {
		return err
	}

	return nil
}

// loadSql executes a function file unless all its functions already exist
func loadSql(db *sql.DB, name string, content string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	_, err := db.Exec(content)
	if err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions verifies that all required functions exist in the database
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	allExist := true
	for _, f := range sqlFunctions {
		err := db.QueryRow(
			`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`,
			f,
		).Scan(&allExist)
		if err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", f, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", f)
			break
		}
	}
	return allExist, nil
}
