package database

import (
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/captioner/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunsNewRunsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewRunsDBHandler", func(t *testing.T) {
		runsDbHandler, err := NewRunsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewRunsDBHandler to not return an error")
		require.NotNil(t, runsDbHandler, "Expected NewRunsDBHandler to return a non-nil instance")
		require.NotNil(t, runsDbHandler.db, "Expected NewRunsDBHandler to have a non-nil database instance")
	})

	t.Run("Invalid call NewRunsDBHandler with nil database", func(t *testing.T) {
		_, err := NewRunsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating RunsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestRunsInsertAndSelect(t *testing.T) {
	database := initDB(t)

	runsDbHandler, err := NewRunsDBHandler(database, true)
	require.NoError(t, err, "Expected NewRunsDBHandler to not return an error")

	t.Run("Insert run with given RID", func(t *testing.T) {
		rid := uuid.New()
		run := &model.Run{
			RID:          rid,
			ImageName:    "dog.jpg",
			BestSource:   "BLIP Base",
			FinalCaption: "A brown dog runs across a grassy field.",
			Explanation:  "### What each vision model detected",
			Metadata:     model.Metadata{"captions": 3.0},
		}

		err := runsDbHandler.InsertRun(run)
		require.NoError(t, err, "Expected InsertRun to not return an error")
		assert.NotZero(t, run.ID, "Expected run ID to be set")
		assert.Equal(t, rid, run.RID, "Expected RID to be kept")
		assert.False(t, run.CreatedAt.IsZero(), "Expected CreatedAt to be set")

		selected, err := runsDbHandler.SelectRun(rid)
		require.NoError(t, err, "Expected SelectRun to not return an error")
		assert.Equal(t, run.ID, selected.ID)
		assert.Equal(t, "dog.jpg", selected.ImageName)
		assert.Equal(t, "BLIP Base", selected.BestSource)
		assert.Equal(t, "A brown dog runs across a grassy field.", selected.FinalCaption)
		assert.Equal(t, 3.0, selected.Metadata["captions"])
	})

	t.Run("Insert run without RID generates one", func(t *testing.T) {
		run := &model.Run{
			BestSource:   "GIT Base",
			FinalCaption: "A cat on a sofa.",
		}

		err := runsDbHandler.InsertRun(run)
		require.NoError(t, err)
		assert.NotEqual(t, uuid.Nil, run.RID, "Expected generated RID")
		assert.Empty(t, run.ImageName)
		assert.NotNil(t, run.Metadata)
	})

	t.Run("Insert nil run", func(t *testing.T) {
		err := runsDbHandler.InsertRun(nil)
		assert.Error(t, err)
	})

	t.Run("Select unknown run", func(t *testing.T) {
		_, err := runsDbHandler.SelectRun(uuid.New())
		assert.Error(t, err, "Expected error for unknown RID")
	})
}

func TestRunsSelectByImage(t *testing.T) {
	database := initDB(t)

	runsDbHandler, err := NewRunsDBHandler(database, true)
	require.NoError(t, err)

	imageName := "beach-" + uuid.NewString() + ".jpg"
	for _, caption := range []string{"first", "second"} {
		err := runsDbHandler.InsertRun(&model.Run{
			ImageName:    imageName,
			BestSource:   "BLIP Base",
			FinalCaption: caption,
		})
		require.NoError(t, err)
	}

	t.Run("Select runs of an image newest first", func(t *testing.T) {
		runs, err := runsDbHandler.SelectRunsByImage(imageName)
		require.NoError(t, err)
		require.Len(t, runs, 2)
		assert.Equal(t, "second", runs[0].FinalCaption)
		assert.Equal(t, "first", runs[1].FinalCaption)
	})

	t.Run("Select runs of unknown image", func(t *testing.T) {
		runs, err := runsDbHandler.SelectRunsByImage("unknown.jpg")
		require.NoError(t, err)
		assert.Empty(t, runs)
	})
}

func TestRunsDelete(t *testing.T) {
	database := initDB(t)

	runsDbHandler, err := NewRunsDBHandler(database, true)
	require.NoError(t, err)

	run := &model.Run{BestSource: "BLIP Base", FinalCaption: "to delete"}
	require.NoError(t, runsDbHandler.InsertRun(run))

	t.Run("Delete existing run", func(t *testing.T) {
		err := runsDbHandler.DeleteRun(run.RID)
		require.NoError(t, err)

		_, err = runsDbHandler.SelectRun(run.RID)
		assert.Error(t, err, "Expected deleted run to be gone")
	})

	t.Run("Delete unknown run is a no-op", func(t *testing.T) {
		assert.NoError(t, runsDbHandler.DeleteRun(uuid.New()))
	})
}
