package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
)

// runTableRepositoryTests checks the behavior shared by every TableRepository.
func runTableRepositoryTests(t *testing.T, ctx context.Context, newRepo func() TableRepository) {
	t.Helper()

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

	t.Run("CreateOrUpdate_GetByID", func(t *testing.T) {
		repo := newRepo()

		// Given: a table with one move played
		table := entity.NewTable("t-1", now)
		_, err := table.Game.ApplyMove(3)
		require.NoError(t, err)

		// When: storing and reading it back
		require.NoError(t, repo.CreateOrUpdate(ctx, table))
		stored, err := repo.GetByID(ctx, table.ID)

		// Then: the whole game state survives
		require.NoError(t, err)
		assert.Equal(t, table.ID, stored.ID)
		assert.Equal(t, table.Game, stored.Game)
		assert.True(t, stored.CreatedAt.Equal(now))
	})

	t.Run("GetByID_NotFound", func(t *testing.T) {
		repo := newRepo()

		table, err := repo.GetByID(ctx, "9999999")

		require.ErrorIs(t, err, apperror.ErrTableNotFound)
		assert.Nil(t, table)
	})

	t.Run("Update_Success", func(t *testing.T) {
		repo := newRepo()
		require.NoError(t, repo.CreateOrUpdate(ctx, entity.NewTable("t-2", now)))

		// When: applying a move inside Update
		updated, err := repo.Update(ctx, "t-2", func(table *entity.Table) error {
			_, err := table.Game.ApplyMove(0)
			return err
		})

		// Then: the returned and the stored table both hold the move
		require.NoError(t, err)
		assert.Equal(t, 1, updated.Game.HistoryLen())

		stored, err := repo.GetByID(ctx, "t-2")
		require.NoError(t, err)
		assert.Equal(t, entity.RedNormal, stored.Game.Board()[5][0])
	})

	t.Run("Update_ErrorDiscardsChanges", func(t *testing.T) {
		repo := newRepo()
		require.NoError(t, repo.CreateOrUpdate(ctx, entity.NewTable("t-3", now)))

		// When: the update function mutates the table and then fails
		_, err := repo.Update(ctx, "t-3", func(table *entity.Table) error {
			_, _ = table.Game.ApplyMove(0)
			_, err := table.Game.ApplyMove(-1)
			return err
		})

		// Then: the error is returned untouched and nothing is stored
		require.ErrorIs(t, err, entity.ErrInvalidColumn)

		stored, err := repo.GetByID(ctx, "t-3")
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Game.HistoryLen())
	})

	t.Run("Update_NotFound", func(t *testing.T) {
		repo := newRepo()

		_, err := repo.Update(ctx, "missing", func(*entity.Table) error { return nil })

		require.ErrorIs(t, err, apperror.ErrTableNotFound)
	})

	t.Run("Update_SerializesConcurrentMoves", func(t *testing.T) {
		repo := newRepo()
		require.NoError(t, repo.CreateOrUpdate(ctx, entity.NewTable("t-4", now)))

		// When: several goroutines drop into different columns at once
		var wg sync.WaitGroup
		for column := range entity.Columns {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := repo.Update(ctx, "t-4", func(table *entity.Table) error {
					_, err := table.Game.ApplyMove(column)
					return err
				})
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		// Then: no move was lost
		stored, err := repo.GetByID(ctx, "t-4")
		require.NoError(t, err)
		board := stored.Game.Board()
		assert.Equal(t, entity.Columns, board.Count())
		assert.Equal(t, entity.Columns, stored.Game.HistoryLen())
	})

	t.Run("DeleteByID_Success", func(t *testing.T) {
		repo := newRepo()
		require.NoError(t, repo.CreateOrUpdate(ctx, entity.NewTable("t-5", now)))

		// When: deleting an existing table
		err := repo.DeleteByID(ctx, "t-5")

		// Then: it is gone
		require.NoError(t, err)
		_, err = repo.GetByID(ctx, "t-5")
		require.ErrorIs(t, err, apperror.ErrTableNotFound)
	})

	t.Run("DeleteByID_NotFound", func(t *testing.T) {
		repo := newRepo()

		err := repo.DeleteByID(ctx, "9999999")

		require.ErrorIs(t, err, apperror.ErrTableNotFound)
	})
}
