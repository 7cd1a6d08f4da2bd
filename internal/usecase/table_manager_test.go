package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
	"github.com/rocketscienceinc/sabotage-connect4/internal/metrics"
	"github.com/rocketscienceinc/sabotage-connect4/internal/repository"
)

var errRedisDown = errors.New("redis down")

type mockPublisher struct {
	mock.Mock
}

func (that *mockPublisher) Publish(table *entity.Table) {
	that.Called(table)
}

func (that *mockPublisher) Close(tableID string) {
	that.Called(tableID)
}

type mockTableRepo struct {
	mock.Mock
}

func (that *mockTableRepo) CreateOrUpdate(ctx context.Context, table *entity.Table) error {
	args := that.Called(ctx, table)
	return args.Error(0)
}

func (that *mockTableRepo) GetByID(ctx context.Context, id string) (*entity.Table, error) {
	args := that.Called(ctx, id)
	table, _ := args.Get(0).(*entity.Table)
	return table, args.Error(1)
}

func (that *mockTableRepo) Update(ctx context.Context, id string, fn func(*entity.Table) error) (*entity.Table, error) {
	args := that.Called(ctx, id, fn)
	table, _ := args.Get(0).(*entity.Table)
	return table, args.Error(1)
}

func (that *mockTableRepo) DeleteByID(ctx context.Context, id string) error {
	args := that.Called(ctx, id)
	return args.Error(0)
}

type fixture struct {
	manager   *TableManager
	metrics   *metrics.Metrics
	publisher *mockPublisher
}

func newFixture(t *testing.T, repo tableRepo) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	m := metrics.New("test")
	publisher := &mockPublisher{}
	publisher.On("Publish", mock.Anything).Maybe()
	publisher.On("Close", mock.Anything).Maybe()

	manager := NewTableManager(logger, repo, m, publisher)

	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	manager.now = func() time.Time { return now }

	next := 0
	manager.newID = func() string {
		next++
		return fmt.Sprintf("table-%d", next)
	}

	return &fixture{manager: manager, metrics: m, publisher: publisher}
}

func newMemoryFixture(t *testing.T) *fixture {
	t.Helper()

	return newFixture(t, repository.NewMemoryTableRepository(time.Hour))
}

func TestTableManager_NewTable(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates an empty table", func(t *testing.T) {
		// Given: a table manager
		f := newMemoryFixture(t)

		// When: opening a table
		table, err := f.manager.NewTable(ctx)

		// Then: it is stored with a fresh game
		require.NoError(t, err)
		assert.Equal(t, "table-1", table.ID)
		assert.Equal(t, entity.NewGame(), table.Game)

		stored, err := f.manager.GetTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, table.ID, stored.ID)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.TablesCreated), 0)
	})

	t.Run("Returns error if the repository fails", func(t *testing.T) {
		// Given: a repository that cannot store tables
		repo := &mockTableRepo{}
		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Table")).
			Return(errRedisDown).
			Once()
		f := newFixture(t, repo)

		// When: opening a table
		table, err := f.manager.NewTable(ctx)

		// Then: the error is returned and nothing is counted
		require.ErrorIs(t, err, errRedisDown)
		assert.Nil(t, table)
		assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.TablesCreated), 0)
		repo.AssertExpectations(t)
	})
}

func TestTableManager_MakeMove(t *testing.T) {
	ctx := context.Background()

	t.Run("Applies the move and publishes the table", func(t *testing.T) {
		// Given: an open table
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)

		// When: dropping into column 4
		updated, result, err := f.manager.MakeMove(ctx, table.ID, 4)

		// Then: the move is stored and pushed to subscribers
		require.NoError(t, err)
		assert.Equal(t, entity.Cell{Row: 5, Column: 4}, result.Cell)
		assert.Equal(t, entity.RedNormal, result.Role)
		assert.Equal(t, entity.YellowSabotage, updated.Game.CurrentRole())

		stored, err := f.manager.GetTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.Game.HistoryLen())

		f.publisher.AssertCalled(t, "Publish", mock.MatchedBy(func(published *entity.Table) bool {
			return published.ID == table.ID && published.Game.HistoryLen() == 1
		}))
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Moves.WithLabelValues(metrics.ResultAccepted)), 0)
	})

	t.Run("Rejects a full column without storing anything", func(t *testing.T) {
		// Given: a table whose column 0 is full
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)
		for range entity.Rows {
			_, _, err = f.manager.MakeMove(ctx, table.ID, 0)
			require.NoError(t, err)
		}

		// When: dropping into column 0 again
		_, _, err = f.manager.MakeMove(ctx, table.ID, 0)

		// Then: ErrColumnFull is returned and the history is unchanged
		require.ErrorIs(t, err, apperror.ErrColumnFull)

		stored, err := f.manager.GetTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.Rows, stored.Game.HistoryLen())
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Moves.WithLabelValues(metrics.ResultColumnFull)), 0)
	})

	t.Run("Counts a won game and rejects later moves", func(t *testing.T) {
		// Given: a table one move away from a vertical Red line
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)
		for _, column := range []int{0, 0, 1, 2, 0} {
			_, _, err = f.manager.MakeMove(ctx, table.ID, column)
			require.NoError(t, err)
		}

		// When: YellowSabotage completes the line
		_, result, err := f.manager.MakeMove(ctx, table.ID, 0)

		// Then: Red wins
		require.NoError(t, err)
		assert.Equal(t, entity.Won(entity.Red), result.Status)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.GamesFinished.WithLabelValues("Red")), 0)

		// And: the next move is rejected
		_, _, err = f.manager.MakeMove(ctx, table.ID, 3)
		require.ErrorIs(t, err, apperror.ErrMoveAfterGameOver)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Moves.WithLabelValues(metrics.ResultGameOver)), 0)
	})

	t.Run("Invalid column", func(t *testing.T) {
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)

		_, _, err = f.manager.MakeMove(ctx, table.ID, 9)

		require.ErrorIs(t, err, entity.ErrInvalidColumn)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Moves.WithLabelValues(metrics.ResultInvalid)), 0)
		f.publisher.AssertNotCalled(t, "Publish", mock.Anything)
	})

	t.Run("Unknown table", func(t *testing.T) {
		f := newMemoryFixture(t)

		_, _, err := f.manager.MakeMove(ctx, "missing", 0)

		require.ErrorIs(t, err, apperror.ErrTableNotFound)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Moves.WithLabelValues(metrics.ResultNotFound)), 0)
		assert.InDelta(t, 0, testutil.ToFloat64(f.metrics.Moves.WithLabelValues(metrics.ResultInternalFail)), 0)
	})

	t.Run("Repository failure is wrapped", func(t *testing.T) {
		// Given: a repository that fails on update
		repo := &mockTableRepo{}
		repo.On("Update", mock.Anything, "t-1", mock.Anything).
			Return(nil, errRedisDown).
			Once()
		f := newFixture(t, repo)

		// When: making a move
		_, _, err := f.manager.MakeMove(ctx, "t-1", 0)

		// Then: the error is returned and counted as an internal failure
		require.ErrorIs(t, err, errRedisDown)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Moves.WithLabelValues(metrics.ResultInternalFail)), 0)
		repo.AssertExpectations(t)
	})
}

func TestTableManager_Undo(t *testing.T) {
	ctx := context.Background()

	t.Run("Takes back the last move", func(t *testing.T) {
		// Given: a table with two moves
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)
		_, _, err = f.manager.MakeMove(ctx, table.ID, 2)
		require.NoError(t, err)
		_, _, err = f.manager.MakeMove(ctx, table.ID, 3)
		require.NoError(t, err)

		// When: undoing
		updated, err := f.manager.Undo(ctx, table.ID)

		// Then: only the first move is left and YellowSabotage moves again
		require.NoError(t, err)
		board := updated.Game.Board()
		assert.Equal(t, 1, board.Count())
		assert.Equal(t, entity.YellowSabotage, updated.Game.CurrentRole())
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Undos.WithLabelValues("true")), 0)
	})

	t.Run("Nothing to undo", func(t *testing.T) {
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)

		_, err = f.manager.Undo(ctx, table.ID)

		require.ErrorIs(t, err, apperror.ErrNothingToUndo)
		assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Undos.WithLabelValues("false")), 0)
	})
}

func TestTableManager_ResetTable(t *testing.T) {
	ctx := context.Background()

	// Given: a won table
	f := newMemoryFixture(t)
	table, err := f.manager.NewTable(ctx)
	require.NoError(t, err)
	for _, column := range []int{0, 0, 1, 2, 0, 0} {
		_, _, err = f.manager.MakeMove(ctx, table.ID, column)
		require.NoError(t, err)
	}

	// When: starting a new game on the same table
	reset, err := f.manager.ResetTable(ctx, table.ID)

	// Then: the table keeps its id with a brand new game
	require.NoError(t, err)
	assert.Equal(t, table.ID, reset.ID)
	assert.Equal(t, entity.NewGame(), reset.Game)
}

func TestTableManager_CloseTable(t *testing.T) {
	ctx := context.Background()

	t.Run("Deletes the table and closes subscriptions", func(t *testing.T) {
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)

		err = f.manager.CloseTable(ctx, table.ID)

		require.NoError(t, err)
		f.publisher.AssertCalled(t, "Close", table.ID)

		_, err = f.manager.GetTable(ctx, table.ID)
		require.ErrorIs(t, err, apperror.ErrTableNotFound)
	})

	t.Run("Unknown table", func(t *testing.T) {
		f := newMemoryFixture(t)

		err := f.manager.CloseTable(ctx, "missing")

		require.ErrorIs(t, err, apperror.ErrTableNotFound)
		f.publisher.AssertNotCalled(t, "Close", mock.Anything)
	})
}

type recordingPublisher struct {
	mu        sync.Mutex
	revisions []uint64
}

func (that *recordingPublisher) Publish(table *entity.Table) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.revisions = append(that.revisions, table.Revision)
}

func (that *recordingPublisher) Close(string) {}

func TestTableManager_Revisions(t *testing.T) {
	ctx := context.Background()

	t.Run("Every change bumps the revision", func(t *testing.T) {
		f := newMemoryFixture(t)
		table, err := f.manager.NewTable(ctx)
		require.NoError(t, err)
		assert.Zero(t, table.Revision)

		moved, _, err := f.manager.MakeMove(ctx, table.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, uint64(1), moved.Revision)

		undone, err := f.manager.Undo(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), undone.Revision)

		reset, err := f.manager.ResetTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), reset.Revision)

		// And: rejected changes leave it alone
		_, err = f.manager.Undo(ctx, table.ID)
		require.ErrorIs(t, err, apperror.ErrNothingToUndo)

		stored, err := f.manager.GetTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(3), stored.Revision)
	})

	t.Run("Concurrent moves publish distinct revisions", func(t *testing.T) {
		// Given: a table and a publisher that records what it is given
		logger := slog.New(slog.NewTextHandler(io.Discard, nil))
		publisher := &recordingPublisher{}
		manager := NewTableManager(logger, repository.NewMemoryTableRepository(time.Hour), metrics.New("test"), publisher)

		table, err := manager.NewTable(ctx)
		require.NoError(t, err)

		// When: seven moves that cannot form a line arrive at once
		columns := []int{0, 0, 0, 1, 1, 1, 3}

		var wg sync.WaitGroup
		for _, column := range columns {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, _, moveErr := manager.MakeMove(ctx, table.ID, column)
				assert.NoError(t, moveErr)
			}()
		}
		wg.Wait()

		// Then: each change was published once with its own revision
		stored, err := manager.GetTable(ctx, table.ID)
		require.NoError(t, err)
		assert.Equal(t, uint64(len(columns)), stored.Revision)
		assert.Equal(t, len(columns), stored.Game.HistoryLen())
		assert.ElementsMatch(t, []uint64{1, 2, 3, 4, 5, 6, 7}, publisher.revisions)
	})
}
