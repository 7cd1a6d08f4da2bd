package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
	"github.com/rocketscienceinc/sabotage-connect4/internal/metrics"
)

type tableRepo interface {
	CreateOrUpdate(ctx context.Context, table *entity.Table) error
	GetByID(ctx context.Context, id string) (*entity.Table, error)
	Update(ctx context.Context, id string, fn func(table *entity.Table) error) (*entity.Table, error)
	DeleteByID(ctx context.Context, id string) error
}

type observer interface {
	ObserveMove(result string)
	ObserveUndo(applied bool)
	ObserveFinished(outcome string)
	ObserveTableCreated()
	ObserveTableClosed()
}

// publisher pushes table changes to whoever is watching the table.
type publisher interface {
	Publish(table *entity.Table)
	Close(tableID string)
}

type TableManager struct {
	logger    *slog.Logger
	tableRepo tableRepo
	observer  observer
	publisher publisher

	now   func() time.Time
	newID func() string
}

func NewTableManager(logger *slog.Logger, tableRepo tableRepo, observer observer, publisher publisher) *TableManager {
	return &TableManager{
		logger:    logger.With("component", "table_manager"),
		tableRepo: tableRepo,
		observer:  observer,
		publisher: publisher,

		now:   time.Now,
		newID: uuid.NewString,
	}
}

func (that *TableManager) NewTable(ctx context.Context) (*entity.Table, error) {
	table := entity.NewTable(that.newID(), that.now())

	if err := that.tableRepo.CreateOrUpdate(ctx, table); err != nil {
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	that.observer.ObserveTableCreated()
	that.logger.Info("table created", "tableID", table.ID)

	return table, nil
}

func (that *TableManager) GetTable(ctx context.Context, id string) (*entity.Table, error) {
	table, err := that.tableRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get table: %w", err)
	}

	return table, nil
}

// MakeMove drops the current role's piece into column on the given table.
func (that *TableManager) MakeMove(ctx context.Context, id string, column int) (*entity.Table, entity.MoveResult, error) {
	log := that.logger.With("method", "MakeMove", "tableID", id, "column", column)

	var result entity.MoveResult

	table, err := that.tableRepo.Update(ctx, id, func(table *entity.Table) error {
		var err error
		if result, err = table.Game.ApplyMove(column); err != nil {
			return err
		}

		table.Touch(that.now())

		return nil
	})

	that.observer.ObserveMove(moveResultLabel(err))

	if err != nil {
		log.Debug("move rejected", "error", err)
		return nil, entity.MoveResult{}, fmt.Errorf("failed to make move: %w", err)
	}

	log.Info("move applied", "role", result.Role.String(), "row", result.Cell.Row, "phase", result.Status.Phase)

	switch {
	case result.Status.IsWon():
		that.observer.ObserveFinished(result.Status.Winner.String())
		log.Info("game won", "team", result.Status.Winner.String())
	case result.Status.IsDraw():
		that.observer.ObserveFinished("draw")
		log.Info("game drawn")
	}

	that.publisher.Publish(table)

	return table, result, nil
}

// Undo takes back the last move. An empty history yields apperror.ErrNothingToUndo.
func (that *TableManager) Undo(ctx context.Context, id string) (*entity.Table, error) {
	table, err := that.tableRepo.Update(ctx, id, func(table *entity.Table) error {
		if !table.Game.Undo() {
			return apperror.ErrNothingToUndo
		}

		table.Touch(that.now())

		return nil
	})

	if errors.Is(err, apperror.ErrNothingToUndo) {
		that.observer.ObserveUndo(false)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to undo: %w", err)
	}

	that.observer.ObserveUndo(true)
	that.logger.Info("move undone", "tableID", id, "history", table.Game.HistoryLen())
	that.publisher.Publish(table)

	return table, nil
}

// ResetTable replaces the table's game with a freshly constructed one. The table
// id stays, so screens watching it keep their subscription.
func (that *TableManager) ResetTable(ctx context.Context, id string) (*entity.Table, error) {
	table, err := that.tableRepo.Update(ctx, id, func(table *entity.Table) error {
		table.Game = entity.NewGame()
		table.Touch(that.now())

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reset table: %w", err)
	}

	that.logger.Info("table reset", "tableID", id)
	that.publisher.Publish(table)

	return table, nil
}

func (that *TableManager) CloseTable(ctx context.Context, id string) error {
	if err := that.tableRepo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("failed to close table: %w", err)
	}

	that.observer.ObserveTableClosed()
	that.logger.Info("table closed", "tableID", id)
	that.publisher.Close(id)

	return nil
}

func moveResultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultAccepted
	case errors.Is(err, apperror.ErrColumnFull):
		return metrics.ResultColumnFull
	case errors.Is(err, entity.ErrInvalidColumn):
		return metrics.ResultInvalid
	case errors.Is(err, apperror.ErrMoveAfterGameOver):
		return metrics.ResultGameOver
	case errors.Is(err, apperror.ErrTableNotFound):
		return metrics.ResultNotFound
	default:
		return metrics.ResultInternalFail
	}
}
