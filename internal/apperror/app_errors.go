package apperror

import "errors"

var (
	ErrColumnFull        = errors.New("column is full")
	ErrMoveAfterGameOver = errors.New("game is already over")
	ErrNothingToUndo     = errors.New("no moves to undo")
	ErrTableNotFound     = errors.New("table not found")
	ErrTableConflict     = errors.New("table was modified concurrently")
)
