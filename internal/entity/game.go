package entity

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
)

var (
	ErrInvalidColumn = errors.New("invalid column index")
	ErrInvalidState  = errors.New("invalid game state")

	// DefaultTurnOrder is the seating order: each team's normal player is
	// followed by the other team's spy.
	DefaultTurnOrder = TurnOrder{RedNormal, YellowSabotage, YellowNormal, RedSabotage}
)

type TurnOrder [4]Role

// Role returns the role seated at index, wrapping around.
func (that TurnOrder) Role(index int) Role {
	n := len(that)
	return that[((index%n)+n)%n]
}

// MoveResult describes an accepted move.
type MoveResult struct {
	Cell   Cell   `json:"cell"`
	Role   Role   `json:"role"`
	Status Status `json:"status"`
}

// Game is the sabotage connect four engine. It is not safe for concurrent use;
// callers that share a Game serialize ApplyMove, Undo and Initialize.
type Game struct {
	board     Board
	order     TurnOrder
	turnIndex int
	status    Status
	history   []Board
}

func NewGame() *Game {
	game := &Game{order: DefaultTurnOrder}
	game.Initialize()

	return game
}

// Initialize empties the board and history and gives the turn to the first seat.
func (that *Game) Initialize() {
	if that.order == (TurnOrder{}) {
		that.order = DefaultTurnOrder
	}

	that.board = Board{}
	that.history = nil
	that.turnIndex = 0
	that.status = InProgress()
}

// ApplyMove drops the current role's piece into column. A rejected move
// changes nothing.
func (that *Game) ApplyMove(column int) (MoveResult, error) {
	if !IsValidColumn(column) {
		return MoveResult{}, fmt.Errorf("%w: column %d", ErrInvalidColumn, column)
	}

	if !that.status.IsInProgress() {
		return MoveResult{}, apperror.ErrMoveAfterGameOver
	}

	row, ok := that.board.DropRow(column)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: column %d", apperror.ErrColumnFull, column)
	}

	role := that.CurrentRole()

	that.history = append(that.history, that.board)
	that.board[row][column] = role

	switch winner := that.DetectWinner(); {
	case winner != NoTeam:
		// the winner's seat keeps the turn
		that.status = Won(winner)
	case that.board.IsFull():
		that.advanceTurn()
		that.status = Draw()
	default:
		that.advanceTurn()
	}

	return MoveResult{
		Cell:   Cell{Row: row, Column: column},
		Role:   role,
		Status: that.status,
	}, nil
}

// Undo restores the board from before the last accepted move and hands the turn
// back one seat. The status always returns to in progress, even when the
// restored board still holds a winning line.
func (that *Game) Undo() bool {
	if len(that.history) == 0 {
		return false
	}

	last := len(that.history) - 1
	that.board = that.history[last]
	that.history = that.history[:last]

	that.turnIndex = (that.turnIndex + len(that.order) - 1) % len(that.order)
	that.status = InProgress()

	return true
}

func (that *Game) DetectWinner() TeamColor {
	return that.board.Winner()
}

func (that *Game) advanceTurn() {
	that.turnIndex = (that.turnIndex + 1) % len(that.order)
}

func (that *Game) CanUndo() bool {
	return len(that.history) > 0
}

func (that *Game) HistoryLen() int {
	return len(that.history)
}

func (that *Game) CurrentRole() Role {
	return that.order.Role(that.turnIndex)
}

func (that *Game) TurnIndex() int {
	return that.turnIndex
}

func (that *Game) TurnOrder() TurnOrder {
	return that.order
}

func (that *Game) Status() Status {
	return that.status
}

// Board returns a copy of the grid.
func (that *Game) Board() Board {
	return that.board
}

// LastMove returns the cell written by the most recent accepted move.
func (that *Game) LastMove() (Cell, bool) {
	if len(that.history) == 0 {
		return Cell{}, false
	}

	previous := that.history[len(that.history)-1]
	for row := range Rows {
		for col := range Columns {
			if previous[row][col] != that.board[row][col] {
				return Cell{Row: row, Column: col}, true
			}
		}
	}

	return Cell{}, false
}

type gameState struct {
	Board     Board     `json:"board"`
	Order     TurnOrder `json:"turn_order"`
	TurnIndex int       `json:"turn_index"`
	Status    Status    `json:"status"`
	History   []Board   `json:"history"`
}

func (that *Game) MarshalJSON() ([]byte, error) {
	return json.Marshal(gameState{
		Board:     that.board,
		Order:     that.order,
		TurnIndex: that.turnIndex,
		Status:    that.status,
		History:   that.history,
	})
}

func (that *Game) UnmarshalJSON(data []byte) error {
	var state gameState
	if err := json.Unmarshal(data, &state); err != nil {
		return fmt.Errorf("could not unmarshal game: %w", err)
	}

	if err := state.validate(); err != nil {
		return err
	}

	that.board = state.Board
	that.order = state.Order
	that.turnIndex = state.TurnIndex
	that.status = state.Status
	that.history = state.History

	return nil
}

func (that *gameState) validate() error {
	if that.TurnIndex < 0 || that.TurnIndex >= len(that.Order) {
		return fmt.Errorf("%w: turn index %d", ErrInvalidState, that.TurnIndex)
	}

	for _, role := range that.Order {
		if !role.IsValid() {
			return fmt.Errorf("%w: turn order %v", ErrInvalidState, that.Order)
		}
	}

	switch that.Status.Phase {
	case PhaseInProgress, PhaseWon, PhaseDraw:
	default:
		return fmt.Errorf("%w: phase %q", ErrInvalidState, that.Status.Phase)
	}

	if that.Status.IsWon() != (that.Status.Winner != NoTeam) {
		return fmt.Errorf("%w: phase %q with winner %q", ErrInvalidState, that.Status.Phase, that.Status.Winner)
	}

	if err := validateBoard(&that.Board); err != nil {
		return err
	}

	for i := range that.History {
		if err := validateBoard(&that.History[i]); err != nil {
			return fmt.Errorf("history %d: %w", i, err)
		}
	}

	return nil
}

func validateBoard(board *Board) error {
	for row := range Rows {
		for col := range Columns {
			if role := board[row][col]; role != EmptyCell && !role.IsValid() {
				return fmt.Errorf("%w: cell (%d,%d) holds %d", ErrInvalidState, row, col, role)
			}
		}
	}

	return nil
}
