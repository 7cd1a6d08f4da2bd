package presenter

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
)

type Role struct {
	Key         string           `json:"key"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	RecruitedBy entity.TeamColor `json:"recruited_by"`
	PieceColor  entity.TeamColor `json:"piece_color"`
	Sabotage    bool             `json:"sabotage"`
	Glyph       string           `json:"glyph"`
}

// Table is what a screen needs to draw one table.
type Table struct {
	ID          string           `json:"id"`
	Revision    uint64           `json:"revision"`
	Board       [][]string       `json:"board"`
	Colors      [][]string       `json:"colors"`
	CurrentRole Role             `json:"current_role"`
	TurnIndex   int              `json:"turn_index"`
	TurnOrder   []string         `json:"turn_order"`
	Status      entity.Status    `json:"status"`
	Message     string           `json:"message,omitempty"`
	CanUndo     bool             `json:"can_undo"`
	Moves       int              `json:"moves"`
	LastMove    *entity.Cell     `json:"last_move,omitempty"`
	Winner      entity.TeamColor `json:"winner,omitempty"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func NewRole(role entity.Role) Role {
	info := role.Info()

	return Role{
		Key:         info.Key,
		Name:        info.Name,
		Description: info.Description(),
		RecruitedBy: info.RecruitedBy,
		PieceColor:  info.PieceColor,
		Sabotage:    info.Sabotage,
		Glyph:       info.Glyph(),
	}
}

func Roles() []Role {
	catalog := entity.Roles()

	roles := make([]Role, 0, len(catalog))
	for _, info := range catalog {
		roles = append(roles, NewRole(info.Role))
	}

	return roles
}

func NewTable(table *entity.Table) Table {
	game := table.Game
	board := game.Board()

	view := Table{
		ID:          table.ID,
		Revision:    table.Revision,
		Board:       make([][]string, entity.Rows),
		Colors:      make([][]string, entity.Rows),
		CurrentRole: NewRole(game.CurrentRole()),
		TurnIndex:   game.TurnIndex(),
		Status:      game.Status(),
		Message:     StatusMessage(game.Status()),
		CanUndo:     game.CanUndo(),
		Moves:       game.HistoryLen(),
		Winner:      game.Status().Winner,
		UpdatedAt:   table.UpdatedAt,
	}

	for row := range entity.Rows {
		view.Board[row] = make([]string, entity.Columns)
		view.Colors[row] = make([]string, entity.Columns)

		for col := range entity.Columns {
			role := board[row][col]
			if role == entity.EmptyCell {
				continue
			}

			view.Board[row][col] = role.String()
			view.Colors[row][col] = role.TeamColor().String()
		}
	}

	for _, role := range game.TurnOrder() {
		view.TurnOrder = append(view.TurnOrder, role.String())
	}

	if cell, ok := game.LastMove(); ok {
		view.LastMove = &cell
	}

	return view
}

// Move is an accepted move as shown to screens.
type Move struct {
	Cell   entity.Cell   `json:"cell"`
	Role   Role          `json:"role"`
	Status entity.Status `json:"status"`
}

func NewMove(result entity.MoveResult) Move {
	return Move{
		Cell:   result.Cell,
		Role:   NewRole(result.Role),
		Status: result.Status,
	}
}

// StatusMessage is the line shown to players when a game ends.
func StatusMessage(status entity.Status) string {
	switch {
	case status.IsWon():
		return fmt.Sprintf("%s Team Wins!", status.Winner)
	case status.IsDraw():
		return "It's a Tie!"
	default:
		return ""
	}
}
