// Package terminal plays one hot-seat game on a text console.
package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rocketscienceinc/sabotage-connect4/internal/apperror"
	"github.com/rocketscienceinc/sabotage-connect4/internal/entity"
)

const (
	inputUndo = "UNDO"
	inputQuit = "QUIT"

	prompt      = "Enter column number, UNDO, or QUIT: "
	farewell    = "Thanks for playing Sabotage Connect 4!"
	tieMessage  = "It's a Tie!"
	noUndoError = "No moves to undo!"
	fullError   = "That column is full!"
)

var columnError = fmt.Sprintf("Column must be between 0 and %d!", entity.Columns-1)

type Session struct {
	logger  *slog.Logger
	in      *bufio.Scanner
	out     io.Writer
	game    *entity.Game
	palette palette
	notice  string
}

type Option func(*Session)

// WithColor turns ANSI colors and screen clearing on or off.
func WithColor(enabled bool) Option {
	return func(that *Session) {
		that.palette.enabled = enabled
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(that *Session) {
		that.logger = logger.With("component", "terminal")
	}
}

func NewSession(in io.Reader, out io.Writer, opts ...Option) *Session {
	that := &Session{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		in:     bufio.NewScanner(in),
		out:    out,
		game:   entity.NewGame(),
	}

	for _, opt := range opts {
		opt(that)
	}

	return that
}

// Game exposes the session's game for inspection after Run.
func (that *Session) Game() *entity.Game {
	return that.game
}

// Run loops until the game ends, the player quits or input runs out.
func (that *Session) Run() error {
	for {
		that.drawScreen()

		if that.printOutcome() {
			return nil
		}

		if that.notice != "" {
			that.println(that.palette.paint(that.notice, ansiMagenta))
			that.notice = ""
		}

		that.println("Current player is " + that.describe(that.game.CurrentRole()))
		that.print(prompt)

		if !that.in.Scan() {
			if err := that.in.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			that.println("")
			that.println(that.palette.paint(farewell, ansiBlue))

			return nil
		}

		input := strings.ToUpper(strings.TrimSpace(that.in.Text()))

		switch input {
		case inputQuit:
			that.println(that.palette.paint(farewell, ansiBlue))
			return nil
		case inputUndo:
			if !that.game.Undo() {
				that.notice = noUndoError
			}
		default:
			if err := that.drop(input); err != nil {
				return err
			}
		}
	}
}

func (that *Session) drop(input string) error {
	column, ok := parseColumn(input)
	if !ok {
		that.notice = columnError
		return nil
	}

	result, err := that.game.ApplyMove(column)

	switch {
	case errors.Is(err, apperror.ErrColumnFull):
		that.notice = fullError
		return nil
	case err != nil:
		return fmt.Errorf("failed to apply move: %w", err)
	}

	that.logger.Debug("move applied", "column", column, "row", result.Cell.Row, "role", result.Role.String())

	return nil
}

// parseColumn accepts exactly one digit naming a board column.
func parseColumn(input string) (int, bool) {
	if len(input) != 1 || input[0] < '0' || input[0] > '9' {
		return 0, false
	}

	column := int(input[0] - '0')

	return column, entity.IsValidColumn(column)
}

func (that *Session) printOutcome() bool {
	status := that.game.Status()

	switch {
	case status.IsWon():
		that.println(that.palette.team(status.Winner.String()+" Team Wins!", status.Winner))
	case status.IsDraw():
		that.println(that.palette.paint(tieMessage, ansiGreen))
	default:
		return false
	}

	return true
}

func (that *Session) drawScreen() {
	if that.palette.enabled {
		that.print(clearScreen)
	}

	board := that.game.Board()

	var sb strings.Builder

	for row := range entity.Rows {
		for col := range entity.Columns {
			info := board[row][col].Info()
			sb.WriteString(that.palette.team(info.Glyph(), info.PieceColor))
			sb.WriteByte(' ')
		}

		sb.WriteByte('\n')
	}

	for col := range entity.Columns {
		sb.WriteString(that.palette.paint(fmt.Sprint(col), ansiGreen))
		sb.WriteByte(' ')
	}

	sb.WriteString("\n\n")

	that.print(sb.String())
}

// describe colors the role's name by the team that recruited it and the piece
// clause by the color it places.
func (that *Session) describe(role entity.Role) string {
	info := role.Info()

	return that.palette.team(info.Name, info.RecruitedBy) +
		that.palette.team(fmt.Sprintf(", Has %s Pieces", info.PieceColor), info.PieceColor)
}

func (that *Session) print(text string) {
	if _, err := io.WriteString(that.out, text); err != nil {
		that.logger.Warn("failed to write output", "error", err)
	}
}

func (that *Session) println(text string) {
	that.print(text + "\n")
}
