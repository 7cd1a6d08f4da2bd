package entity

const (
	Rows      = 6
	Columns   = 7
	WinLength = 4
)

// Cell is a board coordinate, row 0 being the top.
type Cell struct {
	Row    int `json:"row"`
	Column int `json:"column"`
}

type direction struct {
	dRow, dCol int
}

// directions are checked in this order for every cell.
var directions = [...]direction{
	{0, 1},  // right
	{1, 0},  // down
	{1, 1},  // down-right
	{1, -1}, // down-left
}

// Board is a value type: assigning it copies every cell, so a copy is a snapshot.
type Board [Rows][Columns]Role

func IsValidColumn(column int) bool {
	return column >= 0 && column < Columns
}

func inBounds(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Columns
}

// DropRow returns the lowest empty row of the column.
func (that *Board) DropRow(column int) (int, bool) {
	if !IsValidColumn(column) {
		return 0, false
	}

	for row := Rows - 1; row >= 0; row-- {
		if that[row][column] == EmptyCell {
			return row, true
		}
	}

	return 0, false
}

func (that *Board) PieceColor(row, col int) TeamColor {
	return that[row][col].TeamColor()
}

// Winner scans the whole board row by row and returns the piece color of the
// first line of WinLength found. Roles count by piece color, so a spy's piece
// belongs to the opposing team.
func (that *Board) Winner() TeamColor {
	for row := range Rows {
		for col := range Columns {
			for _, dir := range directions {
				if team := that.lineColor(row, col, dir); team != NoTeam {
					return team
				}
			}
		}
	}

	return NoTeam
}

func (that *Board) lineColor(row, col int, dir direction) TeamColor {
	team := that.PieceColor(row, col)
	if team == NoTeam {
		return NoTeam
	}

	for step := 1; step < WinLength; step++ {
		r, c := row+dir.dRow*step, col+dir.dCol*step
		if !inBounds(r, c) {
			return NoTeam
		}

		if that.PieceColor(r, c) != team {
			return NoTeam
		}
	}

	return team
}

func (that *Board) Count() int {
	count := 0
	for _, row := range that {
		for _, cell := range row {
			if cell != EmptyCell {
				count++
			}
		}
	}

	return count
}

func (that *Board) IsFull() bool {
	return that.Count() == Rows*Columns
}
