package entity

import "time"

// Table is one hot-seat game: all four roles share a single screen.
type Table struct {
	ID        string    `json:"id"`
	Game      *Game     `json:"game"`
	Revision  uint64    `json:"revision"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTable(id string, now time.Time) *Table {
	return &Table{
		ID:        id,
		Game:      NewGame(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch records a change: the revision grows by one on every accepted mutation.
func (that *Table) Touch(now time.Time) {
	that.Revision++
	that.UpdatedAt = now
}
