package terminal

import "github.com/rocketscienceinc/sabotage-connect4/internal/entity"

const (
	ansiRed     = "\033[91m"
	ansiGreen   = "\033[92m"
	ansiYellow  = "\033[93m"
	ansiBlue    = "\033[94m"
	ansiMagenta = "\033[95m"
	ansiReset   = "\033[0m"

	clearScreen = "\033[H\033[2J"
)

// palette paints text. The zero value prints plain text.
type palette struct {
	enabled bool
}

func (that palette) paint(text, color string) string {
	if !that.enabled || color == "" {
		return text
	}

	return color + text + ansiReset
}

func (that palette) team(text string, team entity.TeamColor) string {
	switch team {
	case entity.Red:
		return that.paint(text, ansiRed)
	case entity.Yellow:
		return that.paint(text, ansiYellow)
	default:
		return that.paint(text, ansiBlue)
	}
}
