package entity

import (
	"errors"
	"fmt"
	"strings"
)

type TeamColor uint8

const (
	NoTeam TeamColor = iota
	Red
	Yellow
)

var ErrUnknownTeam = errors.New("unknown team color")

func (that TeamColor) String() string {
	switch that {
	case Red:
		return "Red"
	case Yellow:
		return "Yellow"
	default:
		return ""
	}
}

// Opponent returns the other team. NoTeam has no opponent.
func (that TeamColor) Opponent() TeamColor {
	switch that {
	case Red:
		return Yellow
	case Yellow:
		return Red
	default:
		return NoTeam
	}
}

func (that TeamColor) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(that.String())), nil
}

func (that *TeamColor) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "red":
		*that = Red
	case "yellow":
		*that = Yellow
	case "":
		*that = NoTeam
	default:
		return fmt.Errorf("%w: %q", ErrUnknownTeam, text)
	}

	return nil
}

// Role identifies who placed a piece. The zero value marks an empty cell.
type Role uint8

const (
	NoRole Role = iota
	RedNormal
	YellowNormal
	RedSabotage
	YellowSabotage
)

const EmptyCell = NoRole

const (
	GlyphNormal   = "●"
	GlyphSabotage = "◎"
	GlyphEmpty    = "○"
)

type RoleInfo struct {
	Role        Role
	Name        string
	Key         string
	RecruitedBy TeamColor
	PieceColor  TeamColor
	Sabotage    bool
}

// Glyph is the symbol drawn for a piece of this role.
func (that RoleInfo) Glyph() string {
	switch {
	case that.Role == NoRole:
		return GlyphEmpty
	case that.Sabotage:
		return GlyphSabotage
	default:
		return GlyphNormal
	}
}

// Description tells which side recruited the player and whose pieces they place,
// e.g. "Red Spy, Has Yellow Pieces".
func (that RoleInfo) Description() string {
	if that.Role == NoRole {
		return "Empty Space"
	}

	return fmt.Sprintf("%s, Has %s Pieces", that.Name, that.PieceColor)
}

// roleCatalog is indexed by Role. Piece colors are fixed here and nowhere else.
var roleCatalog = [...]RoleInfo{
	NoRole: {Role: NoRole, Name: "Empty Space", Key: "empty"},
	RedNormal: {
		Role: RedNormal, Name: "Red Normal", Key: "red_normal",
		RecruitedBy: Red, PieceColor: Red,
	},
	YellowNormal: {
		Role: YellowNormal, Name: "Yellow Normal", Key: "yellow_normal",
		RecruitedBy: Yellow, PieceColor: Yellow,
	},
	RedSabotage: {
		Role: RedSabotage, Name: "Red Spy", Key: "red_sabotage",
		RecruitedBy: Red, PieceColor: Yellow, Sabotage: true,
	},
	YellowSabotage: {
		Role: YellowSabotage, Name: "Yellow Spy", Key: "yellow_sabotage",
		RecruitedBy: Yellow, PieceColor: Red, Sabotage: true,
	},
}

// Roles lists the four playing roles in catalog order.
func Roles() []RoleInfo {
	return []RoleInfo{
		roleCatalog[RedNormal],
		roleCatalog[YellowNormal],
		roleCatalog[RedSabotage],
		roleCatalog[YellowSabotage],
	}
}

func (that Role) Info() RoleInfo {
	if int(that) >= len(roleCatalog) {
		return roleCatalog[NoRole]
	}

	return roleCatalog[that]
}

func (that Role) IsValid() bool {
	return that > NoRole && int(that) < len(roleCatalog)
}

// TeamColor is the color of the pieces this role places.
func (that Role) TeamColor() TeamColor {
	return that.Info().PieceColor
}

func (that Role) String() string {
	return that.Info().Key
}

func Describe(role Role) string {
	return role.Info().Description()
}
