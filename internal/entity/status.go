package entity

type Phase string

const (
	PhaseInProgress Phase = "in_progress"
	PhaseWon        Phase = "won"
	PhaseDraw       Phase = "draw"
)

type Status struct {
	Phase  Phase     `json:"phase"`
	Winner TeamColor `json:"winner,omitempty"`
}

func InProgress() Status {
	return Status{Phase: PhaseInProgress}
}

func Won(team TeamColor) Status {
	return Status{Phase: PhaseWon, Winner: team}
}

func Draw() Status {
	return Status{Phase: PhaseDraw}
}

func (that Status) IsInProgress() bool {
	return that.Phase == PhaseInProgress
}

func (that Status) IsWon() bool {
	return that.Phase == PhaseWon
}

func (that Status) IsDraw() bool {
	return that.Phase == PhaseDraw
}

// IsOver reports whether further moves are rejected.
func (that Status) IsOver() bool {
	return that.IsWon() || that.IsDraw()
}
