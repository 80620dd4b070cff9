package arena

import "github.com/google/uuid"

// Fighter is one submitted script together with its running tally.
// Source is opaque to the arena: it is stored and handed back verbatim.
type Fighter struct {
	ID     uuid.UUID `json:"id"`
	Source string    `json:"source"`
	Wins   int       `json:"wins"`
	Losses int       `json:"losses"`
}

func NewFighter(source string) Fighter {
	return Fighter{Source: source}
}

func (f *Fighter) RecordWin() {
	f.Wins++
}

func (f *Fighter) RecordLoss() {
	f.Losses++
}

// Score is the value the leaderboard sorts by.
func (f Fighter) Score() int {
	return f.Wins - f.Losses
}
