package arena

import (
	"fmt"

	"github.com/google/uuid"
)

// MaxFighters is the largest battle Matchmake assembles, initiator included.
const MaxFighters = 32

// Matchmake picks up to MaxFighters-1 opponents for id, uniformly at random
// and without replacement, from every other registered fighter. The
// initiator is always the first element of the result.
func (r *Registry) Matchmake(id uuid.UUID) ([]Fighter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	initiator, ok := r.fighters[id]
	if !ok {
		return nil, fmt.Errorf("matchmake %s: %w", id, ErrFighterNotFound)
	}

	candidates := make([]*Fighter, 0, len(r.fighters)-1)
	for fid, f := range r.fighters {
		if fid != id {
			candidates = append(candidates, f)
		}
	}

	k := min(len(candidates), MaxFighters-1)

	out := make([]Fighter, 0, k+1)
	out = append(out, *initiator)

	// partial Fisher-Yates: after step i the prefix [0, i] holds the draws
	for i := 0; i < k; i++ {
		j := i + r.rng.IntN(len(candidates)-i)
		candidates[i], candidates[j] = candidates[j], candidates[i]
		out = append(out, *candidates[i])
	}

	return out, nil
}

// Match is what a battle client receives: its own script plus the
// opponents' scripts in draw order.
type Match struct {
	Creator string   `json:"creator"`
	Others  []string `json:"others"`
}

// NewMatch builds a Match from a Matchmake result.
func NewMatch(fighters []Fighter) Match {
	m := Match{Others: make([]string, 0, max(len(fighters)-1, 0))}
	if len(fighters) == 0 {
		return m
	}
	m.Creator = fighters[0].Source
	for _, f := range fighters[1:] {
		m.Others = append(m.Others, f.Source)
	}
	return m
}

// OpponentIDs lists the identifiers of everyone but the initiator.
func OpponentIDs(fighters []Fighter) []string {
	if len(fighters) < 2 {
		return nil
	}
	ids := make([]string, 0, len(fighters)-1)
	for _, f := range fighters[1:] {
		ids = append(ids, f.ID.String())
	}
	return ids
}
