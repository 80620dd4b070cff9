package arena

import (
	crand "crypto/rand"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/google/uuid"
)

var ErrFighterNotFound = errors.New("fighter not found")

// Registry owns every registered fighter.
//
// All methods take the same mutex for their whole duration, including the
// scan in Matchmake; lookups queue behind writers like everything else.
// Values handed out are copies, never pointers into the map.
type Registry struct {
	mu       sync.Mutex
	fighters map[uuid.UUID]*Fighter
	rng      *rand.Rand // only touched under mu
}

type Option func(*Registry)

// WithRand replaces the sampling source, mostly for tests.
func WithRand(rng *rand.Rand) Option {
	return func(r *Registry) {
		if rng != nil {
			r.rng = rng
		}
	}
}

func NewRegistry(opts ...Option) *Registry {
	r := &Registry{
		fighters: make(map[uuid.UUID]*Fighter),
		rng:      newRand(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newRand() *rand.Rand {
	var seed [16]byte
	_, _ = crand.Read(seed[:])
	return rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(seed[:8]),
		binary.LittleEndian.Uint64(seed[8:]),
	))
}

// Register stores f under a freshly generated identifier and returns it.
func (r *Registry) Register(f Fighter) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.registerLocked(f)
}

func (r *Registry) registerLocked(f Fighter) uuid.UUID {
	// v4 collisions are not checked for.
	id := uuid.New()
	f.ID = id
	r.fighters[id] = &f
	return id
}

// Update overwrites the fighter stored under id with f, tallies included.
// An unknown id is not an error: f is registered as a new fighter and the
// new identifier is returned instead.
func (r *Registry) Update(f Fighter, id uuid.UUID) uuid.UUID {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.fighters[id]
	if !ok {
		return r.registerLocked(f)
	}
	f.ID = id
	*existing = f
	return id
}

// Source returns the script stored for id.
func (r *Registry) Source(id uuid.UUID) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fighters[id]
	if !ok {
		return "", false
	}
	return f.Source, true
}

// RecordWin bumps the win counter of id. Unknown ids are ignored; the bool
// reports whether anything changed and the Fighter is the updated copy.
func (r *Registry) RecordWin(id uuid.UUID) (Fighter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fighters[id]
	if !ok {
		return Fighter{}, false
	}
	f.RecordWin()
	return *f, true
}

// RecordLoss is the mirror of RecordWin.
func (r *Registry) RecordLoss(id uuid.UUID) (Fighter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fighters[id]
	if !ok {
		return Fighter{}, false
	}
	f.RecordLoss()
	return *f, true
}

// Stats returns a copy of the fighter stored under id.
func (r *Registry) Stats(id uuid.UUID) (Fighter, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	f, ok := r.fighters[id]
	if !ok {
		return Fighter{}, false
	}
	return *f, true
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fighters)
}

// Ranking is one leaderboard row.
type Ranking struct {
	Name   string `json:"name"`
	Score  int    `json:"score"`
	Wins   int    `json:"wins"`
	Losses int    `json:"losses"`
}

// Rankings orders fighters by score (wins minus losses), then wins, then id.
// limit <= 0 returns everyone.
func (r *Registry) Rankings(limit int) []Ranking {
	r.mu.Lock()
	all := make([]Fighter, 0, len(r.fighters))
	for _, f := range r.fighters {
		all = append(all, *f)
	}
	r.mu.Unlock()

	sort.Slice(all, func(i, j int) bool {
		a, b := all[i], all[j]
		if a.Score() != b.Score() {
			return a.Score() > b.Score()
		}
		if a.Wins != b.Wins {
			return a.Wins > b.Wins
		}
		return a.ID.String() < b.ID.String()
	})

	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}

	out := make([]Ranking, 0, len(all))
	for _, f := range all {
		out = append(out, Ranking{
			Name:   f.ID.String(),
			Score:  f.Score(),
			Wins:   f.Wins,
			Losses: f.Losses,
		})
	}
	return out
}
