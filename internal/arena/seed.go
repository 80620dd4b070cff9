package arena

import "github.com/google/uuid"

// SampleFighters returns a handful of demo scripts so a fresh server has
// someone to fight.
func SampleFighters() []Fighter {
	scripts := []string{
		`while true {
  attack left
  attack right
}`,
		`let dir = up
while true {
  if peek dir == enemy {
    attack dir
  } else {
    move dir
  }
}`,
		`while true {
  if peek down == storm or peek down == border {
    move up
  } else {
    move down
  }
}`,
		`for i in 0..4 {
  move left
}
while true {
  attack up
  attack down
}`,
		`while true {
  if peek right == wood or peek right == stone {
    attack right
  } else {
    move right
  }
}`,
	}

	out := make([]Fighter, 0, len(scripts))
	for _, s := range scripts {
		out = append(out, NewFighter(s))
	}
	return out
}

// Seed registers fighters and returns their identifiers in order.
func Seed(r *Registry, fighters []Fighter) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(fighters))
	for _, f := range fighters {
		ids = append(ids, r.Register(f))
	}
	return ids
}
