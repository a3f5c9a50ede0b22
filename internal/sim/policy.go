package sim

import (
	"math/rand/v2"

	"buildingsim/internal/building"
)

// Policy picks the next control actions from the building's current state.
type Policy interface {
	Actions(b *building.Building) (building.Actions, error)
}

// ZeroPolicy leaves every device and store idle, yielding the baseline where
// demand is met directly and storage never cycles.
type ZeroPolicy struct{}

func (ZeroPolicy) Actions(*building.Building) (building.Actions, error) {
	return building.Actions{}, nil
}

// RandomPolicy samples each active action uniformly within its bound. The
// generator is seeded explicitly so runs are reproducible.
type RandomPolicy struct {
	rng *rand.Rand
}

func NewRandomPolicy(seed uint64) *RandomPolicy {
	return &RandomPolicy{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (p *RandomPolicy) Actions(b *building.Building) (building.Actions, error) {
	space := b.ActionSpace()
	values := make([]float64, len(space.Low))
	for i := range values {
		values[i] = space.Low[i] + p.rng.Float64()*(space.High[i]-space.Low[i])
	}
	return building.FromVector(b.ActiveActions(), values), nil
}
