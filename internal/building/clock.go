package building

import (
	"crypto/rand"
	"encoding/hex"
)

// Clock is the episode-lifecycle object shared by the building and its
// caller: a monotonically increasing step index over a fixed-length episode.
type Clock struct {
	uid           string
	timeStep      int
	episodeLength int
}

func NewClock(episodeLength int) *Clock {
	buf := make([]byte, 4)
	rand.Read(buf)
	return &Clock{
		uid:           hex.EncodeToString(buf),
		episodeLength: episodeLength,
	}
}

// UID returns the unique identifier assigned at construction.
func (c *Clock) UID() string { return c.uid }

// TimeStep returns the current step index.
func (c *Clock) TimeStep() int { return c.timeStep }

// EpisodeLength returns the number of time steps in one episode.
func (c *Clock) EpisodeLength() int { return c.episodeLength }

// Done reports whether the episode has reached its final step.
func (c *Clock) Done() bool { return c.timeStep >= c.episodeLength-1 }

// NextTimeStep advances the step index.
func (c *Clock) NextTimeStep() { c.timeStep++ }

// Reset rewinds to step 0. The identifier is preserved across episodes.
func (c *Clock) Reset() { c.timeStep = 0 }
