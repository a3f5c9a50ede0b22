package ws

import (
	"buildingsim/internal/sim"
)

// Bridge implements sim.Callback and broadcasts events to the WebSocket hub.
type Bridge struct {
	hub *Hub
}

func NewBridge(hub *Hub) *Bridge {
	return &Bridge{hub: hub}
}

func (b *Bridge) OnState(s sim.State) {
	b.hub.Broadcast(TypeSimState, SimStateFromEngine(s))
}

func (b *Bridge) OnStep(r sim.StepRecord) {
	b.hub.Broadcast(TypeStepUpdate, StepFromEngine(r))
}

func (b *Bridge) OnSummary(s sim.Summary) {
	b.hub.Broadcast(TypeSummaryUpdate, SummaryFromEngine(s))
}
