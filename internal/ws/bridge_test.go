package ws

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildingsim/internal/sim"
)

func newTestBridge() (*Bridge, *Client) {
	hub := NewHub()
	client := &Client{hub: hub, send: make(chan []byte, 256)}
	hub.Register(client)
	bridge := NewBridge(hub)
	return bridge, client
}

func receiveEnvelope(t *testing.T, c *Client) Envelope {
	t.Helper()
	msg := <-c.send
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

func TestBridge_OnState(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnState(sim.State{
		Episode:       1,
		TimeStep:      42,
		EpisodeLength: 8760,
		Speed:         10,
		Running:       true,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSimState, env.Type)

	var p SimStatePayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 42, p.TimeStep)
	assert.Equal(t, 10.0, p.Speed)
	assert.True(t, p.Running)
}

func TestBridge_OnStep(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnStep(sim.StepRecord{
		Episode:  0,
		TimeStep: 3,
		Observations: map[string]float64{
			"hour":                        3,
			"non_shiftable_load":          1.5,
			"average_unmet_cooling_setpoint_difference": math.NaN(),
		},
		NetElectricityConsumption: 2.5,
		Cost:                      0.5,
		Emission:                  1.0,
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeStepUpdate, env.Type)

	var p StepPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 3, p.TimeStep)
	assert.InDelta(t, 2.5, p.NetElectricityConsumption, 0.001)
	assert.InDelta(t, 1.5, p.Observations["non_shiftable_load"], 0.001)
	// NaN observations are dropped on the wire.
	_, ok := p.Observations["average_unmet_cooling_setpoint_difference"]
	assert.False(t, ok)
}

func TestBridge_OnSummary(t *testing.T) {
	bridge, client := newTestBridge()

	bridge.OnSummary(sim.Summary{
		Episode:          0,
		TimeStep:         100,
		Consumption:      250,
		Price:            60,
		CarbonEmissions:  90,
		Ramping:          12,
		AverageDailyPeak: math.NaN(),
		PeakDemand:       8,
		LoadFactor:       math.NaN(),
	})

	env := receiveEnvelope(t, client)
	assert.Equal(t, TypeSummaryUpdate, env.Type)

	var p SummaryPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.InDelta(t, 250.0, p.Consumption, 0.001)
	assert.InDelta(t, 60.0, p.Price, 0.001)
	assert.InDelta(t, 90.0, p.CarbonEmissions, 0.001)
	require.NotNil(t, p.Ramping)
	assert.InDelta(t, 12.0, *p.Ramping, 0.001)
	assert.InDelta(t, 8.0, p.PeakDemand, 0.001)
	assert.Nil(t, p.AverageDailyPeak)
	assert.Nil(t, p.LoadFactor)
}
