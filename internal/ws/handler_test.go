package ws

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"buildingsim/internal/building"
	"buildingsim/internal/device"
	"buildingsim/internal/series"
	"buildingsim/internal/sim"
)

// testEngine builds a small flat-load building wired to a broadcast hub.
func testEngine(t *testing.T, hub *Hub) (*sim.Engine, *building.Building) {
	t.Helper()
	n := 24
	e := &series.EnergySimulation{
		Month:                    make([]int, n),
		Hour:                     make([]int, n),
		DayType:                  make([]int, n),
		IndoorDryBulbTemperature: make([]float64, n),
		NonShiftableLoad:         make([]float64, n),
		DHWDemand:                make([]float64, n),
		CoolingDemand:            make([]float64, n),
		HeatingDemand:            make([]float64, n),
		SolarGeneration:          make([]float64, n),
	}
	w := &series.Weather{
		OutdoorDryBulbTemperature: make([]float64, n),
		OutdoorRelativeHumidity:   make([]float64, n),
		DiffuseSolarIrradiance:    make([]float64, n),
		DirectSolarIrradiance:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		e.Month[i] = 1
		e.Hour[i] = i
		e.DayType[i] = 1
		e.IndoorDryBulbTemperature[i] = 22
		e.NonShiftableLoad[i] = 1
		w.OutdoorDryBulbTemperature[i] = 25
	}
	b, err := building.New(building.Config{
		Name:             "ws-test",
		EnergySimulation: e,
		Weather:          w,
		ElectricalStorage: device.NewBattery(device.BatteryConfig{
			Capacity:     3,
			NominalPower: 3,
		}),
	})
	require.NoError(t, err)
	return sim.New(b, sim.ZeroPolicy{}, NewBridge(hub)), b
}

// dialHandler sets up a test server with the handler and returns a WS connection.
func dialHandler(t *testing.T, handler *Handler) (*websocket.Conn, func()) {
	t.Helper()
	server := httptest.NewServer(handler)
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	return conn, func() {
		conn.Close()
		server.Close()
	}
}

// readJSON reads the next JSON message from the connection.
func readJSON(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var env Envelope
	require.NoError(t, json.Unmarshal(msg, &env))
	return env
}

// sendJSON sends a JSON message on the connection.
func sendJSON(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	data, err := NewEnvelope(msgType, payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

func TestHandler_InitialMessages(t *testing.T) {
	hub := NewHub()
	engine, b := testEngine(t, hub)
	handler := NewHandler(hub, engine, b)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	env1 := readJSON(t, conn)
	assert.Equal(t, TypeBuildingLoaded, env1.Type)

	var bl BuildingLoadedPayload
	require.NoError(t, json.Unmarshal(env1.Payload, &bl))
	assert.Equal(t, "ws-test", bl.Name)
	assert.Equal(t, 24, bl.EpisodeLength)
	assert.NotEmpty(t, bl.ObservationSpace.Names)
	assert.Len(t, bl.ObservationSpace.Low, len(bl.ObservationSpace.Names))
	assert.Len(t, bl.ActionSpace.Low, len(bl.ActionSpace.Names))

	env2 := readJSON(t, conn)
	assert.Equal(t, TypeSimState, env2.Type)

	var ss SimStatePayload
	require.NoError(t, json.Unmarshal(env2.Payload, &ss))
	assert.False(t, ss.Running)
	assert.Equal(t, 1.0, ss.Speed)
}

func TestHandler_SingleStep(t *testing.T) {
	hub := NewHub()
	engine, b := testEngine(t, hub)
	handler := NewHandler(hub, engine, b)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn) // building:loaded
	readJSON(t, conn) // sim:state

	sendJSON(t, conn, TypeSimStep, nil)

	// A step broadcasts step, state and summary updates; order is fixed.
	env := readJSON(t, conn)
	assert.Equal(t, TypeStepUpdate, env.Type)

	var p StepPayload
	require.NoError(t, json.Unmarshal(env.Payload, &p))
	assert.Equal(t, 1, p.TimeStep)
	assert.InDelta(t, 1.0, p.NetElectricityConsumption, 1e-9)
}

func TestHandler_SetSpeed(t *testing.T) {
	hub := NewHub()
	engine, b := testEngine(t, hub)
	handler := NewHandler(hub, engine, b)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimSetSpeed, SetSpeedPayload{Speed: 20})
	time.Sleep(50 * time.Millisecond)

	assert.Equal(t, 20.0, engine.State().Speed)
}

func TestHandler_StartPause(t *testing.T) {
	hub := NewHub()
	engine, b := testEngine(t, hub)
	handler := NewHandler(hub, engine, b)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimStart, nil)
	time.Sleep(50 * time.Millisecond)
	sendJSON(t, conn, TypeSimPause, nil)
	time.Sleep(50 * time.Millisecond)

	assert.False(t, engine.State().Running)
}

func TestHandler_ResetStartsNewEpisode(t *testing.T) {
	hub := NewHub()
	engine, b := testEngine(t, hub)
	handler := NewHandler(hub, engine, b)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSimStep, nil)
	sendJSON(t, conn, TypeSimReset, nil)
	time.Sleep(50 * time.Millisecond)

	state := engine.State()
	assert.Equal(t, 1, state.Episode)
	assert.Equal(t, 0, state.TimeStep)
}

func TestHandler_SetPolicy(t *testing.T) {
	hub := NewHub()
	engine, b := testEngine(t, hub)
	handler := NewHandler(hub, engine, b)

	conn, cleanup := dialHandler(t, handler)
	defer cleanup()

	readJSON(t, conn)
	readJSON(t, conn)

	sendJSON(t, conn, TypeSetPolicy, SetPolicyPayload{Policy: "random", Seed: 11})
	time.Sleep(50 * time.Millisecond)

	// The engine accepts steps under the new policy without error.
	sendJSON(t, conn, TypeSimStep, nil)
	env := readJSON(t, conn)
	assert.Equal(t, TypeStepUpdate, env.Type)
}
