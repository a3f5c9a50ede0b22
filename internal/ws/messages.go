package ws

import (
	"encoding/json"
	"math"

	"buildingsim/internal/sim"
)

// Envelope wraps all WebSocket messages with a type discriminator.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client -> Server messages

type SetSpeedPayload struct {
	Speed float64 `json:"speed"`
}

type SetPolicyPayload struct {
	// Policy is "zero" or "random".
	Policy string `json:"policy"`
	Seed   uint64 `json:"seed"`
}

// Server -> Client messages

type SimStatePayload struct {
	Episode       int     `json:"episode"`
	TimeStep      int     `json:"time_step"`
	EpisodeLength int     `json:"episode_length"`
	Speed         float64 `json:"speed"`
	Running       bool    `json:"running"`
}

type StepPayload struct {
	Episode                   int                `json:"episode"`
	TimeStep                  int                `json:"time_step"`
	Observations              map[string]float64 `json:"observations"`
	NetElectricityConsumption float64            `json:"net_electricity_consumption"`
	Cost                      float64            `json:"cost"`
	Emission                  float64            `json:"emission"`
}

// SummaryPayload reports episode scores. Windowed scores are null until
// their window fills; JSON has no NaN, so they travel as pointers.
type SummaryPayload struct {
	Episode          int      `json:"episode"`
	TimeStep         int      `json:"time_step"`
	Consumption      float64  `json:"consumption_kwh"`
	Price            float64  `json:"price"`
	CarbonEmissions  float64  `json:"carbon_emissions_kg"`
	Ramping          *float64 `json:"ramping"`
	AverageDailyPeak *float64 `json:"average_daily_peak"`
	PeakDemand       float64  `json:"peak_demand"`
	LoadFactor       *float64 `json:"load_factor"`
}

// SpaceInfo carries one box space's bounds alongside its dimension names.
type SpaceInfo struct {
	Names []string  `json:"names"`
	Low   []float64 `json:"low"`
	High  []float64 `json:"high"`
}

type BuildingLoadedPayload struct {
	Name             string    `json:"name"`
	EpisodeLength    int       `json:"episode_length"`
	ObservationSpace SpaceInfo `json:"observation_space"`
	ActionSpace      SpaceInfo `json:"action_space"`
}

// Message type constants
const (
	// Client -> Server
	TypeSimStart    = "sim:start"
	TypeSimPause    = "sim:pause"
	TypeSimReset    = "sim:reset"
	TypeSimSetSpeed = "sim:set_speed"
	TypeSimStep     = "sim:step"
	TypeSetPolicy   = "sim:set_policy"

	// Server -> Client
	TypeSimState       = "sim:state"
	TypeStepUpdate     = "sim:step_update"
	TypeSummaryUpdate  = "summary:update"
	TypeBuildingLoaded = "building:loaded"
)

func NewEnvelope(msgType string, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		var err error
		raw, err = json.Marshal(payload)
		if err != nil {
			return nil, err
		}
	}
	return json.Marshal(Envelope{Type: msgType, Payload: raw})
}

func SimStateFromEngine(s sim.State) SimStatePayload {
	return SimStatePayload{
		Episode:       s.Episode,
		TimeStep:      s.TimeStep,
		EpisodeLength: s.EpisodeLength,
		Speed:         s.Speed,
		Running:       s.Running,
	}
}

func StepFromEngine(r sim.StepRecord) StepPayload {
	// NaN observations (gaps in the source data) are dropped rather than
	// poisoning the whole JSON message.
	obs := make(map[string]float64, len(r.Observations))
	for name, v := range r.Observations {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			obs[name] = v
		}
	}
	return StepPayload{
		Episode:                   r.Episode,
		TimeStep:                  r.TimeStep,
		Observations:              obs,
		NetElectricityConsumption: r.NetElectricityConsumption,
		Cost:                      r.Cost,
		Emission:                  r.Emission,
	}
}

func SummaryFromEngine(s sim.Summary) SummaryPayload {
	return SummaryPayload{
		Episode:          s.Episode,
		TimeStep:         s.TimeStep,
		Consumption:      s.Consumption,
		Price:            s.Price,
		CarbonEmissions:  s.CarbonEmissions,
		Ramping:          finiteOrNil(s.Ramping),
		AverageDailyPeak: finiteOrNil(s.AverageDailyPeak),
		PeakDemand:       s.PeakDemand,
		LoadFactor:       finiteOrNil(s.LoadFactor),
	}
}

func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
