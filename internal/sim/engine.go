// Package sim drives a building through episodes under a control policy,
// either headless at full speed or paced by a wall-clock ticker for
// interactive streaming. Events fan out through a Callback so transports
// stay decoupled from the stepping logic.
package sim

import (
	"fmt"
	"sync"
	"time"

	"buildingsim/internal/building"
	"buildingsim/internal/cost"
)

// State represents the current simulation state.
type State struct {
	Episode       int     `json:"episode"`
	TimeStep      int     `json:"time_step"`
	EpisodeLength int     `json:"episode_length"`
	Speed         float64 `json:"speed"`
	Running       bool    `json:"running"`
}

// StepRecord is emitted after every simulated step.
type StepRecord struct {
	Episode  int `json:"episode"`
	TimeStep int `json:"time_step"`

	Observations map[string]float64 `json:"observations"`

	NetElectricityConsumption float64 `json:"net_electricity_consumption"`
	Cost                      float64 `json:"cost"`
	Emission                  float64 `json:"emission"`
}

// Summary scores the episode so far. Score entries derive from the cost
// functions over the net ledger; NaN marks scores whose window has not
// filled yet.
type Summary struct {
	Episode  int `json:"episode"`
	TimeStep int `json:"time_step"`

	Consumption      float64 `json:"consumption_kwh"`
	Price            float64 `json:"price"`
	CarbonEmissions  float64 `json:"carbon_emissions_kg"`
	Ramping          float64 `json:"ramping"`
	AverageDailyPeak float64 `json:"average_daily_peak"`
	PeakDemand       float64 `json:"peak_demand"`
	LoadFactor       float64 `json:"load_factor"`
}

// Callback receives simulation events.
type Callback interface {
	OnState(state State)
	OnStep(record StepRecord)
	OnSummary(summary Summary)
}

// Engine steps one building under a policy. The ticker-driven loop serves
// interactive use; RunEpisode drives an episode to completion synchronously.
type Engine struct {
	mu       sync.Mutex
	building *building.Building
	policy   Policy
	callback Callback

	episode int
	running bool
	speed   float64 // steps per second
	stopCh  chan struct{}
}

func New(b *building.Building, p Policy, cb Callback) *Engine {
	return &Engine{
		building: b,
		policy:   p,
		callback: cb,
		speed:    1,
	}
}

// State returns the current simulation state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stateLocked()
}

// stateLocked must be called with mu held.
func (e *Engine) stateLocked() State {
	return State{
		Episode:       e.episode,
		TimeStep:      e.building.TimeStep(),
		EpisodeLength: e.building.EpisodeLength(),
		Speed:         e.speed,
		Running:       e.running,
	}
}

// SetSpeed sets the stepping rate in steps per second.
func (e *Engine) SetSpeed(speed float64) {
	if speed < 0.1 {
		speed = 0.1
	}
	if speed > 1000 {
		speed = 1000
	}
	e.mu.Lock()
	e.speed = speed
	e.mu.Unlock()
	e.broadcastState()
}

// SetPolicy swaps the control policy.
func (e *Engine) SetPolicy(p Policy) {
	e.mu.Lock()
	e.policy = p
	e.mu.Unlock()
}

// Start begins the paced simulation loop.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.stopCh = make(chan struct{})
	e.mu.Unlock()

	e.broadcastState()
	go e.loop(e.stopCh)
}

// Pause stops the simulation loop.
func (e *Engine) Pause() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.stopLocked()
	e.mu.Unlock()

	e.broadcastState()
}

// stopLocked halts an active paced loop. Safe to call when no loop is
// running; must be called with mu held.
func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	close(e.stopCh)
}

// Reset rewinds the building to step 0 and starts a new episode count.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.building.Reset()
	e.episode++
	e.mu.Unlock()

	e.broadcastState()
	e.broadcastSummary()
}

// Step advances exactly one time step and emits events. Useful for
// deterministic testing; does not require Start.
func (e *Engine) Step() error {
	e.mu.Lock()
	if e.building.Done() {
		e.mu.Unlock()
		return fmt.Errorf("episode %d finished", e.episode)
	}
	record, err := e.stepLocked()
	ended := e.building.Done()
	if ended {
		// Manual stepping can finish the episode while a paced loop is
		// active; stop it rather than leaving it ticking against a
		// finished building.
		e.stopLocked()
	}
	e.mu.Unlock()
	if err != nil {
		return err
	}

	e.callback.OnStep(record)
	e.broadcastState()
	e.broadcastSummary()
	return nil
}

// RunEpisode drives the current episode to completion without pacing.
func (e *Engine) RunEpisode() (Summary, error) {
	for {
		e.mu.Lock()
		done := e.building.Done()
		e.mu.Unlock()
		if done {
			break
		}
		if err := e.Step(); err != nil {
			return Summary{}, err
		}
	}
	return e.Summary(), nil
}

// Summary computes the episode scores up to the current step.
func (e *Engine) Summary() Summary {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.summaryLocked()
}

// stepLocked picks actions and advances the building. Must be called with
// mu held.
func (e *Engine) stepLocked() (StepRecord, error) {
	actions, err := e.policy.Actions(e.building)
	if err != nil {
		return StepRecord{}, fmt.Errorf("episode %d step %d: policy: %w", e.episode, e.building.TimeStep(), err)
	}
	if err := e.building.Step(actions); err != nil {
		return StepRecord{}, err
	}

	t := e.building.TimeStep()
	obs, err := e.building.Observations()
	if err != nil {
		return StepRecord{}, err
	}
	return StepRecord{
		Episode:                   e.episode,
		TimeStep:                  t,
		Observations:              obs,
		NetElectricityConsumption: e.building.NetElectricityConsumption()[t],
		Cost:                      e.building.NetElectricityConsumptionCost()[t],
		Emission:                  e.building.NetElectricityConsumptionEmission()[t],
	}, nil
}

// summaryLocked must be called with mu held.
func (e *Engine) summaryLocked() Summary {
	net := e.building.NetElectricityConsumption()
	last := len(net) - 1
	return Summary{
		Episode:          e.episode,
		TimeStep:         e.building.TimeStep(),
		Consumption:      cost.Consumption(net)[last],
		Price:            cost.Price(e.building.NetElectricityConsumptionCost())[last],
		CarbonEmissions:  cost.CarbonEmissions(e.building.NetElectricityConsumptionEmission())[last],
		Ramping:          cost.Ramping(net)[last],
		AverageDailyPeak: cost.AverageDailyPeak(net)[last],
		PeakDemand:       cost.PeakDemand(net, 0)[last],
		LoadFactor:       cost.LoadFactor(net, 0)[last],
	}
}

func (e *Engine) loop(stopCh chan struct{}) {
	e.mu.Lock()
	interval := time.Duration(float64(time.Second) / e.speed)
	e.mu.Unlock()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if e.tick() {
				return
			}
			e.mu.Lock()
			want := time.Duration(float64(time.Second) / e.speed)
			e.mu.Unlock()
			if want != interval {
				interval = want
				ticker.Reset(interval)
			}
		}
	}
}

// tick advances one step. Returns true when the episode reached its end.
func (e *Engine) tick() bool {
	e.mu.Lock()
	if e.building.Done() {
		e.stopLocked()
		e.mu.Unlock()
		e.broadcastState()
		return true
	}
	record, err := e.stepLocked()
	ended := e.building.Done()
	if ended {
		e.stopLocked()
	}
	e.mu.Unlock()

	if err == nil {
		e.callback.OnStep(record)
	}
	e.broadcastState()
	e.broadcastSummary()
	return ended
}

func (e *Engine) broadcastState() {
	e.mu.Lock()
	state := e.stateLocked()
	e.mu.Unlock()
	e.callback.OnState(state)
}

func (e *Engine) broadcastSummary() {
	e.mu.Lock()
	summary := e.summaryLocked()
	e.mu.Unlock()
	e.callback.OnSummary(summary)
}
