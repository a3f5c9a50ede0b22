package device

import "math"

// BatteryConfig holds the user-configurable electrical storage parameters.
type BatteryConfig struct {
	Capacity     float64 `yaml:"capacity"`      // kWh
	NominalPower float64 `yaml:"nominal_power"` // kW

	// Efficiency is the one-way charge/discharge efficiency; zero selects
	// the default.
	Efficiency float64 `yaml:"efficiency"`
	// LossCoefficient is the standby fraction of stored energy lost per step.
	LossCoefficient float64 `yaml:"loss_coefficient"`
	// CapacityLossCoefficient scales throughput-driven capacity fade.
	CapacityLossCoefficient float64 `yaml:"capacity_loss_coefficient"`
	// InitialSOC is the stored energy at episode start, in kWh.
	InitialSOC float64 `yaml:"initial_soc"`
}

// Battery is grid/PV-charged electrical storage. Unlike thermal tanks it is
// not fed through a conversion device, so its recorded energy balance is
// directly the grid-facing electricity consumption. Capacity fades with
// throughput, which is why callers interested in a stationary SOC reference
// use the first CapacityHistory sample.
type Battery struct {
	capacity     float64
	nominalPower float64
	efficiency   float64
	lossCoef     float64
	capLossCoef  float64
	initialSOC   float64

	soc                    []float64
	energyBalance          []float64
	electricityConsumption []float64
	capacityHistory        []float64
}

func NewBattery(cfg BatteryConfig) *Battery {
	if cfg.Efficiency == 0 {
		cfg.Efficiency = 0.9
	}
	if cfg.CapacityLossCoefficient == 0 {
		cfg.CapacityLossCoefficient = 1e-5
	}
	b := &Battery{
		capacity:     cfg.Capacity,
		nominalPower: cfg.NominalPower,
		efficiency:   cfg.Efficiency,
		lossCoef:     cfg.LossCoefficient,
		capLossCoef:  cfg.CapacityLossCoefficient,
		initialSOC:   cfg.InitialSOC,
	}
	b.Reset()
	return b
}

// Capacity returns the current (possibly degraded) capacity, in kWh.
func (b *Battery) Capacity() float64 { return b.capacity }

// CapacityHistory returns every capacity value the battery has had, starting
// with the nameplate value at index 0.
func (b *Battery) CapacityHistory() []float64 { return b.capacityHistory }

// NominalPower returns the rated charge/discharge power, in kW.
func (b *Battery) NominalPower() float64 { return b.nominalPower }

// SOC returns the per-step state of charge, in kWh.
func (b *Battery) SOC() []float64 { return b.soc }

// EnergyBalance returns the per-step signed net flow, in kWh.
func (b *Battery) EnergyBalance() []float64 { return b.energyBalance }

// ElectricityConsumption returns the per-step grid draw, in kWh. Positive
// entries charge the battery, negative entries discharge it into the building.
func (b *Battery) ElectricityConsumption() []float64 { return b.electricityConsumption }

// Charge requests a signed energy transfer for the current step, in kWh. The
// request is clipped to the nominal power rating and the 0..capacity SOC
// range, then degrades capacity in proportion to throughput.
func (b *Battery) Charge(energy float64) {
	tip := len(b.soc) - 1
	base := b.soc[tip]

	if energy > b.nominalPower {
		energy = b.nominalPower
	} else if energy < -b.nominalPower {
		energy = -b.nominalPower
	}

	if energy >= 0 {
		b.soc[tip] = math.Min(base+energy*b.efficiency, b.capacity)
	} else {
		b.soc[tip] = math.Max(0, base+energy/b.efficiency)
	}

	balance := b.soc[tip] - base
	if balance >= 0 {
		balance /= b.efficiency
	} else {
		balance *= b.efficiency
	}
	b.energyBalance[tip] = balance
	b.electricityConsumption[tip] = balance

	b.degrade(balance)
}

// degrade applies throughput-proportional capacity fade.
func (b *Battery) degrade(balance float64) {
	if b.capLossCoef <= 0 || b.capacity <= 0 || balance == 0 {
		return
	}
	loss := b.capLossCoef * b.capacityHistory[0] * math.Abs(balance) / (2 * b.capacity)
	b.capacity -= loss
	b.capacityHistory = append(b.capacityHistory, b.capacity)
}

// NextTimeStep appends the new step's passive record.
func (b *Battery) NextTimeStep() {
	decayed := b.soc[len(b.soc)-1] * (1 - b.lossCoef)
	b.soc = append(b.soc, decayed)
	b.energyBalance = append(b.energyBalance, 0)
	b.electricityConsumption = append(b.electricityConsumption, 0)
}

// Reset restores the nameplate capacity and initial SOC and clears records.
func (b *Battery) Reset() {
	if len(b.capacityHistory) > 0 {
		b.capacity = b.capacityHistory[0]
	}
	b.capacityHistory = []float64{b.capacity}
	b.soc = []float64{math.Min(b.initialSOC, b.capacity)}
	b.energyBalance = []float64{0}
	b.electricityConsumption = []float64{0}
}

// Autosize sets the capacity to the peak generation sample scaled by
// safetyFactor (zero means 1), so one step of peak surplus fits.
func (b *Battery) Autosize(generation []float64, safetyFactor float64) {
	if safetyFactor == 0 {
		safetyFactor = 1
	}
	var peak float64
	for _, g := range generation {
		peak = math.Max(peak, math.Abs(g))
	}
	b.capacity = peak * safetyFactor
	b.capacityHistory = nil
	b.Reset()
}
