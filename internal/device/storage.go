package device

import "math"

// StorageTankConfig holds the user-configurable thermal storage parameters.
type StorageTankConfig struct {
	Capacity float64 `yaml:"capacity"` // kWh

	// MaxInputPower / MaxOutputPower bound charge and discharge per step, in
	// kW. NaN (the zero-config default via NoPowerLimit) leaves them unbounded.
	MaxInputPower  float64 `yaml:"max_input_power"`
	MaxOutputPower float64 `yaml:"max_output_power"`

	// LossCoefficient is the standby fraction of stored energy lost per step.
	LossCoefficient float64 `yaml:"loss_coefficient"`
	// Efficiency is the one-way charge/discharge efficiency; zero selects 1.
	Efficiency float64 `yaml:"efficiency"`
	// InitialSOC is the stored energy at episode start, in kWh.
	InitialSOC float64 `yaml:"initial_soc"`
}

// StorageTank is a sensible thermal store (chilled or hot water). It enforces
// its own SOC and power bounds: Charge may deliver less than requested, and
// the recorded energy balance reflects what actually happened.
type StorageTank struct {
	capacity   float64
	maxInput   float64
	maxOutput  float64
	lossCoef   float64
	efficiency float64
	initialSOC float64

	soc           []float64 // kWh, one entry per step
	energyBalance []float64 // kWh, signed net charge(+)/discharge(-) per step
}

func NewStorageTank(cfg StorageTankConfig) *StorageTank {
	if cfg.Efficiency == 0 {
		cfg.Efficiency = 1
	}
	if cfg.MaxInputPower == 0 {
		cfg.MaxInputPower = NoPowerLimit
	}
	if cfg.MaxOutputPower == 0 {
		cfg.MaxOutputPower = NoPowerLimit
	}
	t := &StorageTank{
		capacity:   cfg.Capacity,
		maxInput:   cfg.MaxInputPower,
		maxOutput:  cfg.MaxOutputPower,
		lossCoef:   cfg.LossCoefficient,
		efficiency: cfg.Efficiency,
		initialSOC: cfg.InitialSOC,
	}
	t.Reset()
	return t
}

// Capacity returns the storage capacity, in kWh.
func (t *StorageTank) Capacity() float64 { return t.capacity }

// SOC returns the per-step state of charge, in kWh.
func (t *StorageTank) SOC() []float64 { return t.soc }

// EnergyBalance returns the per-step signed net flow: positive entries are
// energy charged into the tank, negative entries energy discharged from it.
func (t *StorageTank) EnergyBalance() []float64 { return t.energyBalance }

// Charge requests a signed energy transfer for the current step, in kWh.
// The request is clipped against power bounds and the 0..capacity SOC range;
// the clipped result is recorded in the energy balance.
func (t *StorageTank) Charge(energy float64) {
	tip := len(t.soc) - 1
	base := t.soc[tip]

	if energy >= 0 {
		if !math.IsNaN(t.maxInput) {
			energy = math.Min(energy, t.maxInput)
		}
		t.soc[tip] = math.Min(base+energy*t.efficiency, t.capacity)
	} else {
		if !math.IsNaN(t.maxOutput) {
			energy = math.Max(energy, -t.maxOutput)
		}
		t.soc[tip] = math.Max(0, base+energy/t.efficiency)
	}

	// Report the device-side energy, undoing the efficiency adjustment.
	balance := t.soc[tip] - base
	if balance >= 0 {
		balance /= t.efficiency
	} else {
		balance *= t.efficiency
	}
	t.energyBalance[tip] = balance
}

// NextTimeStep appends the new step's passive record: the previous SOC
// decayed by standby loss, and a zero energy balance.
func (t *StorageTank) NextTimeStep() {
	decayed := t.soc[len(t.soc)-1] * (1 - t.lossCoef)
	t.soc = append(t.soc, decayed)
	t.energyBalance = append(t.energyBalance, 0)
}

// Reset restores the initial SOC and clears per-step records.
func (t *StorageTank) Reset() {
	t.soc = []float64{math.Min(t.initialSOC, t.capacity)}
	t.energyBalance = []float64{0}
}

// Autosize sets the capacity to the peak demand sample scaled by
// safetyFactor (zero means 1), so a full tank can cover the worst step.
func (t *StorageTank) Autosize(demand []float64, safetyFactor float64) {
	if safetyFactor == 0 {
		safetyFactor = 1
	}
	var peak float64
	for _, d := range demand {
		if !math.IsNaN(d) {
			peak = math.Max(peak, d)
		}
	}
	t.capacity = peak * safetyFactor
	t.Reset()
}
