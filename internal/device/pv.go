package device

import "math"

// PVConfig holds the user-configurable PV array parameters.
type PVConfig struct {
	NominalPower float64 `yaml:"nominal_power"` // kW
}

// PV converts a normalized inverter output schedule (W per kW of installed
// capacity) into the array's actual generation.
type PV struct {
	nominalPower float64
}

func NewPV(cfg PVConfig) *PV {
	return &PV{nominalPower: cfg.NominalPower}
}

// NominalPower returns the installed capacity, in kW.
func (p *PV) NominalPower() float64 { return p.nominalPower }

// Generation returns the array output for one normalized sample, in kWh.
func (p *PV) Generation(perKW float64) float64 {
	return p.nominalPower * perKW / 1000
}

// GenerationSeries maps a normalized schedule to the array's output series.
func (p *PV) GenerationSeries(perKW []float64) []float64 {
	out := make([]float64, len(perKW))
	for i, v := range perKW {
		out[i] = p.Generation(v)
	}
	return out
}

// Autosize sets the installed capacity so the schedule's peak step yields
// peakKWh.
func (p *PV) Autosize(perKW []float64, peakKWh float64) {
	var peak float64
	for _, v := range perKW {
		peak = math.Max(peak, v)
	}
	if peak > 0 {
		p.nominalPower = peakKWh * 1000 / peak
	}
}

// NextTimeStep is a no-op; PV keeps no per-step state.
func (p *PV) NextTimeStep() {}

// Reset is a no-op; PV keeps no per-step state.
func (p *PV) Reset() {}
