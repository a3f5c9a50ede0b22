package device

import "math"

// ElectricHeaterConfig holds the user-configurable resistive heater parameters.
type ElectricHeaterConfig struct {
	NominalPower float64 `yaml:"nominal_power"` // kW electric
	// Efficiency is the fixed electric-to-thermal conversion ratio; zero
	// selects the default.
	Efficiency float64 `yaml:"efficiency"`
}

// ElectricHeater is a fixed-efficiency resistive device. Its conversion ratio
// is independent of outdoor conditions, so COP ignores both arguments.
type ElectricHeater struct {
	consumptionRecord

	nominalPower float64
	efficiency   float64
}

func NewElectricHeater(cfg ElectricHeaterConfig) *ElectricHeater {
	if cfg.Efficiency == 0 {
		cfg.Efficiency = 0.9
	}
	h := &ElectricHeater{
		nominalPower: cfg.NominalPower,
		efficiency:   cfg.Efficiency,
	}
	h.consumptionRecord.Reset()
	return h
}

// NominalPower returns the rated electric input power, in kW.
func (h *ElectricHeater) NominalPower() float64 { return h.nominalPower }

// Efficiency returns the fixed conversion ratio.
func (h *ElectricHeater) Efficiency() float64 { return h.efficiency }

// COP returns the fixed efficiency regardless of outdoor conditions or mode.
func (h *ElectricHeater) COP(float64, bool) float64 { return h.efficiency }

// MaxOutputPower returns the maximum thermal output, in kW. maxElectricPower
// caps the electric draw below the nominal rating; pass NoPowerLimit to use
// the rating.
func (h *ElectricHeater) MaxOutputPower(_ float64, _ bool, maxElectricPower float64) float64 {
	electric := h.nominalPower
	if !math.IsNaN(maxElectricPower) {
		electric = math.Min(maxElectricPower, h.nominalPower)
	}
	return electric * h.efficiency
}

// InputPower returns the electric power needed to deliver output, in kW.
func (h *ElectricHeater) InputPower(output float64, _ float64, _ bool) float64 {
	return output / h.efficiency
}

// Autosize sets the nominal power to the minimum rating that meets the peak
// demand sample. safetyFactor scales the result; zero means 1.
func (h *ElectricHeater) Autosize(demand []float64, safetyFactor float64) {
	if safetyFactor == 0 {
		safetyFactor = 1
	}
	var peak float64
	for _, d := range demand {
		peak = math.Max(peak, d)
	}
	h.nominalPower = peak / h.efficiency * safetyFactor
}
