// Package device implements the physical collaborators of a building
// simulation: electric-to-thermal conversion devices (heat pump, resistive
// heater), thermal and electrical storage, and PV generation.
//
// Per-step records follow one convention everywhere: Reset seeds index 0,
// NextTimeStep appends a passive entry for the new step, and action methods
// (Charge, UpdateElectricityConsumption) mutate the entry at the tip.
package device

import "math"

// NoPowerLimit marks an unset optional power bound.
var NoPowerLimit = math.NaN()

// ThermalSource is the uniform capability contract for electric devices that
// produce thermal output. The heating flag selects the operating mode
// explicitly instead of dispatching on the device's concrete type.
type ThermalSource interface {
	// NominalPower returns the rated electric input power, in kW.
	NominalPower() float64
	// COP returns thermal output per unit electric input at the given
	// outdoor temperature. Fixed-efficiency devices ignore both arguments.
	COP(outdoorDryBulbC float64, heating bool) float64
	// MaxOutputPower returns the maximum deliverable thermal output, in kW.
	// maxElectricPower caps the electric draw; pass NoPowerLimit for the
	// nominal rating.
	MaxOutputPower(outdoorDryBulbC float64, heating bool, maxElectricPower float64) float64
	// InputPower returns the electric power needed to deliver output, in kW.
	InputPower(output float64, outdoorDryBulbC float64, heating bool) float64

	UpdateElectricityConsumption(kWh float64)
	ElectricityConsumption() []float64
	NextTimeStep()
	Reset()
}

// consumptionRecord is the shared per-step electricity ledger of a device.
type consumptionRecord struct {
	electricityConsumption []float64
}

func (r *consumptionRecord) UpdateElectricityConsumption(kWh float64) {
	r.electricityConsumption[len(r.electricityConsumption)-1] += kWh
}

// ElectricityConsumption returns the per-step electricity draw, in kWh.
func (r *consumptionRecord) ElectricityConsumption() []float64 {
	return r.electricityConsumption
}

func (r *consumptionRecord) NextTimeStep() {
	r.electricityConsumption = append(r.electricityConsumption, 0)
}

func (r *consumptionRecord) Reset() {
	r.electricityConsumption = []float64{0}
}
