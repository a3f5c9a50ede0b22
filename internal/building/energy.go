package building

import (
	"math"

	"buildingsim/internal/device"
)

// updateThermalStorage charges or discharges a thermal store. The request is
// a fraction of capacity, converted to kWh and clamped so discharge never
// exceeds the step's demand and charge never exceeds the source device's
// spare output above demand. The source device is billed for demand plus the
// clamped request at the current ambient COP.
func (b *Building) updateThermalStorage(action float64, store *device.StorageTank, src device.ThermalSource, demandSeries []float64, heating bool) {
	t := b.TimeStep()
	ambient := b.weather.OutdoorDryBulbTemperature[t]
	demand := nanZero(demandSeries[t])

	energy := action * store.Capacity()
	maxOutput := src.MaxOutputPower(ambient, heating, device.NoPowerLimit)
	energy = clip(energy, -demand, maxOutput-demand)
	store.Charge(energy)

	src.UpdateElectricityConsumption(src.InputPower(demand+energy, ambient, heating))
}

// updateElectricalStorage charges or discharges the battery by a fraction of
// its current capacity. The battery applies its own power and capacity
// limits internally.
func (b *Building) updateElectricalStorage(action float64) {
	b.electricalStorage.Charge(action * b.electricalStorage.Capacity())
}

// updateVariables appends the current step's entries to the consumption,
// cost and emission ledgers. Thermal consumptions are recomputed from the
// stores' recorded energy balances, so internal clamping in Charge is
// reflected here even when it diverged from the request.
func (b *Building) updateVariables() {
	t := b.TimeStep()
	ambient := b.weather.OutdoorDryBulbTemperature[t]

	cooling := b.coolingDevice.InputPower(
		nanZero(b.energySim.CoolingDemand[t])+b.coolingStorage.EnergyBalance()[t], ambient, false)
	heating := b.heatingDevice.InputPower(
		nanZero(b.energySim.HeatingDemand[t])+b.heatingStorage.EnergyBalance()[t], ambient, true)
	dhw := b.dhwDevice.InputPower(
		nanZero(b.energySim.DHWDemand[t])+b.dhwStorage.EnergyBalance()[t], ambient, true)

	b.coolingConsumption = append(b.coolingConsumption, cooling)
	b.heatingConsumption = append(b.heatingConsumption, heating)
	b.dhwConsumption = append(b.dhwConsumption, dhw)

	net := cooling + heating + dhw +
		b.electricalStorage.ElectricityConsumption()[t] +
		b.energySim.NonShiftableLoad[t] +
		b.solarGeneration[t]
	b.netConsumption = append(b.netConsumption, net)
	b.netCost = append(b.netCost, net*b.pricing.ElectricityPricing[t])
	b.netEmission = append(b.netEmission, math.Max(0, net*b.carbon.CarbonIntensity[t]))
}

func clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func nanZero(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return v
}
