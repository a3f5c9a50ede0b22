// Package series holds the read-only exogenous time series a building
// simulation consumes: scheduled loads, weather, electricity pricing and
// grid carbon intensity. Every field is one value per simulated time step
// over the full horizon.
package series

import "fmt"

// EnergySimulation holds the building's temporal features, end-use load
// schedules and indoor-environment trajectory.
//
// IndoorDryBulbTemperature is the only slice the simulation core is allowed
// to write: the surrogate dynamics path overwrites the sample at the step
// being simulated.
type EnergySimulation struct {
	Month                 []int // 1 - 12
	Hour                  []int // 0 - 23
	DayType               []int // 1 - 7 Monday - Sunday, 8 special day
	DaylightSavingsStatus []int // 0 or 1

	IndoorDryBulbTemperature              []float64 // C
	AverageUnmetCoolingSetpointDifference []float64 // C
	IndoorRelativeHumidity                []float64 // %

	NonShiftableLoad []float64 // kWh
	DHWDemand        []float64 // kWh
	CoolingDemand    []float64 // kWh
	HeatingDemand    []float64 // kWh
	SolarGeneration  []float64 // inverter output per 1 kW of PV, W/kW

	OccupantCount                     []float64
	CoolingDryBulbTemperatureSetPoint []float64 // C
	HeatingDryBulbTemperatureSetPoint []float64 // C

	// Demand-enabling flags for the controllable-demand path. A value <= 0
	// forces the corresponding device demand to zero regardless of action.
	CoolingDeviceDemandSchedule []int
	HeatingDeviceDemandSchedule []int
}

// Weather holds outdoor conditions and their 6/12/24 hour ahead forecasts.
type Weather struct {
	OutdoorDryBulbTemperature []float64 // C
	OutdoorRelativeHumidity   []float64 // %
	DiffuseSolarIrradiance    []float64 // W/m^2
	DirectSolarIrradiance     []float64 // W/m^2

	OutdoorDryBulbTemperaturePredicted6h  []float64
	OutdoorDryBulbTemperaturePredicted12h []float64
	OutdoorDryBulbTemperaturePredicted24h []float64
	OutdoorRelativeHumidityPredicted6h    []float64
	OutdoorRelativeHumidityPredicted12h   []float64
	OutdoorRelativeHumidityPredicted24h   []float64
	DiffuseSolarIrradiancePredicted6h     []float64
	DiffuseSolarIrradiancePredicted12h    []float64
	DiffuseSolarIrradiancePredicted24h    []float64
	DirectSolarIrradiancePredicted6h      []float64
	DirectSolarIrradiancePredicted12h     []float64
	DirectSolarIrradiancePredicted24h     []float64
}

// Pricing holds the electricity price series and its forecasts.
type Pricing struct {
	ElectricityPricing             []float64 // $/kWh
	ElectricityPricingPredicted6h  []float64
	ElectricityPricingPredicted12h []float64
	ElectricityPricingPredicted24h []float64
}

// CarbonIntensity holds the grid carbon dioxide emission rate series.
type CarbonIntensity struct {
	CarbonIntensity []float64 // kg_CO2/kWh
}

// ZeroPricing returns an all-zero pricing series of length n, used when a
// building has no tariff data.
func ZeroPricing(n int) *Pricing {
	return &Pricing{
		ElectricityPricing:             make([]float64, n),
		ElectricityPricingPredicted6h:  make([]float64, n),
		ElectricityPricingPredicted12h: make([]float64, n),
		ElectricityPricingPredicted24h: make([]float64, n),
	}
}

// ZeroCarbonIntensity returns an all-zero carbon intensity series of length n.
func ZeroCarbonIntensity(n int) *CarbonIntensity {
	return &CarbonIntensity{CarbonIntensity: make([]float64, n)}
}

// Length returns the simulation horizon, i.e. the number of time steps.
func (e *EnergySimulation) Length() int {
	return len(e.NonShiftableLoad)
}

// Validate checks that every populated slice spans the same horizon.
func (e *EnergySimulation) Validate() error {
	n := e.Length()
	if n == 0 {
		return fmt.Errorf("energy simulation: empty horizon")
	}
	named := map[string]int{
		"month":                       len(e.Month),
		"hour":                        len(e.Hour),
		"day_type":                    len(e.DayType),
		"indoor_dry_bulb_temperature": len(e.IndoorDryBulbTemperature),
		"dhw_demand":                  len(e.DHWDemand),
		"cooling_demand":              len(e.CoolingDemand),
		"heating_demand":              len(e.HeatingDemand),
		"solar_generation":            len(e.SolarGeneration),
	}
	for name, l := range named {
		if l != n {
			return fmt.Errorf("energy simulation: column %s has %d rows, want %d", name, l, n)
		}
	}
	return nil
}

// Columns maps observation names to the underlying series. Integer-valued
// temporal features are materialized as float slices so bound estimation and
// feature scaling treat every column uniformly.
func (e *EnergySimulation) Columns() map[string][]float64 {
	return map[string][]float64{
		"month":                   intsToFloats(e.Month),
		"hour":                    intsToFloats(e.Hour),
		"day_type":                intsToFloats(e.DayType),
		"daylight_savings_status": intsToFloats(e.DaylightSavingsStatus),

		"indoor_dry_bulb_temperature":               e.IndoorDryBulbTemperature,
		"average_unmet_cooling_setpoint_difference": e.AverageUnmetCoolingSetpointDifference,
		"indoor_relative_humidity":                  e.IndoorRelativeHumidity,

		"non_shiftable_load": e.NonShiftableLoad,
		"dhw_demand":         e.DHWDemand,
		"cooling_demand":     e.CoolingDemand,
		"heating_demand":     e.HeatingDemand,

		"occupant_count":                         e.OccupantCount,
		"cooling_dry_bulb_temperature_set_point": e.CoolingDryBulbTemperatureSetPoint,
		"heating_dry_bulb_temperature_set_point": e.HeatingDryBulbTemperatureSetPoint,
	}
}

// Columns maps observation names to the underlying weather series.
func (w *Weather) Columns() map[string][]float64 {
	return map[string][]float64{
		"outdoor_dry_bulb_temperature": w.OutdoorDryBulbTemperature,
		"outdoor_relative_humidity":    w.OutdoorRelativeHumidity,
		"diffuse_solar_irradiance":     w.DiffuseSolarIrradiance,
		"direct_solar_irradiance":      w.DirectSolarIrradiance,

		"outdoor_dry_bulb_temperature_predicted_6h":  w.OutdoorDryBulbTemperaturePredicted6h,
		"outdoor_dry_bulb_temperature_predicted_12h": w.OutdoorDryBulbTemperaturePredicted12h,
		"outdoor_dry_bulb_temperature_predicted_24h": w.OutdoorDryBulbTemperaturePredicted24h,
		"outdoor_relative_humidity_predicted_6h":     w.OutdoorRelativeHumidityPredicted6h,
		"outdoor_relative_humidity_predicted_12h":    w.OutdoorRelativeHumidityPredicted12h,
		"outdoor_relative_humidity_predicted_24h":    w.OutdoorRelativeHumidityPredicted24h,
		"diffuse_solar_irradiance_predicted_6h":      w.DiffuseSolarIrradiancePredicted6h,
		"diffuse_solar_irradiance_predicted_12h":     w.DiffuseSolarIrradiancePredicted12h,
		"diffuse_solar_irradiance_predicted_24h":     w.DiffuseSolarIrradiancePredicted24h,
		"direct_solar_irradiance_predicted_6h":       w.DirectSolarIrradiancePredicted6h,
		"direct_solar_irradiance_predicted_12h":      w.DirectSolarIrradiancePredicted12h,
		"direct_solar_irradiance_predicted_24h":      w.DirectSolarIrradiancePredicted24h,
	}
}

// Columns maps observation names to the underlying pricing series.
func (p *Pricing) Columns() map[string][]float64 {
	return map[string][]float64{
		"electricity_pricing":               p.ElectricityPricing,
		"electricity_pricing_predicted_6h":  p.ElectricityPricingPredicted6h,
		"electricity_pricing_predicted_12h": p.ElectricityPricingPredicted12h,
		"electricity_pricing_predicted_24h": p.ElectricityPricingPredicted24h,
	}
}

// Columns maps observation names to the underlying carbon intensity series.
func (c *CarbonIntensity) Columns() map[string][]float64 {
	return map[string][]float64{
		"carbon_intensity": c.CarbonIntensity,
	}
}

func intsToFloats(src []int) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}
