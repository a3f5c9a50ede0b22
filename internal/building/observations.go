package building

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"buildingsim/internal/dynamics"
)

// observationOrder fixes the canonical observation ordering. Active
// observations, the observation space and observation vectors all follow it.
var observationOrder = []string{
	"month",
	"day_type",
	"hour",
	"daylight_savings_status",
	"outdoor_dry_bulb_temperature",
	"outdoor_dry_bulb_temperature_predicted_6h",
	"outdoor_dry_bulb_temperature_predicted_12h",
	"outdoor_dry_bulb_temperature_predicted_24h",
	"outdoor_relative_humidity",
	"outdoor_relative_humidity_predicted_6h",
	"outdoor_relative_humidity_predicted_12h",
	"outdoor_relative_humidity_predicted_24h",
	"diffuse_solar_irradiance",
	"diffuse_solar_irradiance_predicted_6h",
	"diffuse_solar_irradiance_predicted_12h",
	"diffuse_solar_irradiance_predicted_24h",
	"direct_solar_irradiance",
	"direct_solar_irradiance_predicted_6h",
	"direct_solar_irradiance_predicted_12h",
	"direct_solar_irradiance_predicted_24h",
	"carbon_intensity",
	"indoor_dry_bulb_temperature",
	"average_unmet_cooling_setpoint_difference",
	"indoor_relative_humidity",
	"non_shiftable_load",
	"dhw_demand",
	"cooling_demand",
	"heating_demand",
	"solar_generation",
	"occupant_count",
	"cooling_dry_bulb_temperature_set_point",
	"heating_dry_bulb_temperature_set_point",
	"cooling_dry_bulb_temperature_delta",
	"heating_dry_bulb_temperature_delta",
	"cooling_storage_soc",
	"heating_storage_soc",
	"dhw_storage_soc",
	"electrical_storage_soc",
	"net_electricity_consumption",
	"electricity_pricing",
	"electricity_pricing_predicted_6h",
	"electricity_pricing_predicted_12h",
	"electricity_pricing_predicted_24h",
	"cooling_device_cop",
	"heating_device_cop",
}

func defaultObservationMetadata() map[string]bool {
	return map[string]bool{
		"month":                        true,
		"day_type":                     true,
		"hour":                         true,
		"outdoor_dry_bulb_temperature": true,
		"diffuse_solar_irradiance":     true,
		"direct_solar_irradiance":      true,
		"carbon_intensity":             true,
		"indoor_dry_bulb_temperature":  true,
		"non_shiftable_load":           true,
		"solar_generation":             true,
		"cooling_storage_soc":          true,
		"heating_storage_soc":          true,
		"dhw_storage_soc":              true,
		"electrical_storage_soc":       true,
		"net_electricity_consumption":  true,
		"electricity_pricing":          true,
	}
}

func defaultActionMetadata() map[string]bool {
	return map[string]bool{
		ActionCoolingDevice:     true,
		ActionHeatingDevice:     true,
		ActionCoolingStorage:    true,
		ActionHeatingStorage:    true,
		ActionDHWStorage:        true,
		ActionElectricalStorage: true,
	}
}

// observationData materializes every resolvable observation at the current
// time step. Series that were not loaded simply produce no entry.
func (b *Building) observationData() map[string]float64 {
	t := b.TimeStep()
	data := make(map[string]float64, len(observationOrder))
	for _, columns := range []map[string][]float64{
		b.energySim.Columns(),
		b.weather.Columns(),
		b.pricing.Columns(),
		b.carbon.Columns(),
	} {
		for name, col := range columns {
			if t < len(col) {
				data[name] = col[t]
			}
		}
	}

	// Derived quantities override raw series where the names collide.
	data["solar_generation"] = b.pv.Generation(b.energySim.SolarGeneration[t])
	data["cooling_storage_soc"] = storageSOC(b.coolingStorage.SOC()[t], b.coolingStorage.Capacity())
	data["heating_storage_soc"] = storageSOC(b.heatingStorage.SOC()[t], b.heatingStorage.Capacity())
	data["dhw_storage_soc"] = storageSOC(b.dhwStorage.SOC()[t], b.dhwStorage.Capacity())
	data["electrical_storage_soc"] = storageSOC(b.electricalStorage.SOC()[t], b.electricalStorage.CapacityHistory()[0])
	data["net_electricity_consumption"] = b.netConsumption[t]

	ambient := b.weather.OutdoorDryBulbTemperature[t]
	data["cooling_device_cop"] = b.coolingDevice.COP(ambient, false)
	data["heating_device_cop"] = b.heatingDevice.COP(ambient, true)

	if t < len(b.energySim.CoolingDryBulbTemperatureSetPoint) {
		data["cooling_dry_bulb_temperature_delta"] =
			math.Abs(b.energySim.IndoorDryBulbTemperature[t] - b.energySim.CoolingDryBulbTemperatureSetPoint[t])
	}
	if t < len(b.energySim.HeatingDryBulbTemperatureSetPoint) {
		data["heating_dry_bulb_temperature_delta"] =
			math.Abs(b.energySim.IndoorDryBulbTemperature[t] - b.energySim.HeatingDryBulbTemperatureSetPoint[t])
	}
	return data
}

// Observations returns the active observations at the current time step,
// keyed by name. An active observation with no backing data is an error.
func (b *Building) Observations() (map[string]float64, error) {
	data := b.observationData()
	out := make(map[string]float64, len(b.activeObservations))
	var missing []string
	for _, name := range b.activeObservations {
		v, ok := data[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		out[name] = v
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, fmt.Errorf("building %q: active observations without data: %s",
			b.name, strings.Join(missing, ", "))
	}
	return out, nil
}

// ObservationVector returns the active observations as a flat vector in the
// canonical order, aligned with ObservationSpace.
func (b *Building) ObservationVector() ([]float64, error) {
	obs, err := b.Observations()
	if err != nil {
		return nil, err
	}
	vec := make([]float64, len(b.activeObservations))
	for i, name := range b.activeObservations {
		vec[i] = obs[name]
	}
	return vec, nil
}

// observationScaler returns a min-max scaler over an active observation's
// estimated bounds.
func (b *Building) observationScaler(name string) (dynamics.MinMaxScaler, bool) {
	for i, active := range b.activeObservations {
		if active == name {
			return dynamics.MinMaxScaler{
				Min: b.observationSpace.Low[i],
				Max: b.observationSpace.High[i],
			}, true
		}
	}
	return dynamics.MinMaxScaler{}, false
}

func storageSOC(soc, capacity float64) float64 {
	if capacity <= 0 {
		return 0
	}
	return soc / capacity
}
