package building

import (
	"fmt"
	"math"
)

const (
	// temperatureBand widens indoor temperature bounds to cover excursions
	// the demand series never realized.
	temperatureBand = 20.0

	// demandBoundFactor scales the observed peak demand into an upper bound
	// for the controllable-demand path.
	demandBoundFactor = 2.5

	// storageThroughputEfficiency is the assumed round-trip efficiency when
	// sizing the net-consumption bound from storage capacities.
	storageThroughputEfficiency = 0.8
)

// Space is a box of per-dimension bounds, aligned with the active
// observation or action names.
type Space struct {
	Low  []float64
	High []float64
}

// Contains reports whether v lies within the box. Vectors of the wrong
// length are outside by definition.
func (s Space) Contains(v []float64) bool {
	if len(v) != len(s.Low) {
		return false
	}
	for i, x := range v {
		if x < s.Low[i] || x > s.High[i] {
			return false
		}
	}
	return true
}

// EstimateObservationSpace derives bounds for every active observation from
// the loaded series and device parameters. The estimate is deterministic:
// the same configuration always yields the same bounds.
func (b *Building) EstimateObservationSpace() (Space, error) {
	data := b.boundData()
	n := b.energySim.Length()

	low := make([]float64, 0, len(b.activeObservations))
	high := make([]float64, 0, len(b.activeObservations))
	for _, name := range b.activeObservations {
		var lo, hi float64
		switch name {
		case "net_electricity_consumption":
			lo, hi = b.netConsumptionBound()
		case "cooling_device_cop", "heating_device_cop":
			heating := name == "heating_device_cop"
			src := b.coolingDevice
			if heating {
				src = b.heatingDevice
			}
			lo, hi = math.Inf(1), math.Inf(-1)
			for t := 0; t < n; t++ {
				cop := src.COP(b.weather.OutdoorDryBulbTemperature[t], heating)
				lo = math.Min(lo, cop)
				hi = math.Max(hi, cop)
			}
		case "indoor_dry_bulb_temperature",
			"cooling_dry_bulb_temperature_set_point",
			"heating_dry_bulb_temperature_set_point":
			var ok bool
			lo, hi, ok = nanMinMax(data[name])
			if !ok {
				return Space{}, fmt.Errorf("observation %s: no backing series to bound", name)
			}
			lo -= temperatureBand
			hi += temperatureBand
		case "cooling_dry_bulb_temperature_delta", "heating_dry_bulb_temperature_delta":
			lo, hi = 0, temperatureBand
		case "cooling_demand", "heating_demand":
			_, peak, ok := nanMinMax(data[name])
			if !ok {
				return Space{}, fmt.Errorf("observation %s: no backing series to bound", name)
			}
			lo, hi = 0, peak*demandBoundFactor
		case "cooling_storage_soc", "heating_storage_soc", "dhw_storage_soc", "electrical_storage_soc":
			lo, hi = 0, 1
		default:
			var ok bool
			lo, hi, ok = nanMinMax(data[name])
			if !ok {
				return Space{}, fmt.Errorf("observation %s: no backing series to bound", name)
			}
		}
		low = append(low, lo-b.epsilon)
		high = append(high, hi+b.epsilon)
	}
	return Space{Low: low, High: high}, nil
}

// EstimateActionSpace derives bounds for every active action. Device actions
// are fractions of nominal power in [0, 1]; storage actions are fractions of
// capacity, symmetric and capped so one step cannot move more energy than the
// served demand peak.
func (b *Building) EstimateActionSpace() Space {
	low := make([]float64, 0, len(b.activeActions))
	high := make([]float64, 0, len(b.activeActions))
	for _, name := range b.activeActions {
		var lo, hi float64
		switch name {
		case ActionCoolingDevice, ActionHeatingDevice:
			lo, hi = 0, 1
		case ActionElectricalStorage:
			lo, hi = -1, 1
		case ActionCoolingStorage:
			lo, hi = thermalStorageActionBound(b.coolingStorage.Capacity(), b.energySim.CoolingDemand)
		case ActionHeatingStorage:
			lo, hi = thermalStorageActionBound(b.heatingStorage.Capacity(), b.energySim.HeatingDemand)
		case ActionDHWStorage:
			lo, hi = thermalStorageActionBound(b.dhwStorage.Capacity(), b.energySim.DHWDemand)
		}
		low = append(low, lo)
		high = append(high, hi)
	}
	return Space{Low: low, High: high}
}

func thermalStorageActionBound(capacity float64, demand []float64) (float64, float64) {
	if capacity <= 0 {
		return -1, 1
	}
	_, peak, ok := nanMinMax(demand)
	if !ok {
		return -1, 1
	}
	r := peak / capacity
	return math.Max(-r, -1), math.Min(r, 1)
}

// netConsumptionBound sizes a symmetric bound on net grid exchange: every
// demand plus every store charging through an imperfect device, against full
// PV output.
func (b *Building) netConsumptionBound() (float64, float64) {
	storageDraw := (b.coolingStorage.Capacity() +
		b.heatingStorage.Capacity() +
		b.dhwStorage.Capacity() +
		b.electricalStorage.Capacity()) / storageThroughputEfficiency

	m := 0.0
	for t := 0; t < b.energySim.Length(); t++ {
		v := b.energySim.NonShiftableLoad[t] +
			nanZero(b.energySim.DHWDemand[t]) +
			nanZero(b.energySim.CoolingDemand[t]) +
			nanZero(b.energySim.HeatingDemand[t]) +
			storageDraw -
			b.pv.Generation(b.energySim.SolarGeneration[t])
		m = math.Max(m, math.Abs(v))
	}
	return -m, m
}

// boundData is observationData over full series instead of a single step:
// every resolvable observation name mapped to the series that backs it.
func (b *Building) boundData() map[string][]float64 {
	data := make(map[string][]float64)
	for _, columns := range []map[string][]float64{
		b.energySim.Columns(),
		b.weather.Columns(),
		b.pricing.Columns(),
		b.carbon.Columns(),
	} {
		for name, col := range columns {
			if len(col) > 0 {
				data[name] = col
			}
		}
	}
	data["solar_generation"] = b.pv.GenerationSeries(b.energySim.SolarGeneration)
	return data
}

// nanMinMax returns the extrema of xs ignoring NaN entries. ok is false when
// xs holds no finite values.
func nanMinMax(xs []float64) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		lo = math.Min(lo, x)
		hi = math.Max(hi, x)
		ok = true
	}
	return lo, hi, ok
}
