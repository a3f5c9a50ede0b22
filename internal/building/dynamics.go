package building

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"buildingsim/internal/dynamics"
)

// dynamicsInputColumns is the feature layout surrogate temperature models
// are trained against, in column order. q_hvac is the cooling load window
// ending at the current step; every other feature's window ends one step
// earlier.
var dynamicsInputColumns = []string{
	"direct_solar_irradiance",
	"outdoor_dry_bulb_temperature",
	"occupant_count",
	"q_hvac",
	"hour_sin",
	"hour_cos",
	"day_type_sin",
	"day_type_cos",
	"month_sin",
	"month_cos",
	"indoor_dry_bulb_temperature",
}

// updateDeviceDemand rewrites the current step's cooling or heating demand
// from the device action. Only meaningful when a dynamics model closes the
// loop; with precomputed temperatures the series stay untouched.
func (b *Building) updateDeviceDemand(action float64, heating bool) {
	if b.dynamicsModel == nil {
		return
	}
	t := b.TimeStep()
	src := b.coolingDevice
	demand := b.energySim.CoolingDemand
	schedule := b.energySim.CoolingDeviceDemandSchedule
	if heating {
		src = b.heatingDevice
		demand = b.energySim.HeatingDemand
		schedule = b.energySim.HeatingDeviceDemandSchedule
	}

	enabled := true
	if t < len(schedule) {
		enabled = schedule[t] > 0
	}
	if !enabled {
		demand[t] = 0
		return
	}
	electric := math.Min(action*src.NominalPower(), src.NominalPower())
	demand[t] = src.MaxOutputPower(b.weather.OutdoorDryBulbTemperature[t], heating, electric)
}

// updateDynamics predicts the current step's indoor temperature from a
// lookback window of scaled features, overwriting the precomputed value in
// place. The model's recurrent state is carried across steps and cleared by
// Reset.
func (b *Building) updateDynamics() error {
	if b.dynamicsModel == nil {
		return nil
	}
	lookback := b.dynamicsModel.Lookback()
	window := mat.NewDense(lookback, len(dynamicsInputColumns), nil)
	for col, name := range dynamicsInputColumns {
		values, scaler, err := b.dynamicsFeature(name, lookback)
		if err != nil {
			return fmt.Errorf("building %q: %w", b.name, err)
		}
		for row, v := range values {
			window.Set(row, col, scaler.Transform(v))
		}
	}

	prediction, state := b.dynamicsModel.Predict(window, b.dynamicsState)
	b.dynamicsState = state

	scaler, ok := b.observationScaler("indoor_dry_bulb_temperature")
	if !ok {
		return fmt.Errorf("building %q: indoor_dry_bulb_temperature must be an active observation to run dynamics", b.name)
	}
	b.energySim.IndoorDryBulbTemperature[b.TimeStep()] = scaler.Inverse(prediction)
	return nil
}

// dynamicsFeature gathers one model input's lookback window and the scaler
// that normalizes it. Windows wrap around the horizon so early steps see the
// tail of the dataset.
func (b *Building) dynamicsFeature(name string, lookback int) ([]float64, dynamics.MinMaxScaler, error) {
	t := b.TimeStep()
	n := b.energySim.Length()
	values := make([]float64, lookback)

	switch name {
	case "q_hvac":
		// Thermal load on the zone: cooling extracts heat, so the window
		// ends at the step being predicted.
		for r := range values {
			values[r] = nanZero(b.energySim.CoolingDemand[wrapIndex(t-lookback+1+r, n)])
		}
		scaler, ok := b.observationScaler("cooling_demand")
		if !ok {
			return nil, dynamics.MinMaxScaler{}, fmt.Errorf("dynamics input %s needs cooling_demand as an active observation", name)
		}
		return values, scaler, nil

	case "hour_sin", "hour_cos", "day_type_sin", "day_type_cos", "month_sin", "month_cos":
		base, useCos := periodicBase(name)
		var raw []float64
		switch base {
		case "hour":
			raw = intSeries(b.energySim.Hour)
		case "day_type":
			raw = intSeries(b.energySim.DayType)
		case "month":
			raw = intSeries(b.energySim.Month)
		}
		_, period, ok := nanMinMax(raw)
		if !ok || period == 0 {
			return nil, dynamics.MinMaxScaler{}, fmt.Errorf("dynamics input %s: empty %s series", name, base)
		}
		encoded := make([]float64, n)
		for i, v := range raw {
			phase := 2 * math.Pi * v / period
			if useCos {
				encoded[i] = math.Cos(phase)
			} else {
				encoded[i] = math.Sin(phase)
			}
		}
		for r := range values {
			values[r] = encoded[wrapIndex(t-lookback+r, n)]
		}
		lo, hi, _ := nanMinMax(encoded)
		return values, dynamics.MinMaxScaler{Min: lo, Max: hi}, nil

	default:
		columns := b.boundData()
		col, ok := columns[name]
		if !ok {
			return nil, dynamics.MinMaxScaler{}, fmt.Errorf("unknown dynamics model input %s", name)
		}
		scaler, active := b.observationScaler(name)
		if !active {
			return nil, dynamics.MinMaxScaler{}, fmt.Errorf("dynamics input %s must be an active observation", name)
		}
		for r := range values {
			values[r] = col[wrapIndex(t-lookback+r, n)]
		}
		return values, scaler, nil
	}
}

func periodicBase(name string) (base string, useCos bool) {
	switch name {
	case "hour_sin":
		return "hour", false
	case "hour_cos":
		return "hour", true
	case "day_type_sin":
		return "day_type", false
	case "day_type_cos":
		return "day_type", true
	case "month_sin":
		return "month", false
	default:
		return "month", true
	}
}

func intSeries(src []int) []float64 {
	out := make([]float64, len(src))
	for i, v := range src {
		out[i] = float64(v)
	}
	return out
}

func wrapIndex(i, n int) int {
	return ((i % n) + n) % n
}
