package device

import "math"

// HeatPumpConfig holds the user-configurable heat pump parameters.
type HeatPumpConfig struct {
	NominalPower float64 `yaml:"nominal_power"` // kW electric

	// TechnicalEfficiency scales the Carnot COP; zero selects the default.
	TechnicalEfficiency float64 `yaml:"technical_efficiency"`
	// Supply temperature targets used by the COP model, in C.
	TargetCoolingTemperature float64 `yaml:"target_cooling_temperature"`
	TargetHeatingTemperature float64 `yaml:"target_heating_temperature"`
}

// HeatPump is a reversible air-source heat pump whose COP follows a
// technical-efficiency-scaled Carnot model of the outdoor temperature.
type HeatPump struct {
	consumptionRecord

	nominalPower  float64
	etaTech       float64
	targetCooling float64
	targetHeating float64
}

// copCeiling caps the Carnot COP where the outdoor-to-target temperature
// difference collapses and the model diverges.
const copCeiling = 20.0

func NewHeatPump(cfg HeatPumpConfig) *HeatPump {
	if cfg.TechnicalEfficiency == 0 {
		cfg.TechnicalEfficiency = 0.22
	}
	if cfg.TargetCoolingTemperature == 0 {
		cfg.TargetCoolingTemperature = 8.0
	}
	if cfg.TargetHeatingTemperature == 0 {
		cfg.TargetHeatingTemperature = 45.0
	}
	hp := &HeatPump{
		nominalPower:  cfg.NominalPower,
		etaTech:       cfg.TechnicalEfficiency,
		targetCooling: cfg.TargetCoolingTemperature,
		targetHeating: cfg.TargetHeatingTemperature,
	}
	hp.consumptionRecord.Reset()
	return hp
}

// NominalPower returns the rated electric input power, in kW.
func (hp *HeatPump) NominalPower() float64 { return hp.nominalPower }

// COP returns the coefficient of performance at the given outdoor dry bulb
// temperature. Non-physical values (negative or diverging) clamp to the
// ceiling.
func (hp *HeatPump) COP(outdoorDryBulbC float64, heating bool) float64 {
	var cop float64
	if heating {
		cop = hp.etaTech * (hp.targetHeating + 273.15) / (hp.targetHeating - outdoorDryBulbC)
	} else {
		cop = hp.etaTech * (hp.targetCooling + 273.15) / (outdoorDryBulbC - hp.targetCooling)
	}
	if cop < 0 || cop > copCeiling {
		cop = copCeiling
	}
	return cop
}

// MaxOutputPower returns the maximum thermal output at the given outdoor
// temperature, in kW. maxElectricPower caps the electric draw below the
// nominal rating; pass NoPowerLimit to use the rating.
func (hp *HeatPump) MaxOutputPower(outdoorDryBulbC float64, heating bool, maxElectricPower float64) float64 {
	electric := hp.nominalPower
	if !math.IsNaN(maxElectricPower) {
		electric = math.Min(maxElectricPower, hp.nominalPower)
	}
	return electric * hp.COP(outdoorDryBulbC, heating)
}

// InputPower returns the electric power needed to deliver output, in kW.
func (hp *HeatPump) InputPower(output float64, outdoorDryBulbC float64, heating bool) float64 {
	return output / hp.COP(outdoorDryBulbC, heating)
}

// Autosize sets the nominal power to the minimum rating that meets every
// provided demand sample at the concurrent outdoor temperature. Nil demand
// series are skipped. safetyFactor scales the result; zero means 1.
func (hp *HeatPump) Autosize(outdoorDryBulbC, coolingDemand, heatingDemand []float64, safetyFactor float64) {
	if safetyFactor == 0 {
		safetyFactor = 1
	}

	var nominal float64
	for t, temp := range outdoorDryBulbC {
		if coolingDemand != nil {
			nominal = math.Max(nominal, coolingDemand[t]/hp.COP(temp, false))
		}
		if heatingDemand != nil {
			nominal = math.Max(nominal, heatingDemand[t]/hp.COP(temp, true))
		}
	}
	hp.nominalPower = nominal * safetyFactor
}
