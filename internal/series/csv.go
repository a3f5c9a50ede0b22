package series

import (
	"fmt"
	"os"

	"github.com/gocarina/gocsv"
)

type energySimulationRow struct {
	Month                 int `csv:"month"`
	Hour                  int `csv:"hour"`
	DayType               int `csv:"day_type"`
	DaylightSavingsStatus int `csv:"daylight_savings_status"`

	IndoorDryBulbTemperature              float64 `csv:"indoor_dry_bulb_temperature"`
	AverageUnmetCoolingSetpointDifference float64 `csv:"average_unmet_cooling_setpoint_difference"`
	IndoorRelativeHumidity                float64 `csv:"indoor_relative_humidity"`

	NonShiftableLoad float64 `csv:"non_shiftable_load"`
	DHWDemand        float64 `csv:"dhw_demand"`
	CoolingDemand    float64 `csv:"cooling_demand"`
	HeatingDemand    float64 `csv:"heating_demand"`
	SolarGeneration  float64 `csv:"solar_generation"`

	OccupantCount                     float64 `csv:"occupant_count"`
	CoolingDryBulbTemperatureSetPoint float64 `csv:"cooling_dry_bulb_temperature_set_point"`
	HeatingDryBulbTemperatureSetPoint float64 `csv:"heating_dry_bulb_temperature_set_point"`
	CoolingDeviceDemandSchedule       int     `csv:"cooling_device_demand_schedule"`
	HeatingDeviceDemandSchedule       int     `csv:"heating_device_demand_schedule"`
}

type weatherRow struct {
	OutdoorDryBulbTemperature float64 `csv:"outdoor_dry_bulb_temperature"`
	OutdoorRelativeHumidity   float64 `csv:"outdoor_relative_humidity"`
	DiffuseSolarIrradiance    float64 `csv:"diffuse_solar_irradiance"`
	DirectSolarIrradiance     float64 `csv:"direct_solar_irradiance"`

	OutdoorDryBulbTemperaturePredicted6h  float64 `csv:"outdoor_dry_bulb_temperature_predicted_6h"`
	OutdoorDryBulbTemperaturePredicted12h float64 `csv:"outdoor_dry_bulb_temperature_predicted_12h"`
	OutdoorDryBulbTemperaturePredicted24h float64 `csv:"outdoor_dry_bulb_temperature_predicted_24h"`
	OutdoorRelativeHumidityPredicted6h    float64 `csv:"outdoor_relative_humidity_predicted_6h"`
	OutdoorRelativeHumidityPredicted12h   float64 `csv:"outdoor_relative_humidity_predicted_12h"`
	OutdoorRelativeHumidityPredicted24h   float64 `csv:"outdoor_relative_humidity_predicted_24h"`
	DiffuseSolarIrradiancePredicted6h     float64 `csv:"diffuse_solar_irradiance_predicted_6h"`
	DiffuseSolarIrradiancePredicted12h    float64 `csv:"diffuse_solar_irradiance_predicted_12h"`
	DiffuseSolarIrradiancePredicted24h    float64 `csv:"diffuse_solar_irradiance_predicted_24h"`
	DirectSolarIrradiancePredicted6h      float64 `csv:"direct_solar_irradiance_predicted_6h"`
	DirectSolarIrradiancePredicted12h     float64 `csv:"direct_solar_irradiance_predicted_12h"`
	DirectSolarIrradiancePredicted24h     float64 `csv:"direct_solar_irradiance_predicted_24h"`
}

type pricingRow struct {
	ElectricityPricing             float64 `csv:"electricity_pricing"`
	ElectricityPricingPredicted6h  float64 `csv:"electricity_pricing_predicted_6h"`
	ElectricityPricingPredicted12h float64 `csv:"electricity_pricing_predicted_12h"`
	ElectricityPricingPredicted24h float64 `csv:"electricity_pricing_predicted_24h"`
}

type carbonIntensityRow struct {
	CarbonIntensity float64 `csv:"kg_CO2/kWh"`
}

// LoadEnergySimulation reads a building load schedule CSV. Columns absent
// from the file are left zero-valued.
func LoadEnergySimulation(path string) (*EnergySimulation, error) {
	var rows []energySimulationRow
	if err := loadCSV(path, &rows); err != nil {
		return nil, err
	}

	e := &EnergySimulation{}
	for _, r := range rows {
		e.Month = append(e.Month, r.Month)
		e.Hour = append(e.Hour, r.Hour)
		e.DayType = append(e.DayType, r.DayType)
		e.DaylightSavingsStatus = append(e.DaylightSavingsStatus, r.DaylightSavingsStatus)
		e.IndoorDryBulbTemperature = append(e.IndoorDryBulbTemperature, r.IndoorDryBulbTemperature)
		e.AverageUnmetCoolingSetpointDifference = append(e.AverageUnmetCoolingSetpointDifference, r.AverageUnmetCoolingSetpointDifference)
		e.IndoorRelativeHumidity = append(e.IndoorRelativeHumidity, r.IndoorRelativeHumidity)
		e.NonShiftableLoad = append(e.NonShiftableLoad, r.NonShiftableLoad)
		e.DHWDemand = append(e.DHWDemand, r.DHWDemand)
		e.CoolingDemand = append(e.CoolingDemand, r.CoolingDemand)
		e.HeatingDemand = append(e.HeatingDemand, r.HeatingDemand)
		e.SolarGeneration = append(e.SolarGeneration, r.SolarGeneration)
		e.OccupantCount = append(e.OccupantCount, r.OccupantCount)
		e.CoolingDryBulbTemperatureSetPoint = append(e.CoolingDryBulbTemperatureSetPoint, r.CoolingDryBulbTemperatureSetPoint)
		e.HeatingDryBulbTemperatureSetPoint = append(e.HeatingDryBulbTemperatureSetPoint, r.HeatingDryBulbTemperatureSetPoint)
		e.CoolingDeviceDemandSchedule = append(e.CoolingDeviceDemandSchedule, r.CoolingDeviceDemandSchedule)
		e.HeatingDeviceDemandSchedule = append(e.HeatingDeviceDemandSchedule, r.HeatingDeviceDemandSchedule)
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return e, nil
}

// LoadWeather reads a weather CSV.
func LoadWeather(path string) (*Weather, error) {
	var rows []weatherRow
	if err := loadCSV(path, &rows); err != nil {
		return nil, err
	}

	w := &Weather{}
	for _, r := range rows {
		w.OutdoorDryBulbTemperature = append(w.OutdoorDryBulbTemperature, r.OutdoorDryBulbTemperature)
		w.OutdoorRelativeHumidity = append(w.OutdoorRelativeHumidity, r.OutdoorRelativeHumidity)
		w.DiffuseSolarIrradiance = append(w.DiffuseSolarIrradiance, r.DiffuseSolarIrradiance)
		w.DirectSolarIrradiance = append(w.DirectSolarIrradiance, r.DirectSolarIrradiance)
		w.OutdoorDryBulbTemperaturePredicted6h = append(w.OutdoorDryBulbTemperaturePredicted6h, r.OutdoorDryBulbTemperaturePredicted6h)
		w.OutdoorDryBulbTemperaturePredicted12h = append(w.OutdoorDryBulbTemperaturePredicted12h, r.OutdoorDryBulbTemperaturePredicted12h)
		w.OutdoorDryBulbTemperaturePredicted24h = append(w.OutdoorDryBulbTemperaturePredicted24h, r.OutdoorDryBulbTemperaturePredicted24h)
		w.OutdoorRelativeHumidityPredicted6h = append(w.OutdoorRelativeHumidityPredicted6h, r.OutdoorRelativeHumidityPredicted6h)
		w.OutdoorRelativeHumidityPredicted12h = append(w.OutdoorRelativeHumidityPredicted12h, r.OutdoorRelativeHumidityPredicted12h)
		w.OutdoorRelativeHumidityPredicted24h = append(w.OutdoorRelativeHumidityPredicted24h, r.OutdoorRelativeHumidityPredicted24h)
		w.DiffuseSolarIrradiancePredicted6h = append(w.DiffuseSolarIrradiancePredicted6h, r.DiffuseSolarIrradiancePredicted6h)
		w.DiffuseSolarIrradiancePredicted12h = append(w.DiffuseSolarIrradiancePredicted12h, r.DiffuseSolarIrradiancePredicted12h)
		w.DiffuseSolarIrradiancePredicted24h = append(w.DiffuseSolarIrradiancePredicted24h, r.DiffuseSolarIrradiancePredicted24h)
		w.DirectSolarIrradiancePredicted6h = append(w.DirectSolarIrradiancePredicted6h, r.DirectSolarIrradiancePredicted6h)
		w.DirectSolarIrradiancePredicted12h = append(w.DirectSolarIrradiancePredicted12h, r.DirectSolarIrradiancePredicted12h)
		w.DirectSolarIrradiancePredicted24h = append(w.DirectSolarIrradiancePredicted24h, r.DirectSolarIrradiancePredicted24h)
	}
	return w, nil
}

// LoadPricing reads an electricity pricing CSV.
func LoadPricing(path string) (*Pricing, error) {
	var rows []pricingRow
	if err := loadCSV(path, &rows); err != nil {
		return nil, err
	}

	p := &Pricing{}
	for _, r := range rows {
		p.ElectricityPricing = append(p.ElectricityPricing, r.ElectricityPricing)
		p.ElectricityPricingPredicted6h = append(p.ElectricityPricingPredicted6h, r.ElectricityPricingPredicted6h)
		p.ElectricityPricingPredicted12h = append(p.ElectricityPricingPredicted12h, r.ElectricityPricingPredicted12h)
		p.ElectricityPricingPredicted24h = append(p.ElectricityPricingPredicted24h, r.ElectricityPricingPredicted24h)
	}
	return p, nil
}

// LoadCarbonIntensity reads a grid carbon intensity CSV.
func LoadCarbonIntensity(path string) (*CarbonIntensity, error) {
	var rows []carbonIntensityRow
	if err := loadCSV(path, &rows); err != nil {
		return nil, err
	}

	c := &CarbonIntensity{}
	for _, r := range rows {
		c.CarbonIntensity = append(c.CarbonIntensity, r.CarbonIntensity)
	}
	return c, nil
}

func loadCSV(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	if err := gocsv.UnmarshalFile(file, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
