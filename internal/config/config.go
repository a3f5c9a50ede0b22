// Package config loads a YAML schema describing one or more buildings and
// constructs them: data file paths, device parameters, storage sizing,
// active observation and action sets, and optional surrogate dynamics.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"

	"buildingsim/internal/building"
	"buildingsim/internal/device"
	"buildingsim/internal/dynamics"
	"buildingsim/internal/series"
)

// Schema is the root of a simulation configuration file.
type Schema struct {
	// RootDirectory anchors relative data paths. Empty means the schema
	// file's own directory.
	RootDirectory string `yaml:"root_directory"`

	// Observations and Actions toggle names on or off for every building.
	// Omitted maps fall back to the built-in defaults.
	Observations map[string]ActiveFlag `yaml:"observations"`
	Actions      map[string]ActiveFlag `yaml:"actions"`

	Buildings map[string]BuildingSchema `yaml:"buildings"`

	baseDir string
}

// ActiveFlag wraps a single on/off switch so schema entries read as
// `hour: {active: true}`.
type ActiveFlag struct {
	Active bool `yaml:"active"`
}

// BuildingSchema describes one building's data files and equipment.
type BuildingSchema struct {
	EnergySimulation string `yaml:"energy_simulation"`
	Weather          string `yaml:"weather"`
	Pricing          string `yaml:"pricing"`
	CarbonIntensity  string `yaml:"carbon_intensity"`

	CoolingDevice *DeviceSchema `yaml:"cooling_device"`
	HeatingDevice *DeviceSchema `yaml:"heating_device"`
	DHWDevice     *DeviceSchema `yaml:"dhw_device"`

	CoolingStorage    *StorageSchema `yaml:"cooling_storage"`
	HeatingStorage    *StorageSchema `yaml:"heating_storage"`
	DHWStorage        *StorageSchema `yaml:"dhw_storage"`
	ElectricalStorage *BatterySchema `yaml:"electrical_storage"`
	PV                *PVSchema      `yaml:"pv"`

	Dynamics *DynamicsSchema `yaml:"dynamics"`

	// EstimationEpsilon widens observation bounds symmetrically; zero
	// leaves the raw bounds untouched.
	EstimationEpsilon float64 `yaml:"estimation_epsilon"`
}

// Device types accepted by DeviceSchema.
const (
	DeviceHeatPump       = "heat_pump"
	DeviceElectricHeater = "electric_heater"
)

// DeviceSchema describes a thermal source. Fields irrelevant to the chosen
// type are ignored.
type DeviceSchema struct {
	Type string `yaml:"type"`

	NominalPower             float64 `yaml:"nominal_power"`
	Efficiency               float64 `yaml:"efficiency"`
	TechnicalEfficiency      float64 `yaml:"technical_efficiency"`
	TargetCoolingTemperature float64 `yaml:"target_cooling_temperature"`
	TargetHeatingTemperature float64 `yaml:"target_heating_temperature"`

	// Autosize derives the nominal power from the demand series it will
	// serve, scaled by AutosizeSafetyFactor (zero means 1).
	Autosize             bool    `yaml:"autosize"`
	AutosizeSafetyFactor float64 `yaml:"autosize_safety_factor"`
}

// StorageSchema describes a thermal storage tank.
type StorageSchema struct {
	device.StorageTankConfig `yaml:",inline"`

	Autosize             bool    `yaml:"autosize"`
	AutosizeSafetyFactor float64 `yaml:"autosize_safety_factor"`
}

// BatterySchema describes electrical storage.
type BatterySchema struct {
	device.BatteryConfig `yaml:",inline"`

	Autosize             bool    `yaml:"autosize"`
	AutosizeSafetyFactor float64 `yaml:"autosize_safety_factor"`
}

// PVSchema describes the PV array.
type PVSchema struct {
	device.PVConfig `yaml:",inline"`

	// Autosize sizes the array so its peak step output reaches
	// AutosizePeakKWh.
	Autosize        bool    `yaml:"autosize"`
	AutosizePeakKWh float64 `yaml:"autosize_peak_kwh"`
}

// DynamicsSchema selects the surrogate temperature model: either a JSON
// weights file or a freshly initialized network.
type DynamicsSchema struct {
	// ModelPath points at serialized LSTM weights. When empty the model is
	// initialized from Config and Seed instead.
	ModelPath string              `yaml:"model_path"`
	Config    dynamics.LSTMConfig `yaml:",inline"`
	Seed      uint64              `yaml:"seed"`
}

// LoadSchema parses a schema file. Unknown keys are rejected so typos fail
// loudly instead of silently disabling equipment.
func LoadSchema(path string) (*Schema, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	var s Schema
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(s.Buildings) == 0 {
		return nil, fmt.Errorf("%s: schema defines no buildings", path)
	}
	s.baseDir = filepath.Dir(path)
	return &s, nil
}

// BuildingNames returns the configured building names, sorted for stable
// iteration.
func (s *Schema) BuildingNames() []string {
	names := make([]string, 0, len(s.Buildings))
	for name := range s.Buildings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build constructs every building in the schema, in name order.
func (s *Schema) Build() ([]*building.Building, error) {
	buildings := make([]*building.Building, 0, len(s.Buildings))
	for _, name := range s.BuildingNames() {
		b, err := s.buildOne(name, s.Buildings[name])
		if err != nil {
			return nil, err
		}
		buildings = append(buildings, b)
	}
	return buildings, nil
}

func (s *Schema) buildOne(name string, bs BuildingSchema) (*building.Building, error) {
	if bs.EnergySimulation == "" {
		return nil, fmt.Errorf("building %q: energy_simulation file is required", name)
	}
	if bs.Weather == "" {
		return nil, fmt.Errorf("building %q: weather file is required", name)
	}

	sim, err := series.LoadEnergySimulation(s.resolve(bs.EnergySimulation))
	if err != nil {
		return nil, fmt.Errorf("building %q: %w", name, err)
	}
	weather, err := series.LoadWeather(s.resolve(bs.Weather))
	if err != nil {
		return nil, fmt.Errorf("building %q: %w", name, err)
	}
	cfg := building.Config{
		Name:             name,
		EnergySimulation: sim,
		Weather:          weather,
		Epsilon:          bs.EstimationEpsilon,
	}

	if bs.Pricing != "" {
		if cfg.Pricing, err = series.LoadPricing(s.resolve(bs.Pricing)); err != nil {
			return nil, fmt.Errorf("building %q: %w", name, err)
		}
	}
	if bs.CarbonIntensity != "" {
		if cfg.CarbonIntensity, err = series.LoadCarbonIntensity(s.resolve(bs.CarbonIntensity)); err != nil {
			return nil, fmt.Errorf("building %q: %w", name, err)
		}
	}

	if cfg.CoolingDevice, err = buildDevice(bs.CoolingDevice, weather, sim.CoolingDemand, nil); err != nil {
		return nil, fmt.Errorf("building %q: cooling_device: %w", name, err)
	}
	if cfg.HeatingDevice, err = buildDevice(bs.HeatingDevice, weather, nil, sim.HeatingDemand); err != nil {
		return nil, fmt.Errorf("building %q: heating_device: %w", name, err)
	}
	if cfg.DHWDevice, err = buildDevice(bs.DHWDevice, weather, nil, sim.DHWDemand); err != nil {
		return nil, fmt.Errorf("building %q: dhw_device: %w", name, err)
	}

	cfg.CoolingStorage = buildStorage(bs.CoolingStorage, sim.CoolingDemand)
	cfg.HeatingStorage = buildStorage(bs.HeatingStorage, sim.HeatingDemand)
	cfg.DHWStorage = buildStorage(bs.DHWStorage, sim.DHWDemand)

	if bs.PV != nil {
		pv := device.NewPV(bs.PV.PVConfig)
		if bs.PV.Autosize {
			pv.Autosize(sim.SolarGeneration, bs.PV.AutosizePeakKWh)
		}
		cfg.PV = pv
	}
	if bs.ElectricalStorage != nil {
		battery := device.NewBattery(bs.ElectricalStorage.BatteryConfig)
		if bs.ElectricalStorage.Autosize {
			pv := cfg.PV
			if pv == nil {
				pv = device.NewPV(device.PVConfig{})
			}
			battery.Autosize(pv.GenerationSeries(sim.SolarGeneration), bs.ElectricalStorage.AutosizeSafetyFactor)
		}
		cfg.ElectricalStorage = battery
	}

	if bs.Dynamics != nil {
		if cfg.Dynamics, err = buildDynamics(bs.Dynamics, s.baseDir); err != nil {
			return nil, fmt.Errorf("building %q: dynamics: %w", name, err)
		}
	}

	cfg.ObservationMetadata = flagsToMetadata(s.Observations)
	cfg.ActionMetadata = flagsToMetadata(s.Actions)

	b, err := building.New(cfg)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func buildDevice(ds *DeviceSchema, weather *series.Weather, coolingDemand, heatingDemand []float64) (device.ThermalSource, error) {
	if ds == nil {
		return nil, nil
	}
	switch ds.Type {
	case DeviceHeatPump, "":
		hp := device.NewHeatPump(device.HeatPumpConfig{
			NominalPower:             ds.NominalPower,
			TechnicalEfficiency:      ds.TechnicalEfficiency,
			TargetCoolingTemperature: ds.TargetCoolingTemperature,
			TargetHeatingTemperature: ds.TargetHeatingTemperature,
		})
		if ds.Autosize {
			hp.Autosize(weather.OutdoorDryBulbTemperature, coolingDemand, heatingDemand, ds.AutosizeSafetyFactor)
		}
		return hp, nil
	case DeviceElectricHeater:
		h := device.NewElectricHeater(device.ElectricHeaterConfig{
			NominalPower: ds.NominalPower,
			Efficiency:   ds.Efficiency,
		})
		if ds.Autosize {
			demand := heatingDemand
			if demand == nil {
				demand = coolingDemand
			}
			h.Autosize(demand, ds.AutosizeSafetyFactor)
		}
		return h, nil
	default:
		return nil, fmt.Errorf("unknown device type %q", ds.Type)
	}
}

func buildStorage(ss *StorageSchema, demand []float64) *device.StorageTank {
	if ss == nil {
		return nil
	}
	tank := device.NewStorageTank(ss.StorageTankConfig)
	if ss.Autosize {
		tank.Autosize(demand, ss.AutosizeSafetyFactor)
	}
	return tank
}

func buildDynamics(ds *DynamicsSchema, baseDir string) (building.Model, error) {
	if ds.ModelPath != "" {
		path := ds.ModelPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(baseDir, path)
		}
		return dynamics.LoadLSTM(path)
	}
	if ds.Config.Lookback == 0 || ds.Config.InputSize == 0 || ds.Config.HiddenSize == 0 || ds.Config.Layers == 0 {
		return nil, fmt.Errorf("either model_path or a full network shape (lookback, input_size, hidden_size, layers) is required")
	}
	return dynamics.NewLSTM(ds.Config, ds.Seed), nil
}

func flagsToMetadata(flags map[string]ActiveFlag) map[string]bool {
	if flags == nil {
		return nil
	}
	metadata := make(map[string]bool, len(flags))
	for name, f := range flags {
		metadata[name] = f.Active
	}
	return metadata
}

func (s *Schema) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if s.RootDirectory != "" {
		if filepath.IsAbs(s.RootDirectory) {
			return filepath.Join(s.RootDirectory, path)
		}
		return filepath.Join(s.baseDir, s.RootDirectory, path)
	}
	return filepath.Join(s.baseDir, path)
}
