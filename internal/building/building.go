// Package building implements a single-building energy model: thermal and
// electrical devices attached to exogenous demand and weather series, driven
// one time step at a time by fractional control actions, with per-step
// ledgers of net electricity consumption, cost and carbon emissions.
package building

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"buildingsim/internal/device"
	"buildingsim/internal/dynamics"
	"buildingsim/internal/series"
)

// Model is the sequence-model capability the surrogate temperature dynamics
// need. *dynamics.LSTM satisfies it.
type Model interface {
	Lookback() int
	InputSize() int
	ZeroState() dynamics.HiddenState
	Predict(window *mat.Dense, state dynamics.HiddenState) (float64, dynamics.HiddenState)
}

// Config wires data series, devices and metadata into a Building. Only
// EnergySimulation and Weather are required; every other collaborator
// defaults to an inert zero-capacity stand-in.
type Config struct {
	Name             string
	EnergySimulation *series.EnergySimulation
	Weather          *series.Weather
	Pricing          *series.Pricing
	CarbonIntensity  *series.CarbonIntensity

	CoolingDevice device.ThermalSource
	HeatingDevice device.ThermalSource
	DHWDevice     device.ThermalSource

	CoolingStorage    *device.StorageTank
	HeatingStorage    *device.StorageTank
	DHWStorage        *device.StorageTank
	ElectricalStorage *device.Battery
	PV                *device.PV

	// ObservationMetadata and ActionMetadata mark which observation and
	// action names are active. Nil selects the defaults.
	ObservationMetadata map[string]bool
	ActionMetadata      map[string]bool

	// Dynamics replaces the precomputed indoor temperature series with an
	// autoregressive surrogate model when set.
	Dynamics Model

	// Epsilon widens every estimated observation bound symmetrically.
	// Zero leaves the raw bounds untouched.
	Epsilon float64
}

// Building simulates one building over a fixed-length episode.
type Building struct {
	*Clock

	name      string
	energySim *series.EnergySimulation
	weather   *series.Weather
	pricing   *series.Pricing
	carbon    *series.CarbonIntensity

	coolingDevice device.ThermalSource
	heatingDevice device.ThermalSource
	dhwDevice     device.ThermalSource

	coolingStorage    *device.StorageTank
	heatingStorage    *device.StorageTank
	dhwStorage        *device.StorageTank
	electricalStorage *device.Battery
	pv                *device.PV

	observationMetadata map[string]bool
	actionMetadata      map[string]bool
	activeObservations  []string
	activeActions       []string
	observationSpace    Space
	actionSpace         Space
	epsilon             float64

	dynamicsModel Model
	dynamicsState dynamics.HiddenState

	// Ideal snapshots restore the mutable series between episodes when a
	// dynamics model rewrites them in place.
	idealCoolingDemand     []float64
	idealHeatingDemand     []float64
	idealIndoorTemperature []float64

	// Per-step ledgers, one entry per elapsed time step.
	solarGeneration    []float64
	coolingConsumption []float64
	heatingConsumption []float64
	dhwConsumption     []float64
	netConsumption     []float64
	netCost            []float64
	netEmission        []float64
}

// New constructs a Building from cfg and resets it to time step 0.
func New(cfg Config) (*Building, error) {
	if cfg.EnergySimulation == nil {
		return nil, fmt.Errorf("building %q: energy simulation series is required", cfg.Name)
	}
	if err := cfg.EnergySimulation.Validate(); err != nil {
		return nil, fmt.Errorf("building %q: %w", cfg.Name, err)
	}
	if cfg.Weather == nil {
		return nil, fmt.Errorf("building %q: weather series is required", cfg.Name)
	}
	n := cfg.EnergySimulation.Length()
	if len(cfg.Weather.OutdoorDryBulbTemperature) != n {
		return nil, fmt.Errorf("building %q: weather series has %d rows, want %d",
			cfg.Name, len(cfg.Weather.OutdoorDryBulbTemperature), n)
	}

	b := &Building{
		Clock:     NewClock(n),
		name:      cfg.Name,
		energySim: cfg.EnergySimulation,
		weather:   cfg.Weather,
		pricing:   cfg.Pricing,
		carbon:    cfg.CarbonIntensity,

		coolingDevice: cfg.CoolingDevice,
		heatingDevice: cfg.HeatingDevice,
		dhwDevice:     cfg.DHWDevice,

		coolingStorage:    cfg.CoolingStorage,
		heatingStorage:    cfg.HeatingStorage,
		dhwStorage:        cfg.DHWStorage,
		electricalStorage: cfg.ElectricalStorage,
		pv:                cfg.PV,

		observationMetadata: cfg.ObservationMetadata,
		actionMetadata:      cfg.ActionMetadata,
		dynamicsModel:       cfg.Dynamics,
		epsilon:             cfg.Epsilon,
	}
	if b.pricing == nil {
		b.pricing = series.ZeroPricing(n)
	}
	if b.carbon == nil {
		b.carbon = series.ZeroCarbonIntensity(n)
	}
	if b.coolingDevice == nil {
		b.coolingDevice = device.NewHeatPump(device.HeatPumpConfig{})
	}
	if b.heatingDevice == nil {
		b.heatingDevice = device.NewHeatPump(device.HeatPumpConfig{})
	}
	if b.dhwDevice == nil {
		b.dhwDevice = device.NewElectricHeater(device.ElectricHeaterConfig{})
	}
	if b.coolingStorage == nil {
		b.coolingStorage = device.NewStorageTank(device.StorageTankConfig{})
	}
	if b.heatingStorage == nil {
		b.heatingStorage = device.NewStorageTank(device.StorageTankConfig{})
	}
	if b.dhwStorage == nil {
		b.dhwStorage = device.NewStorageTank(device.StorageTankConfig{})
	}
	if b.electricalStorage == nil {
		b.electricalStorage = device.NewBattery(device.BatteryConfig{})
	}
	if b.pv == nil {
		b.pv = device.NewPV(device.PVConfig{})
	}
	if b.observationMetadata == nil {
		b.observationMetadata = defaultObservationMetadata()
	}
	if b.actionMetadata == nil {
		b.actionMetadata = defaultActionMetadata()
	}
	b.activeObservations = activeNames(observationOrder, b.observationMetadata)
	b.activeActions = activeNames(actionOrder, b.actionMetadata)

	if b.dynamicsModel != nil {
		if got, want := b.dynamicsModel.InputSize(), len(dynamicsInputColumns); got != want {
			return nil, fmt.Errorf("building %q: dynamics model expects %d inputs, this building provides %d",
				cfg.Name, got, want)
		}
		b.idealCoolingDemand = append([]float64(nil), b.energySim.CoolingDemand...)
		b.idealHeatingDemand = append([]float64(nil), b.energySim.HeatingDemand...)
		b.idealIndoorTemperature = append([]float64(nil), b.energySim.IndoorDryBulbTemperature...)
	}

	// Spaces are estimated once at construction and frozen for the life of
	// the building, so repeated resets see identical bounds.
	obsSpace, err := b.EstimateObservationSpace()
	if err != nil {
		return nil, fmt.Errorf("building %q: %w", cfg.Name, err)
	}
	b.observationSpace = obsSpace
	b.actionSpace = b.EstimateActionSpace()

	b.Reset()
	return b, nil
}

// Name returns the building's configured name.
func (b *Building) Name() string { return b.name }

// ActiveObservations returns the active observation names in canonical order.
func (b *Building) ActiveObservations() []string { return b.activeObservations }

// ActiveActions returns the active action names in canonical order.
func (b *Building) ActiveActions() []string { return b.activeActions }

// ObservationSpace returns the frozen per-observation bounds.
func (b *Building) ObservationSpace() Space { return b.observationSpace }

// ActionSpace returns the frozen per-action bounds.
func (b *Building) ActionSpace() Space { return b.actionSpace }

// EnergySimulation exposes the building's demand and indoor-condition series.
func (b *Building) EnergySimulation() *series.EnergySimulation { return b.energySim }

// Weather exposes the building's weather series.
func (b *Building) Weather() *series.Weather { return b.weather }

func (b *Building) CoolingStorage() *device.StorageTank  { return b.coolingStorage }
func (b *Building) HeatingStorage() *device.StorageTank  { return b.heatingStorage }
func (b *Building) DHWStorage() *device.StorageTank      { return b.dhwStorage }
func (b *Building) ElectricalStorage() *device.Battery   { return b.electricalStorage }
func (b *Building) CoolingDevice() device.ThermalSource  { return b.coolingDevice }
func (b *Building) HeatingDevice() device.ThermalSource  { return b.heatingDevice }
func (b *Building) DHWDevice() device.ThermalSource      { return b.dhwDevice }
func (b *Building) PV() *device.PV                       { return b.pv }

// SolarGeneration returns the per-step PV ledger. Entries are negative or
// zero since generation offsets consumption.
func (b *Building) SolarGeneration() []float64 { return b.solarGeneration }

// CoolingElectricityConsumption returns the cooling device's ledger of
// electricity drawn to meet demand plus storage throughput.
func (b *Building) CoolingElectricityConsumption() []float64 { return b.coolingConsumption }

// HeatingElectricityConsumption returns the heating device's ledger.
func (b *Building) HeatingElectricityConsumption() []float64 { return b.heatingConsumption }

// DHWElectricityConsumption returns the hot-water device's ledger.
func (b *Building) DHWElectricityConsumption() []float64 { return b.dhwConsumption }

// NetElectricityConsumption returns the per-step net grid exchange ledger.
func (b *Building) NetElectricityConsumption() []float64 { return b.netConsumption }

// NetElectricityConsumptionCost returns the per-step cost ledger.
func (b *Building) NetElectricityConsumptionCost() []float64 { return b.netCost }

// NetElectricityConsumptionEmission returns the per-step emission ledger.
// Entries are never negative; exports earn no credit.
func (b *Building) NetElectricityConsumptionEmission() []float64 { return b.netEmission }

// Step advances the building by one time step under the given actions.
func (b *Building) Step(a Actions) error {
	if b.Done() {
		return fmt.Errorf("building %q: episode finished at step %d", b.name, b.TimeStep())
	}
	b.nextTimeStep()
	if err := b.applyActions(a); err != nil {
		return err
	}
	b.updateVariables()
	return nil
}

// Reset rewinds to time step 0, restores device and storage state, and
// re-seeds the ledgers with the passive step-0 entry.
func (b *Building) Reset() {
	b.Clock.Reset()
	b.coolingDevice.Reset()
	b.heatingDevice.Reset()
	b.dhwDevice.Reset()
	b.coolingStorage.Reset()
	b.heatingStorage.Reset()
	b.dhwStorage.Reset()
	b.electricalStorage.Reset()
	b.pv.Reset()

	if b.dynamicsModel != nil {
		copy(b.energySim.CoolingDemand, b.idealCoolingDemand)
		copy(b.energySim.HeatingDemand, b.idealHeatingDemand)
		copy(b.energySim.IndoorDryBulbTemperature, b.idealIndoorTemperature)
		b.dynamicsState = b.dynamicsModel.ZeroState()
	}

	b.solarGeneration = b.solarGeneration[:0]
	for _, perKW := range b.energySim.SolarGeneration {
		b.solarGeneration = append(b.solarGeneration, -b.pv.Generation(perKW))
	}
	b.coolingConsumption = b.coolingConsumption[:0]
	b.heatingConsumption = b.heatingConsumption[:0]
	b.dhwConsumption = b.dhwConsumption[:0]
	b.netConsumption = b.netConsumption[:0]
	b.netCost = b.netCost[:0]
	b.netEmission = b.netEmission[:0]
	b.updateVariables()
}

func (b *Building) nextTimeStep() {
	b.Clock.NextTimeStep()
	b.coolingDevice.NextTimeStep()
	b.heatingDevice.NextTimeStep()
	b.dhwDevice.NextTimeStep()
	b.coolingStorage.NextTimeStep()
	b.heatingStorage.NextTimeStep()
	b.dhwStorage.NextTimeStep()
	b.electricalStorage.NextTimeStep()
	b.pv.NextTimeStep()
}

func (b *Building) applyActions(a Actions) error {
	b.updateDeviceDemand(a.CoolingDevice, false)
	b.updateDeviceDemand(a.HeatingDevice, true)
	b.updateThermalStorage(a.CoolingStorage, b.coolingStorage, b.coolingDevice, b.energySim.CoolingDemand, false)
	b.updateThermalStorage(a.HeatingStorage, b.heatingStorage, b.heatingDevice, b.energySim.HeatingDemand, true)
	b.updateThermalStorage(a.DHWStorage, b.dhwStorage, b.dhwDevice, b.energySim.DHWDemand, true)
	b.updateElectricalStorage(a.ElectricalStorage)
	return b.updateDynamics()
}

func activeNames(order []string, metadata map[string]bool) []string {
	active := make([]string, 0, len(order))
	for _, name := range order {
		if metadata[name] {
			active = append(active, name)
		}
	}
	return active
}
