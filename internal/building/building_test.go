package building

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"buildingsim/internal/device"
	"buildingsim/internal/dynamics"
	"buildingsim/internal/series"
)

func testSeries(n int) *series.EnergySimulation {
	e := &series.EnergySimulation{
		Month:                    make([]int, n),
		Hour:                     make([]int, n),
		DayType:                  make([]int, n),
		IndoorDryBulbTemperature: make([]float64, n),
		NonShiftableLoad:         make([]float64, n),
		DHWDemand:                make([]float64, n),
		CoolingDemand:            make([]float64, n),
		HeatingDemand:            make([]float64, n),
		SolarGeneration:          make([]float64, n),
	}
	for i := 0; i < n; i++ {
		e.Month[i] = 1 + i%12
		e.Hour[i] = i % 24
		e.DayType[i] = 1 + i%7
		e.IndoorDryBulbTemperature[i] = 22
	}
	return e
}

func testWeather(n int) *series.Weather {
	w := &series.Weather{
		OutdoorDryBulbTemperature: make([]float64, n),
		OutdoorRelativeHumidity:   make([]float64, n),
		DiffuseSolarIrradiance:    make([]float64, n),
		DirectSolarIrradiance:     make([]float64, n),
	}
	for i := 0; i < n; i++ {
		w.OutdoorDryBulbTemperature[i] = 30
	}
	return w
}

func TestZeroActionsNetEqualsNonShiftableLoad(t *testing.T) {
	n := 6
	sim := testSeries(n)
	for i := 0; i < n; i++ {
		sim.NonShiftableLoad[i] = float64(i + 1)
	}
	b, err := New(Config{Name: "b1", EnergySimulation: sim, Weather: testWeather(n)})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, b.NetElectricityConsumption()[0], 1e-12)
	for !b.Done() {
		require.NoError(t, b.Step(Actions{}))
		step := b.TimeStep()
		assert.InDelta(t, sim.NonShiftableLoad[step], b.NetElectricityConsumption()[step], 1e-12)
	}
	assert.Len(t, b.NetElectricityConsumption(), n)
}

func TestNetConsumptionIdentity(t *testing.T) {
	n := 8
	sim := testSeries(n)
	for i := 0; i < n; i++ {
		sim.NonShiftableLoad[i] = 1.5
		sim.CoolingDemand[i] = 2
		sim.DHWDemand[i] = 1
		sim.SolarGeneration[i] = 100
	}
	b, err := New(Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		CoolingDevice:    device.NewHeatPump(device.HeatPumpConfig{NominalPower: 10}),
		DHWDevice:        device.NewElectricHeater(device.ElectricHeaterConfig{NominalPower: 5}),
		CoolingStorage:   device.NewStorageTank(device.StorageTankConfig{Capacity: 4}),
		ElectricalStorage: device.NewBattery(device.BatteryConfig{
			Capacity:     6,
			NominalPower: 3,
		}),
		PV: device.NewPV(device.PVConfig{NominalPower: 4}),
	})
	require.NoError(t, err)

	actions := []Actions{
		{CoolingStorage: 0.5, ElectricalStorage: 0.4},
		{CoolingStorage: -0.3, ElectricalStorage: -0.2},
		{DHWStorage: 0.1, ElectricalStorage: 1},
	}
	for i := 0; !b.Done(); i++ {
		require.NoError(t, b.Step(actions[i%len(actions)]))
	}

	for step := 0; step < n; step++ {
		want := b.CoolingElectricityConsumption()[step] +
			b.HeatingElectricityConsumption()[step] +
			b.DHWElectricityConsumption()[step] +
			b.ElectricalStorage().ElectricityConsumption()[step] +
			sim.NonShiftableLoad[step] +
			b.SolarGeneration()[step]
		assert.InDelta(t, want, b.NetElectricityConsumption()[step], 1e-9, "step %d", step)
	}
}

func TestStorageChargeClampedBySourceHeadroom(t *testing.T) {
	n := 4
	sim := testSeries(n)
	b, err := New(Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		CoolingDevice: device.NewElectricHeater(device.ElectricHeaterConfig{
			NominalPower: 5,
			Efficiency:   1,
		}),
		CoolingStorage: device.NewStorageTank(device.StorageTankConfig{
			Capacity:   10,
			Efficiency: 1,
		}),
	})
	require.NoError(t, err)

	// Full-charge request is 10 kWh but the source can only supply 5 above
	// the (zero) space demand.
	require.NoError(t, b.Step(Actions{CoolingStorage: 1}))
	assert.InDelta(t, 5.0, b.CoolingStorage().EnergyBalance()[1], 1e-12)
	assert.InDelta(t, 5.0, b.CoolingStorage().SOC()[1], 1e-12)

	// Discharge below zero demand is clamped to zero throughput.
	require.NoError(t, b.Step(Actions{CoolingStorage: -1}))
	assert.InDelta(t, 0.0, b.CoolingStorage().EnergyBalance()[2], 1e-12)
}

func TestEmissionsNeverNegative(t *testing.T) {
	n := 4
	sim := testSeries(n)
	for i := 0; i < n; i++ {
		sim.SolarGeneration[i] = 1000 // 1 kWh per kW of PV
	}
	carbon := &series.CarbonIntensity{CarbonIntensity: []float64{0.4, 0.4, 0.4, 0.4}}
	b, err := New(Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		CarbonIntensity:  carbon,
		PV:               device.NewPV(device.PVConfig{NominalPower: 8}),
	})
	require.NoError(t, err)

	for !b.Done() {
		require.NoError(t, b.Step(Actions{}))
	}
	for step, net := range b.NetElectricityConsumption() {
		assert.Negative(t, net, "step %d", step)
		assert.Zero(t, b.NetElectricityConsumptionEmission()[step], "step %d", step)
	}
}

func TestBatterySOCStaysWithinUnitInterval(t *testing.T) {
	n := 10
	sim := testSeries(n)
	sim.SolarGeneration[2] = 500
	b, err := New(Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		ElectricalStorage: device.NewBattery(device.BatteryConfig{
			Capacity:     5,
			NominalPower: 5,
		}),
	})
	require.NoError(t, err)

	actions := []float64{1, 1, 1, -1, -1, -1, 0.5, -2, 2}
	for i := 0; !b.Done(); i++ {
		require.NoError(t, b.Step(Actions{ElectricalStorage: actions[i]}))
		obs, err := b.Observations()
		require.NoError(t, err)
		soc := obs["electrical_storage_soc"]
		assert.GreaterOrEqual(t, soc, 0.0, "step %d", b.TimeStep())
		assert.LessOrEqual(t, soc, 1.0, "step %d", b.TimeStep())
	}
}

func TestActionSpaceZeroCapacityStorage(t *testing.T) {
	n := 4
	sim := testSeries(n)
	b, err := New(Config{Name: "b1", EnergySimulation: sim, Weather: testWeather(n)})
	require.NoError(t, err)

	space := b.ActionSpace()
	names := b.ActiveActions()
	require.Len(t, space.Low, len(names))
	for i, name := range names {
		switch name {
		case ActionCoolingStorage, ActionHeatingStorage, ActionDHWStorage, ActionElectricalStorage:
			assert.Equal(t, -1.0, space.Low[i], name)
			assert.Equal(t, 1.0, space.High[i], name)
		}
	}
}

func TestActionSpaceStorageCappedByDemand(t *testing.T) {
	n := 4
	sim := testSeries(n)
	for i := 0; i < n; i++ {
		sim.CoolingDemand[i] = 2
	}
	b, err := New(Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		CoolingStorage:   device.NewStorageTank(device.StorageTankConfig{Capacity: 10}),
	})
	require.NoError(t, err)

	space := b.ActionSpace()
	for i, name := range b.ActiveActions() {
		if name == ActionCoolingStorage {
			assert.InDelta(t, -0.2, space.Low[i], 1e-12)
			assert.InDelta(t, 0.2, space.High[i], 1e-12)
		}
	}
}

func TestObservationSpaceEstimateIsDeterministic(t *testing.T) {
	n := 12
	sim := testSeries(n)
	for i := 0; i < n; i++ {
		sim.NonShiftableLoad[i] = float64(i)
		sim.CoolingDemand[i] = float64(i) * 0.5
	}
	b, err := New(Config{Name: "b1", EnergySimulation: sim, Weather: testWeather(n)})
	require.NoError(t, err)

	first, err := b.EstimateObservationSpace()
	require.NoError(t, err)
	second, err := b.EstimateObservationSpace()
	require.NoError(t, err)
	assert.Equal(t, first.Low, second.Low)
	assert.Equal(t, first.High, second.High)
	assert.Equal(t, b.ObservationSpace().Low, first.Low)
}

func TestObservationsMissingBackingData(t *testing.T) {
	n := 4
	sim := testSeries(n)
	_, err := New(Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		ObservationMetadata: map[string]bool{
			"hour":           true,
			"occupant_count": true, // no occupant series loaded
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "occupant_count")
}

func TestResetRestoresLedgersAndState(t *testing.T) {
	n := 6
	sim := testSeries(n)
	for i := 0; i < n; i++ {
		sim.NonShiftableLoad[i] = 2
	}
	b, err := New(Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		ElectricalStorage: device.NewBattery(device.BatteryConfig{
			Capacity:     4,
			NominalPower: 4,
		}),
	})
	require.NoError(t, err)

	for !b.Done() {
		require.NoError(t, b.Step(Actions{ElectricalStorage: 0.5}))
	}
	require.Len(t, b.NetElectricityConsumption(), n)

	b.Reset()
	assert.Equal(t, 0, b.TimeStep())
	assert.Len(t, b.NetElectricityConsumption(), 1)
	assert.Len(t, b.ElectricalStorage().SOC(), 1)
	assert.InDelta(t, 2.0, b.NetElectricityConsumption()[0], 1e-12)
}

// fixedModel predicts a constant scaled temperature and counts state resets.
type fixedModel struct {
	lookback   int
	prediction float64
}

func (m fixedModel) Lookback() int                    { return m.lookback }
func (m fixedModel) InputSize() int                   { return len(dynamicsInputColumns) }
func (m fixedModel) ZeroState() dynamics.HiddenState  { return dynamics.HiddenState{} }
func (m fixedModel) Predict(_ *mat.Dense, s dynamics.HiddenState) (float64, dynamics.HiddenState) {
	return m.prediction, s
}

func dynamicsTestConfig(n int) Config {
	sim := testSeries(n)
	sim.OccupantCount = make([]float64, n)
	for i := 0; i < n; i++ {
		sim.CoolingDemand[i] = 1
	}
	return Config{
		Name:             "b1",
		EnergySimulation: sim,
		Weather:          testWeather(n),
		CoolingDevice:    device.NewHeatPump(device.HeatPumpConfig{NominalPower: 6}),
		ObservationMetadata: map[string]bool{
			"hour":                         true,
			"outdoor_dry_bulb_temperature": true,
			"direct_solar_irradiance":      true,
			"occupant_count":               true,
			"indoor_dry_bulb_temperature":  true,
			"cooling_demand":               true,
			"net_electricity_consumption":  true,
		},
		Dynamics: fixedModel{lookback: 3, prediction: 0.7},
	}
}

func TestDynamicsOverwritesIndoorTemperature(t *testing.T) {
	cfg := dynamicsTestConfig(8)
	b, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, b.Step(Actions{CoolingDevice: 0.5}))

	scaler, ok := b.observationScaler("indoor_dry_bulb_temperature")
	require.True(t, ok)
	want := scaler.Inverse(0.7)
	assert.InDelta(t, want, b.EnergySimulation().IndoorDryBulbTemperature[1], 1e-12)
	assert.NotEqual(t, 22.0, b.EnergySimulation().IndoorDryBulbTemperature[1])
}

func TestDynamicsDeviceDemandFollowsAction(t *testing.T) {
	cfg := dynamicsTestConfig(8)
	sim := cfg.EnergySimulation
	sim.CoolingDeviceDemandSchedule = []int{1, 1, 0, 1, 1, 1, 1, 1}
	b, err := New(cfg)
	require.NoError(t, err)

	pump := b.CoolingDevice()
	require.NoError(t, b.Step(Actions{CoolingDevice: 0.5}))
	want := pump.MaxOutputPower(30, false, 0.5*pump.NominalPower())
	assert.InDelta(t, want, sim.CoolingDemand[1], 1e-12)

	// Schedule flag 0 forces demand off regardless of action.
	require.NoError(t, b.Step(Actions{CoolingDevice: 1}))
	assert.Zero(t, sim.CoolingDemand[2])
}

func TestDynamicsResetRestoresIdealSeries(t *testing.T) {
	cfg := dynamicsTestConfig(8)
	b, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, b.Step(Actions{CoolingDevice: 1}))
	require.NoError(t, b.Step(Actions{CoolingDevice: 1}))
	assert.NotEqual(t, 22.0, b.EnergySimulation().IndoorDryBulbTemperature[1])

	b.Reset()
	for _, v := range b.EnergySimulation().IndoorDryBulbTemperature {
		assert.Equal(t, 22.0, v)
	}
	for _, v := range b.EnergySimulation().CoolingDemand {
		assert.Equal(t, 1.0, v)
	}
}

func TestDynamicsInputSizeMismatch(t *testing.T) {
	cfg := dynamicsTestConfig(8)
	cfg.Dynamics = mismatchedModel{}
	_, err := New(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "inputs")
}

type mismatchedModel struct{ fixedModel }

func (mismatchedModel) InputSize() int { return 3 }
func (mismatchedModel) Lookback() int  { return 2 }

func TestWrapIndex(t *testing.T) {
	assert.Equal(t, 7, wrapIndex(-1, 8))
	assert.Equal(t, 0, wrapIndex(8, 8))
	assert.Equal(t, 3, wrapIndex(3, 8))
}

func TestResistiveHeaterCOPBounds(t *testing.T) {
	n := 6
	b, err := New(Config{
		Name:             "b1",
		EnergySimulation: testSeries(n),
		Weather:          testWeather(n),
		HeatingDevice:    device.NewElectricHeater(device.ElectricHeaterConfig{NominalPower: 4, Efficiency: 0.9}),
		ObservationMetadata: map[string]bool{
			"heating_device_cop": true,
		},
	})
	require.NoError(t, err)

	names := b.ActiveObservations()
	require.Equal(t, []string{"heating_device_cop"}, names)

	space := b.ObservationSpace()
	assert.Equal(t, 0.9, space.Low[0])
	assert.Equal(t, 0.9, space.High[0])
}

func TestObservationBoundsRawByDefault(t *testing.T) {
	n := 6
	cfg := Config{
		Name:              "b1",
		EnergySimulation:  testSeries(n),
		Weather:           testWeather(n),
		ElectricalStorage: device.NewBattery(device.BatteryConfig{Capacity: 6, NominalPower: 3}),
		ObservationMetadata: map[string]bool{
			"electrical_storage_soc": true,
		},
	}
	b, err := New(cfg)
	require.NoError(t, err)

	// No epsilon configured: the SOC fraction bound stays exactly [0, 1].
	space := b.ObservationSpace()
	assert.Equal(t, 0.0, space.Low[0])
	assert.Equal(t, 1.0, space.High[0])

	// An explicit epsilon widens both sides by the given amount.
	cfg.Epsilon = 0.05
	cfg.ElectricalStorage = device.NewBattery(device.BatteryConfig{Capacity: 6, NominalPower: 3})
	widened, err := New(cfg)
	require.NoError(t, err)
	assert.InDelta(t, -0.05, widened.ObservationSpace().Low[0], 1e-12)
	assert.InDelta(t, 1.05, widened.ObservationSpace().High[0], 1e-12)
}

func TestDynamicsZeroPredictionHitsScalerFloor(t *testing.T) {
	cfg := dynamicsTestConfig(8)
	cfg.Dynamics = fixedModel{lookback: 3, prediction: 0}
	b, err := New(cfg)
	require.NoError(t, err)

	require.NoError(t, b.Step(Actions{}))

	scaler, ok := b.observationScaler("indoor_dry_bulb_temperature")
	require.True(t, ok)
	assert.InDelta(t, scaler.Min, b.EnergySimulation().IndoorDryBulbTemperature[1], 1e-12)
}

func TestNanMinMaxSkipsNaN(t *testing.T) {
	lo, hi, ok := nanMinMax([]float64{math.NaN(), 2, -1, math.NaN()})
	require.True(t, ok)
	assert.Equal(t, -1.0, lo)
	assert.Equal(t, 2.0, hi)

	_, _, ok = nanMinMax([]float64{math.NaN()})
	assert.False(t, ok)
}
