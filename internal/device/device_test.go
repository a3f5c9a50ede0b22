package device

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeatPumpCOP(t *testing.T) {
	hp := NewHeatPump(HeatPumpConfig{NominalPower: 5})

	// Carnot-derived cooling COP at 30C against an 8C target.
	cooling := hp.COP(30, false)
	assert.InDelta(t, 0.22*(8+273.15)/(30-8), cooling, 1e-9)

	// Heating COP at 0C against a 45C target.
	heating := hp.COP(0, true)
	assert.InDelta(t, 0.22*(45+273.15)/45, heating, 1e-9)
}

func TestHeatPumpCOPClampsAtCeiling(t *testing.T) {
	hp := NewHeatPump(HeatPumpConfig{NominalPower: 5})

	// Outdoor colder than the cooling target makes the Carnot COP negative.
	assert.Equal(t, 20.0, hp.COP(5, false))
	// Outdoor almost at the target makes it diverge.
	assert.Equal(t, 20.0, hp.COP(8.001, false))
}

func TestHeatPumpMaxOutputPower(t *testing.T) {
	hp := NewHeatPump(HeatPumpConfig{NominalPower: 4})
	cop := hp.COP(30, false)

	assert.InDelta(t, 4*cop, hp.MaxOutputPower(30, false, NoPowerLimit), 1e-9)
	assert.InDelta(t, 2*cop, hp.MaxOutputPower(30, false, 2), 1e-9)
	// Caps above the rating fall back to it.
	assert.InDelta(t, 4*cop, hp.MaxOutputPower(30, false, 9), 1e-9)
}

func TestHeatPumpInputPowerRoundTrip(t *testing.T) {
	hp := NewHeatPump(HeatPumpConfig{NominalPower: 4})
	out := 3.0
	in := hp.InputPower(out, 32, false)
	assert.InDelta(t, out, in*hp.COP(32, false), 1e-9)
}

func TestHeatPumpAutosize(t *testing.T) {
	hp := NewHeatPump(HeatPumpConfig{})
	temps := []float64{30, 32, 35}
	cooling := []float64{2, 8, 4}
	hp.Autosize(temps, cooling, nil, 1.5)

	var want float64
	for i, temp := range temps {
		want = math.Max(want, cooling[i]/hp.COP(temp, false))
	}
	assert.InDelta(t, want*1.5, hp.NominalPower(), 1e-9)
}

func TestElectricHeaterCOPIsConstant(t *testing.T) {
	h := NewElectricHeater(ElectricHeaterConfig{NominalPower: 3})

	assert.Equal(t, 0.9, h.COP(-10, true))
	assert.Equal(t, 0.9, h.COP(40, false))
	assert.InDelta(t, 2.7, h.MaxOutputPower(0, true, NoPowerLimit), 1e-9)
	assert.InDelta(t, 1.0/0.9, h.InputPower(1, 0, true), 1e-9)
}

func TestStorageTankChargeEfficiency(t *testing.T) {
	tank := NewStorageTank(StorageTankConfig{Capacity: 10, Efficiency: 0.9})

	tank.Charge(5)
	assert.InDelta(t, 4.5, tank.SOC()[0], 1e-9)
	// Balance reports device-side energy, not stored energy.
	assert.InDelta(t, 5.0, tank.EnergyBalance()[0], 1e-9)

	tank.NextTimeStep()
	tank.Charge(-2)
	wantSOC := 4.5 - 2/0.9
	assert.InDelta(t, wantSOC, tank.SOC()[1], 1e-9)
	assert.InDelta(t, -2.0, tank.EnergyBalance()[1], 1e-9)
}

func TestStorageTankClipsToCapacityAndPower(t *testing.T) {
	tank := NewStorageTank(StorageTankConfig{Capacity: 3, Efficiency: 1})
	tank.Charge(10)
	assert.InDelta(t, 3.0, tank.SOC()[0], 1e-9)
	assert.InDelta(t, 3.0, tank.EnergyBalance()[0], 1e-9)

	limited := NewStorageTank(StorageTankConfig{Capacity: 10, MaxInputPower: 2, Efficiency: 1})
	limited.Charge(5)
	assert.InDelta(t, 2.0, limited.SOC()[0], 1e-9)

	limited.NextTimeStep()
	limited.Charge(-5)
	// MaxOutputPower wasn't set, discharge stops at empty.
	assert.InDelta(t, 0.0, limited.SOC()[1], 1e-9)
}

func TestStorageTankStandbyLoss(t *testing.T) {
	tank := NewStorageTank(StorageTankConfig{Capacity: 10, Efficiency: 1, LossCoefficient: 0.1, InitialSOC: 5})
	tank.NextTimeStep()
	assert.InDelta(t, 4.5, tank.SOC()[1], 1e-9)
	assert.Equal(t, 0.0, tank.EnergyBalance()[1])
}

func TestStorageTankResetRestoresInitialSOC(t *testing.T) {
	tank := NewStorageTank(StorageTankConfig{Capacity: 4, Efficiency: 1, InitialSOC: 9})
	// Initial SOC above capacity clamps.
	assert.InDelta(t, 4.0, tank.SOC()[0], 1e-9)

	tank.NextTimeStep()
	tank.Charge(-1)
	tank.Reset()
	require.Len(t, tank.SOC(), 1)
	assert.InDelta(t, 4.0, tank.SOC()[0], 1e-9)
}

func TestBatteryChargeClipsToNominalPower(t *testing.T) {
	b := NewBattery(BatteryConfig{Capacity: 10, NominalPower: 5, Efficiency: 1})

	b.Charge(7)
	assert.InDelta(t, 5.0, b.SOC()[0], 1e-9)
	assert.InDelta(t, 5.0, b.ElectricityConsumption()[0], 1e-9)

	b.NextTimeStep()
	b.Charge(-7)
	assert.InDelta(t, 0.0, b.SOC()[1], 1e-9)
	assert.InDelta(t, -5.0, b.ElectricityConsumption()[1], 1e-9)
}

func TestBatteryCapacityDegradesWithThroughput(t *testing.T) {
	b := NewBattery(BatteryConfig{Capacity: 10, NominalPower: 10, Efficiency: 1})

	b.Charge(4)
	require.Len(t, b.CapacityHistory(), 2)
	assert.Less(t, b.Capacity(), 10.0)
	assert.Equal(t, 10.0, b.CapacityHistory()[0])

	// Fade per step is tiny at the default coefficient.
	assert.InDelta(t, 10.0, b.Capacity(), 1e-3)
}

func TestBatteryResetRestoresNameplateCapacity(t *testing.T) {
	b := NewBattery(BatteryConfig{Capacity: 10, NominalPower: 10, Efficiency: 1})
	b.Charge(4)
	b.NextTimeStep()
	b.Charge(-2)

	b.Reset()
	assert.Equal(t, 10.0, b.Capacity())
	assert.Equal(t, []float64{10.0}, b.CapacityHistory())
	require.Len(t, b.SOC(), 1)
	assert.Equal(t, 0.0, b.SOC()[0])
}

func TestBatteryIdleStepDoesNotDegrade(t *testing.T) {
	b := NewBattery(BatteryConfig{Capacity: 10, NominalPower: 10})
	b.Charge(0)
	assert.Len(t, b.CapacityHistory(), 1)
}

func TestPVGeneration(t *testing.T) {
	pv := NewPV(PVConfig{NominalPower: 4})

	// 1000 W per installed kW for one hour is 1 kWh per kW.
	assert.InDelta(t, 4.0, pv.Generation(1000), 1e-9)
	assert.InDelta(t, 2.0, pv.Generation(500), 1e-9)

	series := pv.GenerationSeries([]float64{0, 500, 1000})
	assert.Equal(t, []float64{0, 2, 4}, series)
}

func TestPVAutosize(t *testing.T) {
	pv := NewPV(PVConfig{})
	pv.Autosize([]float64{0, 250, 1000}, 8)
	// Peak step should produce 8 kWh.
	assert.InDelta(t, 8.0, pv.Generation(1000), 1e-9)
}

func TestConsumptionRecordConvention(t *testing.T) {
	h := NewElectricHeater(ElectricHeaterConfig{NominalPower: 2})
	require.Equal(t, []float64{0}, h.ElectricityConsumption())

	h.UpdateElectricityConsumption(1.5)
	h.UpdateElectricityConsumption(0.5)
	assert.Equal(t, []float64{2.0}, h.ElectricityConsumption())

	h.NextTimeStep()
	assert.Equal(t, []float64{2.0, 0.0}, h.ElectricityConsumption())

	h.Reset()
	assert.Equal(t, []float64{0.0}, h.ElectricityConsumption())
}
