package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"os"

	"github.com/gocarina/gocsv"

	"buildingsim/internal/building"
	"buildingsim/internal/config"
	"buildingsim/internal/sim"
)

type ledgerRow struct {
	TimeStep        int     `csv:"time_step"`
	Net             float64 `csv:"net_electricity_consumption"`
	Cooling         float64 `csv:"cooling_electricity_consumption"`
	Heating         float64 `csv:"heating_electricity_consumption"`
	DHW             float64 `csv:"dhw_electricity_consumption"`
	Battery         float64 `csv:"electrical_storage_electricity_consumption"`
	SolarGeneration float64 `csv:"solar_generation"`
	Cost            float64 `csv:"cost"`
	Emission        float64 `csv:"emission"`
}

// silentCallback satisfies sim.Callback for headless runs.
type silentCallback struct{}

func (silentCallback) OnState(sim.State)     {}
func (silentCallback) OnStep(sim.StepRecord) {}
func (silentCallback) OnSummary(sim.Summary) {}

func main() {
	schemaPath := flag.String("schema", "schema.yaml", "simulation schema file")
	policyName := flag.String("policy", "zero", "control policy: zero or random")
	seed := flag.Uint64("seed", 0, "random policy seed")
	episodes := flag.Int("episodes", 1, "number of episodes to run")
	ledgerOut := flag.String("ledger-out", "", "write per-step ledgers to this CSV file (last episode)")
	flag.Parse()

	schema, err := config.LoadSchema(*schemaPath)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}
	buildings, err := schema.Build()
	if err != nil {
		log.Fatalf("Failed to construct buildings: %v", err)
	}

	for _, b := range buildings {
		var policy sim.Policy
		switch *policyName {
		case "zero":
			policy = sim.ZeroPolicy{}
		case "random":
			policy = sim.NewRandomPolicy(*seed)
		default:
			log.Fatalf("Unknown policy %q", *policyName)
		}

		log.Printf("Building %q: %d time steps", b.Name(), b.EpisodeLength())
		engine := sim.New(b, policy, silentCallback{})

		var summary sim.Summary
		for ep := 0; ep < *episodes; ep++ {
			if ep > 0 {
				engine.Reset()
			}
			summary, err = engine.RunEpisode()
			if err != nil {
				log.Fatalf("Building %q episode %d: %v", b.Name(), ep, err)
			}
			printSummary(b.Name(), summary)
		}

		if *ledgerOut != "" {
			if err := writeLedger(*ledgerOut, b); err != nil {
				log.Fatalf("Writing ledger: %v", err)
			}
			log.Printf("Ledger written to %s", *ledgerOut)
		}
	}
}

func printSummary(name string, s sim.Summary) {
	fmt.Printf("\n=== %s, episode %d ===\n", name, s.Episode)
	fmt.Printf("  consumption        %10.2f kWh\n", s.Consumption)
	fmt.Printf("  price              %10.2f\n", s.Price)
	fmt.Printf("  carbon emissions   %10.2f kg\n", s.CarbonEmissions)
	fmt.Printf("  peak demand        %10.2f kWh\n", s.PeakDemand)
	printScore("ramping", s.Ramping)
	printScore("avg daily peak", s.AverageDailyPeak)
	printScore("load factor", s.LoadFactor)
}

func printScore(label string, v float64) {
	if math.IsNaN(v) {
		fmt.Printf("  %-18s        n/a\n", label)
		return
	}
	fmt.Printf("  %-18s %10.2f\n", label, v)
}

func writeLedger(path string, b *building.Building) error {
	net := b.NetElectricityConsumption()
	rows := make([]ledgerRow, len(net))
	for t := range net {
		rows[t] = ledgerRow{
			TimeStep:        t,
			Net:             net[t],
			Cooling:         b.CoolingElectricityConsumption()[t],
			Heating:         b.HeatingElectricityConsumption()[t],
			DHW:             b.DHWElectricityConsumption()[t],
			Battery:         b.ElectricalStorage().ElectricityConsumption()[t],
			SolarGeneration: b.SolarGeneration()[t],
			Cost:            b.NetElectricityConsumptionCost()[t],
			Emission:        b.NetElectricityConsumptionEmission()[t],
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return gocsv.MarshalFile(&rows, f)
}
