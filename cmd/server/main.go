package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"

	"buildingsim/internal/config"
	"buildingsim/internal/sim"
	"buildingsim/internal/ws"
)

func main() {
	schemaPath := flag.String("schema", "schema.yaml", "simulation schema file")
	buildingName := flag.String("building", "", "building to simulate (default: first in schema)")
	policyName := flag.String("policy", "zero", "control policy: zero or random")
	seed := flag.Uint64("seed", 0, "random policy seed")
	frontendDir := flag.String("frontend-dir", "frontend/build", "directory containing frontend build")
	addr := flag.String("addr", ":8080", "listen address")
	flag.Parse()

	schema, err := config.LoadSchema(*schemaPath)
	if err != nil {
		log.Fatalf("Failed to load schema: %v", err)
	}
	if err := selectBuilding(schema, *buildingName); err != nil {
		log.Fatal(err)
	}

	buildings, err := schema.Build()
	if err != nil {
		log.Fatalf("Failed to construct building: %v", err)
	}
	b := buildings[0]
	log.Printf("Building %q loaded: %d time steps, %d observations, %d actions",
		b.Name(), b.EpisodeLength(), len(b.ActiveObservations()), len(b.ActiveActions()))

	policy, err := selectPolicy(*policyName, *seed)
	if err != nil {
		log.Fatal(err)
	}

	hub := ws.NewHub()
	bridge := ws.NewBridge(hub)
	engine := sim.New(b, policy, bridge)
	handler := ws.NewHandler(hub, engine, b)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})
	mux.Handle("/ws", handler)

	if _, err := os.Stat(*frontendDir); err == nil {
		log.Printf("Serving frontend from %s", *frontendDir)
		mux.Handle("/", http.FileServer(http.Dir(*frontendDir)))
	}

	log.Printf("Starting server on %s", *addr)
	if err := http.ListenAndServe(*addr, mux); err != nil {
		log.Fatal(err)
	}
}

// selectBuilding narrows the schema to a single building. An empty name picks
// the first building in sorted order.
func selectBuilding(schema *config.Schema, name string) error {
	if name == "" {
		name = schema.BuildingNames()[0]
	}
	bs, ok := schema.Buildings[name]
	if !ok {
		return fmt.Errorf("building %q not found in schema", name)
	}
	schema.Buildings = map[string]config.BuildingSchema{name: bs}
	return nil
}

func selectPolicy(name string, seed uint64) (sim.Policy, error) {
	switch name {
	case "zero":
		return sim.ZeroPolicy{}, nil
	case "random":
		return sim.NewRandomPolicy(seed), nil
	default:
		return nil, fmt.Errorf("unknown policy %q", name)
	}
}
