// lstm-init creates a randomly initialized surrogate temperature model and
// writes its weights as JSON, ready to be referenced from a schema's
// dynamics section or overwritten by an external training pipeline.
//
// Usage:
//
//	lstm-init -out model/dynamics.json
//	lstm-init -lookback 12 -hidden 64 -layers 2 -seed 7 -out model/dynamics.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"buildingsim/internal/dynamics"
)

func main() {
	out := flag.String("out", "dynamics.json", "output weights file")
	lookback := flag.Int("lookback", 12, "input window length in time steps")
	inputSize := flag.Int("inputs", 11, "number of input features")
	hidden := flag.Int("hidden", 32, "hidden units per layer")
	layers := flag.Int("layers", 1, "stacked LSTM layers")
	seed := flag.Uint64("seed", 0, "weight initialization seed")
	flag.Parse()

	model := dynamics.NewLSTM(dynamics.LSTMConfig{
		Lookback:   *lookback,
		InputSize:  *inputSize,
		HiddenSize: *hidden,
		Layers:     *layers,
	}, *seed)

	data, err := json.MarshalIndent(model, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error serializing model: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", *out, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (lookback=%d inputs=%d hidden=%d layers=%d)\n",
		*out, *lookback, *inputSize, *hidden, *layers)
}
