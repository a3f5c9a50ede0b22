package dynamics

import (
	"encoding/json"
	"fmt"
	"math"
	"math/rand/v2"
	"os"

	"gonum.org/v1/gonum/mat"
)

// HiddenState carries the recurrent state between calls, one hidden and one
// cell vector per layer. It is passed in and returned explicitly so episode
// reset can discard it without touching the model.
type HiddenState struct {
	H []*mat.VecDense
	C []*mat.VecDense
}

// lstmCell holds one layer's weights. Gate rows are stacked in the order
// input, forget, cell, output, each block hiddenSize rows tall.
type lstmCell struct {
	wInput  *mat.Dense    // 4*hidden x in
	wHidden *mat.Dense    // 4*hidden x hidden
	bInput  *mat.VecDense // 4*hidden
	bHidden *mat.VecDense // 4*hidden
}

// LSTMConfig describes the network shape.
type LSTMConfig struct {
	Lookback   int `yaml:"lookback" json:"lookback"`
	InputSize  int `yaml:"input_size" json:"input_size"`
	HiddenSize int `yaml:"hidden_size" json:"hidden_size"`
	Layers     int `yaml:"layers" json:"layers"`
}

// LSTM is a stacked LSTM with a linear head producing one normalized output
// per forward pass over a lookback window.
type LSTM struct {
	cfg      LSTMConfig
	cells    []lstmCell
	head     *mat.VecDense // hidden
	headBias float64
}

// NewLSTM creates a network with uniform(-k, k) initialization, k = 1/sqrt(hidden).
func NewLSTM(cfg LSTMConfig, seed uint64) *LSTM {
	rng := rand.New(rand.NewPCG(seed, 0))
	k := 1 / math.Sqrt(float64(cfg.HiddenSize))
	uniform := func(n int) []float64 {
		data := make([]float64, n)
		for i := range data {
			data[i] = (rng.Float64()*2 - 1) * k
		}
		return data
	}

	m := &LSTM{cfg: cfg}
	for layer := 0; layer < cfg.Layers; layer++ {
		in := cfg.InputSize
		if layer > 0 {
			in = cfg.HiddenSize
		}
		m.cells = append(m.cells, lstmCell{
			wInput:  mat.NewDense(4*cfg.HiddenSize, in, uniform(4*cfg.HiddenSize*in)),
			wHidden: mat.NewDense(4*cfg.HiddenSize, cfg.HiddenSize, uniform(4*cfg.HiddenSize*cfg.HiddenSize)),
			bInput:  mat.NewVecDense(4*cfg.HiddenSize, uniform(4*cfg.HiddenSize)),
			bHidden: mat.NewVecDense(4*cfg.HiddenSize, uniform(4*cfg.HiddenSize)),
		})
	}
	m.head = mat.NewVecDense(cfg.HiddenSize, uniform(cfg.HiddenSize))
	m.headBias = (rng.Float64()*2 - 1) * k
	return m
}

// Lookback returns the window length one prediction consumes.
func (m *LSTM) Lookback() int { return m.cfg.Lookback }

// InputSize returns the number of feature columns per window row.
func (m *LSTM) InputSize() int { return m.cfg.InputSize }

// ZeroState returns a fresh all-zero recurrent state.
func (m *LSTM) ZeroState() HiddenState {
	s := HiddenState{}
	for range m.cells {
		s.H = append(s.H, mat.NewVecDense(m.cfg.HiddenSize, nil))
		s.C = append(s.C, mat.NewVecDense(m.cfg.HiddenSize, nil))
	}
	return s
}

// Predict runs the window (lookback rows by inputSize columns of normalized
// features) through the network and returns the normalized prediction along
// with the state to carry into the next call. The input state is not mutated.
func (m *LSTM) Predict(window *mat.Dense, state HiddenState) (float64, HiddenState) {
	next := m.cloneState(state)
	rows, _ := window.Dims()

	for t := 0; t < rows; t++ {
		x := mat.NewVecDense(m.cfg.InputSize, nil)
		for j := 0; j < m.cfg.InputSize; j++ {
			x.SetVec(j, window.At(t, j))
		}

		input := x
		for layer := range m.cells {
			input = m.cells[layer].step(input, next.H[layer], next.C[layer], m.cfg.HiddenSize)
		}
	}

	out := mat.Dot(m.head, next.H[len(next.H)-1]) + m.headBias
	return out, next
}

// step advances one layer by one time step, updating h and c in place and
// returning the layer output.
func (c *lstmCell) step(x, h, cell *mat.VecDense, hidden int) *mat.VecDense {
	gates := mat.NewVecDense(4*hidden, nil)
	gates.MulVec(c.wInput, x)

	rec := mat.NewVecDense(4*hidden, nil)
	rec.MulVec(c.wHidden, h)

	gates.AddVec(gates, rec)
	gates.AddVec(gates, c.bInput)
	gates.AddVec(gates, c.bHidden)

	for j := 0; j < hidden; j++ {
		i := sigmoid(gates.AtVec(j))
		f := sigmoid(gates.AtVec(hidden + j))
		g := math.Tanh(gates.AtVec(2*hidden + j))
		o := sigmoid(gates.AtVec(3*hidden + j))

		cv := f*cell.AtVec(j) + i*g
		cell.SetVec(j, cv)
		h.SetVec(j, o*math.Tanh(cv))
	}
	return h
}

func (m *LSTM) cloneState(s HiddenState) HiddenState {
	out := HiddenState{}
	for layer := range m.cells {
		h := mat.NewVecDense(m.cfg.HiddenSize, nil)
		c := mat.NewVecDense(m.cfg.HiddenSize, nil)
		if layer < len(s.H) && s.H[layer] != nil {
			h.CopyVec(s.H[layer])
			c.CopyVec(s.C[layer])
		}
		out.H = append(out.H, h)
		out.C = append(out.C, c)
	}
	return out
}

func sigmoid(v float64) float64 {
	return 1 / (1 + math.Exp(-v))
}

// savedCell is the JSON form of one layer's weights.
type savedCell struct {
	WInput  [][]float64 `json:"w_input"`
	WHidden [][]float64 `json:"w_hidden"`
	BInput  []float64   `json:"b_input"`
	BHidden []float64   `json:"b_hidden"`
}

type savedModel struct {
	Config   LSTMConfig  `json:"config"`
	Cells    []savedCell `json:"cells"`
	Head     []float64   `json:"head"`
	HeadBias float64     `json:"head_bias"`
}

// MarshalJSON serializes the network shape and weights.
func (m *LSTM) MarshalJSON() ([]byte, error) {
	saved := savedModel{
		Config:   m.cfg,
		Head:     vecData(m.head),
		HeadBias: m.headBias,
	}
	for _, c := range m.cells {
		saved.Cells = append(saved.Cells, savedCell{
			WInput:  denseRows(c.wInput),
			WHidden: denseRows(c.wHidden),
			BInput:  vecData(c.bInput),
			BHidden: vecData(c.bHidden),
		})
	}
	return json.Marshal(saved)
}

// UnmarshalJSON restores a serialized network.
func (m *LSTM) UnmarshalJSON(data []byte) error {
	var saved savedModel
	if err := json.Unmarshal(data, &saved); err != nil {
		return err
	}
	if saved.Config.Layers < 1 {
		return fmt.Errorf("lstm: at least one layer required, got %d", saved.Config.Layers)
	}
	if len(saved.Cells) != saved.Config.Layers {
		return fmt.Errorf("lstm: %d layers configured but %d serialized", saved.Config.Layers, len(saved.Cells))
	}

	m.cfg = saved.Config
	m.cells = nil
	for _, c := range saved.Cells {
		m.cells = append(m.cells, lstmCell{
			wInput:  rowsToDense(c.WInput),
			wHidden: rowsToDense(c.WHidden),
			bInput:  mat.NewVecDense(len(c.BInput), c.BInput),
			bHidden: mat.NewVecDense(len(c.BHidden), c.BHidden),
		})
	}
	m.head = mat.NewVecDense(len(saved.Head), saved.Head)
	m.headBias = saved.HeadBias
	return nil
}

// LoadLSTM reads a serialized model from disk.
func LoadLSTM(path string) (*LSTM, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	m := &LSTM{}
	if err := json.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return m, nil
}

func denseRows(d *mat.Dense) [][]float64 {
	r, c := d.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		rows[i] = make([]float64, c)
		for j := 0; j < c; j++ {
			rows[i][j] = d.At(i, j)
		}
	}
	return rows
}

func rowsToDense(rows [][]float64) *mat.Dense {
	r := len(rows)
	c := len(rows[0])
	d := mat.NewDense(r, c, nil)
	for i := range rows {
		d.SetRow(i, rows[i])
	}
	return d
}

func vecData(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}
