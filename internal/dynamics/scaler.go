// Package dynamics provides the learned surrogate for indoor temperature
// response: a recurrent sequence model plus the feature normalization it was
// trained with.
package dynamics

// MinMaxScaler maps a feature column linearly from [Min, Max] to [0, 1].
// A degenerate column (Min == Max) transforms to 0 so constant features do
// not blow up the normalization.
type MinMaxScaler struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Transform normalizes v into the unit interval.
func (s MinMaxScaler) Transform(v float64) float64 {
	if s.Max == s.Min {
		return 0
	}
	return (v - s.Min) / (s.Max - s.Min)
}

// Inverse denormalizes v back to the feature's physical range. Inverse(0)
// is the scaler's zero point, i.e. Min.
func (s MinMaxScaler) Inverse(v float64) float64 {
	return v*(s.Max-s.Min) + s.Min
}
