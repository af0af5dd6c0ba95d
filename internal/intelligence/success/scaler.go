package success

import "math"

// StandardScaler centres each feature to zero mean and unit variance, the
// same preprocessing the model was trained with.  Fit parameters are part of
// the persisted model artifact.
type StandardScaler struct {
	Mean   [NumFeatures]float64 `json:"mean"`
	Std    [NumFeatures]float64 `json:"std"`
	Fitted bool                 `json:"fitted"`
}

// Fit computes per-feature mean and standard deviation over samples.
// Features with zero variance get Std 1 so Transform is a no-op for them.
func (s *StandardScaler) Fit(samples []FeatureVector) {
	for i := range s.Mean {
		s.Mean[i] = 0
		s.Std[i] = 1
	}
	if len(samples) == 0 {
		s.Fitted = true
		return
	}

	n := float64(len(samples))
	for _, v := range samples {
		for i := 0; i < NumFeatures; i++ {
			s.Mean[i] += v[i]
		}
	}
	for i := 0; i < NumFeatures; i++ {
		s.Mean[i] /= n
	}

	var sumSq [NumFeatures]float64
	for _, v := range samples {
		for i := 0; i < NumFeatures; i++ {
			d := v[i] - s.Mean[i]
			sumSq[i] += d * d
		}
	}
	for i := 0; i < NumFeatures; i++ {
		variance := sumSq[i] / n
		if variance <= 0 {
			s.Std[i] = 1
			continue
		}
		s.Std[i] = math.Sqrt(variance)
	}
	s.Fitted = true
}

// Transform returns the scaled copy of v.  An unfitted scaler returns v
// unchanged so inference degrades instead of failing.
func (s *StandardScaler) Transform(v FeatureVector) FeatureVector {
	if !s.Fitted {
		return v
	}
	var out FeatureVector
	for i := 0; i < NumFeatures; i++ {
		out[i] = (v[i] - s.Mean[i]) / s.Std[i]
	}
	return out
}

// FitTransform fits the scaler and returns the scaled samples.
func (s *StandardScaler) FitTransform(samples []FeatureVector) []FeatureVector {
	s.Fit(samples)
	out := make([]FeatureVector, len(samples))
	for i, v := range samples {
		out[i] = s.Transform(v)
	}
	return out
}
