package success

import (
	"math"
	"sort"
)

// stump is a depth-1 regression tree: one feature, one threshold, two leaf
// values added to the running log-odds.
type stump struct {
	Feature    int     `json:"feature"`
	Threshold  float64 `json:"threshold"`
	LeftValue  float64 `json:"left_value"`  // x[Feature] <= Threshold
	RightValue float64 `json:"right_value"` // x[Feature] > Threshold
}

// GradientBoostedClassifier is a binary classifier built from boosted
// regression stumps on logistic loss.  Training is fully deterministic:
// candidate thresholds come from sorted unique feature values and ties are
// broken by the lowest feature index.
type GradientBoostedClassifier struct {
	LearningRate   float64 `json:"learning_rate"`
	NumEstimators  int     `json:"num_estimators"`
	BasePrediction float64 `json:"base_prediction"` // prior log-odds
	Stumps         []stump `json:"stumps"`
	Trained        bool    `json:"trained"`
}

// NewGradientBoostedClassifier constructs an untrained classifier.
// Non-positive parameters fall back to the calibrated defaults (0.1, 100).
func NewGradientBoostedClassifier(learningRate float64, numEstimators int) *GradientBoostedClassifier {
	if learningRate <= 0 {
		learningRate = 0.1
	}
	if numEstimators <= 0 {
		numEstimators = 100
	}
	return &GradientBoostedClassifier{
		LearningRate:  learningRate,
		NumEstimators: numEstimators,
	}
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// Fit trains the ensemble on samples with binary labels (true = success).
// It silently does nothing when samples is empty or all labels agree; the
// base prediction then carries all information.
func (m *GradientBoostedClassifier) Fit(samples []FeatureVector, labels []bool) {
	n := len(samples)
	if n == 0 || n != len(labels) {
		return
	}

	pos := 0
	for _, l := range labels {
		if l {
			pos++
		}
	}
	// Prior log-odds, clamped away from infinities for single-class data.
	p := (float64(pos) + 0.5) / (float64(n) + 1.0)
	m.BasePrediction = math.Log(p / (1 - p))
	m.Stumps = m.Stumps[:0]

	y := make([]float64, n)
	for i, l := range labels {
		if l {
			y[i] = 1
		}
	}

	score := make([]float64, n)
	for i := range score {
		score[i] = m.BasePrediction
	}

	if pos == 0 || pos == n {
		m.Trained = true
		return
	}

	residual := make([]float64, n)
	hessian := make([]float64, n)
	for round := 0; round < m.NumEstimators; round++ {
		for i := range samples {
			pi := sigmoid(score[i])
			residual[i] = y[i] - pi
			hessian[i] = pi * (1 - pi)
		}

		st, ok := bestStump(samples, residual, hessian)
		if !ok {
			break
		}

		st.LeftValue *= m.LearningRate
		st.RightValue *= m.LearningRate
		m.Stumps = append(m.Stumps, st)

		for i, v := range samples {
			if v[st.Feature] <= st.Threshold {
				score[i] += st.LeftValue
			} else {
				score[i] += st.RightValue
			}
		}
	}
	m.Trained = true
}

// bestStump scans every feature and candidate threshold for the split that
// minimises the squared residual error, with Newton-step leaf values.
func bestStump(samples []FeatureVector, residual, hessian []float64) (stump, bool) {
	best := stump{}
	bestGain := 0.0
	found := false

	var totalR, totalH float64
	for i := range residual {
		totalR += residual[i]
		totalH += hessian[i]
	}

	values := make([]float64, 0, len(samples))
	for f := 0; f < NumFeatures; f++ {
		values = values[:0]
		for _, v := range samples {
			values = append(values, v[f])
		}
		sort.Float64s(values)

		prev := values[0]
		for _, val := range values[1:] {
			if val == prev {
				continue
			}
			threshold := (prev + val) / 2
			prev = val

			var leftR, leftH float64
			for i, s := range samples {
				if s[f] <= threshold {
					leftR += residual[i]
					leftH += hessian[i]
				}
			}
			rightR := totalR - leftR
			rightH := totalH - leftH
			if leftH < 1e-12 || rightH < 1e-12 {
				continue
			}

			gain := leftR*leftR/leftH + rightR*rightR/rightH
			if gain > bestGain+1e-12 {
				bestGain = gain
				best = stump{
					Feature:    f,
					Threshold:  threshold,
					LeftValue:  leftR / leftH,
					RightValue: rightR / rightH,
				}
				found = true
			}
		}
	}
	return best, found
}

// Decision returns the raw log-odds for v.
func (m *GradientBoostedClassifier) Decision(v FeatureVector) float64 {
	score := m.BasePrediction
	for _, st := range m.Stumps {
		if v[st.Feature] <= st.Threshold {
			score += st.LeftValue
		} else {
			score += st.RightValue
		}
	}
	return score
}

// PredictProba returns P(success) for v.  An untrained model returns the
// neutral 0.5.
func (m *GradientBoostedClassifier) PredictProba(v FeatureVector) float64 {
	if !m.Trained {
		return 0.5
	}
	return sigmoid(m.Decision(v))
}

// Predict returns the hard classification at the 0.5 boundary.
func (m *GradientBoostedClassifier) Predict(v FeatureVector) bool {
	return m.PredictProba(v) >= 0.5
}

// FeatureImportances returns the per-feature share of total split gain,
// approximated by the absolute leaf-value mass each feature contributes.
func (m *GradientBoostedClassifier) FeatureImportances() map[string]float64 {
	raw := make([]float64, NumFeatures)
	total := 0.0
	for _, st := range m.Stumps {
		w := math.Abs(st.LeftValue) + math.Abs(st.RightValue)
		raw[st.Feature] += w
		total += w
	}
	out := make(map[string]float64, NumFeatures)
	for i, name := range FeatureNames {
		if total > 0 {
			out[name] = raw[i] / total
		} else {
			out[name] = 0
		}
	}
	return out
}
