package success

import (
	"context"
	"sync"
	"time"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	"github.com/turtacn/GrantScope/internal/domain/organization"
	"github.com/turtacn/GrantScope/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
)

// RiskLevel buckets a success probability for presentation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// SuccessPrediction is the outcome of a single prediction.  Confidence
// reflects how far the probability sits from the decision boundary.
type SuccessPrediction struct {
	Probability      float64            `json:"probability"`
	Outlook          string             `json:"outlook"`
	RiskLevel        RiskLevel          `json:"risk_level"`
	Confidence       float64            `json:"confidence"`
	KeyFactors       []string           `json:"key_factors,omitempty"`
	FeatureBreakdown map[string]float64 `json:"feature_breakdown,omitempty"`
	ModelVersion     string             `json:"model_version,omitempty"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

// Metrics summarises a training run.
type Metrics struct {
	SampleCount    int       `json:"sample_count"`
	PositiveCount  int       `json:"positive_count"`
	Accuracy       float64   `json:"accuracy"`
	Precision      float64   `json:"precision"`
	Recall         float64   `json:"recall"`
	F1             float64   `json:"f1"`
	CVAccuracy     []float64 `json:"cv_accuracy,omitempty"`
	CVAccuracyMean float64   `json:"cv_accuracy_mean"`
	TrainedAt      time.Time `json:"trained_at"`
}

// Model is the serialisable artifact: scaler, ensemble and provenance.
type Model struct {
	Version   string                     `json:"version"`
	Scaler    *StandardScaler            `json:"scaler"`
	Ensemble  *GradientBoostedClassifier `json:"ensemble"`
	Metrics   Metrics                    `json:"metrics"`
	CreatedAt time.Time                  `json:"created_at"`
}

// Config holds the training knobs.
type Config struct {
	LearningRate  float64
	NumEstimators int
	TestSize      float64
	CVFolds       int
}

// DefaultConfig mirrors the tuned production values.
func DefaultConfig() Config {
	return Config{LearningRate: 0.1, NumEstimators: 100, TestSize: 0.2, CVFolds: 5}
}

// Predictor estimates grant application success probability.  It never
// returns an error from Predict: with no trained model it falls back to a
// neutral prediction so callers can always render a result.
type Predictor struct {
	mu     sync.RWMutex
	cfg    Config
	model  *Model
	logger logging.Logger
}

// NewPredictor builds a predictor with no model loaded.
func NewPredictor(cfg Config, logger logging.Logger) *Predictor {
	if cfg.LearningRate <= 0 {
		cfg.LearningRate = 0.1
	}
	if cfg.NumEstimators <= 0 {
		cfg.NumEstimators = 100
	}
	if cfg.CVFolds < 2 {
		cfg.CVFolds = 5
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Predictor{cfg: cfg, logger: logger.Named("predictor")}
}

// SetModel installs a previously trained or loaded model.
func (p *Predictor) SetModel(m *Model) {
	p.mu.Lock()
	p.model = m
	p.mu.Unlock()
}

// Model returns the currently installed model, or nil.
func (p *Predictor) Model() *Model {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.model
}

// TrainingSample pairs a historical application with the grant and profile
// context it was extracted from.
type TrainingSample struct {
	Grant   *grant.Grant
	Profile *organization.Profile
	Record  history.ApplicationRecord
}

// Train fits a new model from decided historical applications and installs
// it.  Undecided records are skipped.  At least ten decided samples with
// both outcomes are required.  Reported accuracy, precision and recall come
// from a held-out TestSize fraction of the samples when the split is viable.
func (p *Predictor) Train(ctx context.Context, samples []TrainingSample) (*Metrics, error) {
	vectors := make([]FeatureVector, 0, len(samples))
	labels := make([]bool, 0, len(samples))
	hist := make([]*history.ApplicationRecord, 0, len(samples))
	for i := range samples {
		hist = append(hist, &samples[i].Record)
	}
	for _, s := range samples {
		if !s.Record.Decided() {
			continue
		}
		vectors = append(vectors, ExtractFeatures(s.Grant, s.Profile, hist))
		labels = append(labels, s.Record.Succeeded())
	}

	if len(vectors) < 10 {
		return nil, apperrors.New(apperrors.ErrCodeTrainingDataTooSmall,
			"need at least 10 decided applications to train, got %d", len(vectors))
	}
	pos := 0
	for _, l := range labels {
		if l {
			pos++
		}
	}
	if pos == 0 || pos == len(labels) {
		return nil, apperrors.New(apperrors.ErrCodeTrainingDataTooSmall,
			"training data contains a single outcome class")
	}

	if err := ctx.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "training cancelled")
	}

	// Deterministic prefix split: the leading samples train the model, the
	// tail is held back for metrics.  No shuffling keeps runs reproducible.
	// When the split would leave the training side single-class or either
	// side empty, metrics fall back to the training set.
	trainX, trainY := vectors, labels
	var testX []FeatureVector
	var testY []bool
	if cut := len(vectors) - int(float64(len(vectors))*p.cfg.TestSize); cut > 0 && cut < len(vectors) && hasBothClasses(labels[:cut]) {
		trainX, trainY = vectors[:cut], labels[:cut]
		testX, testY = vectors[cut:], labels[cut:]
	}

	scaler := &StandardScaler{}
	scaledTrain := scaler.FitTransform(trainX)

	ensemble := NewGradientBoostedClassifier(p.cfg.LearningRate, p.cfg.NumEstimators)
	ensemble.Fit(scaledTrain, trainY)

	var metrics Metrics
	if len(testX) > 0 {
		scaledTest := make([]FeatureVector, len(testX))
		for i, v := range testX {
			scaledTest[i] = scaler.Transform(v)
		}
		metrics = evaluate(ensemble, scaledTest, testY)
	} else {
		metrics = evaluate(ensemble, scaledTrain, trainY)
	}
	metrics.SampleCount = len(labels)
	metrics.PositiveCount = pos

	scaledAll := make([]FeatureVector, len(vectors))
	for i, v := range vectors {
		scaledAll[i] = scaler.Transform(v)
	}
	metrics.CVAccuracy = p.crossValidate(scaledAll, labels)
	if len(metrics.CVAccuracy) > 0 {
		sum := 0.0
		for _, a := range metrics.CVAccuracy {
			sum += a
		}
		metrics.CVAccuracyMean = sum / float64(len(metrics.CVAccuracy))
	}
	metrics.TrainedAt = time.Now().UTC()

	model := &Model{
		Version:   metrics.TrainedAt.Format("20060102T150405Z"),
		Scaler:    scaler,
		Ensemble:  ensemble,
		Metrics:   metrics,
		CreatedAt: metrics.TrainedAt,
	}
	p.SetModel(model)

	p.logger.Info("model trained",
		logging.Int("samples", metrics.SampleCount),
		logging.Float64("accuracy", metrics.Accuracy),
		logging.Float64("cv_accuracy", metrics.CVAccuracyMean),
	)
	return &metrics, nil
}

// crossValidate runs deterministic k-fold cross validation by striding the
// sample order; no shuffling keeps runs reproducible.
func (p *Predictor) crossValidate(vectors []FeatureVector, labels []bool) []float64 {
	k := p.cfg.CVFolds
	if k < 2 || len(vectors) < k*2 {
		return nil
	}
	scores := make([]float64, 0, k)
	for fold := 0; fold < k; fold++ {
		var trainX, testX []FeatureVector
		var trainY, testY []bool
		for i := range vectors {
			if i%k == fold {
				testX = append(testX, vectors[i])
				testY = append(testY, labels[i])
			} else {
				trainX = append(trainX, vectors[i])
				trainY = append(trainY, labels[i])
			}
		}
		if len(testX) == 0 || !hasBothClasses(trainY) {
			continue
		}
		m := NewGradientBoostedClassifier(p.cfg.LearningRate, p.cfg.NumEstimators)
		m.Fit(trainX, trainY)
		correct := 0
		for i, v := range testX {
			if m.Predict(v) == testY[i] {
				correct++
			}
		}
		scores = append(scores, float64(correct)/float64(len(testX)))
	}
	return scores
}

func hasBothClasses(labels []bool) bool {
	pos := 0
	for _, l := range labels {
		if l {
			pos++
		}
	}
	return pos > 0 && pos < len(labels)
}

func evaluate(m *GradientBoostedClassifier, vectors []FeatureVector, labels []bool) Metrics {
	var tp, fp, tn, fn float64
	for i, v := range vectors {
		pred := m.Predict(v)
		switch {
		case pred && labels[i]:
			tp++
		case pred && !labels[i]:
			fp++
		case !pred && !labels[i]:
			tn++
		default:
			fn++
		}
	}
	var out Metrics
	total := tp + fp + tn + fn
	if total > 0 {
		out.Accuracy = (tp + tn) / total
	}
	if tp+fp > 0 {
		out.Precision = tp / (tp + fp)
	}
	if tp+fn > 0 {
		out.Recall = tp / (tp + fn)
	}
	if out.Precision+out.Recall > 0 {
		out.F1 = 2 * out.Precision * out.Recall / (out.Precision + out.Recall)
	}
	return out
}

// Predict estimates success for applying to g as org.  It never fails:
// without a trained model it returns the neutral prediction.
func (p *Predictor) Predict(g *grant.Grant, org *organization.Profile, hist []*history.ApplicationRecord) SuccessPrediction {
	p.mu.RLock()
	model := p.model
	p.mu.RUnlock()

	now := time.Now().UTC()
	if model == nil || model.Ensemble == nil || !model.Ensemble.Trained {
		p.logger.Warn("predicting without a trained model, returning neutral estimate")
		return SuccessPrediction{
			Probability: 0.5,
			Outlook:     "Uncertain",
			RiskLevel:   RiskMedium,
			Confidence:  0,
			GeneratedAt: now,
		}
	}

	features := ExtractFeatures(g, org, hist)
	scaled := features
	if model.Scaler != nil {
		scaled = model.Scaler.Transform(features)
	}
	prob := model.Ensemble.PredictProba(scaled)

	pred := SuccessPrediction{
		Probability:      prob,
		Confidence:       2 * absf(prob-0.5),
		FeatureBreakdown: features.Named(),
		ModelVersion:     model.Version,
		GeneratedAt:      now,
		KeyFactors:       keyFactors(model.Ensemble, features),
	}
	switch {
	case prob >= 0.7:
		pred.Outlook = "Likely"
		pred.RiskLevel = RiskLow
	case prob >= 0.4:
		pred.Outlook = "Possible"
		pred.RiskLevel = RiskMedium
	default:
		pred.Outlook = "Unlikely"
		pred.RiskLevel = RiskHigh
	}
	return pred
}

func absf(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

// keyFactors names the features the model leans on most, cut at three.
func keyFactors(m *GradientBoostedClassifier, _ FeatureVector) []string {
	imp := m.FeatureImportances()
	type fi struct {
		name  string
		score float64
	}
	ranked := make([]fi, 0, len(imp))
	for _, name := range FeatureNames {
		if imp[name] > 0 {
			ranked = append(ranked, fi{name, imp[name]})
		}
	}
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && ranked[j].score > ranked[j-1].score; j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	if len(ranked) > 3 {
		ranked = ranked[:3]
	}
	out := make([]string, len(ranked))
	for i, f := range ranked {
		out[i] = f.name
	}
	return out
}
