package success

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/turtacn/GrantScope/internal/domain/grant"
	"github.com/turtacn/GrantScope/internal/domain/history"
	apperrors "github.com/turtacn/GrantScope/pkg/errors"
	"github.com/turtacn/GrantScope/pkg/types/common"
	gtypes "github.com/turtacn/GrantScope/pkg/types/grant"
)

func TestBoostingSeparableData(t *testing.T) {
	// Class is decided entirely by feature 4 (budget_ratio).
	var samples []FeatureVector
	var labels []bool
	for i := 0; i < 20; i++ {
		var v FeatureVector
		if i < 10 {
			v[4] = 0.2 + float64(i)*0.01
			labels = append(labels, true)
		} else {
			v[4] = 0.9 + float64(i-10)*0.01
			labels = append(labels, false)
		}
		samples = append(samples, v)
	}

	m := NewGradientBoostedClassifier(0.1, 50)
	m.Fit(samples, labels)

	if !m.Trained {
		t.Fatal("model not marked trained")
	}
	for i, v := range samples {
		if m.Predict(v) != labels[i] {
			t.Errorf("sample %d misclassified, proba %.3f", i, m.PredictProba(v))
		}
	}

	var good, bad FeatureVector
	good[4] = 0.25
	bad[4] = 1.2
	if m.PredictProba(good) <= m.PredictProba(bad) {
		t.Errorf("good ratio should score higher: %.3f vs %.3f",
			m.PredictProba(good), m.PredictProba(bad))
	}

	imp := m.FeatureImportances()
	if imp["budget_ratio"] < 0.9 {
		t.Errorf("budget_ratio importance = %.3f, want near 1", imp["budget_ratio"])
	}
}

func TestBoostingDeterministic(t *testing.T) {
	var samples []FeatureVector
	var labels []bool
	for i := 0; i < 30; i++ {
		var v FeatureVector
		v[0] = float64(i%7) * 1000
		v[6] = float64(i % 3)
		v[13] = float64(i % 2)
		samples = append(samples, v)
		labels = append(labels, (i%7)+(i%3) > 4)
	}

	a := NewGradientBoostedClassifier(0.1, 40)
	a.Fit(samples, labels)
	b := NewGradientBoostedClassifier(0.1, 40)
	b.Fit(samples, labels)

	if len(a.Stumps) != len(b.Stumps) {
		t.Fatalf("stump counts differ: %d vs %d", len(a.Stumps), len(b.Stumps))
	}
	for i := range a.Stumps {
		if a.Stumps[i] != b.Stumps[i] {
			t.Fatalf("stump %d differs: %+v vs %+v", i, a.Stumps[i], b.Stumps[i])
		}
	}
}

func TestBoostingUntrainedNeutral(t *testing.T) {
	m := NewGradientBoostedClassifier(0, 0)
	if got := m.PredictProba(FeatureVector{}); got != 0.5 {
		t.Errorf("untrained PredictProba = %v, want 0.5", got)
	}
}

func TestPredictWithoutModel(t *testing.T) {
	p := NewPredictor(DefaultConfig(), nil)
	pred := p.Predict(testGrant(), testProfile(), nil)

	if pred.Probability != 0.5 {
		t.Errorf("Probability = %v, want 0.5", pred.Probability)
	}
	if pred.Outlook != "Uncertain" {
		t.Errorf("Outlook = %q, want Uncertain", pred.Outlook)
	}
	if pred.RiskLevel != RiskMedium {
		t.Errorf("RiskLevel = %q, want medium", pred.RiskLevel)
	}
	if pred.Confidence != 0 {
		t.Errorf("Confidence = %v, want 0", pred.Confidence)
	}
}

func TestTrainRejectsSmallOrSingleClassData(t *testing.T) {
	p := NewPredictor(DefaultConfig(), nil)

	_, err := p.Train(context.Background(), trainingSet(5, 5))
	if !apperrors.IsCode(err, apperrors.ErrCodeTrainingDataTooSmall) {
		t.Errorf("small set: got %v, want PRED_004", err)
	}

	_, err = p.Train(context.Background(), trainingSet(12, 12))
	if !apperrors.IsCode(err, apperrors.ErrCodeTrainingDataTooSmall) {
		t.Errorf("single class: got %v, want PRED_004", err)
	}
}

func TestTrainAndPredict(t *testing.T) {
	p := NewPredictor(Config{LearningRate: 0.1, NumEstimators: 60, CVFolds: 4}, nil)

	metrics, err := p.Train(context.Background(), trainingSet(40, 20))
	if err != nil {
		t.Fatalf("Train: %v", err)
	}
	if metrics.SampleCount != 40 {
		t.Errorf("SampleCount = %d, want 40", metrics.SampleCount)
	}
	if metrics.PositiveCount != 20 {
		t.Errorf("PositiveCount = %d, want 20", metrics.PositiveCount)
	}
	// The synthetic classes are cleanly separable on amount.
	if metrics.Accuracy < 0.9 {
		t.Errorf("Accuracy = %.3f, want >= 0.9", metrics.Accuracy)
	}
	if metrics.CVAccuracyMean < 0.7 {
		t.Errorf("CVAccuracyMean = %.3f, want >= 0.7", metrics.CVAccuracyMean)
	}

	winner := winnableGrant(30000)
	loser := winnableGrant(3000000)
	org := testProfile()

	pw := p.Predict(winner, org, nil)
	pl := p.Predict(loser, org, nil)
	if pw.Probability <= pl.Probability {
		t.Errorf("well-sized grant should score higher: %.3f vs %.3f", pw.Probability, pl.Probability)
	}
	if pw.ModelVersion == "" {
		t.Error("trained prediction should carry a model version")
	}
	if len(pw.FeatureBreakdown) != NumFeatures {
		t.Errorf("FeatureBreakdown has %d entries, want %d", len(pw.FeatureBreakdown), NumFeatures)
	}
}

func TestRiskBuckets(t *testing.T) {
	tests := []struct {
		probability float64
		outlook     string
		risk        RiskLevel
	}{
		{0.85, "Likely", RiskLow},
		{0.7, "Likely", RiskLow},
		{0.55, "Possible", RiskMedium},
		{0.4, "Possible", RiskMedium},
		{0.39, "Unlikely", RiskHigh},
		{0.1, "Unlikely", RiskHigh},
	}
	for _, tt := range tests {
		got := bucketFor(tt.probability)
		if got.Outlook != tt.outlook || got.RiskLevel != tt.risk {
			t.Errorf("p=%.2f: got %s/%s, want %s/%s",
				tt.probability, got.Outlook, got.RiskLevel, tt.outlook, tt.risk)
		}
	}
}

// bucketFor exercises the threshold logic through a model whose base
// prediction pins the probability at the requested value.
func bucketFor(p float64) SuccessPrediction {
	logit := func(x float64) float64 {
		return math.Log(x / (1 - x))
	}
	pr := NewPredictor(DefaultConfig(), nil)
	pr.SetModel(&Model{
		Ensemble: &GradientBoostedClassifier{BasePrediction: logit(p), Trained: true},
	})
	return pr.Predict(testGrant(), testProfile(), nil)
}

func TestFileModelStoreRoundTrip(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileModelStore: %v", err)
	}
	ctx := context.Background()

	if _, err := store.Load(ctx, "missing"); !apperrors.IsCode(err, apperrors.ErrCodeModelNotTrained) {
		t.Errorf("missing model: got %v, want PRED_001", err)
	}

	m := &Model{
		Version:  "test-1",
		Scaler:   &StandardScaler{Fitted: true},
		Ensemble: &GradientBoostedClassifier{BasePrediction: 0.3, Trained: true},
	}
	if err := store.Save(ctx, "grant-success", m); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "grant-success")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Version != m.Version || got.Ensemble.BasePrediction != m.Ensemble.BasePrediction {
		t.Errorf("round trip mismatch: %+v", got)
	}
}

func TestRegistryCachesLoads(t *testing.T) {
	store, err := NewFileModelStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	reg := NewRegistry(store, nil)

	m := &Model{Version: "v1", Ensemble: &GradientBoostedClassifier{Trained: true}}
	if err := reg.Put(ctx, "m", m); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got, err := reg.Get(ctx, "m")
	if err != nil || got.Version != "v1" {
		t.Fatalf("Get: %v %+v", err, got)
	}

	// Evicting forces a store re-read; the persisted copy survives.
	reg.Evict("m")
	got, err = reg.Get(ctx, "m")
	if err != nil || got.Version != "v1" {
		t.Fatalf("Get after evict: %v %+v", err, got)
	}
}

// trainingSet builds n decided records, the first pos of them awarded.
// Awarded applications requested well-sized amounts, rejected ones oversized.
func TestTrainHoldsOutTestFraction(t *testing.T) {
	samples := trainingSet(30, 15)
	// The tail carries labels that contradict the amount rule learned from
	// the clean prefix, so holdout metrics must come out far worse than
	// training-set metrics.
	org := testProfile()
	decided := time.Now().Add(-30 * 24 * time.Hour)
	for i := 0; i < 10; i++ {
		amount := 2500000 + float64(i)*10000
		samples = append(samples, TrainingSample{
			Grant:   winnableGrant(amount),
			Profile: org,
			Record: history.ApplicationRecord{
				ID:              common.NewID(),
				OrganizationID:  org.ID,
				FunderName:      "Melody Foundation",
				Outcome:         gtypes.OutcomeAwarded,
				AmountRequested: amount,
				DecidedAt:       &decided,
			},
		})
	}

	held := NewPredictor(Config{LearningRate: 0.1, NumEstimators: 60, TestSize: 0.25}, nil)
	heldMetrics, err := held.Train(context.Background(), samples)
	if err != nil {
		t.Fatalf("Train with holdout: %v", err)
	}

	full := NewPredictor(Config{LearningRate: 0.1, NumEstimators: 60}, nil)
	fullMetrics, err := full.Train(context.Background(), samples)
	if err != nil {
		t.Fatalf("Train without holdout: %v", err)
	}

	if heldMetrics.Accuracy >= 0.5 {
		t.Errorf("holdout accuracy = %.3f, want < 0.5 on a contradicting tail", heldMetrics.Accuracy)
	}
	if fullMetrics.Accuracy <= heldMetrics.Accuracy {
		t.Errorf("training-set accuracy %.3f should exceed holdout accuracy %.3f",
			fullMetrics.Accuracy, heldMetrics.Accuracy)
	}
	if heldMetrics.SampleCount != 40 {
		t.Errorf("SampleCount = %d, want 40", heldMetrics.SampleCount)
	}
}

func trainingSet(n, pos int) []TrainingSample {
	org := testProfile()
	decided := time.Now().Add(-60 * 24 * time.Hour)
	out := make([]TrainingSample, 0, n)
	for i := 0; i < n; i++ {
		awarded := i < pos
		amount := 25000 + float64(i)*500
		if !awarded {
			amount = 2000000 + float64(i)*10000
		}
		outcome := gtypes.OutcomeAwarded
		if !awarded {
			outcome = gtypes.OutcomeRejected
		}
		out = append(out, TrainingSample{
			Grant:   winnableGrant(amount),
			Profile: org,
			Record: history.ApplicationRecord{
				ID:              common.NewID(),
				OrganizationID:  org.ID,
				FunderName:      "Melody Foundation",
				Outcome:         outcome,
				AmountRequested: amount,
				DecidedAt:       &decided,
			},
		})
	}
	return out
}

func winnableGrant(typical float64) *grant.Grant {
	g := testGrant()
	g.AmountTypical = typical
	g.AmountMin = typical * 0.5
	g.AmountMax = typical * 1.5
	return g
}
