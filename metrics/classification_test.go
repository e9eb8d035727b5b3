package metrics

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

func TestAccuracy(t *testing.T) {
	tests := []struct {
		name  string
		yTrue []float64
		yPred []float64
		want  float64
	}{
		{
			name:  "perfect predictions",
			yTrue: []float64{0, 1, 2, 1, 0},
			yPred: []float64{0, 1, 2, 1, 0},
			want:  1.0,
		},
		{
			name:  "all wrong",
			yTrue: []float64{0, 0, 0},
			yPred: []float64{1, 1, 1},
			want:  0.0,
		},
		{
			name:  "three of four correct",
			yTrue: []float64{1, 1, 0, 0},
			yPred: []float64{1, 0, 0, 0},
			want:  0.75,
		},
		{
			name:  "single sample correct",
			yTrue: []float64{2},
			yPred: []float64{2},
			want:  1.0,
		},
		{
			name:  "labels compared exactly",
			yTrue: []float64{1.0, 2.0},
			yPred: []float64{1.0, 2.5},
			want:  0.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			yTrue := mat.NewVecDense(len(tt.yTrue), tt.yTrue)
			yPred := mat.NewVecDense(len(tt.yPred), tt.yPred)

			got, err := Accuracy(yTrue, yPred)
			if err != nil {
				t.Fatalf("Accuracy() error = %v", err)
			}
			if math.Abs(got-tt.want) > 1e-10 {
				t.Errorf("Accuracy() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAccuracyValidation(t *testing.T) {
	valid := mat.NewVecDense(3, []float64{0, 1, 0})

	t.Run("nil true labels", func(t *testing.T) {
		_, err := Accuracy(nil, valid)
		if err == nil {
			t.Fatal("Accuracy() expected error for nil input")
		}
		var valueErr *cmlErrors.ValueError
		if !cmlErrors.As(err, &valueErr) {
			t.Errorf("Accuracy() error = %T, want *ValueError", err)
		}
	})

	t.Run("nil predictions", func(t *testing.T) {
		_, err := Accuracy(valid, nil)
		if err == nil {
			t.Fatal("Accuracy() expected error for nil input")
		}
		var valueErr *cmlErrors.ValueError
		if !cmlErrors.As(err, &valueErr) {
			t.Errorf("Accuracy() error = %T, want *ValueError", err)
		}
	})

	t.Run("empty vectors", func(t *testing.T) {
		empty := &mat.VecDense{}
		_, err := Accuracy(empty, empty)
		if err == nil {
			t.Fatal("Accuracy() expected error for empty input")
		}
		var valueErr *cmlErrors.ValueError
		if !cmlErrors.As(err, &valueErr) {
			t.Errorf("Accuracy() error = %T, want *ValueError", err)
		}
	})

	t.Run("length mismatch", func(t *testing.T) {
		short := mat.NewVecDense(2, []float64{0, 1})
		_, err := Accuracy(valid, short)
		if err == nil {
			t.Fatal("Accuracy() expected error for mismatched lengths")
		}
		var dimErr *cmlErrors.DimensionError
		if !cmlErrors.As(err, &dimErr) {
			t.Fatalf("Accuracy() error = %T, want *DimensionError", err)
		}
		if dimErr.Expected != 3 || dimErr.Got != 2 || dimErr.Axis != 0 {
			t.Errorf("DimensionError = %+v, want Expected=3 Got=2 Axis=0", dimErr)
		}
	})
}

func TestClassificationError(t *testing.T) {
	yTrue := mat.NewVecDense(5, []float64{0, 1, 2, 1, 0})
	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 0})

	got, err := ClassificationError(yTrue, yPred)
	if err != nil {
		t.Fatalf("ClassificationError() error = %v", err)
	}
	if math.Abs(got-0.2) > 1e-10 {
		t.Errorf("ClassificationError() = %v, want 0.2", got)
	}
}

func TestClassificationErrorPropagatesValidation(t *testing.T) {
	_, err := ClassificationError(nil, nil)
	if err == nil {
		t.Fatal("ClassificationError() expected error for nil input")
	}
	var valueErr *cmlErrors.ValueError
	if !cmlErrors.As(err, &valueErr) {
		t.Errorf("ClassificationError() error = %T, want *ValueError", err)
	}
}

func TestScore(t *testing.T) {
	yTrue := mat.NewVecDense(4, []float64{1, 1, 0, 0})
	yPred := mat.NewVecDense(4, []float64{1, 0, 0, 0})

	got, err := Score(MetricAccuracy, yTrue, yPred)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if math.Abs(got-75.0) > 1e-10 {
		t.Errorf("Score(accuracy) = %v, want 75.0", got)
	}
}

func TestScorePerfect(t *testing.T) {
	y := mat.NewVecDense(3, []float64{2, 0, 1})

	got, err := Score(MetricAccuracy, y, y)
	if err != nil {
		t.Fatalf("Score() error = %v", err)
	}
	if got != 100.0 {
		t.Errorf("Score(accuracy) = %v, want 100.0", got)
	}
}

func TestScoreUnknownMetric(t *testing.T) {
	y := mat.NewVecDense(2, []float64{0, 1})

	for _, metric := range []string{"f1", "precision", "ACCURACY", ""} {
		_, err := Score(metric, y, y)
		if err == nil {
			t.Fatalf("Score(%q) expected error for unknown metric", metric)
		}
		var metricErr *cmlErrors.UnsupportedMetricError
		if !cmlErrors.As(err, &metricErr) {
			t.Fatalf("Score(%q) error = %T, want *UnsupportedMetricError", metric, err)
		}
		if metricErr.Metric != metric {
			t.Errorf("UnsupportedMetricError.Metric = %q, want %q", metricErr.Metric, metric)
		}
	}
}

func TestScorePropagatesValidation(t *testing.T) {
	yTrue := mat.NewVecDense(3, []float64{0, 1, 0})
	yPred := mat.NewVecDense(2, []float64{0, 1})

	_, err := Score(MetricAccuracy, yTrue, yPred)
	if err == nil {
		t.Fatal("Score() expected error for mismatched lengths")
	}
	var dimErr *cmlErrors.DimensionError
	if !cmlErrors.As(err, &dimErr) {
		t.Errorf("Score() error = %T, want *DimensionError", err)
	}
}
