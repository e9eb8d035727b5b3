package learners_test

import (
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/learners"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

func TestMajorityClassifier_BasicFunctionality(t *testing.T) {
	// Labels: 0 once, 1 twice, 2 once -> majority is 1
	X := mat.NewDense(4, 2, []float64{
		1.0, 2.0,
		3.0, 4.0,
		5.0, 6.0,
		7.0, 8.0,
	})
	y := mat.NewDense(4, 1, []float64{0, 1, 1, 2})

	clf := learners.NewMajorityClassifier(nil)
	if err := clf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	XTest := mat.NewDense(3, 2, []float64{
		0.0, 0.0,
		9.0, 9.0,
		-1.0, -1.0,
	})
	predictions, err := clf.Transform(XTest)
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	r, c := predictions.Dims()
	if r != 3 || c != 1 {
		t.Fatalf("Expected 3x1 predictions, got %dx%d", r, c)
	}
	for i := 0; i < r; i++ {
		if predictions.At(i, 0) != 1 {
			t.Errorf("predictions[%d]: expected 1, got %v", i, predictions.At(i, 0))
		}
	}
}

func TestMajorityClassifier_TieGoesToSmallestLabel(t *testing.T) {
	// Labels 1 and 2 both appear twice; the tie goes to 1.
	X := mat.NewDense(5, 1, []float64{1, 2, 3, 4, 5})
	y := mat.NewDense(5, 1, []float64{2, 2, 1, 1, 0})

	clf := learners.NewMajorityClassifier(nil)
	if err := clf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	predictions, err := clf.Transform(mat.NewDense(1, 1, []float64{0}))
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	if got := predictions.At(0, 0); got != 1 {
		t.Errorf("Expected tie to resolve to label 1, got %v", got)
	}
}

func TestMajorityClassifier_Classes(t *testing.T) {
	X := mat.NewDense(4, 1, []float64{1, 2, 3, 4})
	y := mat.NewDense(4, 1, []float64{3, 0, 3, 1})

	clf := learners.NewMajorityClassifier(nil)
	if err := clf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	classes := clf.Classes()
	expected := []float64{0, 1, 3}
	if len(classes) != len(expected) {
		t.Fatalf("Expected %d classes, got %d", len(expected), len(classes))
	}
	for i, want := range expected {
		if classes[i] != want {
			t.Errorf("Classes[%d]: expected %v, got %v", i, want, classes[i])
		}
	}
}

func TestMajorityClassifier_NotFitted(t *testing.T) {
	clf := learners.NewMajorityClassifier(nil)

	_, err := clf.Transform(mat.NewDense(1, 2, []float64{1, 2}))
	if err == nil {
		t.Fatal("Expected error when transforming before fit")
	}
	var notFitted *cmlErrors.NotFittedError
	if !cmlErrors.As(err, &notFitted) {
		t.Errorf("Expected NotFittedError, got %T", err)
	}
}

func TestMajorityClassifier_DimensionMismatch(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{0, 0, 1})

	clf := learners.NewMajorityClassifier(nil)
	if err := clf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	_, err := clf.Transform(mat.NewDense(2, 3, []float64{1, 2, 3, 4, 5, 6}))
	if err == nil {
		t.Fatal("Expected error for column mismatch")
	}
	var dimErr *cmlErrors.DimensionError
	if !cmlErrors.As(err, &dimErr) {
		t.Fatalf("Expected DimensionError, got %T", err)
	}
	if dimErr.Expected != 2 || dimErr.Got != 3 {
		t.Errorf("DimensionError = %+v, want Expected=2 Got=3", dimErr)
	}
}

func TestMajorityClassifier_FitValidation(t *testing.T) {
	clf := learners.NewMajorityClassifier(nil)

	// Mismatched sample counts
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(2, 1, []float64{0, 1})
	if err := clf.Fit(X, y); err == nil {
		t.Error("Expected error for mismatched sample counts")
	}

	// y with more than one column
	yWide := mat.NewDense(3, 2, []float64{0, 0, 1, 1, 0, 0})
	if err := clf.Fit(X, yWide); err == nil {
		t.Error("Expected error for non-column y")
	}
}

func TestMajorityClassifier_Derive(t *testing.T) {
	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{1, 1, 0})

	clf := learners.NewMajorityClassifier(nil)
	if err := clf.Fit(X, y); err != nil {
		t.Fatalf("Fit failed: %v", err)
	}

	derived, err := clf.Derive(nil)
	if err != nil {
		t.Fatalf("Derive failed: %v", err)
	}

	// The derived instance is unfitted.
	if _, err := derived.Transform(mat.NewDense(1, 1, []float64{0})); err == nil {
		t.Error("Expected derived instance to be unfitted")
	}

	// The prototype keeps working.
	if _, err := clf.Transform(mat.NewDense(1, 1, []float64{0})); err != nil {
		t.Errorf("Prototype broken after Derive: %v", err)
	}
}
