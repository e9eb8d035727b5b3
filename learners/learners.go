// Package learners provides the built-in classification backends.
//
// Every learner satisfies the model.Learner contract: it trains with Fit,
// predicts one label per input row with Transform, exposes its configuration
// as an option store, and derives unfitted copies with Derive. Ensembles in
// the ensemble package treat learners as opaque contract values, so anything
// registered here can be a member, a stacker, or a best-learner candidate:
//
//   - MajorityClassifier: predicts the most frequent training label
//   - DecisionTreeClassifier: CART with gini or entropy impurity
//   - KNNClassifier: k-nearest neighbors with Euclidean distance
//
// Learners are constructed directly or through the registry by name:
//
//	learner, err := learners.New("tree", options.Options{"max_depth": 4})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = learner.Fit(X, y)
//	predictions, err := learner.Transform(XTest)
//
// Labels are float64 class codes. String categories are bridged to codes
// with preprocessing.LabelEncoder before training.
package learners

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// validateTrainingData checks the shape contract shared by every learner:
// X must be non-empty and y must be a column vector with one label per row
// of X.
func validateTrainingData(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil || y == nil {
		return 0, 0, cmlErrors.NewValueError(op, "X and y must not be nil")
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, cmlErrors.Wrap(cmlErrors.ErrEmptyData, op)
	}

	ry, cy := y.Dims()
	if cy != 1 {
		return 0, 0, cmlErrors.NewValueError(op, "y must be a column vector")
	}
	if ry != r {
		return 0, 0, cmlErrors.NewDimensionError(op, r, ry, 0)
	}

	return r, c, nil
}

// columnLabels copies the single column of y into a slice.
func columnLabels(y mat.Matrix) []float64 {
	r, _ := y.Dims()
	labels := make([]float64, r)
	for i := range labels {
		labels[i] = y.At(i, 0)
	}
	return labels
}

// distinctSorted returns the unique label values in ascending order.
func distinctSorted(labels []float64) []float64 {
	seen := make(map[float64]struct{}, len(labels))
	classes := make([]float64, 0, len(labels))
	for _, v := range labels {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		classes = append(classes, v)
	}
	sort.Float64s(classes)
	return classes
}
