// Package metrics provides the scoring functions used to evaluate learners
// and to drive best-learner selection.
package metrics

import (
	"gonum.org/v1/gonum/mat"

	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// MetricAccuracy is the name of the accuracy metric understood by Score.
const MetricAccuracy = "accuracy"

// Accuracy calculates the fraction of exactly matching predictions.
//
// Labels are compared by exact equality, which is the right comparison for
// the float-encoded class labels the learners produce.
//
// Parameters:
//   - yTrue: Ground truth labels
//   - yPred: Predicted labels
//
// Returns:
//   - The accuracy (between 0 and 1)
//   - An error if inputs are invalid
//
// Example:
//
//	yTrue := mat.NewVecDense(4, []float64{1, 1, 0, 0})
//	yPred := mat.NewVecDense(4, []float64{1, 0, 0, 0})
//	acc, err := Accuracy(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Accuracy: %f\n", acc) // Output: Accuracy: 0.750000
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	if yTrue == nil || yPred == nil {
		return 0, cmlErrors.NewValueError(
			"Accuracy",
			"input vectors cannot be nil",
		)
	}

	n := yTrue.Len()
	if n == 0 {
		return 0, cmlErrors.NewValueError(
			"Accuracy",
			"input vectors cannot be empty",
		)
	}

	if n != yPred.Len() {
		return 0, cmlErrors.NewDimensionError(
			"Accuracy",
			n,
			yPred.Len(),
			0,
		)
	}

	matches := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			matches++
		}
	}

	return float64(matches) / float64(n), nil
}

// ClassificationError calculates the classification error rate.
//
// The error rate is the fraction of incorrect predictions, the complement
// of Accuracy.
//
// Parameters:
//   - yTrue: Ground truth labels
//   - yPred: Predicted labels
//
// Returns:
//   - The error rate (between 0 and 1)
//   - An error if inputs are invalid
//
// Example:
//
//	yTrue := mat.NewVecDense(5, []float64{0, 1, 2, 1, 0})
//	yPred := mat.NewVecDense(5, []float64{0, 1, 1, 1, 0})
//	errorRate, err := ClassificationError(yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Error Rate: %f\n", errorRate) // Output: Error Rate: 0.200000
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	accuracy, err := Accuracy(yTrue, yPred)
	if err != nil {
		return 0, cmlErrors.Wrap(err, "ClassificationError")
	}
	return 1 - accuracy, nil
}

// Score computes a named metric on the percent scale.
//
// The metric set is intentionally closed: "accuracy" yields Accuracy times
// 100, and any other name fails with UnsupportedMetricError. New metrics
// are added here as explicit cases, not through open dispatch, so a typo in
// a configuration surfaces as an error instead of silently scoring zero.
//
// Parameters:
//   - metric: Metric name, e.g. "accuracy"
//   - yTrue: Ground truth labels
//   - yPred: Predicted labels
//
// Returns:
//   - The score on a 0..100 scale
//   - An error if the metric is unknown or inputs are invalid
//
// Example:
//
//	yTrue := mat.NewVecDense(4, []float64{1, 1, 0, 0})
//	yPred := mat.NewVecDense(4, []float64{1, 0, 0, 0})
//	score, err := Score("accuracy", yTrue, yPred)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Printf("Score: %.1f\n", score) // Output: Score: 75.0
func Score(metric string, yTrue, yPred *mat.VecDense) (float64, error) {
	switch metric {
	case MetricAccuracy:
		accuracy, err := Accuracy(yTrue, yPred)
		if err != nil {
			return 0, err
		}
		return accuracy * 100, nil
	default:
		return 0, cmlErrors.NewUnsupportedMetricError("Score", metric)
	}
}
