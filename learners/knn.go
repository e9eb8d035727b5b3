package learners

import (
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/core/parallel"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
	"github.com/combineml/combineml/pkg/log"
)

// KNNClassifier implements k-nearest-neighbor classification with Euclidean
// distance and uniform vote weights.
//
// Ties are resolved deterministically: neighbor order breaks distance ties
// by training-row index, and vote ties go to the label with the nearest
// representative, then to the smaller label value. Prediction runs in
// parallel across input rows.
type KNNClassifier struct {
	state  *model.StateManager
	opts   options.Options
	logger log.Logger

	nNeighbors int

	// Fitted attributes
	X_       *mat.Dense // Stored training features
	y_       []float64  // Stored training labels
	classes_ []float64  // Sorted distinct class labels
}

// Row counts below this are classified sequentially.
const knnParallelThreshold = 64

func defaultKNNOptions() options.Options {
	return options.Options{
		"n_neighbors": 5,
	}
}

// NewKNNClassifier creates a k-nearest-neighbor classifier. The option store
// is merged over the default {"n_neighbors": 5}; the value is validated when
// Fit runs.
func NewKNNClassifier(opts options.Options) *KNNClassifier {
	merged := options.Merge(defaultKNNOptions(), opts)

	k := &KNNClassifier{
		state: model.NewStateManager(),
		opts:  merged,
	}
	k.nNeighbors, _ = merged.Int("n_neighbors")

	k.logger = log.GetLoggerWithName("learners").With(
		log.ModelNameKey, "KNNClassifier",
	)

	return k
}

func init() {
	Register("knn", func(opts options.Options) (model.Learner, error) {
		return NewKNNClassifier(opts), nil
	})
}

// Fit stores the training set. KNN is a lazy learner, so fitting is a copy
// plus validation.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//   - y: Label column vector of shape (n_samples, 1)
//
// Returns:
//   - error: nil if training succeeds, otherwise an error describing the failure
func (k *KNNClassifier) Fit(X, y mat.Matrix) (err error) {
	defer cmlErrors.Recover(&err, "KNNClassifier.Fit")

	startTime := time.Now()

	nSamples, nFeatures, err := validateTrainingData("KNNClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if k.nNeighbors < 1 {
		return cmlErrors.NewValueError("KNNClassifier.Fit", "n_neighbors must be >= 1")
	}
	if k.nNeighbors > nSamples {
		return cmlErrors.NewValueError("KNNClassifier.Fit", "n_neighbors cannot exceed the number of training samples")
	}

	k.state.Reset()

	k.X_ = mat.DenseCopyOf(X)
	k.y_ = columnLabels(y)
	k.classes_ = distinctSorted(k.y_)

	k.state.SetFitted()
	k.state.SetDimensions(nFeatures, nSamples)

	k.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		log.SamplesKey, nSamples,
		log.ClassesKey, len(k.classes_),
	)

	return nil
}

// Transform predicts a label for every row of X by majority vote among its
// k nearest training samples.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Prediction column of shape (n_samples, 1)
//   - error: NotFittedError before Fit, DimensionError on column mismatch
func (k *KNNClassifier) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := k.state.RequireFitted("KNNClassifier", "Transform"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "KNNClassifier.Transform")
	}
	if err := k.state.ValidateShape("KNNClassifier.Transform", nFeatures); err != nil {
		return nil, err
	}

	predictions := mat.NewDense(nSamples, 1, nil)

	// Rows write to disjoint prediction slots, so no synchronization needed.
	parallel.ParallelizeWithThreshold(nSamples, knnParallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			predictions.Set(i, 0, k.classify(X, i, nFeatures))
		}
	})

	return predictions, nil
}

// neighbor pairs a squared distance with a training-row index.
type neighbor struct {
	dist  float64
	index int
}

// classify votes among the k nearest training rows for one input row.
func (k *KNNClassifier) classify(X mat.Matrix, row, nFeatures int) float64 {
	nTrain, _ := k.X_.Dims()

	neighbors := make([]neighbor, nTrain)
	for j := 0; j < nTrain; j++ {
		// Squared Euclidean distance; ordering is the same without the root.
		d := 0.0
		for f := 0; f < nFeatures; f++ {
			diff := X.At(row, f) - k.X_.At(j, f)
			d += diff * diff
		}
		neighbors[j] = neighbor{dist: d, index: j}
	}

	sort.Slice(neighbors, func(a, b int) bool {
		if neighbors[a].dist != neighbors[b].dist {
			return neighbors[a].dist < neighbors[b].dist
		}
		return neighbors[a].index < neighbors[b].index
	})

	counts := make(map[float64]int, k.nNeighbors)
	nearestByLabel := make(map[float64]float64, k.nNeighbors)
	for _, nb := range neighbors[:k.nNeighbors] {
		label := k.y_[nb.index]
		counts[label]++
		if cur, ok := nearestByLabel[label]; !ok || nb.dist < cur {
			nearestByLabel[label] = nb.dist
		}
	}

	voted := make([]float64, 0, len(counts))
	for label := range counts {
		voted = append(voted, label)
	}
	sort.Float64s(voted)

	// Highest vote count wins; ties prefer the label with the nearest
	// representative, then the smaller label (the iteration order).
	winner := voted[0]
	bestCount := -1
	bestDist := math.Inf(1)
	for _, label := range voted {
		count := counts[label]
		dist := nearestByLabel[label]
		if count > bestCount || (count == bestCount && dist < bestDist) {
			winner = label
			bestCount = count
			bestDist = dist
		}
	}

	return winner
}

// Options returns a deep copy of the classifier's option store.
func (k *KNNClassifier) Options() options.Options {
	return k.opts.Clone()
}

// Derive returns a new unfitted KNNClassifier whose store is the receiver's
// store merged with overrides. The receiver is not modified.
func (k *KNNClassifier) Derive(overrides options.Options) (model.Transformer, error) {
	return NewKNNClassifier(options.Merge(k.opts, overrides)), nil
}

// Classes returns the sorted distinct training labels.
func (k *KNNClassifier) Classes() []float64 {
	classes := make([]float64, len(k.classes_))
	copy(classes, k.classes_)
	return classes
}
