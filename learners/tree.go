package learners

import (
	"fmt"
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

// TreeNode represents a node in the decision tree
type TreeNode struct {
	IsLeaf       bool      // Whether this is a leaf node
	Feature      int       // Feature index for split (internal nodes)
	Threshold    float64   // Threshold value for split (internal nodes)
	Left         *TreeNode // Left child (values <= threshold)
	Right        *TreeNode // Right child (values > threshold)
	ClassCounts  []int     // Class counts at this node
	PredictClass int       // Index into classes_ of the majority class
	Impurity     float64   // Node impurity
	NSamples     int       // Number of samples at this node
	Depth        int       // Depth of this node in the tree
}

// DecisionTreeClassifier implements a CART decision tree for classification.
//
// Split candidates are midpoints between consecutive distinct feature values;
// the best-split search runs in parallel across features. Training is
// deterministic for a fixed input.
type DecisionTreeClassifier struct {
	state  *model.StateManager
	opts   options.Options
	logger log.Logger

	// Hyperparameters, read from the option store at construction
	criterion           string  // Splitting criterion: "gini", "entropy"
	maxDepth            int     // Maximum depth of tree (0 = unlimited)
	minSamplesSplit     int     // Minimum samples to split a node
	minSamplesLeaf      int     // Minimum samples in a leaf
	minImpurityDecrease float64 // Minimum impurity decrease for split

	// Fitted attributes
	tree_               *TreeNode // Root of the tree
	classes_            []float64 // Sorted distinct class labels
	nClasses_           int       // Number of classes
	featureImportances_ []float64 // Impurity-weighted feature importances
}

// Features below this count are searched sequentially.
const splitParallelThreshold = 8

func defaultTreeOptions() options.Options {
	return options.Options{
		"criterion":             "gini",
		"max_depth":             0,
		"min_samples_split":     2,
		"min_samples_leaf":      1,
		"min_impurity_decrease": 0.0,
	}
}

// NewDecisionTreeClassifier creates a decision tree classifier. The option
// store is merged over the defaults:
//
//	{"criterion": "gini", "max_depth": 0, "min_samples_split": 2,
//	 "min_samples_leaf": 1, "min_impurity_decrease": 0.0}
//
// Option values are validated when Fit runs.
func NewDecisionTreeClassifier(opts options.Options) *DecisionTreeClassifier {
	merged := options.Merge(defaultTreeOptions(), opts)

	dt := &DecisionTreeClassifier{
		state: model.NewStateManager(),
		opts:  merged,
	}
	dt.criterion, _ = merged.String("criterion")
	dt.maxDepth, _ = merged.Int("max_depth")
	dt.minSamplesSplit, _ = merged.Int("min_samples_split")
	dt.minSamplesLeaf, _ = merged.Int("min_samples_leaf")
	dt.minImpurityDecrease, _ = merged.Float("min_impurity_decrease")

	dt.logger = log.GetLoggerWithName("learners").With(
		log.ModelNameKey, "DecisionTreeClassifier",
	)

	return dt
}

func init() {
	Register("tree", func(opts options.Options) (model.Learner, error) {
		return NewDecisionTreeClassifier(opts), nil
	})
}

// Fit trains the decision tree.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//   - y: Label column vector of shape (n_samples, 1)
//
// Returns:
//   - error: nil if training succeeds, otherwise an error describing the failure
func (dt *DecisionTreeClassifier) Fit(X, y mat.Matrix) (err error) {
	defer cmlErrors.Recover(&err, "DecisionTreeClassifier.Fit")

	startTime := time.Now()

	nSamples, nFeatures, err := validateTrainingData("DecisionTreeClassifier.Fit", X, y)
	if err != nil {
		return err
	}
	if err := dt.validateHyperparameters(); err != nil {
		return err
	}

	dt.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)

	// Refitting fully resets the previous tree.
	dt.state.Reset()

	labels := columnLabels(y)
	dt.classes_ = distinctSorted(labels)
	dt.nClasses_ = len(dt.classes_)

	classIndex := make(map[float64]int, dt.nClasses_)
	for i, class := range dt.classes_ {
		classIndex[class] = i
	}
	yIndices := make([]int, nSamples)
	for i, label := range labels {
		yIndices[i] = classIndex[label]
	}

	rows := make([]int, nSamples)
	for i := range rows {
		rows[i] = i
	}

	dt.featureImportances_ = make([]float64, nFeatures)
	dt.tree_ = dt.buildTree(X, yIndices, rows, 0)
	dt.normalizeFeatureImportances()

	dt.state.SetFitted()
	dt.state.SetDimensions(nFeatures, nSamples)

	dt.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.DurationMsKey, time.Since(startTime).Milliseconds(),
		log.SamplesKey, nSamples,
		log.ClassesKey, dt.nClasses_,
	)

	return nil
}

func (dt *DecisionTreeClassifier) validateHyperparameters() error {
	const op = "DecisionTreeClassifier.Fit"

	switch dt.criterion {
	case "gini", "entropy":
	default:
		return cmlErrors.NewValueError(op, fmt.Sprintf("unknown criterion %q", dt.criterion))
	}
	if dt.maxDepth < 0 {
		return cmlErrors.NewValueError(op, "max_depth must be >= 0")
	}
	if dt.minSamplesSplit < 2 {
		return cmlErrors.NewValueError(op, "min_samples_split must be >= 2")
	}
	if dt.minSamplesLeaf < 1 {
		return cmlErrors.NewValueError(op, "min_samples_leaf must be >= 1")
	}
	if dt.minImpurityDecrease < 0 {
		return cmlErrors.NewValueError(op, "min_impurity_decrease must be >= 0")
	}
	return nil
}

// buildTree recursively builds the decision tree over the given row subset.
func (dt *DecisionTreeClassifier) buildTree(X mat.Matrix, y []int, rows []int, depth int) *TreeNode {
	classCounts := make([]int, dt.nClasses_)
	for _, row := range rows {
		classCounts[y[row]]++
	}

	maxCount := 0
	predictClass := 0
	for i, count := range classCounts {
		if count > maxCount {
			maxCount = count
			predictClass = i
		}
	}

	impurity := dt.calculateImpurity(classCounts)

	node := &TreeNode{
		ClassCounts:  classCounts,
		PredictClass: predictClass,
		Impurity:     impurity,
		NSamples:     len(rows),
		Depth:        depth,
	}

	if dt.shouldStop(len(rows), impurity, depth) {
		node.IsLeaf = true
		return node
	}

	bestFeature, bestThreshold, bestDecrease := dt.findBestSplit(X, y, rows, impurity)
	if bestFeature < 0 || bestDecrease < dt.minImpurityDecrease {
		node.IsLeaf = true
		return node
	}

	var leftRows, rightRows []int
	for _, row := range rows {
		if X.At(row, bestFeature) <= bestThreshold {
			leftRows = append(leftRows, row)
		} else {
			rightRows = append(rightRows, row)
		}
	}

	if len(leftRows) < dt.minSamplesLeaf || len(rightRows) < dt.minSamplesLeaf {
		node.IsLeaf = true
		return node
	}

	node.Feature = bestFeature
	node.Threshold = bestThreshold

	dt.featureImportances_[bestFeature] += bestDecrease * float64(len(rows))

	node.Left = dt.buildTree(X, y, leftRows, depth+1)
	node.Right = dt.buildTree(X, y, rightRows, depth+1)

	return node
}

// shouldStop checks stopping criteria
func (dt *DecisionTreeClassifier) shouldStop(nSamples int, impurity float64, depth int) bool {
	if dt.maxDepth > 0 && depth >= dt.maxDepth {
		return true
	}
	if nSamples < dt.minSamplesSplit {
		return true
	}
	if impurity == 0.0 {
		return true
	}
	return false
}

// calculateImpurity calculates node impurity using Gini or Entropy
func (dt *DecisionTreeClassifier) calculateImpurity(classCounts []int) float64 {
	total := 0
	for _, count := range classCounts {
		total += count
	}
	if total == 0 {
		return 0.0
	}

	impurity := 0.0

	switch dt.criterion {
	case "entropy":
		// Entropy: -sum(p_i * log2(p_i))
		for _, count := range classCounts {
			if count > 0 {
				p := float64(count) / float64(total)
				impurity -= p * math.Log2(p)
			}
		}

	default:
		// Gini impurity: 1 - sum(p_i^2)
		sumSquared := 0.0
		for _, count := range classCounts {
			if count > 0 {
				p := float64(count) / float64(total)
				sumSquared += p * p
			}
		}
		impurity = 1.0 - sumSquared
	}

	return impurity
}

// splitCandidate is the best split found for one feature.
type splitCandidate struct {
	threshold        float64
	impurityDecrease float64
	valid            bool
}

// findBestSplit searches every feature for the split with the largest
// impurity decrease. Features are searched concurrently; the reduction scans
// in feature order with a strict comparison, so the result does not depend
// on goroutine scheduling.
func (dt *DecisionTreeClassifier) findBestSplit(X mat.Matrix, y []int, rows []int, parentImpurity float64) (int, float64, float64) {
	_, nFeatures := X.Dims()
	candidates := make([]splitCandidate, nFeatures)

	parallel.ParallelizeWithThreshold(nFeatures, splitParallelThreshold, func(start, end int) {
		for feature := start; feature < end; feature++ {
			candidates[feature] = dt.bestSplitForFeature(X, y, rows, feature, parentImpurity)
		}
	})

	bestFeature := -1
	bestThreshold := 0.0
	bestDecrease := 0.0
	for feature, cand := range candidates {
		if cand.valid && cand.impurityDecrease > bestDecrease {
			bestDecrease = cand.impurityDecrease
			bestFeature = feature
			bestThreshold = cand.threshold
		}
	}

	return bestFeature, bestThreshold, bestDecrease
}

// bestSplitForFeature scans the sorted values of one feature, maintaining
// running class counts on each side so every candidate threshold costs only
// the impurity evaluation. Candidates are midpoints between consecutive
// distinct values.
func (dt *DecisionTreeClassifier) bestSplitForFeature(X mat.Matrix, y []int, rows []int, feature int, parentImpurity float64) splitCandidate {
	n := len(rows)

	ordered := make([]int, n)
	copy(ordered, rows)
	sort.Slice(ordered, func(i, j int) bool {
		return X.At(ordered[i], feature) < X.At(ordered[j], feature)
	})

	leftCounts := make([]int, dt.nClasses_)
	rightCounts := make([]int, dt.nClasses_)
	for _, row := range ordered {
		rightCounts[y[row]]++
	}

	var best splitCandidate
	nLeft := 0

	for i := 0; i < n-1; i++ {
		row := ordered[i]
		leftCounts[y[row]]++
		rightCounts[y[row]]--
		nLeft++

		value := X.At(row, feature)
		nextValue := X.At(ordered[i+1], feature)
		if value == nextValue {
			continue
		}

		nRight := n - nLeft
		if nLeft < dt.minSamplesLeaf || nRight < dt.minSamplesLeaf {
			continue
		}

		weighted := (float64(nLeft)*dt.calculateImpurity(leftCounts) +
			float64(nRight)*dt.calculateImpurity(rightCounts)) / float64(n)
		decrease := parentImpurity - weighted

		if decrease > best.impurityDecrease {
			best = splitCandidate{
				threshold:        (value + nextValue) / 2.0,
				impurityDecrease: decrease,
				valid:            true,
			}
		}
	}

	return best
}

// normalizeFeatureImportances normalizes feature importance scores
func (dt *DecisionTreeClassifier) normalizeFeatureImportances() {
	sum := 0.0
	for _, imp := range dt.featureImportances_ {
		sum += imp
	}
	if sum > 0 {
		for i := range dt.featureImportances_ {
			dt.featureImportances_[i] /= sum
		}
	}
}

// Transform predicts a label for every row of X by routing it to a leaf.
//
// Parameters:
//   - X: Feature matrix of shape (n_samples, n_features)
//
// Returns:
//   - mat.Matrix: Prediction column of shape (n_samples, 1)
//   - error: NotFittedError before Fit, DimensionError on column mismatch
func (dt *DecisionTreeClassifier) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "Transform"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "DecisionTreeClassifier.Transform")
	}
	if err := dt.state.ValidateShape("DecisionTreeClassifier.Transform", nFeatures); err != nil {
		return nil, err
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		node := dt.tree_
		for !node.IsLeaf {
			if X.At(i, node.Feature) <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}
		predictions.Set(i, 0, dt.classes_[node.PredictClass])
	}

	return predictions, nil
}

// PredictProba returns per-class probability estimates from leaf class
// frequencies. Columns follow Classes() order.
func (dt *DecisionTreeClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := dt.state.RequireFitted("DecisionTreeClassifier", "PredictProba"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "DecisionTreeClassifier.PredictProba")
	}
	if err := dt.state.ValidateShape("DecisionTreeClassifier.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	probas := mat.NewDense(nSamples, dt.nClasses_, nil)
	for i := 0; i < nSamples; i++ {
		node := dt.tree_
		for !node.IsLeaf {
			if X.At(i, node.Feature) <= node.Threshold {
				node = node.Left
			} else {
				node = node.Right
			}
		}

		total := 0
		for _, count := range node.ClassCounts {
			total += count
		}
		for j := 0; j < dt.nClasses_; j++ {
			if total > 0 {
				probas.Set(i, j, float64(node.ClassCounts[j])/float64(total))
			}
		}
	}

	return probas, nil
}

// Options returns a deep copy of the classifier's option store.
func (dt *DecisionTreeClassifier) Options() options.Options {
	return dt.opts.Clone()
}

// Derive returns a new unfitted DecisionTreeClassifier whose store is the
// receiver's store merged with overrides. The receiver is not modified.
func (dt *DecisionTreeClassifier) Derive(overrides options.Options) (model.Transformer, error) {
	return NewDecisionTreeClassifier(options.Merge(dt.opts, overrides)), nil
}

// Classes returns the sorted distinct training labels.
func (dt *DecisionTreeClassifier) Classes() []float64 {
	classes := make([]float64, len(dt.classes_))
	copy(classes, dt.classes_)
	return classes
}

// GetFeatureImportances returns feature importance scores
func (dt *DecisionTreeClassifier) GetFeatureImportances() []float64 {
	if dt.featureImportances_ == nil {
		return nil
	}
	importances := make([]float64, len(dt.featureImportances_))
	copy(importances, dt.featureImportances_)
	return importances
}

// GetDepth returns the depth of the tree
func (dt *DecisionTreeClassifier) GetDepth() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.getMaxDepth(dt.tree_)
}

// getMaxDepth recursively finds maximum depth
func (dt *DecisionTreeClassifier) getMaxDepth(node *TreeNode) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return node.Depth
	}
	leftDepth := dt.getMaxDepth(node.Left)
	rightDepth := dt.getMaxDepth(node.Right)
	if leftDepth > rightDepth {
		return leftDepth
	}
	return rightDepth
}

// GetNLeaves returns the number of leaf nodes
func (dt *DecisionTreeClassifier) GetNLeaves() int {
	if dt.tree_ == nil {
		return 0
	}
	return dt.countLeaves(dt.tree_)
}

// countLeaves recursively counts leaf nodes
func (dt *DecisionTreeClassifier) countLeaves(node *TreeNode) int {
	if node == nil {
		return 0
	}
	if node.IsLeaf {
		return 1
	}
	return dt.countLeaves(node.Left) + dt.countLeaves(node.Right)
}
