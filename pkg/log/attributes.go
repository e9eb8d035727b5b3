// Standard attribute keys for structured logging.
//
// Using these keys keeps log output consistent across estimators and makes
// records filterable: every fit logs the same "ml.operation" and
// "data.samples" fields whether it comes from a single tree or a nested
// stack. Keys follow a hierarchical naming convention ("model.name",
// "data.samples", "ensemble.members").

package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type.
	// Examples: "VotingClassifier", "DecisionTreeClassifier"
	ModelNameKey = "model.name"

	// EstimatorIDKey is a unique identifier for one estimator instance,
	// used to correlate records from parallel child fits.
	EstimatorIDKey = "estimator.id"

	// OperationKey names the operation being performed.
	// Standard values: "fit", "transform", "score", "split", "build"
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or component emitting the record.
	ComponentKey = "component"
)

// Data shape.
const (
	// SamplesKey is the number of rows being processed.
	SamplesKey = "data.samples"

	// FeaturesKey is the number of feature columns.
	FeaturesKey = "data.features"

	// ClassesKey is the number of distinct class labels seen at fit time.
	ClassesKey = "data.classes"
)

// Ensemble context.
const (
	// MembersKey is the number of child models in an ensemble.
	MembersKey = "ensemble.members"

	// StackerKey names the meta-learner of a stacked ensemble.
	StackerKey = "ensemble.stacker"

	// BestIndexKey is the registration index of the member selected by
	// best-learner validation.
	BestIndexKey = "ensemble.best_index"
)

// Cross-validation context.
const (
	// FoldsKey is the fold count of a k-fold split.
	FoldsKey = "cv.folds"

	// TestFractionKey is the held-out fraction of a holdout split.
	TestFractionKey = "cv.test_fraction"
)

// Metrics and performance.
const (
	// MetricKey names the metric used for scoring.
	MetricKey = "metrics.name"

	// ScoreKey is a metric result on the Score scale (percent).
	ScoreKey = "metrics.score"

	// AccuracyKey is a fraction-scale accuracy in [0, 1].
	AccuracyKey = "metrics.accuracy"

	// DurationMsKey records the execution time of an operation in
	// milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Configuration.
const (
	// RandomSeedKey records the seed of a randomized operation.
	RandomSeedKey = "config.random_seed"

	// ConfigPathKey records the file a configuration was loaded from.
	ConfigPathKey = "config.path"
)

// Standard attribute value constants for OperationKey.
const (
	OperationFit       = "fit"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationSplit     = "split"
	OperationBuild     = "build"
)
