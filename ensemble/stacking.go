package ensemble

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/learners"
	"github.com/combineml/combineml/modelselection"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
	"github.com/combineml/combineml/pkg/log"
)

// StackingClassifier combines its members through a trainable meta-learner.
//
// Fit builds a leakage-free meta-table: the training rows are partitioned by
// k-fold, and each member's column is filled with out-of-fold predictions
// (a clone of the member fitted on the other folds predicts the held-out
// rows). The stacker is then fitted on that table, and finally every member
// is refitted on the full training data so it can produce meta-features at
// prediction time. Transform feeds the member predictions, plus the raw
// features when keep_original_features is set, through the stacker.
//
// Options (merged over these defaults):
//
//	{"folds": 5, "keep_original_features": false, "shuffle": true, "seed": 0}
//
// A nil stacker defaults to a decision tree. Both the members and the
// stacker are cloned on construction.
type StackingClassifier struct {
	state  *model.StateManager
	opts   options.Options
	logger log.Logger

	members []model.Learner
	stacker model.Learner

	keepOriginal_ bool
}

var _ model.Transformer = (*StackingClassifier)(nil)

func defaultStackingOptions() options.Options {
	return options.Options{
		"folds":                  5,
		"keep_original_features": false,
		"shuffle":                true,
		"seed":                   0,
	}
}

// NewStackingClassifier creates a stacked-generalization ensemble.
//
// Parameters:
//   - members: base learners; each is cloned with Derive(nil)
//   - stacker: meta-learner fitted on the out-of-fold predictions; nil
//     selects a decision tree with default options
//   - opts: option store merged over the defaults
//
// Returns:
//   - *StackingClassifier: the unfitted ensemble
//   - error: if a member or the stacker fails to clone
//
// Example:
//
//	clf, err := ensemble.NewStackingClassifier(members, nil, options.Options{
//	    "folds":                  3,
//	    "keep_original_features": true,
//	})
func NewStackingClassifier(members []model.Learner, stacker model.Learner, opts options.Options) (*StackingClassifier, error) {
	cloned, err := cloneLearners(members)
	if err != nil {
		return nil, cmlErrors.Wrap(err, "NewStackingClassifier")
	}

	var meta model.Learner
	if stacker == nil {
		meta = learners.NewDecisionTreeClassifier(nil)
	} else {
		meta, err = stacker.Derive(nil)
		if err != nil {
			return nil, cmlErrors.Wrap(err, "NewStackingClassifier: cloning stacker")
		}
	}

	s := &StackingClassifier{
		state:   model.NewStateManager(),
		opts:    options.Merge(defaultStackingOptions(), opts),
		members: cloned,
		stacker: meta,
	}

	s.logger = log.GetLoggerWithName("ensemble").With(
		log.ModelNameKey, "StackingClassifier",
		log.EstimatorIDKey, uuid.NewString(),
	)

	return s, nil
}

// NumMembers reports how many base members the ensemble holds.
func (s *StackingClassifier) NumMembers() int {
	return len(s.members)
}

// Fit builds the out-of-fold meta-table, fits the stacker on it, and refits
// every member on the full training data. Folds run concurrently and write
// disjoint rows of the meta-table; members within a fold run sequentially.
//
// Parameters:
//   - X: feature matrix (n_samples × n_features)
//   - y: label column vector (n_samples × 1)
//
// Returns:
//   - error: EmptyEnsembleError without members, FoldCountError when folds
//     is below two or exceeds the sample count, or a member's or the
//     stacker's FitError
func (s *StackingClassifier) Fit(X, y mat.Matrix) (err error) {
	op := "StackingClassifier.Fit"
	defer cmlErrors.Recover(&err, op)

	if len(s.members) == 0 {
		return cmlErrors.NewEmptyEnsembleError("StackingClassifier")
	}

	nSamples, nFeatures, err := validateTrainingData(op, X, y)
	if err != nil {
		return err
	}

	nFolds, _ := s.opts.Int("folds")
	shuffle, _ := s.opts.Bool("shuffle")
	seed, _ := s.opts.Int("seed")
	keepOriginal, _ := s.opts.Bool("keep_original_features")

	if nFolds < 2 {
		return cmlErrors.NewFoldCountError(nFolds, nSamples, "stacking requires at least two folds")
	}

	kf := modelselection.KFold{NSplits: nFolds, Shuffle: shuffle, Seed: uint64(seed)}
	folds, err := kf.Split(nSamples)
	if err != nil {
		return cmlErrors.Wrap(err, op)
	}

	s.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.MembersKey, len(s.members),
		log.StackerKey, typeName(s.stacker),
		log.FoldsKey, nFolds,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)
	start := time.Now()

	s.state.Reset()

	metaWidth := len(s.members)
	if keepOriginal {
		metaWidth += nFeatures
	}
	meta := mat.NewDense(nSamples, metaWidth, nil)

	// Each fold owns its test rows of the meta-table, so folds fill it
	// concurrently without synchronization.
	p := pool.New().WithErrors().WithFirstError()
	for f, fold := range folds {
		p.Go(func() error {
			return s.fillFold(f, fold, X, y, meta)
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	if keepOriginal {
		for row := 0; row < nSamples; row++ {
			for j := 0; j < nFeatures; j++ {
				meta.Set(row, len(s.members)+j, X.At(row, j))
			}
		}
	}

	if err := s.stacker.Fit(meta, y); err != nil {
		return cmlErrors.NewFitError(fmt.Sprintf("stacker (%s)", typeName(s.stacker)), err)
	}

	// The fold clones are discarded; prediction-time meta-features come
	// from members trained on all rows.
	if err := fitAll(s.members, X, y); err != nil {
		return err
	}

	s.keepOriginal_ = keepOriginal
	s.state.SetFitted()
	s.state.SetDimensions(nFeatures, nSamples)

	s.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.MembersKey, len(s.members),
		log.StackerKey, typeName(s.stacker),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// fillFold writes one fold's out-of-fold predictions into the meta-table:
// every member is cloned, fitted on the fold's training rows, and predicts
// the fold's test rows.
func (s *StackingClassifier) fillFold(f int, fold modelselection.Fold, X, y mat.Matrix, meta *mat.Dense) error {
	op := "StackingClassifier.Fit"

	trainX := takeRows(X, fold.Train)
	trainY := takeRows(y, fold.Train)
	testX := takeRows(X, fold.Test)

	for i, member := range s.members {
		clone, err := member.Derive(nil)
		if err != nil {
			return cmlErrors.Wrapf(err, "%s: cloning %s", op, memberName(i, member))
		}

		if err := clone.Fit(trainX, trainY); err != nil {
			return cmlErrors.Wrapf(cmlErrors.NewFitError(memberName(i, member), err),
				"stacking fold %d", f)
		}

		pred, err := clone.Transform(testX)
		if err != nil {
			return cmlErrors.Wrapf(err, "%s: %s on fold %d", op, memberName(i, member), f)
		}
		pr, pc := pred.Dims()
		if pc != 1 {
			return cmlErrors.NewDimensionError(op, 1, pc, 1)
		}
		if pr != len(fold.Test) {
			return cmlErrors.NewDimensionError(op, len(fold.Test), pr, 0)
		}

		for t, row := range fold.Test {
			meta.Set(row, i, pred.At(t, 0))
		}
	}

	return nil
}

// Transform predicts by feeding the member predictions, plus the raw
// features when configured, through the fitted stacker.
//
// Parameters:
//   - X: feature matrix (n_samples × n_features)
//
// Returns:
//   - mat.Matrix: the stacker's predictions (n_samples × 1)
//   - error: NotFittedError before Fit, or shape/member errors
func (s *StackingClassifier) Transform(X mat.Matrix) (result mat.Matrix, err error) {
	op := "StackingClassifier.Transform"
	defer cmlErrors.Recover(&err, op)

	if err := s.state.RequireFitted("StackingClassifier", "Transform"); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, cmlErrors.NewValueError(op, "X must not be nil")
	}
	n, c := X.Dims()
	if n == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, op)
	}
	if err := s.state.ValidateShape(op, c); err != nil {
		return nil, err
	}

	preds, err := memberPredictions(op, s.members, X)
	if err != nil {
		return nil, err
	}

	meta := mat.Matrix(preds)
	if s.keepOriginal_ {
		wide := mat.NewDense(n, len(s.members)+c, nil)
		for row := 0; row < n; row++ {
			for j := 0; j < len(s.members); j++ {
				wide.Set(row, j, preds.At(row, j))
			}
			for j := 0; j < c; j++ {
				wide.Set(row, len(s.members)+j, X.At(row, j))
			}
		}
		meta = wide
	}

	out, err := s.stacker.Transform(meta)
	if err != nil {
		return nil, cmlErrors.Wrapf(err, "%s: stacker (%s)", op, typeName(s.stacker))
	}
	return out, nil
}

// Options returns a deep copy of the ensemble's option store.
func (s *StackingClassifier) Options() options.Options {
	return s.opts.Clone()
}

// Derive creates a new unfitted stacking ensemble with freshly cloned
// members and stacker and the receiver's options merged with overrides.
func (s *StackingClassifier) Derive(overrides options.Options) (model.Transformer, error) {
	return NewStackingClassifier(s.members, s.stacker, options.Merge(s.opts, overrides))
}
