package ensemble

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/metrics"
	"github.com/combineml/combineml/modelselection"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
	"github.com/combineml/combineml/pkg/log"
)

// BestLearnerClassifier cross-validates its members and keeps the single
// best one.
//
// During Fit every member is scored with the configured metric: each fold of
// the validation splitter trains an unfitted clone of the member on the
// training rows and scores its predictions on the held-out rows, and the
// member's score is the mean over folds. The highest-scoring member is then
// refitted on the full training data and becomes the sole predictor; ties go
// to the earliest member.
//
// Options (merged over these defaults):
//
//	{"metric": "accuracy", "folds": 5, "shuffle": true, "seed": 0}
//
// The fold options only matter when no splitter has been injected with
// WithSplitter.
type BestLearnerClassifier struct {
	state  *model.StateManager
	opts   options.Options
	logger log.Logger

	members  []model.Learner
	splitter modelselection.Splitter

	bestIndex_ int
	bestScore_ float64
	scores_    []float64
}

var _ model.Transformer = (*BestLearnerClassifier)(nil)

func defaultBestLearnerOptions() options.Options {
	return options.Options{
		"metric":  metrics.MetricAccuracy,
		"folds":   5,
		"shuffle": true,
		"seed":    0,
	}
}

// NewBestLearnerClassifier creates a best-learner ensemble over the given
// members.
//
// Parameters:
//   - members: candidate learners; each is cloned with Derive(nil)
//   - opts: option store merged over the defaults
//
// Returns:
//   - *BestLearnerClassifier: the unfitted ensemble
//   - error: if any member fails to clone
//
// Example:
//
//	clf, err := ensemble.NewBestLearnerClassifier(members, options.Options{
//	    "folds": 3,
//	})
func NewBestLearnerClassifier(members []model.Learner, opts options.Options) (*BestLearnerClassifier, error) {
	cloned, err := cloneLearners(members)
	if err != nil {
		return nil, cmlErrors.Wrap(err, "NewBestLearnerClassifier")
	}

	b := &BestLearnerClassifier{
		state:      model.NewStateManager(),
		opts:       options.Merge(defaultBestLearnerOptions(), opts),
		members:    cloned,
		bestIndex_: -1,
	}

	b.logger = log.GetLoggerWithName("ensemble").With(
		log.ModelNameKey, "BestLearnerClassifier",
		log.EstimatorIDKey, uuid.NewString(),
	)

	return b, nil
}

// WithSplitter injects the validation strategy used to score members,
// replacing the k-fold splitter built from the fold options. It returns the
// receiver for chaining and must be called before Fit.
func (b *BestLearnerClassifier) WithSplitter(s modelselection.Splitter) *BestLearnerClassifier {
	b.splitter = s
	return b
}

// NumMembers reports how many members the ensemble holds.
func (b *BestLearnerClassifier) NumMembers() int {
	return len(b.members)
}

// Fit scores every member by cross-validation and refits the winner on the
// full training data. Members are scored concurrently, each member's folds
// sequentially.
//
// Parameters:
//   - X: feature matrix (n_samples × n_features)
//   - y: label column vector (n_samples × 1)
//
// Returns:
//   - error: EmptyEnsembleError without members, FoldCountError for an
//     unusable fold configuration, UnsupportedMetricError for an unknown
//     metric, or a member's FitError
func (b *BestLearnerClassifier) Fit(X, y mat.Matrix) (err error) {
	op := "BestLearnerClassifier.Fit"
	defer cmlErrors.Recover(&err, op)

	if len(b.members) == 0 {
		return cmlErrors.NewEmptyEnsembleError("BestLearnerClassifier")
	}

	nSamples, nFeatures, err := validateTrainingData(op, X, y)
	if err != nil {
		return err
	}

	metric, _ := b.opts.String("metric")

	splitter := b.splitter
	if splitter == nil {
		nFolds, _ := b.opts.Int("folds")
		shuffle, _ := b.opts.Bool("shuffle")
		seed, _ := b.opts.Int("seed")
		splitter = modelselection.NewKFold(nFolds, shuffle, uint64(seed))
	}

	folds, err := splitter.Split(nSamples)
	if err != nil {
		return cmlErrors.Wrap(err, op)
	}

	b.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.MembersKey, len(b.members),
		log.FoldsKey, len(folds),
		log.MetricKey, metric,
		log.SamplesKey, nSamples,
	)
	start := time.Now()

	b.state.Reset()
	b.bestIndex_ = -1
	b.bestScore_ = 0
	b.scores_ = nil

	scores := make([]float64, len(b.members))
	p := pool.New().WithErrors().WithFirstError()
	for i, member := range b.members {
		p.Go(func() error {
			score, err := b.scoreMember(i, member, X, y, folds, metric)
			if err != nil {
				return err
			}
			scores[i] = score
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return err
	}

	// First-registered member wins score ties.
	bestIndex := 0
	bestScore := scores[0]
	for i := 1; i < len(scores); i++ {
		if scores[i] > bestScore {
			bestScore = scores[i]
			bestIndex = i
		}
	}

	if err := b.members[bestIndex].Fit(X, y); err != nil {
		return cmlErrors.NewFitError(memberName(bestIndex, b.members[bestIndex]), err)
	}

	b.bestIndex_ = bestIndex
	b.bestScore_ = bestScore
	b.scores_ = scores
	b.state.SetFitted()
	b.state.SetDimensions(nFeatures, nSamples)

	b.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.BestIndexKey, bestIndex,
		log.ScoreKey, bestScore,
		log.MetricKey, metric,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// scoreMember cross-validates one member and returns its mean fold score.
func (b *BestLearnerClassifier) scoreMember(i int, member model.Learner, X, y mat.Matrix, folds []modelselection.Fold, metric string) (float64, error) {
	op := "BestLearnerClassifier.Fit"
	n, _ := X.Dims()

	total := 0.0
	for f, fold := range folds {
		if len(fold.Train) == 0 || len(fold.Test) == 0 {
			return 0, cmlErrors.NewFoldCountError(len(folds), n,
				fmt.Sprintf("fold %d has an empty partition", f))
		}

		clone, err := member.Derive(nil)
		if err != nil {
			return 0, cmlErrors.Wrapf(err, "%s: cloning %s", op, memberName(i, member))
		}

		if err := clone.Fit(takeRows(X, fold.Train), takeRows(y, fold.Train)); err != nil {
			return 0, cmlErrors.Wrapf(cmlErrors.NewFitError(memberName(i, member), err),
				"validation fold %d", f)
		}

		pred, err := clone.Transform(takeRows(X, fold.Test))
		if err != nil {
			return 0, cmlErrors.Wrapf(err, "%s: %s on fold %d", op, memberName(i, member), f)
		}
		pr, pc := pred.Dims()
		if pc != 1 {
			return 0, cmlErrors.NewDimensionError(op, 1, pc, 1)
		}
		if pr != len(fold.Test) {
			return 0, cmlErrors.NewDimensionError(op, len(fold.Test), pr, 0)
		}

		score, err := metrics.Score(metric, columnVec(takeRows(y, fold.Test)), columnVec(pred))
		if err != nil {
			return 0, err
		}
		total += score
	}

	return total / float64(len(folds)), nil
}

// Transform delegates to the selected member.
//
// Parameters:
//   - X: feature matrix (n_samples × n_features)
//
// Returns:
//   - mat.Matrix: the winner's predictions (n_samples × 1)
//   - error: NotFittedError before Fit, or shape errors
func (b *BestLearnerClassifier) Transform(X mat.Matrix) (result mat.Matrix, err error) {
	op := "BestLearnerClassifier.Transform"
	defer cmlErrors.Recover(&err, op)

	if err := b.state.RequireFitted("BestLearnerClassifier", "Transform"); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, cmlErrors.NewValueError(op, "X must not be nil")
	}
	n, c := X.Dims()
	if n == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, op)
	}
	if err := b.state.ValidateShape(op, c); err != nil {
		return nil, err
	}

	out, err := b.members[b.bestIndex_].Transform(X)
	if err != nil {
		return nil, cmlErrors.Wrapf(err, "%s: %s", op, memberName(b.bestIndex_, b.members[b.bestIndex_]))
	}
	return out, nil
}

// BestIndex returns the index of the selected member, or -1 before Fit.
func (b *BestLearnerClassifier) BestIndex() int {
	return b.bestIndex_
}

// BestScore returns the selected member's mean validation score.
func (b *BestLearnerClassifier) BestScore() float64 {
	return b.bestScore_
}

// Scores returns a copy of every member's mean validation score in member
// order, or nil before Fit.
func (b *BestLearnerClassifier) Scores() []float64 {
	if b.scores_ == nil {
		return nil
	}
	scores := make([]float64, len(b.scores_))
	copy(scores, b.scores_)
	return scores
}

// Options returns a deep copy of the ensemble's option store.
func (b *BestLearnerClassifier) Options() options.Options {
	return b.opts.Clone()
}

// Derive creates a new unfitted best-learner ensemble with freshly cloned
// members and the receiver's options merged with overrides. An injected
// splitter carries over to the derived ensemble.
func (b *BestLearnerClassifier) Derive(overrides options.Options) (model.Transformer, error) {
	derived, err := NewBestLearnerClassifier(b.members, options.Merge(b.opts, overrides))
	if err != nil {
		return nil, err
	}
	derived.splitter = b.splitter
	return derived, nil
}
