package ensemble

import (
	"time"

	"github.com/google/uuid"
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
	"github.com/combineml/combineml/pkg/log"
)

// VotingClassifier predicts the label most of its members predict.
//
// Every member is fitted on the full training data; at prediction time each
// row's output is the modal value over the member predictions. When several
// labels tie for the highest vote count, the one predicted by the earliest
// member among the tied labels wins, so the result is deterministic for
// fixed members and input.
//
// The classifier takes no strategy-specific options. Members are cloned on
// construction, so fitting the ensemble never mutates the learners the
// caller passed in.
type VotingClassifier struct {
	state  *model.StateManager
	opts   options.Options
	logger log.Logger

	members []model.Learner
}

var _ model.Transformer = (*VotingClassifier)(nil)

// NewVotingClassifier creates a majority-voting ensemble over the given
// members.
//
// Parameters:
//   - members: learners to combine; each is cloned with Derive(nil)
//   - opts: option store merged over the defaults (none for this variant)
//
// Returns:
//   - *VotingClassifier: the unfitted ensemble
//   - error: if any member fails to clone
//
// Example:
//
//	clf, err := ensemble.NewVotingClassifier([]model.Learner{
//	    learners.NewDecisionTreeClassifier(nil),
//	    learners.NewKNNClassifier(nil),
//	    learners.NewMajorityClassifier(nil),
//	}, nil)
func NewVotingClassifier(members []model.Learner, opts options.Options) (*VotingClassifier, error) {
	cloned, err := cloneLearners(members)
	if err != nil {
		return nil, cmlErrors.Wrap(err, "NewVotingClassifier")
	}

	v := &VotingClassifier{
		state:   model.NewStateManager(),
		opts:    options.Merge(nil, opts),
		members: cloned,
	}

	v.logger = log.GetLoggerWithName("ensemble").With(
		log.ModelNameKey, "VotingClassifier",
		log.EstimatorIDKey, uuid.NewString(),
	)

	return v, nil
}

// NumMembers reports how many members the ensemble holds.
func (v *VotingClassifier) NumMembers() int {
	return len(v.members)
}

// Fit trains every member on the full training data. Members are fitted
// concurrently; the first failing member aborts the fit with a FitError
// naming it, and the ensemble stays unfitted.
//
// Parameters:
//   - X: feature matrix (n_samples × n_features)
//   - y: label column vector (n_samples × 1)
//
// Returns:
//   - error: EmptyEnsembleError without members, validation errors on bad
//     shapes, or the first member's FitError
func (v *VotingClassifier) Fit(X, y mat.Matrix) (err error) {
	defer cmlErrors.Recover(&err, "VotingClassifier.Fit")

	if len(v.members) == 0 {
		return cmlErrors.NewEmptyEnsembleError("VotingClassifier")
	}

	nSamples, nFeatures, err := validateTrainingData("VotingClassifier.Fit", X, y)
	if err != nil {
		return err
	}

	v.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.MembersKey, len(v.members),
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
	)
	start := time.Now()

	v.state.Reset()

	if err := fitAll(v.members, X, y); err != nil {
		return err
	}

	v.state.SetFitted()
	v.state.SetDimensions(nFeatures, nSamples)

	v.logger.Info("Training completed",
		log.OperationKey, log.OperationFit,
		log.MembersKey, len(v.members),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)

	return nil
}

// Transform predicts one label per row by majority vote over the member
// predictions.
//
// Parameters:
//   - X: feature matrix (n_samples × n_features)
//
// Returns:
//   - mat.Matrix: predictions (n_samples × 1)
//   - error: NotFittedError before Fit, or shape/member errors
func (v *VotingClassifier) Transform(X mat.Matrix) (result mat.Matrix, err error) {
	op := "VotingClassifier.Transform"
	defer cmlErrors.Recover(&err, op)

	if err := v.state.RequireFitted("VotingClassifier", "Transform"); err != nil {
		return nil, err
	}
	if X == nil {
		return nil, cmlErrors.NewValueError(op, "X must not be nil")
	}
	n, c := X.Dims()
	if n == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, op)
	}
	if err := v.state.ValidateShape(op, c); err != nil {
		return nil, err
	}

	predictions, err := memberPredictions(op, v.members, X)
	if err != nil {
		return nil, err
	}

	out := mat.NewDense(n, 1, nil)
	for row := 0; row < n; row++ {
		out.Set(row, 0, majorityVote(predictions, row))
	}

	return out, nil
}

// majorityVote returns the modal label of one prediction row. Scanning
// members in order with a strict comparison makes the earliest member among
// tied labels the tie-breaker.
func majorityVote(predictions *mat.Dense, row int) float64 {
	_, m := predictions.Dims()

	counts := make(map[float64]int, m)
	for j := 0; j < m; j++ {
		counts[predictions.At(row, j)]++
	}

	var winner float64
	bestCount := 0
	for j := 0; j < m; j++ {
		label := predictions.At(row, j)
		if counts[label] > bestCount {
			bestCount = counts[label]
			winner = label
		}
	}
	return winner
}

// Options returns a deep copy of the ensemble's option store.
func (v *VotingClassifier) Options() options.Options {
	return v.opts.Clone()
}

// Derive creates a new unfitted voting ensemble with freshly cloned members
// and the receiver's options merged with overrides.
func (v *VotingClassifier) Derive(overrides options.Options) (model.Transformer, error) {
	return NewVotingClassifier(v.members, options.Merge(v.opts, overrides))
}
