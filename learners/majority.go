package learners

import (
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
	"github.com/combineml/combineml/pkg/log"
)

// MajorityClassifier predicts the most frequent training label for every
// input row. Frequency ties go to the smallest label value. It is the
// simplest conforming learner and the usual baseline in comparisons.
type MajorityClassifier struct {
	state  *model.StateManager
	opts   options.Options
	logger log.Logger

	classes_  []float64
	majority_ float64
}

// NewMajorityClassifier creates a new majority-label classifier. The variant
// takes no options; the store is kept only so Options and Derive behave
// uniformly across learners.
func NewMajorityClassifier(opts options.Options) *MajorityClassifier {
	m := &MajorityClassifier{
		state: model.NewStateManager(),
		opts:  options.Merge(nil, opts),
	}

	m.logger = log.GetLoggerWithName("learners").With(
		log.ModelNameKey, "MajorityClassifier",
	)

	return m
}

func init() {
	Register("majority", func(opts options.Options) (model.Learner, error) {
		return NewMajorityClassifier(opts), nil
	})
}

// Fit determines the most frequent label in y. X contributes only its shape,
// which is validated and recorded so Transform enforces the same column
// count as every other learner.
func (m *MajorityClassifier) Fit(X, y mat.Matrix) (err error) {
	defer cmlErrors.Recover(&err, "MajorityClassifier.Fit")

	nSamples, nFeatures, err := validateTrainingData("MajorityClassifier.Fit", X, y)
	if err != nil {
		return err
	}

	labels := columnLabels(y)
	counts := make(map[float64]int, len(labels))
	for _, label := range labels {
		counts[label]++
	}

	m.classes_ = distinctSorted(labels)

	// Scanning classes in ascending order makes the smallest label win ties.
	best := 0
	for _, class := range m.classes_ {
		if counts[class] > best {
			best = counts[class]
			m.majority_ = class
		}
	}

	m.state.SetFitted()
	m.state.SetDimensions(nFeatures, nSamples)

	m.logger.Debug("Training completed",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.ClassesKey, len(m.classes_),
	)

	return nil
}

// Transform predicts the majority label for every row of X.
func (m *MajorityClassifier) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MajorityClassifier", "Transform"); err != nil {
		return nil, err
	}

	nSamples, nFeatures := X.Dims()
	if nSamples == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "MajorityClassifier.Transform")
	}
	if err := m.state.ValidateShape("MajorityClassifier.Transform", nFeatures); err != nil {
		return nil, err
	}

	predictions := mat.NewDense(nSamples, 1, nil)
	for i := 0; i < nSamples; i++ {
		predictions.Set(i, 0, m.majority_)
	}

	return predictions, nil
}

// Options returns a deep copy of the classifier's option store.
func (m *MajorityClassifier) Options() options.Options {
	return m.opts.Clone()
}

// Derive returns a new unfitted MajorityClassifier whose store is the
// receiver's store merged with overrides. The receiver is not modified.
func (m *MajorityClassifier) Derive(overrides options.Options) (model.Transformer, error) {
	return NewMajorityClassifier(options.Merge(m.opts, overrides)), nil
}

// Classes returns the sorted distinct training labels.
func (m *MajorityClassifier) Classes() []float64 {
	classes := make([]float64, len(m.classes_))
	copy(classes, m.classes_)
	return classes
}
