package preprocessing

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
	"github.com/combineml/combineml/variable"
)

// LabelEncoder maps string categories to float class codes and back.
//
// Fit runs the column through variable type inference and adopts the sorted
// category set of the resulting nominal type, so "setosa" < "versicolor"
// always produces the same code assignment regardless of input order. The
// float codes are what learners train on; InverseTransform recovers the
// category names from predictions.
//
// Example:
//
//	encoder := preprocessing.NewLabelEncoder()
//	y, err := encoder.FitTransform([]string{"cat", "dog", "cat", "bird"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	// bird=0, cat=1, dog=2
//	names, err := encoder.InverseTransform(y)
type LabelEncoder struct {
	state *model.StateManager

	classes_ []string
	codes_   map[string]float64
}

// NewLabelEncoder creates an unfitted LabelEncoder.
func NewLabelEncoder() *LabelEncoder {
	return &LabelEncoder{
		state: model.NewStateManager(),
	}
}

// Fit learns the category set of the given labels.
func (e *LabelEncoder) Fit(labels []string) (err error) {
	defer cmlErrors.Recover(&err, "LabelEncoder.Fit")

	if len(labels) == 0 {
		return cmlErrors.Wrap(cmlErrors.ErrEmptyData, "LabelEncoder.Fit")
	}

	inferred, err := variable.InferStrings(labels)
	if err != nil {
		return cmlErrors.Wrap(err, "LabelEncoder.Fit")
	}
	nominal, ok := inferred.(variable.Nominal)
	if !ok {
		return cmlErrors.NewInferenceError("LabelEncoder.Fit",
			fmt.Sprintf("expected a nominal column, inferred %s", inferred))
	}

	e.state.Reset()

	e.classes_ = nominal.Categories
	e.codes_ = make(map[string]float64, len(e.classes_))
	for i, class := range e.classes_ {
		e.codes_[class] = float64(i)
	}

	e.state.SetFitted()
	e.state.SetDimensions(1, len(labels))

	return nil
}

// Transform maps labels to their float codes. A category unseen during Fit
// fails with ValueError.
func (e *LabelEncoder) Transform(labels []string) (*mat.VecDense, error) {
	if err := e.state.RequireFitted("LabelEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "LabelEncoder.Transform")
	}

	codes := mat.NewVecDense(len(labels), nil)
	for i, label := range labels {
		code, ok := e.codes_[label]
		if !ok {
			return nil, cmlErrors.NewValueError("LabelEncoder.Transform",
				fmt.Sprintf("unseen category %q", label))
		}
		codes.SetVec(i, code)
	}

	return codes, nil
}

// FitTransform fits the encoder on labels and returns their codes.
func (e *LabelEncoder) FitTransform(labels []string) (*mat.VecDense, error) {
	if err := e.Fit(labels); err != nil {
		return nil, err
	}
	return e.Transform(labels)
}

// InverseTransform maps float codes back to category names. Codes must be
// integral values produced by Transform (or predictions over them).
func (e *LabelEncoder) InverseTransform(codes *mat.VecDense) ([]string, error) {
	if err := e.state.RequireFitted("LabelEncoder", "InverseTransform"); err != nil {
		return nil, err
	}
	if codes == nil || codes.Len() == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "LabelEncoder.InverseTransform")
	}

	labels := make([]string, codes.Len())
	for i := 0; i < codes.Len(); i++ {
		code := codes.AtVec(i)
		idx := int(code)
		if float64(idx) != code || idx < 0 || idx >= len(e.classes_) {
			return nil, cmlErrors.NewValueError("LabelEncoder.InverseTransform",
				fmt.Sprintf("code %v does not name a class", code))
		}
		labels[i] = e.classes_[idx]
	}

	return labels, nil
}

// Classes returns the fitted category names in code order.
func (e *LabelEncoder) Classes() []string {
	classes := make([]string, len(e.classes_))
	copy(classes, e.classes_)
	return classes
}
