package preprocessing

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// OneHotEncoder encodes categorical string features as indicator columns.
//
// Each input feature contributes one output column per category seen during
// Fit, in sorted category order. A category unseen at transform time encodes
// as an all-zero block for that feature.
type OneHotEncoder struct {
	state *model.StateManager

	categories_    [][]string
	categoryIndex_ []map[string]int
	nFeatures_     int
	nOutputs_      int
}

// NewOneHotEncoder creates an unfitted OneHotEncoder.
//
// Example:
//
//	encoder := preprocessing.NewOneHotEncoder()
//	err := encoder.Fit(data)
//	encoded, err := encoder.Transform(data)
func NewOneHotEncoder() *OneHotEncoder {
	return &OneHotEncoder{
		state: model.NewStateManager(),
	}
}

// Fit collects the sorted category set of every feature column.
//
// Parameters:
//   - data: training rows, each a slice of feature categories
//
// Returns:
//   - error: nil on success, an error describing the failure otherwise
func (e *OneHotEncoder) Fit(data [][]string) (err error) {
	defer cmlErrors.Recover(&err, "OneHotEncoder.Fit")

	if len(data) == 0 || len(data[0]) == 0 {
		return cmlErrors.Wrap(cmlErrors.ErrEmptyData, "OneHotEncoder.Fit")
	}

	nSamples := len(data)
	nFeatures := len(data[0])

	for i, row := range data {
		if len(row) != nFeatures {
			return cmlErrors.NewDimensionError("OneHotEncoder.Fit", nFeatures, len(row), i)
		}
	}

	e.state.Reset()

	e.nFeatures_ = nFeatures
	e.categories_ = make([][]string, nFeatures)
	e.categoryIndex_ = make([]map[string]int, nFeatures)

	for j := 0; j < nFeatures; j++ {
		seen := make(map[string]bool)
		for i := 0; i < nSamples; i++ {
			seen[data[i][j]] = true
		}

		categories := make([]string, 0, len(seen))
		for category := range seen {
			categories = append(categories, category)
		}
		sort.Strings(categories)
		e.categories_[j] = categories

		index := make(map[string]int, len(categories))
		for idx, category := range categories {
			index[category] = idx
		}
		e.categoryIndex_[j] = index
	}

	e.nOutputs_ = 0
	for _, categories := range e.categories_ {
		e.nOutputs_ += len(categories)
	}

	e.state.SetFitted()
	e.state.SetDimensions(nFeatures, nSamples)

	return nil
}

// Transform encodes data with the fitted category sets.
//
// Parameters:
//   - data: rows to encode
//
// Returns:
//   - mat.Matrix: indicator matrix of shape (n_samples, n_outputs)
//   - error: nil on success, an error describing the failure otherwise
func (e *OneHotEncoder) Transform(data [][]string) (_ mat.Matrix, err error) {
	defer cmlErrors.Recover(&err, "OneHotEncoder.Transform")

	if err := e.state.RequireFitted("OneHotEncoder", "Transform"); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "OneHotEncoder.Transform")
	}

	nSamples := len(data)
	if len(data[0]) != e.nFeatures_ {
		return nil, cmlErrors.NewDimensionError("OneHotEncoder.Transform", e.nFeatures_, len(data[0]), 1)
	}

	result := mat.NewDense(nSamples, e.nOutputs_, nil)
	for i := 0; i < nSamples; i++ {
		if len(data[i]) != e.nFeatures_ {
			return nil, cmlErrors.NewDimensionError("OneHotEncoder.Transform", e.nFeatures_, len(data[i]), i)
		}

		offset := 0
		for j := 0; j < e.nFeatures_; j++ {
			if idx, known := e.categoryIndex_[j][data[i][j]]; known {
				result.Set(i, offset+idx, 1.0)
			}
			// Unknown categories leave the block at zero.
			offset += len(e.categories_[j])
		}
	}

	return result, nil
}

// FitTransform fits the encoder on data and returns the encoded data.
func (e *OneHotEncoder) FitTransform(data [][]string) (_ mat.Matrix, err error) {
	defer cmlErrors.Recover(&err, "OneHotEncoder.FitTransform")
	if err := e.Fit(data); err != nil {
		return nil, err
	}
	return e.Transform(data)
}

// Categories returns the fitted category sets, one sorted slice per feature.
func (e *OneHotEncoder) Categories() [][]string {
	categories := make([][]string, len(e.categories_))
	for i, cats := range e.categories_ {
		categories[i] = make([]string, len(cats))
		copy(categories[i], cats)
	}
	return categories
}

// GetFeatureNamesOut returns the output column names, formed as
// "<feature>_<category>". When inputFeatures is nil the features are named
// "x0", "x1", and so on.
func (e *OneHotEncoder) GetFeatureNamesOut(inputFeatures []string) []string {
	if !e.state.IsFitted() {
		return nil
	}

	var names []string
	for i, categories := range e.categories_ {
		featureName := fmt.Sprintf("x%d", i)
		if inputFeatures != nil && i < len(inputFeatures) {
			featureName = inputFeatures[i]
		}
		for _, category := range categories {
			names = append(names, fmt.Sprintf("%s_%s", featureName, category))
		}
	}
	return names
}
