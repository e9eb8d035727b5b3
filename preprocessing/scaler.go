// Package preprocessing bridges raw data onto the numeric plane the learners
// operate on.
//
// The package has two kinds of components. LabelEncoder and OneHotEncoder
// convert nominal string data to float codes and indicator columns; they are
// the practical consumers of the variable package's type inference. The
// scalers are ordinary transformers on the numeric plane:
//
//   - StandardScaler: removes the mean and scales to unit variance
//   - MinMaxScaler: rescales each feature to a target range
//
// Both scalers implement the full transformer contract, including option
// stores and Derive, so they compose anywhere a learner does:
//
//	scaler := preprocessing.NewStandardScaler(nil)
//	err := scaler.Fit(XTrain, nil)
//	if err != nil {
//		log.Fatal(err)
//	}
//	XScaled, err := scaler.Transform(XTest)
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// Constant columns scale by 1 to avoid dividing by a vanishing spread.
const zeroSpreadTolerance = 1e-8

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)

// StandardScaler standardizes features by removing the mean and scaling to
// unit variance: X_scaled = (X - mean) / scale.
type StandardScaler struct {
	state *model.StateManager
	opts  options.Options

	withMean bool
	withStd  bool

	mean_  []float64
	scale_ []float64
}

func defaultStandardScalerOptions() options.Options {
	return options.Options{
		"with_mean": true,
		"with_std":  true,
	}
}

// NewStandardScaler creates a StandardScaler. The option store is merged over
// the defaults {"with_mean": true, "with_std": true}. Disabling with_mean
// keeps the original center; disabling with_std keeps the original spread.
//
// Example:
//
//	// Standard z-score normalization (mean=0, std=1)
//	scaler := preprocessing.NewStandardScaler(nil)
//	err := scaler.Fit(XTrain, nil)
//	XScaled, err := scaler.Transform(XTest)
//
//	// Scale only (keep original mean)
//	scaler := preprocessing.NewStandardScaler(options.Options{"with_mean": false})
func NewStandardScaler(opts options.Options) *StandardScaler {
	merged := options.Merge(defaultStandardScalerOptions(), opts)

	s := &StandardScaler{
		state: model.NewStateManager(),
		opts:  merged,
	}
	s.withMean, _ = merged.Bool("with_mean")
	s.withStd, _ = merged.Bool("with_std")

	return s
}

// Fit computes the per-feature mean and standard deviation of X. The label
// argument exists only to satisfy the transformer contract and is ignored.
func (s *StandardScaler) Fit(X, _ mat.Matrix) (err error) {
	defer cmlErrors.Recover(&err, "StandardScaler.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return cmlErrors.Wrap(cmlErrors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.state.Reset()

	s.mean_ = make([]float64, c)
	s.scale_ = make([]float64, c)

	if s.withMean {
		for j := 0; j < c; j++ {
			sum := 0.0
			for i := 0; i < r; i++ {
				sum += X.At(i, j)
			}
			s.mean_[j] = sum / float64(r)
		}
	}

	if s.withStd {
		for j := 0; j < c; j++ {
			sumSquares := 0.0
			for i := 0; i < r; i++ {
				diff := X.At(i, j) - s.mean_[j]
				sumSquares += diff * diff
			}
			s.scale_[j] = math.Sqrt(sumSquares / float64(r))
			if s.scale_[j] < zeroSpreadTolerance {
				s.scale_[j] = 1.0
			}
		}
	} else {
		for j := 0; j < c; j++ {
			s.scale_[j] = 1.0
		}
	}

	s.state.SetFitted()
	s.state.SetDimensions(c, r)

	return nil
}

// Transform standardizes X using the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer cmlErrors.Recover(&err, "StandardScaler.Transform")

	if err := s.state.RequireFitted("StandardScaler", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if r == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "StandardScaler.Transform")
	}
	if err := s.state.ValidateShape("StandardScaler.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, (X.At(i, j)-s.mean_[j])/s.scale_[j])
		}
	}

	return result, nil
}

// FitTransform fits the scaler on X and returns the transformed X.
func (s *StandardScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer cmlErrors.Recover(&err, "StandardScaler.FitTransform")
	if err := s.Fit(X, nil); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized data back to the original scale:
// X_orig = X_scaled * scale + mean.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer cmlErrors.Recover(&err, "StandardScaler.InverseTransform")

	if err := s.state.RequireFitted("StandardScaler", "InverseTransform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if r == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "StandardScaler.InverseTransform")
	}
	if err := s.state.ValidateShape("StandardScaler.InverseTransform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			result.Set(i, j, X.At(i, j)*s.scale_[j]+s.mean_[j])
		}
	}

	return result, nil
}

// Options returns a deep copy of the scaler's option store.
func (s *StandardScaler) Options() options.Options {
	return s.opts.Clone()
}

// Derive returns a new unfitted StandardScaler whose store is the receiver's
// store merged with overrides. The receiver is not modified.
func (s *StandardScaler) Derive(overrides options.Options) (model.Transformer, error) {
	return NewStandardScaler(options.Merge(s.opts, overrides)), nil
}

// Mean returns the fitted per-feature means.
func (s *StandardScaler) Mean() []float64 {
	mean := make([]float64, len(s.mean_))
	copy(mean, s.mean_)
	return mean
}

// Scale returns the fitted per-feature scale factors.
func (s *StandardScaler) Scale() []float64 {
	scale := make([]float64, len(s.scale_))
	copy(scale, s.scale_)
	return scale
}

// MinMaxScaler rescales each feature to a target range, by default [0, 1]:
// X_scaled = (X - data_min) / (data_max - data_min) * (max - min) + min.
type MinMaxScaler struct {
	state *model.StateManager
	opts  options.Options

	rangeMin float64
	rangeMax float64

	dataMin_ []float64
	dataMax_ []float64
	scale_   []float64
}

func defaultMinMaxScalerOptions() options.Options {
	return options.Options{
		"feature_range": options.Options{
			"min": 0.0,
			"max": 1.0,
		},
	}
}

// NewMinMaxScaler creates a MinMaxScaler. The option store is merged over the
// default {"feature_range": {"min": 0.0, "max": 1.0}}; the nested store
// merges per key, so overriding only "max" keeps the default "min".
//
// Example:
//
//	// Scale to [-1, 1]
//	scaler := preprocessing.NewMinMaxScaler(options.Options{
//	    "feature_range": options.Options{"min": -1.0, "max": 1.0},
//	})
func NewMinMaxScaler(opts options.Options) *MinMaxScaler {
	merged := options.Merge(defaultMinMaxScalerOptions(), opts)

	m := &MinMaxScaler{
		state: model.NewStateManager(),
		opts:  merged,
	}
	if featureRange, ok := merged.Store("feature_range"); ok {
		m.rangeMin, _ = featureRange.Float("min")
		m.rangeMax, _ = featureRange.Float("max")
	}

	return m
}

// Fit computes the per-feature minimum and maximum of X. The label argument
// exists only to satisfy the transformer contract and is ignored.
func (m *MinMaxScaler) Fit(X, _ mat.Matrix) (err error) {
	defer cmlErrors.Recover(&err, "MinMaxScaler.Fit")

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return cmlErrors.Wrap(cmlErrors.ErrEmptyData, "MinMaxScaler.Fit")
	}
	if m.rangeMin >= m.rangeMax {
		return cmlErrors.NewValueError("MinMaxScaler.Fit", "feature_range min must be below max")
	}

	m.state.Reset()

	m.dataMin_ = make([]float64, c)
	m.dataMax_ = make([]float64, c)
	m.scale_ = make([]float64, c)

	for j := 0; j < c; j++ {
		lo := X.At(0, j)
		hi := X.At(0, j)
		for i := 1; i < r; i++ {
			val := X.At(i, j)
			if val < lo {
				lo = val
			}
			if val > hi {
				hi = val
			}
		}
		m.dataMin_[j] = lo
		m.dataMax_[j] = hi

		m.scale_[j] = hi - lo
		if m.scale_[j] < zeroSpreadTolerance {
			m.scale_[j] = 1.0
		}
	}

	m.state.SetFitted()
	m.state.SetDimensions(c, r)

	return nil
}

// Transform rescales X into the fitted feature range.
func (m *MinMaxScaler) Transform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer cmlErrors.Recover(&err, "MinMaxScaler.Transform")

	if err := m.state.RequireFitted("MinMaxScaler", "Transform"); err != nil {
		return nil, err
	}

	r, c := X.Dims()
	if r == 0 {
		return nil, cmlErrors.Wrap(cmlErrors.ErrEmptyData, "MinMaxScaler.Transform")
	}
	if err := m.state.ValidateShape("MinMaxScaler.Transform", c); err != nil {
		return nil, err
	}

	width := m.rangeMax - m.rangeMin
	result := mat.NewDense(r, c, nil)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			std := (X.At(i, j) - m.dataMin_[j]) / m.scale_[j]
			result.Set(i, j, std*width+m.rangeMin)
		}
	}

	return result, nil
}

// FitTransform fits the scaler on X and returns the transformed X.
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (_ mat.Matrix, err error) {
	defer cmlErrors.Recover(&err, "MinMaxScaler.FitTransform")
	if err := m.Fit(X, nil); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// Options returns a deep copy of the scaler's option store.
func (m *MinMaxScaler) Options() options.Options {
	return m.opts.Clone()
}

// Derive returns a new unfitted MinMaxScaler whose store is the receiver's
// store merged with overrides. The receiver is not modified.
func (m *MinMaxScaler) Derive(overrides options.Options) (model.Transformer, error) {
	return NewMinMaxScaler(options.Merge(m.opts, overrides)), nil
}

// DataMin returns the fitted per-feature minima.
func (m *MinMaxScaler) DataMin() []float64 {
	lo := make([]float64, len(m.dataMin_))
	copy(lo, m.dataMin_)
	return lo
}

// DataMax returns the fitted per-feature maxima.
func (m *MinMaxScaler) DataMax() []float64 {
	hi := make([]float64, len(m.dataMax_))
	copy(hi, m.dataMax_)
	return hi
}
