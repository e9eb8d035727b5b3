// Package errors provides structured error handling for the whole library.
//
// Every failure mode has a concrete error type carrying the fields a caller
// needs to react programmatically, plus a constructor that attaches a stack
// trace via cockroachdb/errors. The package also re-exports the small set of
// cockroachdb/errors helpers (Is, As, Wrap, ...) so the rest of the codebase
// imports exactly one errors package.
package errors

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Estimator lifecycle errors
//
// ===========================================================================

// NotFittedError is returned when Transform (or another post-fit method) is
// called on an estimator that has not been successfully fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("combineml: %s: this estimator is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a NotFittedError with a stack trace attached.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError is returned when input data has a different shape than the
// operation expects, for example a Transform call whose column count differs
// from the column count seen at fit time.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("combineml: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("type", "DimensionError")
}

// NewDimensionError creates a DimensionError with a stack trace attached.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// FitError wraps a failure raised by a child model while an ensemble (or
// another composite) was fitting or applying it. The wrapped error is
// preserved unchanged; composites wrap exactly once at the boundary and
// never retry or degrade.
type FitError struct {
	Model string
	Err   error
}

func (e *FitError) Error() string {
	return fmt.Sprintf("combineml: %s: fit failed: %v", e.Model, e.Err)
}

func (e *FitError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *FitError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.Model).
		AnErr("cause", e.Err).
		Str("type", "FitError")
}

// NewFitError wraps err as a FitError for the named model, with a stack
// trace attached.
func NewFitError(model string, err error) error {
	fitErr := &FitError{Model: model, Err: err}
	return errors.WithStack(fitErr)
}

// ===========================================================================
//
//	Argument and configuration errors
//
// ===========================================================================

// ValueError is returned when an argument value is invalid or out of range,
// for example a holdout fraction outside [0, 1].
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("combineml: %s: %s", e.Op, e.Message)
}

// NewValueError creates a ValueError with a stack trace attached.
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ValidationError is returned when a named parameter fails validation. It is
// more specific than ValueError: it identifies the offending parameter and
// the value that was rejected.
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("combineml: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError creates a ValidationError with a stack trace attached.
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// KeyNotFoundError is returned by scoped option updates when an intermediate
// key on the requested path does not exist or does not hold a nested store.
// The option tree is left unchanged in that case.
type KeyNotFoundError struct {
	Op   string
	Key  string
	Path []string
}

func (e *KeyNotFoundError) Error() string {
	return fmt.Sprintf("combineml: %s: key '%s' not found on path '%s'", e.Op, e.Key, strings.Join(e.Path, "."))
}

// NewKeyNotFoundError creates a KeyNotFoundError with a stack trace attached.
func NewKeyNotFoundError(op, key string, path []string) error {
	err := &KeyNotFoundError{Op: op, Key: key, Path: path}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Data and scoring errors
//
// ===========================================================================

// InferenceError is returned when the variable type of a data column cannot
// be inferred, either because the column mixes incompatible element kinds or
// because no non-missing values remain.
type InferenceError struct {
	Op     string
	Reason string
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("combineml: %s: cannot infer variable type: %s", e.Op, e.Reason)
}

// NewInferenceError creates an InferenceError with a stack trace attached.
func NewInferenceError(op, reason string) error {
	err := &InferenceError{Op: op, Reason: reason}
	return errors.WithStack(err)
}

// UnsupportedMetricError is returned when Score is asked for a metric name
// outside its closed set of supported metrics.
type UnsupportedMetricError struct {
	Op     string
	Metric string
}

func (e *UnsupportedMetricError) Error() string {
	return fmt.Sprintf("combineml: %s: unsupported metric '%s'", e.Op, e.Metric)
}

// NewUnsupportedMetricError creates an UnsupportedMetricError with a stack
// trace attached.
func NewUnsupportedMetricError(op, metric string) error {
	err := &UnsupportedMetricError{Op: op, Metric: metric}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Ensemble and model-selection errors
//
// ===========================================================================

// EmptyEnsembleError is returned when an ensemble is fitted with zero
// registered children.
type EmptyEnsembleError struct {
	Ensemble string
}

func (e *EmptyEnsembleError) Error() string {
	return fmt.Sprintf("combineml: %s: ensemble has no members", e.Ensemble)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *EmptyEnsembleError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("ensemble", e.Ensemble).
		Str("type", "EmptyEnsembleError")
}

// NewEmptyEnsembleError creates an EmptyEnsembleError with a stack trace
// attached.
func NewEmptyEnsembleError(ensemble string) error {
	err := &EmptyEnsembleError{Ensemble: ensemble}
	return errors.WithStack(err)
}

// FoldCountError is returned when a fold count is non-positive or exceeds
// the number of instances being split.
type FoldCountError struct {
	Folds     int
	Instances int
	Reason    string
}

func (e *FoldCountError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("combineml: invalid fold count %d for %d instances: %s", e.Folds, e.Instances, e.Reason)
	}
	return fmt.Sprintf("combineml: invalid fold count %d for %d instances", e.Folds, e.Instances)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *FoldCountError) MarshalZerologObject(event *zerolog.Event) {
	event.Int("folds", e.Folds).
		Int("instances", e.Instances).
		Str("reason", e.Reason).
		Str("type", "FoldCountError")
}

// NewFoldCountError creates a FoldCountError with a stack trace attached.
func NewFoldCountError(folds, instances int, reason string) error {
	err := &FoldCountError{Folds: folds, Instances: instances, Reason: reason}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Sentinel errors
//
// ===========================================================================

var (
	// ErrEmptyData indicates that an operation received no data rows.
	ErrEmptyData = errors.New("combineml: empty data")
)

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a formatted message.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error with a stack trace.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error with a stack trace.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack annotates err with a stack trace at the point it was called.
func WithStack(err error) error {
	return errors.WithStack(err)
}
