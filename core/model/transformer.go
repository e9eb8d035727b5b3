// Package model defines the capability contract every estimator in the
// library satisfies, together with the shared fitted-state plumbing.
//
// A Transformer is anything that can be fitted on a feature matrix and then
// mapped over new rows: scalers, atomic learners, and ensembles all
// implement the same four methods, which is what lets ensembles hold other
// ensembles as children.
package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/options"
)

// Transformer is the capability contract shared by every estimator.
//
// Fit trains on X (rows are instances, columns are features) and, for
// supervised estimators, the label vector y given as a single-column
// matrix; unsupervised transformers ignore y and accept nil. Fitting again
// fully resets and retrains. Transform maps X to one output row per input
// row; it fails with NotFittedError before a successful Fit and with
// DimensionError when X's column count disagrees with the fitted count.
//
// Every Transformer carries an option store seeded from its variant's
// default schema and merge-overridden at construction. The store is
// immutable after construction: Options returns a deep copy, and the only
// sanctioned way to re-configure is Derive, which builds a new, unfitted
// instance of the same variant from the merged store:
//
//	tuned, err := prototype.Derive(options.Options{"max_depth": 8})
//
// Derive never mutates the prototype. Derive(nil) is an unfitted clone,
// which is how ensembles take exclusive ownership of their children.
type Transformer interface {
	Fit(X, y mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	Options() options.Options
	Derive(overrides options.Options) (Transformer, error)
}

// Learner is a Transformer whose Transform output is one prediction per
// input row. The distinction from a plain Transformer (such as a scaler) is
// semantic, not structural, so Learner is an alias rather than a separate
// interface.
type Learner = Transformer
