// Package combineml combines heterogeneous machine learning models into
// ensembles behind one small capability contract.
//
// Every model, from a single decision tree to a stack of ensembles, is a
// Transformer: it fits on a feature matrix and a label vector, predicts with
// Transform, exposes its configuration as a nested option store, and clones
// itself through Derive. Ensembles accept anything satisfying the contract,
// so strategies compose freely.
//
// # Quick Start
//
// Combine three learners behind a majority vote:
//
//	package main
//
//	import (
//	    "fmt"
//	    "log"
//
//	    "gonum.org/v1/gonum/mat"
//
//	    "github.com/combineml/combineml/core/model"
//	    "github.com/combineml/combineml/ensemble"
//	    "github.com/combineml/combineml/learners"
//	    "github.com/combineml/combineml/options"
//	)
//
//	func main() {
//	    X := mat.NewDense(6, 1, []float64{0, 1, 2, 10, 11, 12})
//	    y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})
//
//	    clf, err := ensemble.NewVotingClassifier([]model.Learner{
//	        learners.NewDecisionTreeClassifier(nil),
//	        learners.NewKNNClassifier(options.Options{"n_neighbors": 3}),
//	        learners.NewMajorityClassifier(nil),
//	    }, nil)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//
//	    if err := clf.Fit(X, y); err != nil {
//	        log.Fatal(err)
//	    }
//
//	    predictions, err := clf.Transform(mat.NewDense(2, 1, []float64{1.5, 11.5}))
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(mat.Formatted(predictions))
//	}
//
// # Packages
//
//   - ensemble: voting, best-learner selection, and stacked generalization
//   - learners: built-in backends (majority, decision tree, k-NN) and the
//     name registry
//   - compose: declarative YAML ensembles built through the registry
//   - options: nested option stores with right-biased merge
//   - modelselection: holdout and k-fold index splitting
//   - metrics: classification scoring
//   - preprocessing: scalers and categorical encoders
//   - variable: variable-type inference for raw string columns
//   - core/model: the Transformer contract and fitted-state tracking
//   - core/parallel: CPU-parallel helpers used by the heavier learners
//
// # Configuration
//
// Models carry a nested option store instead of constructor parameters.
// Stores merge right-biased, so deriving a variant only names what changes:
//
//	tuned, err := prototype.Derive(options.Options{"max_depth": 8})
//
// Stores load from YAML files and from COMBINEML__ environment variables;
// the compose package builds whole ensembles from such declarations.
//
// # Errors
//
// All failures return typed errors (NotFittedError, DimensionError,
// FitError, ...) carrying stack traces, so callers branch with errors.As
// and logs keep the failure site.
package combineml
