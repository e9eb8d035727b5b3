// Package ensemble combines heterogeneous learners behind the same
// transformer contract the learners themselves satisfy.
//
// Three strategies are provided:
//
//   - VotingClassifier: majority vote over member predictions
//   - BestLearnerClassifier: cross-validated selection of a single member
//   - StackingClassifier: stacked generalization with an out-of-fold
//     meta-table and a trainable meta-learner
//
// Ensembles own their members exclusively. Constructors clone every supplied
// learner with Derive(nil), so the caller's instances are never touched and
// one learner value can seed any number of ensembles. Because an ensemble is
// itself a model.Learner, ensembles nest: a stack can hold a voting ensemble
// as a member.
//
// Example:
//
//	members := []model.Learner{
//	    learners.NewDecisionTreeClassifier(nil),
//	    learners.NewKNNClassifier(options.Options{"n_neighbors": 3}),
//	    learners.NewMajorityClassifier(nil),
//	}
//	clf, err := ensemble.NewVotingClassifier(members, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = clf.Fit(X, y)
//	predictions, err := clf.Transform(XTest)
package ensemble

import (
	"fmt"
	"strings"

	"github.com/sourcegraph/conc/pool"
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

// validateTrainingData checks the shape contract shared by every ensemble:
// X must be non-empty and y must be a column vector with one label per row
// of X.
func validateTrainingData(op string, X, y mat.Matrix) (nSamples, nFeatures int, err error) {
	if X == nil || y == nil {
		return 0, 0, cmlErrors.NewValueError(op, "X and y must not be nil")
	}

	r, c := X.Dims()
	if r == 0 || c == 0 {
		return 0, 0, cmlErrors.Wrap(cmlErrors.ErrEmptyData, op)
	}

	ry, cy := y.Dims()
	if cy != 1 {
		return 0, 0, cmlErrors.NewValueError(op, "y must be a column vector")
	}
	if ry != r {
		return 0, 0, cmlErrors.NewDimensionError(op, r, ry, 0)
	}

	return r, c, nil
}

// cloneLearners derives an unfitted copy of every learner. Ensembles call it
// at construction so members are exclusively owned.
func cloneLearners(members []model.Learner) ([]model.Learner, error) {
	cloned := make([]model.Learner, len(members))
	for i, member := range members {
		c, err := member.Derive(nil)
		if err != nil {
			return nil, cmlErrors.Wrapf(err, "cloning member %d", i)
		}
		cloned[i] = c
	}
	return cloned, nil
}

// typeName reports a value's type without the pointer marker, for error
// messages and logs.
func typeName(v any) string {
	return strings.TrimPrefix(fmt.Sprintf("%T", v), "*")
}

// memberName labels one member for FitError and log fields.
func memberName(i int, member model.Learner) string {
	return fmt.Sprintf("member %d (%s)", i, typeName(member))
}

// fitAll fits every member on the same data concurrently. The first member
// failure wins and is wrapped in FitError naming the member; no retries.
func fitAll(members []model.Learner, X, y mat.Matrix) error {
	p := pool.New().WithErrors().WithFirstError()
	for i, member := range members {
		p.Go(func() error {
			if err := member.Fit(X, y); err != nil {
				return cmlErrors.NewFitError(memberName(i, member), err)
			}
			return nil
		})
	}
	return p.Wait()
}

// memberPredictions collects every member's prediction column into one
// matrix, member i in column i. Members run concurrently; each goroutine
// writes a disjoint column.
func memberPredictions(op string, members []model.Learner, X mat.Matrix) (*mat.Dense, error) {
	n, _ := X.Dims()
	predictions := mat.NewDense(n, len(members), nil)

	p := pool.New().WithErrors().WithFirstError()
	for i, member := range members {
		p.Go(func() error {
			out, err := member.Transform(X)
			if err != nil {
				return cmlErrors.Wrapf(err, "%s: %s", op, memberName(i, member))
			}
			r, c := out.Dims()
			if c != 1 {
				return cmlErrors.NewDimensionError(op, 1, c, 1)
			}
			if r != n {
				return cmlErrors.NewDimensionError(op, n, r, 0)
			}
			for row := 0; row < n; row++ {
				predictions.Set(row, i, out.At(row, 0))
			}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}

	return predictions, nil
}

// takeRows copies the selected rows of X into a new matrix, in index order.
func takeRows(X mat.Matrix, rows []int) *mat.Dense {
	_, c := X.Dims()
	sub := mat.NewDense(len(rows), c, nil)
	for i, row := range rows {
		for j := 0; j < c; j++ {
			sub.Set(i, j, X.At(row, j))
		}
	}
	return sub
}

// columnVec copies the single column of m into a vector.
func columnVec(m mat.Matrix) *mat.VecDense {
	r, _ := m.Dims()
	vec := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		vec.SetVec(i, m.At(i, 0))
	}
	return vec
}
