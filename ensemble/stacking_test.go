package ensemble_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/ensemble"
	"github.com/combineml/combineml/learners"
	"github.com/combineml/combineml/options"
	cmlErrors "github.com/combineml/combineml/pkg/errors"
)

func separableClusters() (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(12, 1, []float64{0, 1, 2, 3, 4, 5, 10, 11, 12, 13, 14, 15})
	y := mat.NewDense(12, 1, []float64{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1})
	return X, y
}

func TestStackingClassifierSeparableData(t *testing.T) {
	members := []model.Learner{
		learners.NewKNNClassifier(options.Options{"n_neighbors": 1}),
		learners.NewDecisionTreeClassifier(nil),
	}
	clf, err := ensemble.NewStackingClassifier(members, nil, options.Options{
		"folds": 3,
		"seed":  42,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, clf.NumMembers())

	X, y := separableClusters()
	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Transform(mat.NewDense(2, 1, []float64{1, 13}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))

	// Training rows come back clean as well.
	pred, err = clf.Transform(X)
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)
	}
}

func TestStackingMetaTableIsOutOfFold(t *testing.T) {
	// The memorizing member answers unseenLabel for rows absent from its
	// fold's training data. A leaky meta-table would contain true labels
	// instead.
	rec := newRecordingLearner()
	clf, err := ensemble.NewStackingClassifier(
		[]model.Learner{newMemorizingLearner()},
		rec,
		options.Options{"folds": 2, "shuffle": false},
	)
	require.NoError(t, err)

	X := mat.NewDense(8, 1, []float64{0, 1, 2, 3, 4, 5, 6, 7})
	y := mat.NewDense(8, 1, []float64{0, 1, 0, 1, 0, 1, 0, 1})

	require.NoError(t, clf.Fit(X, y))

	require.NotNil(t, rec.fitX)
	rows, cols := rec.fitX.Dims()
	assert.Equal(t, 8, rows)
	assert.Equal(t, 1, cols)
	for i := 0; i < rows; i++ {
		assert.Equal(t, unseenLabel, rec.fitX.At(i, 0), "meta row %d", i)
	}

	// The stacker sees labels in original row order.
	for i := 0; i < 8; i++ {
		assert.Equal(t, y.At(i, 0), rec.fitY.AtVec(i), "label %d", i)
	}

	// Prediction flows through the stacker, which always answers zero.
	pred, err := clf.Transform(X)
	require.NoError(t, err)
	for i := 0; i < 8; i++ {
		assert.Equal(t, 0.0, pred.At(i, 0), "row %d", i)
	}
}

func TestStackingKeepOriginalFeatures(t *testing.T) {
	rec := newRecordingLearner()
	clf, err := ensemble.NewStackingClassifier(
		[]model.Learner{newStubLearner(7)},
		rec,
		options.Options{"folds": 2, "keep_original_features": true, "shuffle": false},
	)
	require.NoError(t, err)

	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 20,
		3, 30,
		4, 40,
	})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	require.NoError(t, clf.Fit(X, y))

	require.NotNil(t, rec.fitX)
	rows, cols := rec.fitX.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 3, cols)
	for i := 0; i < rows; i++ {
		assert.Equal(t, 7.0, rec.fitX.At(i, 0), "prediction column row %d", i)
		assert.Equal(t, X.At(i, 0), rec.fitX.At(i, 1), "feature column row %d", i)
		assert.Equal(t, X.At(i, 1), rec.fitX.At(i, 2), "feature column row %d", i)
	}

	_, err = clf.Transform(X)
	require.NoError(t, err)
}

func TestStackingNestedVotingMember(t *testing.T) {
	voting, err := ensemble.NewVotingClassifier([]model.Learner{
		learners.NewKNNClassifier(options.Options{"n_neighbors": 1}),
		learners.NewDecisionTreeClassifier(nil),
		learners.NewMajorityClassifier(nil),
	}, nil)
	require.NoError(t, err)

	clf, err := ensemble.NewStackingClassifier(
		[]model.Learner{voting, learners.NewKNNClassifier(options.Options{"n_neighbors": 1})},
		nil,
		options.Options{"folds": 3, "seed": 42},
	)
	require.NoError(t, err)

	X, y := separableClusters()
	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Transform(mat.NewDense(2, 1, []float64{1, 13}))
	require.NoError(t, err)
	assert.Equal(t, 0.0, pred.At(0, 0))
	assert.Equal(t, 1.0, pred.At(1, 0))

	// The nested ensemble the caller built was cloned, not consumed.
	_, err = voting.Transform(X)
	var notFitted *cmlErrors.NotFittedError
	require.ErrorAs(t, err, &notFitted)
}

func TestStackingFoldValidation(t *testing.T) {
	X := mat.NewDense(6, 1, []float64{0, 1, 2, 3, 4, 5})
	y := mat.NewDense(6, 1, []float64{0, 0, 0, 1, 1, 1})

	t.Run("single fold", func(t *testing.T) {
		clf, err := ensemble.NewStackingClassifier(
			[]model.Learner{newStubLearner(0)}, nil,
			options.Options{"folds": 1},
		)
		require.NoError(t, err)

		err = clf.Fit(X, y)
		var foldErr *cmlErrors.FoldCountError
		require.ErrorAs(t, err, &foldErr)
		assert.Contains(t, foldErr.Reason, "at least two")
	})

	t.Run("more folds than rows", func(t *testing.T) {
		clf, err := ensemble.NewStackingClassifier(
			[]model.Learner{newStubLearner(0)}, nil,
			options.Options{"folds": 20},
		)
		require.NoError(t, err)

		err = clf.Fit(X, y)
		var foldErr *cmlErrors.FoldCountError
		require.ErrorAs(t, err, &foldErr)
		assert.Equal(t, 20, foldErr.Folds)
		assert.Equal(t, 6, foldErr.Instances)
	})
}

func TestStackingMemberFitError(t *testing.T) {
	failing := newStubLearner(0)
	failing.fitErr = cmlErrors.New("synthetic failure")

	clf, err := ensemble.NewStackingClassifier(
		[]model.Learner{failing}, newRecordingLearner(),
		options.Options{"folds": 2},
	)
	require.NoError(t, err)

	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	err = clf.Fit(X, y)
	var fitErr *cmlErrors.FitError
	require.ErrorAs(t, err, &fitErr)
	assert.Contains(t, fitErr.Model, "stubLearner")
	assert.ErrorContains(t, err, "stacking fold")
}

func TestStackingStackerFitError(t *testing.T) {
	rec := newRecordingLearner()
	rec.fitErr = cmlErrors.New("stacker refuses")

	clf, err := ensemble.NewStackingClassifier(
		[]model.Learner{newStubLearner(1)}, rec,
		options.Options{"folds": 2},
	)
	require.NoError(t, err)

	X := mat.NewDense(4, 1, []float64{0, 1, 2, 3})
	y := mat.NewDense(4, 1, []float64{0, 0, 1, 1})

	err = clf.Fit(X, y)
	var fitErr *cmlErrors.FitError
	require.ErrorAs(t, err, &fitErr)
	assert.Contains(t, fitErr.Model, "stacker")

	_, err = clf.Transform(X)
	var notFitted *cmlErrors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)
}

func TestStackingEmptyEnsemble(t *testing.T) {
	clf, err := ensemble.NewStackingClassifier(nil, nil, nil)
	require.NoError(t, err)

	err = clf.Fit(mat.NewDense(2, 1, []float64{0, 1}), mat.NewDense(2, 1, []float64{0, 1}))
	var emptyErr *cmlErrors.EmptyEnsembleError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "StackingClassifier", emptyErr.Ensemble)
}

func TestStackingNotFitted(t *testing.T) {
	clf, err := ensemble.NewStackingClassifier([]model.Learner{newStubLearner(0)}, nil, nil)
	require.NoError(t, err)

	_, err = clf.Transform(mat.NewDense(1, 1, []float64{1}))
	var notFitted *cmlErrors.NotFittedError
	require.ErrorAs(t, err, &notFitted)
	assert.Equal(t, "StackingClassifier", notFitted.ModelName)
}

func TestStackingDerive(t *testing.T) {
	clf, err := ensemble.NewStackingClassifier(
		[]model.Learner{newStubLearner(1), newStubLearner(0)},
		newRecordingLearner(),
		options.Options{"folds": 2},
	)
	require.NoError(t, err)

	derived, err := clf.Derive(options.Options{"keep_original_features": true})
	require.NoError(t, err)

	ds, ok := derived.(*ensemble.StackingClassifier)
	require.True(t, ok)
	assert.Equal(t, 2, ds.NumMembers())

	opts := ds.Options()
	folds, _ := opts.Int("folds")
	keep, _ := opts.Bool("keep_original_features")
	assert.Equal(t, 2, folds)
	assert.True(t, keep)

	keepOrig, _ := clf.Options().Bool("keep_original_features")
	assert.False(t, keepOrig)
}
