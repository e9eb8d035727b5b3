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

func TestVotingClassifierMajorityVote(t *testing.T) {
	members := []model.Learner{
		newStubLearner(1),
		newStubLearner(0),
		newStubLearner(1),
	}
	clf, err := ensemble.NewVotingClassifier(members, nil)
	require.NoError(t, err)

	X := mat.NewDense(4, 2, []float64{
		1, 2,
		3, 4,
		5, 6,
		7, 8,
	})
	y := mat.NewDense(4, 1, []float64{0, 1, 0, 1})

	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Transform(X)
	require.NoError(t, err)

	rows, cols := pred.Dims()
	assert.Equal(t, 4, rows)
	assert.Equal(t, 1, cols)
	for i := 0; i < rows; i++ {
		assert.Equal(t, 1.0, pred.At(i, 0), "row %d", i)
	}
}

func TestVotingClassifierTieBreaksToEarliestMember(t *testing.T) {
	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{0, 0})

	tests := []struct {
		name   string
		labels []float64
		want   float64
	}{
		{name: "first member wins", labels: []float64{2, 5}, want: 2},
		{name: "order decides", labels: []float64{5, 2}, want: 5},
		{name: "tie among three", labels: []float64{7, 3, 3, 7}, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			members := make([]model.Learner, len(tt.labels))
			for i, label := range tt.labels {
				members[i] = newStubLearner(label)
			}
			clf, err := ensemble.NewVotingClassifier(members, nil)
			require.NoError(t, err)
			require.NoError(t, clf.Fit(X, y))

			pred, err := clf.Transform(X)
			require.NoError(t, err)
			assert.Equal(t, tt.want, pred.At(0, 0))
		})
	}
}

func TestVotingClassifierWithLearners(t *testing.T) {
	// Two 1-NN members memorize the training labels and outvote the
	// majority baseline on the minority row.
	members := []model.Learner{
		learners.NewKNNClassifier(options.Options{"n_neighbors": 1}),
		learners.NewKNNClassifier(options.Options{"n_neighbors": 1}),
		learners.NewMajorityClassifier(nil),
	}
	clf, err := ensemble.NewVotingClassifier(members, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, clf.NumMembers())

	X := mat.NewDense(4, 1, []float64{0, 1, 2, 10})
	y := mat.NewDense(4, 1, []float64{0, 0, 0, 1})

	require.NoError(t, clf.Fit(X, y))

	pred, err := clf.Transform(X)
	require.NoError(t, err)
	for i := 0; i < 4; i++ {
		assert.Equal(t, y.At(i, 0), pred.At(i, 0), "row %d", i)
	}
}

func TestVotingClassifierDoesNotTouchCallerLearners(t *testing.T) {
	original := learners.NewKNNClassifier(options.Options{"n_neighbors": 1})
	clf, err := ensemble.NewVotingClassifier([]model.Learner{original}, nil)
	require.NoError(t, err)

	X := mat.NewDense(3, 1, []float64{1, 2, 3})
	y := mat.NewDense(3, 1, []float64{0, 1, 0})
	require.NoError(t, clf.Fit(X, y))

	_, err = original.Transform(X)
	var notFitted *cmlErrors.NotFittedError
	require.ErrorAs(t, err, &notFitted)
}

func TestVotingClassifierEmptyEnsemble(t *testing.T) {
	clf, err := ensemble.NewVotingClassifier(nil, nil)
	require.NoError(t, err)

	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{0, 1})

	err = clf.Fit(X, y)
	var emptyErr *cmlErrors.EmptyEnsembleError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, "VotingClassifier", emptyErr.Ensemble)
}

func TestVotingClassifierFitValidation(t *testing.T) {
	clf, err := ensemble.NewVotingClassifier([]model.Learner{newStubLearner(0)}, nil)
	require.NoError(t, err)

	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})

	t.Run("nil input", func(t *testing.T) {
		err := clf.Fit(nil, nil)
		var valueErr *cmlErrors.ValueError
		assert.ErrorAs(t, err, &valueErr)
	})

	t.Run("wide y", func(t *testing.T) {
		err := clf.Fit(X, mat.NewDense(3, 2, nil))
		var valueErr *cmlErrors.ValueError
		assert.ErrorAs(t, err, &valueErr)
	})

	t.Run("row mismatch", func(t *testing.T) {
		err := clf.Fit(X, mat.NewDense(2, 1, []float64{0, 1}))
		var dimErr *cmlErrors.DimensionError
		require.ErrorAs(t, err, &dimErr)
		assert.Equal(t, 3, dimErr.Expected)
		assert.Equal(t, 2, dimErr.Got)
	})

	t.Run("empty data", func(t *testing.T) {
		err := clf.Fit(&mat.Dense{}, &mat.Dense{})
		assert.ErrorIs(t, err, cmlErrors.ErrEmptyData)
	})
}

func TestVotingClassifierMemberFitError(t *testing.T) {
	failing := newStubLearner(0)
	failing.fitErr = cmlErrors.New("synthetic failure")

	clf, err := ensemble.NewVotingClassifier([]model.Learner{newStubLearner(1), failing}, nil)
	require.NoError(t, err)

	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{0, 1})

	err = clf.Fit(X, y)
	var fitErr *cmlErrors.FitError
	require.ErrorAs(t, err, &fitErr)
	assert.Contains(t, fitErr.Model, "stubLearner")

	// The failed fit leaves the ensemble unusable.
	_, err = clf.Transform(X)
	var notFitted *cmlErrors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)
}

func TestVotingClassifierNotFitted(t *testing.T) {
	clf, err := ensemble.NewVotingClassifier([]model.Learner{newStubLearner(0)}, nil)
	require.NoError(t, err)

	_, err = clf.Transform(mat.NewDense(1, 1, []float64{1}))
	var notFitted *cmlErrors.NotFittedError
	require.ErrorAs(t, err, &notFitted)
	assert.Equal(t, "VotingClassifier", notFitted.ModelName)
}

func TestVotingClassifierTransformShape(t *testing.T) {
	clf, err := ensemble.NewVotingClassifier([]model.Learner{newStubLearner(0)}, nil)
	require.NoError(t, err)

	X := mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6})
	y := mat.NewDense(3, 1, []float64{0, 1, 0})
	require.NoError(t, clf.Fit(X, y))

	_, err = clf.Transform(mat.NewDense(2, 3, nil))
	var dimErr *cmlErrors.DimensionError
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Expected)
	assert.Equal(t, 3, dimErr.Got)
	assert.Equal(t, 1, dimErr.Axis)
}

func TestVotingClassifierDerive(t *testing.T) {
	clf, err := ensemble.NewVotingClassifier(
		[]model.Learner{newStubLearner(1), newStubLearner(0)},
		options.Options{"alpha": 1},
	)
	require.NoError(t, err)

	X := mat.NewDense(2, 1, []float64{1, 2})
	y := mat.NewDense(2, 1, []float64{0, 1})
	require.NoError(t, clf.Fit(X, y))

	derived, err := clf.Derive(options.Options{"beta": 2})
	require.NoError(t, err)

	dv, ok := derived.(*ensemble.VotingClassifier)
	require.True(t, ok)
	assert.Equal(t, 2, dv.NumMembers())

	opts := dv.Options()
	alpha, _ := opts.Int("alpha")
	beta, _ := opts.Int("beta")
	assert.Equal(t, 1, alpha)
	assert.Equal(t, 2, beta)

	// The derived ensemble starts unfitted and the prototype keeps its
	// own option store.
	_, err = dv.Transform(X)
	var notFitted *cmlErrors.NotFittedError
	assert.ErrorAs(t, err, &notFitted)
	_, hasBeta := clf.Options().Value("beta")
	assert.False(t, hasBeta)
}
