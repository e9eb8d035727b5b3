package ensemble_test

import (
	"gonum.org/v1/gonum/mat"

	"github.com/combineml/combineml/core/model"
	"github.com/combineml/combineml/modelselection"
	"github.com/combineml/combineml/options"
)

// stubLearner predicts a constant label, making vote counts and fold scores
// exact in tests. A non-nil fitErr makes Fit fail.
type stubLearner struct {
	state  *model.StateManager
	opts   options.Options
	label  float64
	fitErr error
}

var _ model.Learner = (*stubLearner)(nil)

func newStubLearner(label float64) *stubLearner {
	return &stubLearner{
		state: model.NewStateManager(),
		label: label,
	}
}

func (s *stubLearner) Fit(X, y mat.Matrix) error {
	if s.fitErr != nil {
		return s.fitErr
	}
	n, c := X.Dims()
	s.state.SetFitted()
	s.state.SetDimensions(c, n)
	return nil
}

func (s *stubLearner) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.state.RequireFitted("stubLearner", "Transform"); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		out.Set(i, 0, s.label)
	}
	return out, nil
}

func (s *stubLearner) Options() options.Options {
	return s.opts.Clone()
}

func (s *stubLearner) Derive(overrides options.Options) (model.Transformer, error) {
	d := newStubLearner(s.label)
	d.fitErr = s.fitErr
	d.opts = options.Merge(s.opts, overrides)
	return d, nil
}

// memorizingLearner memorizes the first feature value of every training row
// and predicts the memorized label for rows it saw, unseenLabel otherwise.
// Out-of-fold predictions are therefore distinguishable from leaked ones.
type memorizingLearner struct {
	state *model.StateManager
	seen  map[float64]float64
}

const unseenLabel = -1.0

var _ model.Learner = (*memorizingLearner)(nil)

func newMemorizingLearner() *memorizingLearner {
	return &memorizingLearner{state: model.NewStateManager()}
}

func (m *memorizingLearner) Fit(X, y mat.Matrix) error {
	n, c := X.Dims()
	m.seen = make(map[float64]float64, n)
	for i := 0; i < n; i++ {
		m.seen[X.At(i, 0)] = y.At(i, 0)
	}
	m.state.SetFitted()
	m.state.SetDimensions(c, n)
	return nil
}

func (m *memorizingLearner) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("memorizingLearner", "Transform"); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label, ok := m.seen[X.At(i, 0)]
		if !ok {
			label = unseenLabel
		}
		out.Set(i, 0, label)
	}
	return out, nil
}

func (m *memorizingLearner) Options() options.Options {
	return options.Options{}
}

func (m *memorizingLearner) Derive(overrides options.Options) (model.Transformer, error) {
	return newMemorizingLearner(), nil
}

// recordingLearner captures the data it was fitted on and predicts zeros.
// Derive returns the receiver so a test keeps a handle on the clone an
// ensemble fits internally.
type recordingLearner struct {
	state  *model.StateManager
	fitX   *mat.Dense
	fitY   *mat.VecDense
	fitErr error
}

var _ model.Learner = (*recordingLearner)(nil)

func newRecordingLearner() *recordingLearner {
	return &recordingLearner{state: model.NewStateManager()}
}

func (r *recordingLearner) Fit(X, y mat.Matrix) error {
	if r.fitErr != nil {
		return r.fitErr
	}
	n, c := X.Dims()
	r.fitX = mat.DenseCopyOf(X)
	r.fitY = mat.NewVecDense(n, nil)
	for i := 0; i < n; i++ {
		r.fitY.SetVec(i, y.At(i, 0))
	}
	r.state.SetFitted()
	r.state.SetDimensions(c, n)
	return nil
}

func (r *recordingLearner) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := r.state.RequireFitted("recordingLearner", "Transform"); err != nil {
		return nil, err
	}
	n, _ := X.Dims()
	return mat.NewDense(n, 1, nil), nil
}

func (r *recordingLearner) Options() options.Options {
	return options.Options{}
}

func (r *recordingLearner) Derive(overrides options.Options) (model.Transformer, error) {
	return r, nil
}

// errSplitter fails Split with a fixed error, proving a splitter was
// actually consulted.
type errSplitter struct {
	err error
}

var _ modelselection.Splitter = errSplitter{}

func (e errSplitter) Split(n int) ([]modelselection.Fold, error) {
	return nil, e.err
}
