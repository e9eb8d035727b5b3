// Package modelselection provides the index-splitting utilities behind
// validation and stacking: holdout splits and k-fold partitioning.
//
// Splitters work on instance counts and return index partitions, so callers
// slice their own matrices. Randomization is seeded per call through a PCG
// generator; no global random state is touched, and equal seeds reproduce
// equal splits.
package modelselection

import (
	"math"
	"math/rand/v2"

	"github.com/combineml/combineml/pkg/errors"
)

// Fold is one train/test index partition. Test groups across the folds of a
// k-fold split are disjoint and exhaustive; Train is always the complement
// of Test.
type Fold struct {
	Train []int
	Test  []int
}

// Splitter generates train/test folds for n instances. KFold and Holdout
// implement it; the best-learner ensemble accepts any Splitter as its
// validation strategy.
type Splitter interface {
	Split(n int) ([]Fold, error)
}

// KFold partitions indices into NSplits test groups whose sizes differ by
// at most one, each paired with its complement as the training side.
type KFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewKFold creates a k-fold splitter. nSplits of zero selects the default
// of 5; other values are kept as given and validated against the instance
// count at Split time.
func NewKFold(nSplits int, shuffle bool, seed uint64) *KFold {
	if nSplits == 0 {
		nSplits = 5
	}
	return &KFold{
		NSplits: nSplits,
		Shuffle: shuffle,
		Seed:    seed,
	}
}

// Split generates the folds for n instances. Every index lands in exactly
// one test group; the first n mod NSplits groups carry the extra element.
// With Shuffle the index order is permuted first, seeded from Seed. A
// non-positive fold count, or one exceeding n, fails with FoldCountError.
func (kf *KFold) Split(n int) ([]Fold, error) {
	if kf.NSplits < 1 {
		return nil, errors.NewFoldCountError(kf.NSplits, n, "fold count must be positive")
	}
	if kf.NSplits > n {
		return nil, errors.NewFoldCountError(kf.NSplits, n, "fold count exceeds instance count")
	}

	indices := make([]int, n)
	for i := range indices {
		indices[i] = i
	}
	if kf.Shuffle {
		r := rand.New(rand.NewPCG(kf.Seed, kf.Seed))
		r.Shuffle(len(indices), func(i, j int) {
			indices[i], indices[j] = indices[j], indices[i]
		})
	}

	folds := make([]Fold, kf.NSplits)
	foldSize := n / kf.NSplits
	remainder := n % kf.NSplits

	start := 0
	for i := 0; i < kf.NSplits; i++ {
		testSize := foldSize
		if i < remainder {
			testSize++
		}
		end := start + testSize

		test := make([]int, testSize)
		copy(test, indices[start:end])

		// Complement in index order, preserving the (possibly permuted)
		// sequence.
		train := make([]int, 0, n-testSize)
		train = append(train, indices[:start]...)
		train = append(train, indices[end:]...)

		folds[i] = Fold{Train: train, Test: test}
		start = end
	}

	return folds, nil
}

// Holdout splits indices into one training and one held-out test partition.
type Holdout struct {
	TestFraction float64
	Seed         uint64
}

// NewHoldout creates a holdout splitter reserving testFraction of the
// instances for the test side.
func NewHoldout(testFraction float64, seed uint64) *Holdout {
	return &Holdout{
		TestFraction: testFraction,
		Seed:         seed,
	}
}

// Split permutes 0..n-1 with a generator seeded from Seed and returns a
// single fold: the first floor(TestFraction*n) permuted indices form the
// test side, the remainder the training side. The partitions are disjoint
// and together cover every index. A fraction outside [0, 1] fails with
// ValueError.
func (h *Holdout) Split(n int) ([]Fold, error) {
	if h.TestFraction < 0 || h.TestFraction > 1 {
		return nil, errors.NewValueError("Holdout.Split", "test fraction must be in [0, 1]")
	}
	if n < 0 {
		return nil, errors.NewValueError("Holdout.Split", "instance count must be non-negative")
	}

	r := rand.New(rand.NewPCG(h.Seed, h.Seed))
	perm := r.Perm(n)

	testSize := int(math.Floor(h.TestFraction * float64(n)))
	test := make([]int, testSize)
	copy(test, perm[:testSize])
	train := make([]int, n-testSize)
	copy(train, perm[testSize:])

	return []Fold{{Train: train, Test: test}}, nil
}

// TrainTestSplit is a convenience over Holdout returning the two partitions
// directly.
func TrainTestSplit(n int, testFraction float64, seed uint64) (train, test []int, err error) {
	folds, err := NewHoldout(testFraction, seed).Split(n)
	if err != nil {
		return nil, nil, err
	}
	return folds[0].Train, folds[0].Test, nil
}
