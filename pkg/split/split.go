// Package split partitions raw dataset records into train and validation
// subsets and writes them out in the layout object detection trainers expect:
//
//	output_dir/
//	  annotations/train.json
//	  annotations/val.json
//	  train_images/<filename>
//	  val_images/<filename>
//
// Filenames are taken verbatim from the records, so two records sharing a
// filename within a split overwrite each other.
package split

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/gardar/laydoc/pkg/docsynth"
)

// ErrEmptySplit is returned when a split would leave one side without records
var ErrEmptySplit = errors.New("split would leave a subset empty")

// NewRand returns the generator used for a given seed
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// ValidationCount returns how many of n records go to validation:
// ceil(testSize*n).
func ValidationCount(n int, testSize float64) int {
	return int(math.Ceil(testSize * float64(n)))
}

// Split shuffles records with rng and returns the train and validation
// subsets. testSize must lie strictly between 0 and 1. Both subsets keep the
// shuffled order and share no record.
func Split(records []docsynth.Record, testSize float64, rng *rand.Rand) ([]docsynth.Record, []docsynth.Record, error) {
	if testSize <= 0 || testSize >= 1 {
		return nil, nil, fmt.Errorf("test size must be between 0 and 1, got %v", testSize)
	}
	n := len(records)
	if n == 0 {
		return []docsynth.Record{}, []docsynth.Record{}, nil
	}

	nVal := ValidationCount(n, testSize)
	nTrain := n - nVal
	if nVal == 0 || nTrain == 0 {
		return nil, nil, fmt.Errorf("%w: %d records, test size %v gives %d train and %d val",
			ErrEmptySplit, n, testSize, nTrain, nVal)
	}

	perm := rng.Perm(n)
	val := make([]docsynth.Record, 0, nVal)
	for _, i := range perm[:nVal] {
		val = append(val, records[i])
	}
	train := make([]docsynth.Record, 0, nTrain)
	for _, i := range perm[nVal:] {
		train = append(train, records[i])
	}
	return train, val, nil
}
