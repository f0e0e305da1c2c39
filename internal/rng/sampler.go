package rng

import (
	"crypto/rand"
	"errors"
	"math/big"
)

// randIndex picks one random index in [0..n-1] using crypto/rand.
func randIndex(n int) (int, error) {
	if n <= 0 {
		return 0, errors.New("rng: bound must be > 0")
	}
	rndBig, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0, err
	}
	return int(rndBig.Int64()), nil
}

// SampleUnique picks `count` distinct indices uniformly at random from
// [0..poolSize-1], without replacement. Every index has equal probability
// of selection regardless of its position in the pool.
//
// Implemented as a partial Fisher-Yates shuffle: for each of the `count`
// picks a uniform random offset into the not-yet-picked suffix is swapped
// into place, so selection never depends on the caller's ordering.
func SampleUnique(poolSize, count int) ([]int, error) {
	if count <= 0 {
		return nil, errors.New("rng: must sample at least 1 index")
	}
	if poolSize <= 0 {
		return nil, errors.New("rng: pool is empty")
	}
	if count > poolSize {
		return nil, errors.New("rng: sample size exceeds pool size")
	}

	idx := make([]int, poolSize)
	for i := range idx {
		idx[i] = i
	}

	picked := make([]int, 0, count)
	for i := 0; i < count; i++ {
		offset, err := randIndex(poolSize - i)
		if err != nil {
			return nil, err
		}
		j := i + offset
		idx[i], idx[j] = idx[j], idx[i]
		picked = append(picked, idx[i])
	}
	return picked, nil
}
