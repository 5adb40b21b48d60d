package provablyfair

import (
	"fmt"
	"strconv"
)

const (
	crashInstantBustModulus = 33
	crashMinPoint           = 1.01
	crashMaxPoint           = 10000.00
	crashBustPoint          = 1.00
	crashRange              = 1 << 32
)

// SeedValue reads the first 8 hex characters of seed as a uint32.
// Seeds reaching this point have passed ParseSeed or IssueSeed, so a parse
// failure is a programming error.
func SeedValue(seed Seed) uint32 {
	if len(seed) < 8 {
		panic(fmt.Sprintf("provablyfair: seed too short: %d chars", len(seed)))
	}
	v, err := strconv.ParseUint(string(seed[:8]), 16, 32)
	if err != nil {
		panic(fmt.Sprintf("provablyfair: invalid seed prefix %q: %v", seed[:8], err))
	}
	return uint32(v)
}

// DiceRoll returns a value in [0.00, 99.99] at 0.01 resolution.
func DiceRoll(seed Seed) float64 {
	v := SeedValue(seed)
	return float64(v%10000) / 100
}

// DiceWins reports whether roll beats target in the chosen direction.
func DiceWins(roll, target float64, over bool) bool {
	if over {
		return roll > target
	}
	return roll < target
}

// MinePositions returns the first minesCount tiles of the permutation of
// [0, gridSize) keyed by the seed.
func MinePositions(seed Seed, minesCount, gridSize int) ([]int, error) {
	if gridSize <= 0 {
		return nil, fmt.Errorf("grid size must be positive, got %d", gridSize)
	}
	if minesCount < 0 || minesCount > gridSize {
		return nil, fmt.Errorf("mines count must be between 0 and %d, got %d", gridSize, minesCount)
	}

	perm := TilePermutation(seed, gridSize)
	mines := make([]int, minesCount)
	copy(mines, perm[:minesCount])
	return mines, nil
}

// TilePermutation is the full Fisher-Yates permutation behind MinePositions.
func TilePermutation(seed Seed, gridSize int) []int {
	perm := make([]int, gridSize)
	for i := range perm {
		perm[i] = i
	}

	rng := newSplitMix64(uint64(SeedValue(seed)))
	for i := gridSize - 1; i > 0; i-- {
		j := int(rng.bounded(uint64(i + 1)))
		perm[i], perm[j] = perm[j], perm[i]
	}
	return perm
}

// CrashPoint derives the crash multiplier. The instant-bust rule and the
// continuous curve are separate rules and stay separate here.
func CrashPoint(seed Seed) float64 {
	v := SeedValue(seed)

	if v%crashInstantBustModulus == 0 {
		return crashBustPoint
	}

	point := (99 / (1 - float64(v)/crashRange)) / 100
	if point < crashMinPoint {
		point = crashMinPoint
	}
	if point > crashMaxPoint {
		point = crashMaxPoint
	}
	return RoundMultiplier(point, 2)
}

// splitMix64 is the published splitmix64 generator. It is spelled out here
// because players replay it by hand from the disclosed seed.
type splitMix64 struct {
	state uint64
}

func newSplitMix64(seed uint64) *splitMix64 {
	return &splitMix64{state: seed}
}

func (s *splitMix64) next() uint64 {
	s.state += 0x9e3779b97f4a7c15
	z := s.state
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

// bounded returns a uniform value in [0, n) without modulo bias.
func (s *splitMix64) bounded(n uint64) uint64 {
	threshold := -n % n
	for {
		x := s.next()
		if x >= threshold {
			return x % n
		}
	}
}
