package pipeline

import (
	"iter"
	"math/rand/v2"
	"slices"

	"appshelf/internal/manifest"
)

// Collect returns every app id listed in the library, duplicates included.
func Collect(lib manifest.Library) []uint64 {
	return lib.AppIDs()
}

// Dedup returns the ids sorted ascending with equal ids collapsed. The input
// is not modified.
func Dedup(ids []uint64) []uint64 {
	out := slices.Clone(ids)
	slices.Sort(out)
	return slices.Compact(out)
}

// Shuffle permutes ids in place using rng. A nil rng uses the process-wide
// source seeded from runtime entropy.
func Shuffle(ids []uint64, rng *rand.Rand) {
	swap := func(i, j int) { ids[i], ids[j] = ids[j], ids[i] }
	if rng == nil {
		rand.Shuffle(len(ids), swap)
		return
	}
	rng.Shuffle(len(ids), swap)
}

// NewSeededRand returns a deterministic source for reproducible orderings.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// Sequence yields ids in order. The sequence is single-pass from the
// consumer's point of view: Run stops pulling when its context ends.
func Sequence(ids []uint64) iter.Seq[uint64] {
	return slices.Values(ids)
}

// Plan builds the shuffled id list for a run. A positive limit truncates the
// shuffled list.
func Plan(lib manifest.Library, rng *rand.Rand, limit int) []uint64 {
	ids := Dedup(Collect(lib))
	Shuffle(ids, rng)
	if limit > 0 && limit < len(ids) {
		ids = ids[:limit]
	}
	return ids
}
