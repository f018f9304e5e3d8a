package sim

import (
	"hash/fnv"
	"math/rand"
)

// Subsystem names for PartitionedRNG. Each subsystem draws from its own
// deterministically derived stream so that, for example, adding a travel-time
// lookup never perturbs waste generation.
const (
	// SubsystemGeneration is the RNG subsystem for zone waste generation.
	SubsystemGeneration = "generation"

	// SubsystemTravel is the RNG subsystem for travel-time jitter.
	SubsystemTravel = "travel"

	// SubsystemPlates is the RNG subsystem for vehicle plate generation.
	SubsystemPlates = "plates"
)

// PartitionedRNG provides deterministic, isolated RNG instances per subsystem.
//
// Derivation: masterSeed XOR fnv1a64(subsystemName). Two simulations built
// from the same seed and identical configuration produce identical results.
//
// Thread-safety: NOT thread-safe. Must be called from the tick goroutine only.
type PartitionedRNG struct {
	seed       int64
	subsystems map[string]*rand.Rand
}

// NewPartitionedRNG creates a PartitionedRNG from a master seed.
func NewPartitionedRNG(seed int64) *PartitionedRNG {
	return &PartitionedRNG{
		seed:       seed,
		subsystems: make(map[string]*rand.Rand),
	}
}

// ForSubsystem returns a deterministically-seeded RNG for the named subsystem.
// The same subsystem name always returns the same *rand.Rand instance (cached).
// Never returns nil.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if rng, ok := p.subsystems[name]; ok {
		return rng
	}
	rng := rand.New(rand.NewSource(p.seed ^ fnv1a64(name)))
	p.subsystems[name] = rng
	return rng
}

// Seed returns the master seed used to create this PartitionedRNG.
func (p *PartitionedRNG) Seed() int64 {
	return p.seed
}

// fnv1a64 computes a 64-bit FNV-1a hash of the input string.
func fnv1a64(s string) int64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return int64(h.Sum64())
}
