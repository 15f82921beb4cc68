// Package geometry derives the simulator's cache encoding (set-index bits,
// associativity, block bits) from human-facing cache parameters.
package geometry

import (
	"fmt"
	"math"
	"math/bits"
)

// CacheConfig holds the per-core L1 cache parameters in the form the
// simulator expects on its command line, together with the capacity they
// describe.
type CacheConfig struct {
	// SetIndexBits is log2 of the number of sets (-s).
	SetIndexBits uint `json:"set_index_bits"`

	// Associativity is the number of ways per set (-E).
	Associativity int `json:"associativity"`

	// BlockBits is log2 of the block size in bytes (-b).
	BlockBits uint `json:"block_bits"`

	// CacheSizeKB is the capacity of one core's cache in KB.
	CacheSizeKB float64 `json:"cache_size_kb"`
}

// NumCores is the number of cores, each with a private L1, that the simulator
// models.
const NumCores = 4

// Default simulator encoding used by the original harness: -s 6 -E 2 -b 5,
// which is a 4KB, 2-way cache with 32B blocks.
const (
	DefaultSetIndexBits  = 6
	DefaultAssociativity = 2
	DefaultBlockBits     = 5
)

// BlockSize returns the block size in bytes.
func (c CacheConfig) BlockSize() int {
	return 1 << c.BlockBits
}

// NumSets returns the number of sets.
func (c CacheConfig) NumSets() int {
	return 1 << c.SetIndexBits
}

// SizeBytes reconstitutes the capacity from the encoded fields. The result
// is only meaningful for a config that passes Validate.
func (c CacheConfig) SizeBytes() uint64 {
	return uint64(c.Associativity) << (c.BlockBits + c.SetIndexBits)
}

// Validate checks that the encoded fields describe the stated capacity.
func (c CacheConfig) Validate() error {
	if c.Associativity <= 0 {
		return &ConfigurationError{
			Quantity: "associativity",
			Value:    float64(c.Associativity),
			Reason:   "must be positive",
		}
	}

	if c.BlockBits >= 64 || c.SetIndexBits >= 64 ||
		bits.Len64(uint64(c.Associativity))+int(c.BlockBits+c.SetIndexBits) > 63 {
		return &ConfigurationError{
			Quantity: "cache size",
			Value:    c.CacheSizeKB,
			Reason: fmt.Sprintf("%d ways x 2^%d B x 2^%d sets overflows 64 bits",
				c.Associativity, c.BlockBits, c.SetIndexBits),
		}
	}

	if float64(c.SizeBytes()) != c.CacheSizeKB*1024 {
		return &ConfigurationError{
			Quantity: "cache size",
			Value:    c.CacheSizeKB,
			Reason: fmt.Sprintf("%d ways x 2^%d B x 2^%d sets is %d bytes",
				c.Associativity, c.BlockBits, c.SetIndexBits, c.SizeBytes()),
		}
	}

	return nil
}

// String formats the config the way it is shown in logs.
func (c CacheConfig) String() string {
	return fmt.Sprintf("%gKB %d-way %dB (-s %d -E %d -b %d)",
		c.CacheSizeKB, c.Associativity, c.BlockSize(),
		c.SetIndexBits, c.Associativity, c.BlockBits)
}

// ConfigurationError reports a cache parameter combination that cannot be
// encoded for the simulator.
type ConfigurationError struct {
	Quantity string
	Value    float64
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid %s %g: %s", e.Quantity, e.Value, e.Reason)
}

// Derive converts a cache size in KB, an associativity, and a block size in
// bytes into the simulator encoding. The block size must be a power of two
// and the cache must hold a power-of-two number of sets, at least one.
func Derive(cacheSizeKB float64, associativity, blockSize int) (CacheConfig, error) {
	if !(cacheSizeKB > 0) || math.IsInf(cacheSizeKB, 0) {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "cache size",
			Value:    cacheSizeKB,
			Reason:   "must be a positive number of KB",
		}
	}

	sizeBytes := cacheSizeKB * 1024
	if sizeBytes != math.Trunc(sizeBytes) || sizeBytes > math.MaxInt64/2 {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "cache size",
			Value:    cacheSizeKB,
			Reason:   "is not a whole number of bytes",
		}
	}

	if associativity <= 0 {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "associativity",
			Value:    float64(associativity),
			Reason:   "must be positive",
		}
	}

	blockBits, ok := log2(uint64(max(blockSize, 0)))
	if blockSize <= 0 || !ok {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "block size",
			Value:    float64(blockSize),
			Reason:   "must be a positive power of two",
		}
	}

	// Compare by division so huge ways or blocks cannot wrap the product.
	total := uint64(sizeBytes)
	if uint64(associativity) > total/uint64(blockSize) {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "cache size",
			Value:    cacheSizeKB,
			Reason: fmt.Sprintf("smaller than one set (%d ways x %dB)",
				associativity, blockSize),
		}
	}

	wayBytes := uint64(associativity) * uint64(blockSize)
	if total%wayBytes != 0 {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "cache size",
			Value:    cacheSizeKB,
			Reason: fmt.Sprintf("not a multiple of the set size %dB",
				wayBytes),
		}
	}

	setBits, ok := log2(total / wayBytes)
	if !ok {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "cache size",
			Value:    cacheSizeKB,
			Reason: fmt.Sprintf("gives %d sets, not a power of two",
				total/wayBytes),
		}
	}

	return CacheConfig{
		SetIndexBits:  setBits,
		Associativity: associativity,
		BlockBits:     blockBits,
		CacheSizeKB:   cacheSizeKB,
	}, nil
}

// FromBits builds a config from an already-encoded simulator parameter set.
func FromBits(setIndexBits uint, associativity int, blockBits uint) (CacheConfig, error) {
	if setIndexBits > 40 || blockBits > 40 || setIndexBits+blockBits > 40 {
		return CacheConfig{}, &ConfigurationError{
			Quantity: "set index + block bits",
			Value:    float64(setIndexBits + blockBits),
			Reason:   "exceeds 40",
		}
	}

	c := CacheConfig{
		SetIndexBits:  setIndexBits,
		Associativity: associativity,
		BlockBits:     blockBits,
	}
	if associativity > 0 {
		c.CacheSizeKB = float64(c.SizeBytes()) / 1024
	}

	if err := c.Validate(); err != nil {
		return CacheConfig{}, err
	}

	return c, nil
}

// Default returns the harness's default configuration.
func Default() CacheConfig {
	c, _ := FromBits(DefaultSetIndexBits, DefaultAssociativity, DefaultBlockBits)
	return c
}

func log2(v uint64) (uint, bool) {
	if v == 0 || v&(v-1) != 0 {
		return 0, false
	}
	return uint(bits.TrailingZeros64(v)), true
}
