package sweep

import (
	"fmt"
	"math"
	"strings"

	"github.com/sarchlab/l1sweep/geometry"
)

// Axis is one of the independently swept cache dimensions.
type Axis int

// The sweepable axes.
const (
	CacheSize Axis = iota
	Associativity
	BlockSize
)

// Axes returns every axis in sweep order.
func Axes() []Axis {
	return []Axis{CacheSize, Associativity, BlockSize}
}

func (a Axis) String() string {
	switch a {
	case CacheSize:
		return "cache_size"
	case Associativity:
		return "associativity"
	case BlockSize:
		return "block_size"
	default:
		return fmt.Sprintf("axis(%d)", int(a))
	}
}

// Label is the human-readable name with units, used on charts.
func (a Axis) Label() string {
	switch a {
	case CacheSize:
		return "Cache Size (KB)"
	case Associativity:
		return "Associativity"
	case BlockSize:
		return "Block Size (Bytes)"
	default:
		return a.String()
	}
}

// ParseAxis accepts the String form of an axis, with dashes or underscores.
func ParseAxis(s string) (Axis, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for _, a := range Axes() {
		if a.String() == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("unknown axis %q (want cache_size, associativity or block_size)", s)
}

// MarshalText encodes the axis by name.
func (a Axis) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText decodes an axis name.
func (a *Axis) UnmarshalText(text []byte) error {
	parsed, err := ParseAxis(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Defaults are the values the axes take when they are not being swept.
type Defaults struct {
	CacheSizeKB   float64 `json:"cache_size_kb"`
	Associativity int     `json:"associativity"`
	BlockSize     int     `json:"block_size"`
}

// DefaultParameters returns 4KB, 2-way, 32B blocks, the simulator's
// -s 6 -E 2 -b 5.
func DefaultParameters() Defaults {
	return Defaults{
		CacheSizeKB:   4,
		Associativity: 2,
		BlockSize:     32,
	}
}

// Derive substitutes value into axis, holds the other two axes at their
// defaults, and derives the simulator encoding.
func (d Defaults) Derive(axis Axis, value float64) (geometry.CacheConfig, error) {
	sizeKB, assoc, block := d.CacheSizeKB, d.Associativity, d.BlockSize

	switch axis {
	case CacheSize:
		sizeKB = value
	case Associativity:
		v, err := integral("associativity", value)
		if err != nil {
			return geometry.CacheConfig{}, err
		}
		assoc = v
	case BlockSize:
		v, err := integral("block size", value)
		if err != nil {
			return geometry.CacheConfig{}, err
		}
		block = v
	default:
		return geometry.CacheConfig{}, fmt.Errorf("unknown axis %v", axis)
	}

	return geometry.Derive(sizeKB, assoc, block)
}

func integral(quantity string, v float64) (int, error) {
	if v != math.Trunc(v) || math.Abs(v) > math.MaxInt32 {
		return 0, &geometry.ConfigurationError{
			Quantity: quantity,
			Value:    v,
			Reason:   "must be a whole number",
		}
	}
	return int(v), nil
}

// Plan lists the values to sweep on each axis.
type Plan []AxisValues

// AxisValues is one entry of a Plan.
type AxisValues struct {
	Axis   Axis      `json:"axis"`
	Values []float64 `json:"values"`
}

// DefaultPlan sweeps 4/8/16KB, 2/4/8 ways and 32/64/128B blocks.
func DefaultPlan() Plan {
	return Plan{
		{Axis: CacheSize, Values: []float64{4, 8, 16}},
		{Axis: Associativity, Values: []float64{2, 4, 8}},
		{Axis: BlockSize, Values: []float64{32, 64, 128}},
	}
}

// Only returns the entries of the plan for the given axes, in plan order.
func (p Plan) Only(axes ...Axis) Plan {
	var out Plan
	for _, av := range p {
		for _, a := range axes {
			if av.Axis == a {
				out = append(out, av)
				break
			}
		}
	}
	return out
}
