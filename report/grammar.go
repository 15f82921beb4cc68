package report

import (
	"fmt"
	"strconv"
	"strings"
)

// Section headings.
const (
	parametersHeading = "Simulation Parameters:"
	coreHeadingFormat = "Core %d Statistics:"
	busHeading        = "Overall Bus Summary:"
)

type kind int

const (
	kindInt kind = iota
	kindUint
	kindFloat
	kindString
)

func (k kind) String() string {
	switch k {
	case kindInt:
		return "integer"
	case kindUint:
		return "non-negative integer"
	case kindFloat:
		return "number"
	default:
		return "string"
	}
}

// value is a decoded token.
type value struct {
	i int64
	u uint64
	f float64
	s string
}

// field describes where one value lives in a section: the first line
// containing label, the offset-th whitespace-separated token on it.
type field[T any] struct {
	name     string
	label    string
	offset   int
	kind     kind
	optional bool
	set      func(dst *T, v value)
}

var parameterFields = []field[SimulationResult]{
	{
		name: "trace prefix", label: "Trace Prefix:", offset: 2,
		kind: kindString, optional: true,
		set: func(r *SimulationResult, v value) { r.TracePrefix = v.s },
	},
	{
		name: "set index bits", label: "Set Index Bits:", offset: 3,
		kind: kindUint,
		set:  func(r *SimulationResult, v value) { r.Config.SetIndexBits = uint(v.u) },
	},
	{
		name: "associativity", label: "Associativity:", offset: 1,
		kind: kindInt,
		set:  func(r *SimulationResult, v value) { r.Config.Associativity = int(v.i) },
	},
	{
		name: "block bits", label: "Block Bits:", offset: 2,
		kind: kindUint,
		set:  func(r *SimulationResult, v value) { r.Config.BlockBits = uint(v.u) },
	},
	{
		name: "cache size", label: "Cache Size (KB per core):", offset: 5,
		kind: kindFloat,
		set:  func(r *SimulationResult, v value) { r.Config.CacheSizeKB = v.f },
	},
}

var coreFields = []field[CoreStatistics]{
	{
		name: "instructions", label: "Total Instructions:", offset: 2,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.Instructions = v.u },
	},
	{
		name: "reads", label: "Total Reads:", offset: 2,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.Reads = v.u },
	},
	{
		name: "writes", label: "Total Writes:", offset: 2,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.Writes = v.u },
	},
	{
		name: "execution cycles", label: "Total Execution Cycles:", offset: 3,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.ExecutionCycles = v.u },
	},
	{
		name: "idle cycles", label: "Idle Cycles:", offset: 2,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.IdleCycles = v.u },
	},
	{
		name: "cache misses", label: "Cache Misses:", offset: 2,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.Misses = v.u },
	},
	{
		name: "miss rate", label: "Cache Miss Rate:", offset: 3,
		kind: kindFloat,
		set:  func(c *CoreStatistics, v value) { c.MissRate = v.f },
	},
	{
		name: "evictions", label: "Cache Evictions:", offset: 2,
		kind: kindUint, optional: true,
		set: func(c *CoreStatistics, v value) { c.Evictions = v.u },
	},
	{
		name: "writebacks", label: "Writebacks:", offset: 1,
		kind: kindUint, optional: true,
		set: func(c *CoreStatistics, v value) { c.Writebacks = v.u },
	},
	{
		name: "bus invalidations", label: "Bus Invalidations:", offset: 2,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.BusInvalidations = v.u },
	},
	{
		name: "data traffic", label: "Data Traffic (Bytes):", offset: 3,
		kind: kindUint,
		set:  func(c *CoreStatistics, v value) { c.DataTraffic = v.u },
	},
}

var busFields = []field[BusStatistics]{
	{
		name: "bus transactions", label: "Total Bus Transactions:", offset: 3,
		kind: kindUint,
		set:  func(b *BusStatistics, v value) { b.Transactions = v.u },
	},
	{
		name: "bus traffic", label: "Total Bus Traffic (Bytes):", offset: 4,
		kind: kindUint,
		set:  func(b *BusStatistics, v value) { b.Traffic = v.u },
	},
	{
		name: "max execution time", label: "Maximum Execution Time (cycles):", offset: 4,
		kind: kindUint,
		set:  func(b *BusStatistics, v value) { b.MaxExecTime = v.u },
	},
}

// line is one report line with its 1-based number.
type line struct {
	num  int
	text string
}

// extract fills dst from the lines of one section. It fails on the first
// required field that is absent or malformed. Optional fields that are
// absent or malformed are left untouched.
func extract[T any](section string, lines []line, fields []field[T], dst *T) error {
	for _, f := range fields {
		l, found := findLabel(lines, f.label)
		if !found {
			if f.optional {
				continue
			}

			return &ParseError{
				Section: section,
				Field:   f.name,
				Err:     fmt.Errorf("label %q not found", f.label),
			}
		}

		v, err := decode(l.text, f.offset, f.kind)
		if err != nil && f.optional {
			continue
		}

		if err != nil {
			return &ParseError{
				Section: section,
				Field:   f.name,
				Line:    l.num,
				Err:     err,
			}
		}

		f.set(dst, v)
	}

	return nil
}

func findLabel(lines []line, label string) (line, bool) {
	for _, l := range lines {
		if strings.Contains(l.text, label) {
			return l, true
		}
	}
	return line{}, false
}

func decode(text string, offset int, k kind) (value, error) {
	tokens := strings.Fields(text)
	if offset >= len(tokens) {
		return value{}, fmt.Errorf("no token at position %d in %q", offset, text)
	}

	tok := tokens[offset]

	var (
		v   value
		err error
	)

	switch k {
	case kindInt:
		v.i, err = strconv.ParseInt(tok, 10, 64)
	case kindUint:
		v.u, err = strconv.ParseUint(tok, 10, 64)
	case kindFloat:
		v.f, err = strconv.ParseFloat(strings.TrimSuffix(tok, "%"), 64)
	default:
		v.s = tok
	}

	if err != nil {
		return value{}, fmt.Errorf("token %q is not a %s", tok, k)
	}

	return v, nil
}
