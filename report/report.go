// Package report reads and writes the simulator's text report.
//
// The report is free text with one labeled value per line. Its layout is
// treated as a versioned wire format: the parser locates each field by a
// label substring and takes the whitespace-separated token at a fixed offset
// on that line.
//
//	Simulation Parameters:
//	Trace Prefix: app1
//	Set Index Bits: 6
//	Associativity: 2
//	Block Bits: 5
//	...
//	Cache Size (KB per core): 4.00
//	...
//	Core 0 Statistics:
//	Total Instructions: 1000
//	...
//	Cache Miss Rate: 1.20000%
//	...
//	Overall Bus Summary:
//	Total Bus Transactions: 52
//	Total Bus Traffic (Bytes): 1664
//	Maximum Execution Time (cycles): 5731
package report

import (
	"github.com/sarchlab/l1sweep/geometry"
)

// FormatVersion identifies the report layout this package understands.
const FormatVersion = 1

// CoreStatistics holds the counters the simulator reports for one core.
type CoreStatistics struct {
	Instructions    uint64 `json:"instructions"`
	Reads           uint64 `json:"reads"`
	Writes          uint64 `json:"writes"`
	ExecutionCycles uint64 `json:"execution_cycles"`
	IdleCycles      uint64 `json:"idle_cycles"`
	Misses          uint64 `json:"cache_misses"`

	// MissRate is the miss rate as printed by the simulator, a percentage
	// in [0, 100].
	MissRate float64 `json:"miss_rate"`

	// Evictions and Writebacks are optional in the report and stay zero
	// when absent.
	Evictions  uint64 `json:"evictions"`
	Writebacks uint64 `json:"writebacks"`

	BusInvalidations uint64 `json:"bus_invalidations"`

	// DataTraffic is in bytes.
	DataTraffic uint64 `json:"data_traffic"`
}

// MissFraction returns the miss rate as a fraction in [0, 1].
func (s CoreStatistics) MissFraction() float64 {
	return s.MissRate / 100
}

// BusStatistics holds the global counters of a run.
type BusStatistics struct {
	Transactions uint64 `json:"transactions"`

	// Traffic is in bytes.
	Traffic uint64 `json:"traffic"`

	// MaxExecTime is the largest execution time of any core, in cycles.
	MaxExecTime uint64 `json:"max_exec_time"`
}

// SimulationResult is everything one report contains.
type SimulationResult struct {
	// TracePrefix is empty when the report does not name its traces.
	TracePrefix string                            `json:"trace_prefix,omitempty"`
	Config      geometry.CacheConfig              `json:"config"`
	Cores       [geometry.NumCores]CoreStatistics `json:"cores"`
	Bus         BusStatistics                     `json:"bus"`
}
