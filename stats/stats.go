// Package stats summarizes repeated simulator runs.
package stats

import (
	"fmt"
	"io"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/sarchlab/l1sweep/geometry"
	"github.com/sarchlab/l1sweep/report"
)

// Global is the Core value of a summary that is not tied to a core.
const Global = -1

// Selector picks one metric out of a SimulationResult. A per-core selector
// yields one series per core, a global selector a single series.
type Selector struct {
	Name string

	core func(report.CoreStatistics) float64
	bus  func(report.BusStatistics) float64
}

// PerCore tells whether the selector reads a per-core field.
func (s Selector) PerCore() bool {
	return s.core != nil
}

// CoreSelector builds a selector over a per-core field.
func CoreSelector(name string, f func(report.CoreStatistics) float64) Selector {
	return Selector{Name: name, core: f}
}

// BusSelector builds a selector over a global field.
func BusSelector(name string, f func(report.BusStatistics) float64) Selector {
	return Selector{Name: name, bus: f}
}

// Predefined selectors, one per report field.
var (
	Instructions = CoreSelector("instructions",
		func(c report.CoreStatistics) float64 { return float64(c.Instructions) })
	Reads = CoreSelector("reads",
		func(c report.CoreStatistics) float64 { return float64(c.Reads) })
	Writes = CoreSelector("writes",
		func(c report.CoreStatistics) float64 { return float64(c.Writes) })
	ExecutionCycles = CoreSelector("execution_cycles",
		func(c report.CoreStatistics) float64 { return float64(c.ExecutionCycles) })
	IdleCycles = CoreSelector("idle_cycles",
		func(c report.CoreStatistics) float64 { return float64(c.IdleCycles) })
	CacheMisses = CoreSelector("cache_misses",
		func(c report.CoreStatistics) float64 { return float64(c.Misses) })
	MissRate = CoreSelector("miss_rate",
		func(c report.CoreStatistics) float64 { return c.MissRate })
	Evictions = CoreSelector("evictions",
		func(c report.CoreStatistics) float64 { return float64(c.Evictions) })
	Writebacks = CoreSelector("writebacks",
		func(c report.CoreStatistics) float64 { return float64(c.Writebacks) })
	BusInvalidations = CoreSelector("bus_invalidations",
		func(c report.CoreStatistics) float64 { return float64(c.BusInvalidations) })
	DataTraffic = CoreSelector("data_traffic",
		func(c report.CoreStatistics) float64 { return float64(c.DataTraffic) })

	Transactions = BusSelector("transactions",
		func(b report.BusStatistics) float64 { return float64(b.Transactions) })
	Traffic = BusSelector("traffic",
		func(b report.BusStatistics) float64 { return float64(b.Traffic) })
	MaxExecTime = BusSelector("max_exec_time",
		func(b report.BusStatistics) float64 { return float64(b.MaxExecTime) })
)

var allSelectors = []Selector{
	Instructions, Reads, Writes, ExecutionCycles, IdleCycles, CacheMisses,
	MissRate, Evictions, Writebacks, BusInvalidations, DataTraffic,
	Transactions, Traffic, MaxExecTime,
}

// DefaultSelectors are the metrics summarized after repeated runs.
func DefaultSelectors() []Selector {
	return []Selector{
		MissRate, BusInvalidations, DataTraffic,
		Transactions, Traffic, MaxExecTime,
	}
}

// SelectorNames lists the names SelectorByName accepts.
func SelectorNames() []string {
	names := make([]string, len(allSelectors))
	for i, s := range allSelectors {
		names[i] = s.Name
	}
	return names
}

// SelectorByName finds a predefined selector.
func SelectorByName(name string) (Selector, error) {
	for _, s := range allSelectors {
		if s.Name == name {
			return s, nil
		}
	}
	return Selector{}, fmt.Errorf("unknown metric %q", name)
}

// Summary is the mean and population standard deviation of one metric
// series.
type Summary struct {
	Metric string  `json:"metric"`
	Core   int     `json:"core"`
	N      int     `json:"n"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// InsufficientDataError reports an aggregation over no results.
type InsufficientDataError struct {
	N int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("cannot aggregate %d results", e.N)
}

// Aggregate summarizes each selector over the results. Per-core selectors
// give one summary per core, in core order; summaries follow selector order.
func Aggregate(results []report.SimulationResult, selectors []Selector) ([]Summary, error) {
	if len(results) == 0 {
		return nil, &InsufficientDataError{N: 0}
	}

	var summaries []Summary
	series := make([]float64, len(results))

	for _, sel := range selectors {
		if !sel.PerCore() {
			for i, r := range results {
				series[i] = sel.bus(r.Bus)
			}
			summaries = append(summaries, summarize(sel.Name, Global, series))
			continue
		}

		for core := 0; core < geometry.NumCores; core++ {
			for i, r := range results {
				series[i] = sel.core(r.Cores[core])
			}
			summaries = append(summaries, summarize(sel.Name, core, series))
		}
	}

	return summaries, nil
}

// MeanStdDev returns the mean and population standard deviation of values.
func MeanStdDev(values []float64) (mean, std float64, err error) {
	if len(values) == 0 {
		return 0, 0, &InsufficientDataError{N: 0}
	}

	mean, std = stat.PopMeanStdDev(values, nil)
	return mean, std, nil
}

func summarize(metric string, core int, series []float64) Summary {
	mean, std := stat.PopMeanStdDev(series, nil)
	return Summary{
		Metric: metric,
		Core:   core,
		N:      len(series),
		Mean:   mean,
		StdDev: std,
	}
}

// Print writes the summaries grouped by core, global metrics last.
func Print(w io.Writer, summaries []Summary) {
	byCore := make(map[int][]Summary)
	for _, s := range summaries {
		byCore[s.Core] = append(byCore[s.Core], s)
	}

	cores := make([]int, 0, len(byCore))
	for c := range byCore {
		if c != Global {
			cores = append(cores, c)
		}
	}
	sort.Ints(cores)

	for _, c := range cores {
		_, _ = fmt.Fprintf(w, "\nCore %d Statistics:\n", c)
		printGroup(w, byCore[c])
	}

	if global, ok := byCore[Global]; ok {
		_, _ = fmt.Fprintln(w, "\nBus Statistics:")
		printGroup(w, global)
	}
}

func printGroup(w io.Writer, summaries []Summary) {
	for _, s := range summaries {
		_, _ = fmt.Fprintf(w, "%s: Mean=%.2f, Std Dev=%.2f\n", s.Metric, s.Mean, s.StdDev)
	}
}
