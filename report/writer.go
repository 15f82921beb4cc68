package report

import (
	"bufio"
	"fmt"
	"io"
)

// Write renders res in the simulator's report layout. Parse(Write(res))
// yields res back, up to the two decimals printed for the cache size and
// the five printed for miss rates. The trace prefix survives only when it is
// a single non-empty token; an empty prefix or one with spaces comes back
// empty or truncated at the first space.
func Write(w io.Writer, res SimulationResult) error {
	bw := bufio.NewWriter(w)
	cfg := res.Config

	fmt.Fprintln(bw, parametersHeading)
	fmt.Fprintf(bw, "Trace Prefix: %s\n", res.TracePrefix)
	fmt.Fprintf(bw, "Set Index Bits: %d\n", cfg.SetIndexBits)
	fmt.Fprintf(bw, "Associativity: %d\n", cfg.Associativity)
	fmt.Fprintf(bw, "Block Bits: %d\n", cfg.BlockBits)
	fmt.Fprintf(bw, "Block Size (Bytes): %d\n", cfg.BlockSize())
	fmt.Fprintf(bw, "Number of Sets: %d\n", cfg.NumSets())
	fmt.Fprintf(bw, "Cache Size (KB per core): %.2f\n", cfg.CacheSizeKB)
	fmt.Fprintln(bw, "MESI Protocol: Enabled")
	fmt.Fprintln(bw, "Write Policy: Write-back, Write-allocate")
	fmt.Fprintln(bw, "Replacement Policy: LRU")
	fmt.Fprintln(bw, "Bus: Central snooping bus")
	fmt.Fprintln(bw)

	for i, c := range res.Cores {
		fmt.Fprintf(bw, coreHeadingFormat+"\n", i)
		fmt.Fprintf(bw, "Total Instructions: %d\n", c.Instructions)
		fmt.Fprintf(bw, "Total Reads: %d\n", c.Reads)
		fmt.Fprintf(bw, "Total Writes: %d\n", c.Writes)
		fmt.Fprintf(bw, "Total Execution Cycles: %d\n", c.ExecutionCycles)
		fmt.Fprintf(bw, "Idle Cycles: %d\n", c.IdleCycles)
		fmt.Fprintf(bw, "Cache Misses: %d\n", c.Misses)
		fmt.Fprintf(bw, "Cache Miss Rate: %.5f%%\n", c.MissRate)
		fmt.Fprintf(bw, "Cache Evictions: %d\n", c.Evictions)
		fmt.Fprintf(bw, "Writebacks: %d\n", c.Writebacks)
		fmt.Fprintf(bw, "Bus Invalidations: %d\n", c.BusInvalidations)
		fmt.Fprintf(bw, "Data Traffic (Bytes): %d\n", c.DataTraffic)
		fmt.Fprintln(bw)
	}

	fmt.Fprintln(bw, busHeading)
	fmt.Fprintf(bw, "Total Bus Transactions: %d\n", res.Bus.Transactions)
	fmt.Fprintf(bw, "Total Bus Traffic (Bytes): %d\n", res.Bus.Traffic)
	fmt.Fprintf(bw, "Maximum Execution Time (cycles): %d\n", res.Bus.MaxExecTime)

	return bw.Flush()
}
