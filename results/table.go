// Package results turns sweep records into tables, charts and printed
// summaries.
package results

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/sarchlab/l1sweep/sweep"
)

// TableHeader is the first row written by WriteTable.
var TableHeader = []string{
	"Parameter", "Value", "MaxExecutionTime",
	"CacheSize", "Associativity", "BlockSize",
}

// WriteTable writes one CSV row per record, in record order. CacheSize is in
// KB and BlockSize in bytes.
func WriteTable(w io.Writer, records []sweep.Record) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(TableHeader); err != nil {
		return err
	}

	for _, r := range records {
		row := []string{
			r.Axis.String(),
			formatFloat(r.Value),
			strconv.FormatUint(r.MaxExecTime, 10),
			formatFloat(r.Config.CacheSizeKB),
			strconv.Itoa(r.Config.Associativity),
			strconv.Itoa(r.Config.BlockSize()),
		}

		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
