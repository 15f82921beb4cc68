package results

import (
	"fmt"
	"io"

	"github.com/sarchlab/l1sweep/sweep"
)

// PrintSummary writes how many values succeeded and failed on each axis,
// followed by one line per failure.
func PrintSummary(w io.Writer, s sweep.Summary) {
	_, _ = fmt.Fprintln(w, "=== Sweep Summary ===")

	for _, a := range s.Axes {
		_, _ = fmt.Fprintf(w, "%-14s %d succeeded, %d failed\n",
			a.Axis.String()+":", a.Succeeded, a.Failed)
	}

	_, _ = fmt.Fprintf(w, "Total: %d succeeded, %d failed\n", s.Succeeded(), s.Failed())

	failures := s.Failures()
	if len(failures) == 0 {
		return
	}

	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Failures:")
	for _, f := range failures {
		_, _ = fmt.Fprintf(w, "  %v\n", f)
	}
}
