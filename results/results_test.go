package results_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/l1sweep/results"
	"github.com/sarchlab/l1sweep/stats"
	"github.com/sarchlab/l1sweep/sweep"
)

func record(axis sweep.Axis, value float64, maxExec uint64) sweep.Record {
	cfg, err := sweep.DefaultParameters().Derive(axis, value)
	Expect(err).NotTo(HaveOccurred())
	return sweep.Record{
		Axis:        axis,
		Value:       value,
		Config:      cfg,
		MaxExecTime: maxExec,
	}
}

var _ = Describe("WriteTable", func() {
	It("should write a header and one row per record", func() {
		records := []sweep.Record{
			record(sweep.CacheSize, 8, 120000),
			record(sweep.Associativity, 4, 110000),
			record(sweep.BlockSize, 64, 100000),
		}

		var buf bytes.Buffer
		Expect(results.WriteTable(&buf, records)).To(Succeed())

		Expect(strings.Split(strings.TrimSpace(buf.String()), "\n")).To(Equal([]string{
			"Parameter,Value,MaxExecutionTime,CacheSize,Associativity,BlockSize",
			"cache_size,8,120000,8,2,32",
			"associativity,4,110000,4,4,32",
			"block_size,64,100000,4,2,64",
		}))
	})

	It("should write only the header for no records", func() {
		var buf bytes.Buffer
		Expect(results.WriteTable(&buf, nil)).To(Succeed())
		Expect(buf.String()).To(Equal(
			"Parameter,Value,MaxExecutionTime,CacheSize,Associativity,BlockSize\n"))
	})
})

var _ = Describe("RenderCharts", func() {
	var dir string

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "results-test-*")
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		os.RemoveAll(dir)
	})

	It("should draw one chart per axis with records", func() {
		records := []sweep.Record{
			record(sweep.CacheSize, 4, 134620),
			record(sweep.CacheSize, 16, 101000),
			record(sweep.CacheSize, 8, 120000),
			record(sweep.BlockSize, 64, 99000),
		}

		paths, err := results.RenderCharts(dir, records, "png")

		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(Equal([]string{
			filepath.Join(dir, "cache_size_variation.png"),
			filepath.Join(dir, "block_size_variation.png"),
		}))
		for _, p := range paths {
			info, err := os.Stat(p)
			Expect(err).NotTo(HaveOccurred())
			Expect(info.Size()).To(BeNumerically(">", 0))
		}
		Expect(filepath.Join(dir, "associativity_variation.png")).NotTo(BeAnExistingFile())
	})

	It("should draw nothing for no records", func() {
		paths, err := results.RenderCharts(dir, nil, "svg")

		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(BeEmpty())

		entries, err := os.ReadDir(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(entries).To(BeEmpty())
	})

	It("should accept a leading dot and upper case", func() {
		paths, err := results.RenderCharts(dir,
			[]sweep.Record{record(sweep.Associativity, 2, 5000)}, ".SVG")

		Expect(err).NotTo(HaveOccurred())
		Expect(paths).To(ConsistOf(filepath.Join(dir, "associativity_variation.svg")))
	})

	It("should reject an unknown format", func() {
		_, err := results.RenderCharts(dir, nil, "bmp")
		Expect(err).To(MatchError(ContainSubstring("unsupported chart format")))
	})
})

var _ = Describe("PrintSummary", func() {
	It("should count successes and failures per axis", func() {
		failure := &sweep.ValueError{
			Axis:  sweep.BlockSize,
			Value: 48,
			Stage: sweep.StageConfigure,
			Err:   errors.New("not a power of two"),
		}
		s := sweep.Summary{
			Axes: []sweep.AxisSummary{
				{Axis: sweep.CacheSize, Succeeded: 3},
				{Axis: sweep.BlockSize, Succeeded: 2, Failed: 1,
					Failures: []*sweep.ValueError{failure}},
			},
		}

		var buf bytes.Buffer
		results.PrintSummary(&buf, s)

		out := buf.String()
		Expect(out).To(ContainSubstring("cache_size:    3 succeeded, 0 failed"))
		Expect(out).To(ContainSubstring("block_size:    2 succeeded, 1 failed"))
		Expect(out).To(ContainSubstring("Total: 5 succeeded, 1 failed"))
		Expect(out).To(ContainSubstring("block_size=48: configure: not a power of two"))
	})
})

var _ = Describe("WriteJSON", func() {
	It("should include metadata, records and aggregates", func() {
		r := results.NewReport("traces/app1", sweep.DefaultParameters())
		r.AddSweep(sweep.Summary{
			Axes: []sweep.AxisSummary{
				{Axis: sweep.CacheSize, Succeeded: 1},
			},
			Records: []sweep.Record{record(sweep.CacheSize, 8, 1234)},
		})
		r.AddAggregates(10, []stats.Summary{
			{Metric: "max_exec_time", Core: stats.Global, N: 10, Mean: 1200, StdDev: 3},
		})

		var buf bytes.Buffer
		Expect(results.WriteJSON(&buf, r)).To(Succeed())

		var decoded map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &decoded)).To(Succeed())

		meta := decoded["metadata"].(map[string]any)
		Expect(meta["version"]).To(Equal(results.Version))
		Expect(meta["trace_prefix"]).To(Equal("traces/app1"))
		Expect(meta["repeated_runs"]).To(BeNumerically("==", 10))

		recs := decoded["records"].([]any)
		Expect(recs).To(HaveLen(1))
		rec := recs[0].(map[string]any)
		Expect(rec["axis"]).To(Equal("cache_size"))
		Expect(rec["max_exec_time"]).To(BeNumerically("==", 1234))

		Expect(decoded["aggregates"]).To(HaveLen(1))
	})
})

var _ = Describe("ChartPath", func() {
	It("should name charts after the axis", func() {
		Expect(results.ChartPath("out", sweep.BlockSize, "pdf")).
			To(Equal(filepath.Join("out", "block_size_variation.pdf")))
	})
})
