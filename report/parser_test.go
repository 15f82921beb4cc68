package report_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/l1sweep/geometry"
	"github.com/sarchlab/l1sweep/report"
)

const samplePath = "testdata/app1_report.txt"

func loadSample() string {
	data, err := os.ReadFile(samplePath)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

// dropLines removes every line containing any of the given substrings.
func dropLines(text string, substrs ...string) string {
	var kept []string
	for _, l := range strings.Split(text, "\n") {
		drop := false
		for _, s := range substrs {
			if strings.Contains(l, s) {
				drop = true
			}
		}
		if !drop {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}

// dropCoreBlock removes the heading and body of one core block.
func dropCoreBlock(text string, core string) string {
	start := strings.Index(text, "Core "+core+" Statistics:")
	Expect(start).To(BeNumerically(">=", 0))
	end := strings.Index(text[start:], "\n\n")
	Expect(end).To(BeNumerically(">", 0))
	return text[:start] + text[start+end+2:]
}

func expectParseError(err error) *report.ParseError {
	var perr *report.ParseError
	ExpectWithOffset(1, errors.As(err, &perr)).To(BeTrue(), "got %v", err)
	return perr
}

var _ = Describe("Parse", func() {
	Context("with a well-formed report", func() {
		var res report.SimulationResult

		BeforeEach(func() {
			var err error
			res, err = report.ParseFile(samplePath)
			Expect(err).NotTo(HaveOccurred())
		})

		It("should decode the cache configuration", func() {
			Expect(res.TracePrefix).To(Equal("app1"))
			Expect(res.Config).To(Equal(geometry.CacheConfig{
				SetIndexBits:  6,
				Associativity: 2,
				BlockBits:     5,
				CacheSizeKB:   4,
			}))
		})

		It("should return four cores in report order", func() {
			Expect(res.Cores).To(HaveLen(4))
			Expect(res.Cores[0].Instructions).To(Equal(uint64(12500)))
			Expect(res.Cores[1].Instructions).To(Equal(uint64(12480)))
			Expect(res.Cores[2].Instructions).To(Equal(uint64(12512)))
			Expect(res.Cores[3].Instructions).To(Equal(uint64(12467)))
		})

		It("should decode every core field", func() {
			Expect(res.Cores[0]).To(Equal(report.CoreStatistics{
				Instructions:     12500,
				Reads:            8750,
				Writes:           3750,
				ExecutionCycles:  91320,
				IdleCycles:       40210,
				Misses:           412,
				MissRate:         3.296,
				Evictions:        284,
				Writebacks:       97,
				BusInvalidations: 51,
				DataTraffic:      16288,
			}))
		})

		It("should keep the miss rate as the printed percentage", func() {
			Expect(res.Cores[2].MissRate).To(BeNumerically("~", 3.35678, 1e-9))
			Expect(res.Cores[2].MissFraction()).To(BeNumerically("~", 0.0335678, 1e-9))
		})

		It("should decode the bus summary", func() {
			Expect(res.Bus).To(Equal(report.BusStatistics{
				Transactions: 1816,
				Traffic:      64864,
				MaxExecTime:  134620,
			}))
		})
	})

	It("should accept core blocks in any order", func() {
		text := loadSample()
		core0 := text[strings.Index(text, "Core 0"):strings.Index(text, "Core 1")]
		text = strings.Replace(text, core0, "", 1)
		text = strings.Replace(text, "Overall Bus Summary:", core0+"Overall Bus Summary:", 1)

		res, err := report.ParseString(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Cores[0].Instructions).To(Equal(uint64(12500)))
		Expect(res.Cores[3].Instructions).To(Equal(uint64(12467)))
	})

	It("should leave optional fields zero when they are absent", func() {
		text := dropLines(loadSample(), "Cache Evictions:", "Writebacks:", "Trace Prefix:")

		res, err := report.ParseString(text)
		Expect(err).NotTo(HaveOccurred())
		Expect(res.TracePrefix).To(BeEmpty())
		Expect(res.Cores[1].Evictions).To(BeZero())
		Expect(res.Cores[1].Writebacks).To(BeZero())
	})

	Describe("failures", func() {
		It("should fail when a core block is missing", func() {
			_, err := report.ParseString(dropCoreBlock(loadSample(), "2"))
			perr := expectParseError(err)
			Expect(perr.Section).To(Equal("core 2"))
			Expect(err).To(MatchError(ContainSubstring(`"Core 2 Statistics:" not found`)))
		})

		It("should fail when a bus line is absent", func() {
			_, err := report.ParseString(dropLines(loadSample(), "Maximum Execution Time"))
			perr := expectParseError(err)
			Expect(perr.Section).To(Equal("bus"))
			Expect(perr.Field).To(Equal("max execution time"))
			Expect(perr.Line).To(BeZero())
		})

		It("should fail when the bus summary heading is absent", func() {
			_, err := report.ParseString(dropLines(loadSample(), "Overall Bus Summary:"))
			perr := expectParseError(err)
			Expect(perr.Section).To(Equal("bus"))
		})

		It("should fail when a configuration label is absent", func() {
			_, err := report.ParseString(dropLines(loadSample(), "Block Bits:"))
			perr := expectParseError(err)
			Expect(perr.Section).To(Equal("parameters"))
			Expect(perr.Field).To(Equal("block bits"))
		})

		It("should fail when a core field is absent", func() {
			text := strings.Replace(loadSample(), "Idle Cycles: 39002\n", "", 1)
			_, err := report.ParseString(text)
			perr := expectParseError(err)
			Expect(perr.Section).To(Equal("core 2"))
			Expect(perr.Field).To(Equal("idle cycles"))
		})

		It("should name the line of a token that does not decode", func() {
			text := strings.Replace(loadSample(), "Total Reads: 8690", "Total Reads: many", 1)
			_, err := report.ParseString(text)
			perr := expectParseError(err)
			Expect(perr.Section).To(Equal("core 1"))
			Expect(perr.Field).To(Equal("reads"))
			Expect(perr.Line).To(Equal(29))
			Expect(err).To(MatchError(ContainSubstring(`"many"`)))
		})

		It("should fail when a token is missing from its line", func() {
			text := strings.Replace(loadSample(), "Cache Size (KB per core): 4.00", "Cache Size (KB per core):", 1)
			_, err := report.ParseString(text)
			perr := expectParseError(err)
			Expect(perr.Field).To(Equal("cache size"))
			Expect(perr.Line).To(Equal(8))
		})

		It("should reject a negative counter", func() {
			text := strings.Replace(loadSample(), "Cache Misses: 405", "Cache Misses: -405", 1)
			_, err := report.ParseString(text)
			Expect(expectParseError(err).Field).To(Equal("cache misses"))
		})

		It("should reject a duplicated core heading", func() {
			text := strings.Replace(loadSample(), "Core 3 Statistics:", "Core 1 Statistics:", 1)
			_, err := report.ParseString(text)
			perr := expectParseError(err)
			Expect(perr.Section).To(Equal("core 1"))
			Expect(perr.Line).To(BeNumerically(">", 0))
		})

		It("should reject a core index the simulator does not have", func() {
			text := strings.Replace(loadSample(), "Core 3 Statistics:", "Core 4 Statistics:", 1)
			_, err := report.ParseString(text)
			Expect(err).To(MatchError(ContainSubstring("core 4 out of range")))
		})

		It("should report the path of a file that cannot be opened", func() {
			_, err := report.ParseFile(filepath.Join("testdata", "missing.txt"))
			perr := expectParseError(err)
			Expect(perr.Path).To(HaveSuffix("missing.txt"))
			Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
		})

		It("should return a zero result with an error", func() {
			res, err := report.ParseString(dropLines(loadSample(), "Total Bus Traffic"))
			Expect(err).To(HaveOccurred())
			Expect(res).To(Equal(report.SimulationResult{}))
		})
	})
})

var _ = Describe("Write", func() {
	It("should reproduce the simulator's layout", func() {
		res, err := report.ParseFile(samplePath)
		Expect(err).NotTo(HaveOccurred())

		var buf bytes.Buffer
		Expect(report.Write(&buf, res)).To(Succeed())
		Expect(buf.String()).To(Equal(loadSample()))
	})

	It("should be read back by Parse", func() {
		cfg, err := geometry.Derive(16, 4, 64)
		Expect(err).NotTo(HaveOccurred())

		res := report.SimulationResult{TracePrefix: "app2", Config: cfg}
		for i := range res.Cores {
			res.Cores[i] = report.CoreStatistics{
				Instructions: uint64(100 * (i + 1)),
				Misses:       uint64(i),
				MissRate:     float64(i) * 1.5,
				DataTraffic:  uint64(64 * i),
			}
		}
		res.Bus = report.BusStatistics{Transactions: 6, Traffic: 384, MaxExecTime: 999}

		var buf bytes.Buffer
		Expect(report.Write(&buf, res)).To(Succeed())

		back, err := report.Parse(&buf)
		Expect(err).NotTo(HaveOccurred())
		Expect(back).To(Equal(res))
	})

	DescribeTable("keeps only the first token of the trace prefix",
		func(prefix, want string) {
			res := report.SimulationResult{TracePrefix: prefix, Config: geometry.Default()}

			var buf bytes.Buffer
			Expect(report.Write(&buf, res)).To(Succeed())

			back, err := report.Parse(&buf)
			Expect(err).NotTo(HaveOccurred())
			Expect(back.TracePrefix).To(Equal(want))
			Expect(back.Config).To(Equal(res.Config))
		},
		Entry("single token", "traces/app1", "traces/app1"),
		Entry("empty", "", ""),
		Entry("with spaces", "my traces/app1", "my"),
	)
})
