package simulator_test

import (
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/l1sweep/simulator"
)

var _ = Describe("Precheck", func() {
	var (
		tempDir string
		exe     string
		prefix  string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "simulator-precheck-*")
		Expect(err).NotTo(HaveOccurred())

		exe = writeScript(tempDir, "L1simulate", "exit 0\n")
		prefix = filepath.Join(tempDir, "app1")
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	writeTraces := func(cores ...int) {
		for _, c := range cores {
			path := simulator.TracePath(prefix, c)
			Expect(os.WriteFile(path, []byte("R 0x1000\n"), 0o644)).To(Succeed())
		}
	}

	It("should name the per-core trace files", func() {
		Expect(simulator.TracePaths("app1")).To(Equal([]string{
			"app1_proc0.trace",
			"app1_proc1.trace",
			"app1_proc2.trace",
			"app1_proc3.trace",
		}))
	})

	It("should pass when the simulator and all traces exist", func() {
		writeTraces(0, 1, 2, 3)
		Expect(simulator.Precheck(exe, prefix)).To(Succeed())
		Expect(simulator.AvailableTraces(prefix)).To(HaveLen(4))
		Expect(simulator.MissingTraces(prefix)).To(BeEmpty())
	})

	It("should name a missing trace file", func() {
		writeTraces(0, 1, 3)

		err := simulator.Precheck(exe, prefix)
		var preErr *simulator.PrecheckError
		Expect(errors.As(err, &preErr)).To(BeTrue())
		Expect(preErr.Kind).To(Equal("trace"))
		Expect(preErr.Path).To(Equal(simulator.TracePath(prefix, 2)))
		Expect(simulator.MissingTraces(prefix)).To(Equal([]string{
			simulator.TracePath(prefix, 2),
		}))
	})

	It("should name a missing executable before looking at traces", func() {
		missing := filepath.Join(tempDir, "nope")

		err := simulator.Precheck(missing, prefix)
		var preErr *simulator.PrecheckError
		Expect(errors.As(err, &preErr)).To(BeTrue())
		Expect(preErr.Kind).To(Equal("executable"))
		Expect(preErr.Path).To(Equal(missing))
	})

	It("should reject a file without execute permission", func() {
		plain := filepath.Join(tempDir, "plain")
		Expect(os.WriteFile(plain, []byte("x"), 0o644)).To(Succeed())

		_, err := simulator.ResolveExecutable(plain)
		Expect(err).To(MatchError(ContainSubstring("not an executable file")))
	})

	It("should look up bare names in PATH", func() {
		_, err := simulator.ResolveExecutable("l1sweep-definitely-not-installed")
		Expect(err).To(BeAssignableToTypeOf(&simulator.PrecheckError{}))
	})
})
