package simulator_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/l1sweep/geometry"
	"github.com/sarchlab/l1sweep/simulator"
)

// writeScript creates an executable shell script standing in for the
// simulator.
func writeScript(dir, name, body string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755)).To(Succeed())
	return path
}

const writeReportScript = `out=""
while [ $# -gt 0 ]; do
  case "$1" in
    -o) out="$2"; shift 2 ;;
    *) shift ;;
  esac
done
echo "Simulation completed."
echo "report" > "$out"
`

var _ = Describe("Args", func() {
	It("should order the flags the way the simulator expects", func() {
		cfg, err := geometry.Derive(8, 4, 64)
		Expect(err).NotTo(HaveOccurred())

		Expect(simulator.Args(cfg, "traces/app1", "out.txt")).To(Equal([]string{
			"-t", "traces/app1",
			"-s", "5",
			"-E", "4",
			"-b", "6",
			"-o", "out.txt",
		}))
	})
})

var _ = Describe("ExecRunner", func() {
	var (
		tempDir string
		cfg     geometry.CacheConfig
		out     string
	)

	BeforeEach(func() {
		var err error
		tempDir, err = os.MkdirTemp("", "simulator-runner-*")
		Expect(err).NotTo(HaveOccurred())

		cfg = geometry.Default()
		out = filepath.Join(tempDir, "report.txt")
	})

	AfterEach(func() {
		_ = os.RemoveAll(tempDir)
	})

	It("should run the simulator and leave the report behind", func() {
		exe := writeScript(tempDir, "sim", writeReportScript)
		runner := simulator.NewExecRunner(exe, 0)

		info, err := runner.Run(context.Background(), cfg, "app1", out)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.ExitCode).To(Equal(0))
		Expect(info.Args[0]).To(Equal(exe))
		Expect(info.Args[1:]).To(Equal(simulator.Args(cfg, "app1", out)))
		Expect(info.Stdout).To(ContainSubstring("Simulation completed."))
		Expect(out).To(BeARegularFile())
	})

	It("should report a non-zero exit with its code and stderr", func() {
		exe := writeScript(tempDir, "sim", "echo 'Cannot open app1_proc0.trace' >&2\nexit 3\n")
		runner := simulator.NewExecRunner(exe, 0)

		info, err := runner.Run(context.Background(), cfg, "app1", out)
		var execErr *simulator.ProcessExecutionError
		Expect(errors.As(err, &execErr)).To(BeTrue())
		Expect(execErr.ExitCode).To(Equal(3))
		Expect(execErr.Stderr).To(ContainSubstring("Cannot open app1_proc0.trace"))
		Expect(info.ExitCode).To(Equal(3))
	})

	It("should fail when the simulator cannot be started", func() {
		runner := simulator.NewExecRunner(filepath.Join(tempDir, "missing"), 0)

		_, err := runner.Run(context.Background(), cfg, "app1", out)
		var execErr *simulator.ProcessExecutionError
		Expect(errors.As(err, &execErr)).To(BeTrue())
		Expect(execErr.ExitCode).To(Equal(-1))
		Expect(errors.Is(err, os.ErrNotExist)).To(BeTrue())
	})

	It("should fail when a zero exit leaves no report", func() {
		exe := writeScript(tempDir, "sim", "exit 0\n")
		runner := simulator.NewExecRunner(exe, 0)

		_, err := runner.Run(context.Background(), cfg, "app1", out)
		Expect(err).To(BeAssignableToTypeOf(&simulator.ProcessExecutionError{}))
		Expect(err).To(MatchError(ContainSubstring("report not written")))
	})

	It("should not accept a stale report from an earlier run", func() {
		Expect(os.WriteFile(out, []byte("old"), 0o644)).To(Succeed())
		exe := writeScript(tempDir, "sim", "exit 0\n")
		runner := simulator.NewExecRunner(exe, 0)

		_, err := runner.Run(context.Background(), cfg, "app1", out)
		Expect(err).To(HaveOccurred())
		Expect(out).NotTo(BeAnExistingFile())
	})

	It("should kill a run that exceeds the timeout", func() {
		exe := writeScript(tempDir, "sim", "exec sleep 10\n")
		runner := simulator.NewExecRunner(exe, 100*time.Millisecond)

		start := time.Now()
		_, err := runner.Run(context.Background(), cfg, "app1", out)
		Expect(time.Since(start)).To(BeNumerically("<", 5*time.Second))

		var timeoutErr *simulator.TimeoutError
		Expect(errors.As(err, &timeoutErr)).To(BeTrue())
		Expect(timeoutErr.Limit).To(Equal(100 * time.Millisecond))
	})

	It("should keep a clean exit whose output drains past the timeout", func() {
		// The background sleep holds stdout open after the simulator exits,
		// so Wait returns only after the deadline has passed.
		exe := writeScript(tempDir, "sim", writeReportScript+"sleep 0.5 &\nexit 0\n")
		runner := simulator.NewExecRunner(exe, 50*time.Millisecond)

		info, err := runner.Run(context.Background(), cfg, "app1", out)
		Expect(err).NotTo(HaveOccurred())
		Expect(info.ExitCode).To(Equal(0))
		Expect(info.WallTime).To(BeNumerically(">", 50*time.Millisecond))
		Expect(out).To(BeARegularFile())
	})

	It("should stop when the caller cancels", func() {
		exe := writeScript(tempDir, "sim", "exec sleep 10\n")
		runner := simulator.NewExecRunner(exe, time.Minute)

		ctx, cancel := context.WithCancel(context.Background())
		time.AfterFunc(100*time.Millisecond, cancel)

		_, err := runner.Run(ctx, cfg, "app1", out)
		Expect(errors.Is(err, context.Canceled)).To(BeTrue())
	})
})
