// Package simulator invokes the external L1 cache simulator.
//
// The simulator is treated as a black box with a fixed command line:
//
//	L1simulate -t <trace prefix> -s <set index bits> -E <associativity> \
//	    -b <block bits> -o <report path>
//
// It reads one trace file per core, <prefix>_proc<i>.trace, and writes a text
// report to the -o path.
package simulator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/process"

	"github.com/sarchlab/l1sweep/geometry"
)

// RunInfo describes one finished simulator invocation.
type RunInfo struct {
	// Args is the full argument vector, executable first.
	Args []string

	// ExitCode is -1 if the process did not run to completion.
	ExitCode int

	// WallTime is the time from start to exit.
	WallTime time.Duration

	// PeakRSS is the largest resident set size observed while the process
	// ran, in bytes. Zero when sampling was disabled or unavailable.
	PeakRSS uint64

	// Stdout is the simulator's console output.
	Stdout string
}

// Runner runs the simulator once for a cache configuration, writing the
// report to outputPath.
type Runner interface {
	Run(
		ctx context.Context,
		cfg geometry.CacheConfig,
		tracePrefix, outputPath string,
	) (RunInfo, error)
}

// Args builds the simulator's argument vector, without the executable.
func Args(cfg geometry.CacheConfig, tracePrefix, outputPath string) []string {
	return []string{
		"-t", tracePrefix,
		"-s", strconv.FormatUint(uint64(cfg.SetIndexBits), 10),
		"-E", strconv.Itoa(cfg.Associativity),
		"-b", strconv.FormatUint(uint64(cfg.BlockBits), 10),
		"-o", outputPath,
	}
}

// ExecRunner runs a simulator binary as a child process.
type ExecRunner struct {
	// Executable is the simulator path or a name resolved through PATH.
	Executable string

	// Dir is the working directory of the child; empty means the current
	// directory.
	Dir string

	// Timeout bounds a single invocation. Zero means no limit.
	Timeout time.Duration

	// SampleInterval is how often the child's memory is sampled. Zero
	// disables sampling.
	SampleInterval time.Duration
}

// waitDelay bounds how long Wait keeps draining output after the child is
// killed.
const waitDelay = 2 * time.Second

// DefaultSampleInterval is the RSS sampling period used by NewExecRunner.
const DefaultSampleInterval = 50 * time.Millisecond

// NewExecRunner creates an ExecRunner for the given executable.
func NewExecRunner(executable string, timeout time.Duration) *ExecRunner {
	return &ExecRunner{
		Executable:     executable,
		Timeout:        timeout,
		SampleInterval: DefaultSampleInterval,
	}
}

// Run executes the simulator and waits for it to exit.
func (r *ExecRunner) Run(
	ctx context.Context,
	cfg geometry.CacheConfig,
	tracePrefix, outputPath string,
) (RunInfo, error) {
	args := Args(cfg, tracePrefix, outputPath)
	info := RunInfo{
		Args:     append([]string{r.Executable}, args...),
		ExitCode: -1,
	}

	// A stale report from an earlier run must not pass for this one.
	if err := os.Remove(outputPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return info, &ProcessExecutionError{Args: info.Args, ExitCode: -1, Err: err}
	}

	runCtx := ctx
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, r.Executable, args...)
	cmd.Dir = r.Dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	if err := cmd.Start(); err != nil {
		return info, &ProcessExecutionError{Args: info.Args, ExitCode: -1, Err: err}
	}

	sampler := sampleRSS(cmd.Process.Pid, r.SampleInterval)
	waitErr := cmd.Wait()
	info.PeakRSS = sampler.stop()
	info.WallTime = time.Since(start)
	info.Stdout = stdout.String()
	if cmd.ProcessState != nil {
		info.ExitCode = cmd.ProcessState.ExitCode()
	}

	// A clean exit stands even if the deadline or a cancel lands just after.
	if waitErr != nil {
		if ctx.Err() != nil {
			return info, &ProcessExecutionError{
				Args:     info.Args,
				ExitCode: info.ExitCode,
				Stderr:   stderr.String(),
				Err:      ctx.Err(),
			}
		}

		if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
			return info, &TimeoutError{Args: info.Args, Limit: r.Timeout}
		}

		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			waitErr = nil
		}

		return info, &ProcessExecutionError{
			Args:     info.Args,
			ExitCode: info.ExitCode,
			Stderr:   stderr.String(),
			Err:      waitErr,
		}
	}

	if _, err := os.Stat(outputPath); err != nil {
		return info, &ProcessExecutionError{
			Args:     info.Args,
			ExitCode: info.ExitCode,
			Stderr:   stderr.String(),
			Err:      fmt.Errorf("report not written: %w", err),
		}
	}

	return info, nil
}

type rssSampler struct {
	done chan struct{}
	wg   sync.WaitGroup
	peak uint64
}

// sampleRSS polls the resident set size of pid until stop is called.
func sampleRSS(pid int, interval time.Duration) *rssSampler {
	s := &rssSampler{done: make(chan struct{})}
	if interval <= 0 {
		return s
	}

	proc, err := process.NewProcess(int32(pid))
	if err != nil {
		return s
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			if mem, err := proc.MemoryInfo(); err == nil && mem.RSS > s.peak {
				s.peak = mem.RSS
			}

			select {
			case <-s.done:
				return
			case <-ticker.C:
			}
		}
	}()

	return s
}

func (s *rssSampler) stop() uint64 {
	close(s.done)
	s.wg.Wait()
	return s.peak
}
