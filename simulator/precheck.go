package simulator

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/sarchlab/l1sweep/geometry"
)

// TracePath returns the trace file the simulator reads for a core.
func TracePath(tracePrefix string, core int) string {
	return fmt.Sprintf("%s_proc%d.trace", tracePrefix, core)
}

// TracePaths returns the trace files for all simulated cores, in core order.
func TracePaths(tracePrefix string) []string {
	paths := make([]string, geometry.NumCores)
	for i := range paths {
		paths[i] = TracePath(tracePrefix, i)
	}
	return paths
}

// AvailableTraces lists the trace files of the prefix that exist.
func AvailableTraces(tracePrefix string) []string {
	var available []string
	for _, p := range TracePaths(tracePrefix) {
		if isRegularFile(p) {
			available = append(available, p)
		}
	}
	return available
}

// MissingTraces lists the trace files of the prefix that do not exist.
func MissingTraces(tracePrefix string) []string {
	var missing []string
	for _, p := range TracePaths(tracePrefix) {
		if !isRegularFile(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

// ResolveExecutable returns the path the executable would be started from.
// Names without a path separator are looked up in PATH.
func ResolveExecutable(executable string) (string, error) {
	if executable == "" {
		return "", &PrecheckError{
			Kind: "executable",
			Path: executable,
			Err:  errors.New("no simulator configured"),
		}
	}

	if !strings.ContainsRune(executable, os.PathSeparator) {
		path, err := exec.LookPath(executable)
		if err != nil {
			return "", &PrecheckError{Kind: "executable", Path: executable, Err: err}
		}
		return path, nil
	}

	info, err := os.Stat(executable)
	if err != nil {
		return "", &PrecheckError{Kind: "executable", Path: executable, Err: err}
	}

	if info.IsDir() || info.Mode().Perm()&0o111 == 0 {
		return "", &PrecheckError{
			Kind: "executable",
			Path: executable,
			Err:  errors.New("not an executable file"),
		}
	}

	return executable, nil
}

// Precheck verifies that the simulator and every trace file exist. It
// returns the first missing path as a *PrecheckError.
func Precheck(executable, tracePrefix string) error {
	if _, err := ResolveExecutable(executable); err != nil {
		return err
	}

	for _, p := range TracePaths(tracePrefix) {
		info, err := os.Stat(p)
		if err != nil {
			return &PrecheckError{Kind: "trace", Path: p, Err: err}
		}

		if !info.Mode().IsRegular() {
			return &PrecheckError{
				Kind: "trace",
				Path: p,
				Err:  errors.New("not a regular file"),
			}
		}
	}

	return nil
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
