package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/l1sweep/config"
	"github.com/sarchlab/l1sweep/simulator"
	"github.com/sarchlab/l1sweep/store"
	"github.com/sarchlab/l1sweep/sweep"
)

var rootCmd = &cobra.Command{
	Use:   "l1sweep",
	Short: "l1sweep runs the L1 cache simulator over ranges of cache parameters.",
	Long: `l1sweep runs the L1simulate cache simulator over ranges of cache ` +
		`sizes, associativities and block sizes, parses the reports it ` +
		`writes, and summarizes repeated runs. Settings come from a JSON ` +
		`file (--config), a .env file, L1SWEEP_* variables and flags.`,
	SilenceUsage: true,
}

var (
	configPath string
	envPath    string
	verbose    bool
)

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&configPath, "config", "", "JSON configuration file")
	f.StringVar(&envPath, "env", ".env", "dotenv file with L1SWEEP_* overrides")
	f.String("simulator", "", "simulator executable")
	f.StringP("trace-prefix", "t", "", "trace prefix, reads <prefix>_proc<i>.trace")
	f.String("output-dir", "", "directory for simulator reports")
	f.String("timeout", "", "limit for one simulator run, e.g. 2m; 0 disables")
	f.String("db", "", "SQLite result store; empty disables it")
	f.BoolVarP(&verbose, "verbose", "v", false, "log the start and end of every run")
}

// exitf prints a diagnostic and exits through atexit so stores are flushed.
func exitf(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	atexit.Exit(code)
}

// loadConfig layers defaults, the config file, the environment and the
// flags that were set on the command line.
func loadConfig(cmd *cobra.Command) *config.Config {
	cfg, err := config.Load(configPath, envPath)
	if err != nil {
		exitf(2, "Error loading config: %v", err)
	}

	flags := map[string]*string{
		"simulator":    &cfg.Simulator,
		"trace-prefix": &cfg.TracePrefix,
		"output-dir":   &cfg.OutputDir,
		"timeout":      &cfg.Timeout,
		"db":           &cfg.DatabasePath,
		"chart-dir":    &cfg.ChartDir,
		"chart-format": &cfg.ChartFormat,
		"table":        &cfg.TablePath,
	}
	for name, dst := range flags {
		if cmd.Flags().Lookup(name) != nil && cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}

	if cmd.Flags().Lookup("runs") != nil && cmd.Flags().Changed("runs") {
		cfg.Runs, _ = cmd.Flags().GetInt("runs")
	}

	if err := cfg.Validate(); err != nil {
		exitf(2, "Invalid config: %v", err)
	}

	return cfg
}

// session is what a running command needs: settings, an orchestrator wired
// to the real simulator, and the optional result store.
type session struct {
	cfg   *config.Config
	orch  *sweep.Orchestrator
	store *store.Store
}

func newSession(cmd *cobra.Command) *session {
	cfg := loadConfig(cmd)

	if err := simulator.Precheck(cfg.Simulator, cfg.TracePrefix); err != nil {
		exitf(1, "Error: %v", err)
	}

	timeout, _ := cfg.TimeoutDuration()
	runner := simulator.NewExecRunner(cfg.Simulator, timeout)

	orch := sweep.NewOrchestrator(runner, cfg.TracePrefix,
		sweep.WithOutputDir(cfg.OutputDir),
		sweep.WithDefaults(cfg.Defaults))
	orch.AcceptHook(sweep.NewLogHook(log.New(os.Stderr, "", log.LstdFlags), verbose))

	s := &session{cfg: cfg, orch: orch}

	if cfg.DatabasePath != "" {
		st, err := store.Open(cfg.DatabasePath, cfg.TracePrefix)
		if err != nil {
			exitf(1, "Error: %v", err)
		}

		orch.AcceptHook(store.NewRecordingHook(st))
		atexit.Register(func() { _ = st.Close() })

		fmt.Fprintf(os.Stderr, "Recording results to %s (session %s)\n",
			st.Path(), st.Session())
		s.store = st
	}

	return s
}

func (s *session) sessionID() string {
	if s.store == nil {
		return ""
	}
	return s.store.Session()
}
