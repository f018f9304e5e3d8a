package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	sim "github.com/wastesim/wastesim/sim"
)

var (
	// CLI flags for the simulation run
	configPath  string // YAML scenario file; empty uses the built-in default city
	seed        int64  // Seed for waste generation, travel jitter and plates
	days        int    // Number of simulated days to run
	logMode     string // Log verbosity mode (normal, debug)
	tickMillis  int    // Wall-clock milliseconds per simulated minute in realtime mode
	realtime    bool   // Pace ticks against wall-clock time with interactive control
	snapshotOut string // Path to write an engine snapshot after the run
	reportOut   string // Path to write the final report
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "wastesim",
	Short: "Time-stepped simulator for city-scale waste collection logistics",
}

// runCmd executes a simulation from configuration
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the waste collection simulation",
}

// runMain is assigned to runCmd.Run in init; declaring it in the
// composite literal above would create an initialization cycle
// (runCmd -> loadConfig -> seedFlagSet -> runCmd).
func runMain(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	s, err := sim.NewSimulator(cfg)
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	logrus.Infof("starting simulation: seed=%d, %d zone(s), %d station(s), %d small vehicle(s)",
		cfg.Seed, len(cfg.Zones), len(cfg.Stations), len(s.SmallFleet))
	drive(s)
}

// resumeCmd restarts a simulation from a snapshot file
var resumeCmd = &cobra.Command{
	Use:   "resume <snapshot.yaml>",
	Short: "Resume a simulation from a saved snapshot",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		sn, err := sim.LoadSnapshot(args[0])
		if err != nil {
			logrus.Fatalf("cannot load snapshot: %v", err)
		}
		s, err := sim.Restore(sn)
		if err != nil {
			logrus.Fatalf("cannot restore snapshot: %v", err)
		}
		logrus.Infof("resuming simulation at %s", sim.FormatClock(s.Clock))
		drive(s)
	},
}

// loadConfig assembles the engine configuration from (in order of
// precedence) CLI flags, environment variables, the YAML file, defaults.
func loadConfig() sim.Config {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	if configPath == "" {
		configPath = os.Getenv("WASTESIM_CONFIG")
	}
	cfg := sim.DefaultConfig()
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			logrus.Fatalf("cannot load config: %v", err)
		}
		cfg = loaded
	}
	if env := os.Getenv("WASTESIM_SEED"); env != "" {
		v, err := strconv.ParseInt(env, 10, 64)
		if err != nil {
			logrus.Fatalf("invalid WASTESIM_SEED %q: %v", env, err)
		}
		cfg.Seed = v
	}
	if seedFlagSet() {
		cfg.Seed = seed
	}
	if logMode != "" {
		cfg.Log = sim.LogMode(logMode)
	}
	applyLogLevel(cfg.Log)
	return cfg
}

func seedFlagSet() bool {
	return runCmd.Flags().Changed("seed")
}

func applyLogLevel(mode sim.LogMode) {
	if mode == sim.LogDebug {
		logrus.SetLevel(logrus.DebugLevel)
	} else {
		logrus.SetLevel(logrus.InfoLevel)
	}
}

// drive runs the simulator to completion, either as fast as possible or
// paced against wall-clock time with interactive control.
func drive(s *sim.Simulator) {
	start := time.Now()
	if realtime {
		runInteractive(s)
	} else {
		s.RunDays(days)
	}

	if st, ok := s.Stats.(*sim.Stats); ok {
		fmt.Println(st.Report())
		if reportOut != "" {
			if err := st.WriteReport(reportOut); err != nil {
				logrus.Errorf("report export failed: %v", err)
			} else {
				logrus.Infof("report written to %s", reportOut)
			}
		}
	}
	if snapshotOut != "" {
		if err := s.Snapshot().Save(snapshotOut); err != nil {
			logrus.Errorf("snapshot export failed: %v", err)
		} else {
			logrus.Infof("snapshot written to %s", snapshotOut)
		}
	}
	logrus.Infof("simulation complete in %s", time.Since(start).Round(time.Millisecond))
}

// runInteractive paces the simulation and reads control commands from
// stdin: pause, resume, report, save <path>, stop.
func runInteractive(s *sim.Simulator) {
	runner := sim.NewRunner(s, time.Duration(tickMillis)*time.Millisecond)
	if err := runner.Start(); err != nil {
		logrus.Fatalf("cannot start simulation: %v", err)
	}
	defer runner.Stop()

	fmt.Println("commands: pause | resume | report | save <path> | stop")
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "pause":
			runner.Pause()
		case "resume":
			runner.Resume()
		case "report":
			fmt.Println(runner.Report())
		case "save":
			if len(fields) < 2 {
				fmt.Println("usage: save <path>")
				continue
			}
			if err := runner.Snapshot().Save(fields[1]); err != nil {
				logrus.Errorf("save failed: %v", err)
			} else {
				fmt.Printf("snapshot written to %s\n", fields[1])
			}
		case "stop":
			return
		default:
			fmt.Printf("unknown command %q\n", fields[0])
		}
	}
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Run = runMain
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to a YAML scenario file")
	runCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for waste generation, travel jitter and plates")
	runCmd.Flags().IntVar(&days, "days", 1, "Number of simulated days to run")
	runCmd.Flags().StringVar(&logMode, "log", "", "Log mode (normal, debug)")
	runCmd.Flags().IntVar(&tickMillis, "tick-ms", 100, "Wall-clock milliseconds per simulated minute (realtime mode)")
	runCmd.Flags().BoolVar(&realtime, "realtime", false, "Pace ticks against wall-clock time with stdin control")
	runCmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "Write an engine snapshot here after the run")
	runCmd.Flags().StringVar(&reportOut, "report-out", "", "Write the final report here")

	resumeCmd.Flags().IntVar(&days, "days", 1, "Total simulated days to run to")
	resumeCmd.Flags().IntVar(&tickMillis, "tick-ms", 100, "Wall-clock milliseconds per simulated minute (realtime mode)")
	resumeCmd.Flags().BoolVar(&realtime, "realtime", false, "Pace ticks against wall-clock time with stdin control")
	resumeCmd.Flags().StringVar(&snapshotOut, "snapshot-out", "", "Write an engine snapshot here after the run")
	resumeCmd.Flags().StringVar(&reportOut, "report-out", "", "Write the final report here")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resumeCmd)
}
