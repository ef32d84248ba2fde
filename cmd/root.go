// cmd/root.go
package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/netsim/fabric-sim/internal/config"
	"github.com/netsim/fabric-sim/internal/engine"
	"github.com/netsim/fabric-sim/internal/metrics"
)

var (
	configPath  string
	logLevel    string
	outPath     string
	metricsAddr string

	leaves, spines, serversPerLeaf int
	routingMode                    string
	seed                           int64
)

var rootCmd = &cobra.Command{
	Use:   "fabric-sim",
	Short: "Discrete-event simulator for AI-training network fabrics",
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build a fabric, run a scenario, and print the resulting metrics record",
	RunE: func(cmd *cobra.Command, args []string) error {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			return fmt.Errorf("invalid log level %q: %w", logLevel, err)
		}
		logrus.SetLevel(level)

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		applyFlagOverrides(cfg)

		if metricsAddr != "" {
			stop, err := startMetricsServer(metricsAddr)
			if err != nil {
				return err
			}
			defer stop()
		}

		logrus.Infof("starting run: leaves=%d spines=%d servers_per_leaf=%d routing=%s seed=%d",
			cfg.Topology.AIFactorySU.Leaves, cfg.Topology.AIFactorySU.Spines,
			cfg.Topology.AIFactorySU.ServersPerLeaf, cfg.Topology.Routing.Mode, cfg.Scenario.Params.Seed)

		rec, err := engine.Run(cfg)
		if err != nil {
			logrus.Errorf("run failed: %v", err)
			return err
		}
		if rec.Stalled {
			logrus.Warnf("run stalled with %d unfinished flow(s)", len(rec.Stall.UnfinishedFlows))
		}
		if metricsAddr != "" {
			publishMetrics(rec)
		}

		data, err := metrics.ToJSON(*rec)
		if err != nil {
			return fmt.Errorf("failed to serialize metrics: %w", err)
		}
		if outPath == "" || outPath == "-" {
			fmt.Println(string(data))
		} else if err := os.WriteFile(outPath, data, 0o644); err != nil {
			return fmt.Errorf("failed to write metrics to %s: %w", outPath, err)
		}

		if rec.Stalled {
			os.Exit(1)
		}
		return nil
	},
}

// applyFlagOverrides lets a handful of common topology/scenario knobs
// be set directly on the command line without editing the config
// file, taking precedence over whatever the config file (or its zero
// values) set. The --config file is still required.
func applyFlagOverrides(cfg *config.Config) {
	if leaves > 0 {
		cfg.Topology.AIFactorySU.Leaves = leaves
	}
	if spines > 0 {
		cfg.Topology.AIFactorySU.Spines = spines
	}
	if serversPerLeaf > 0 {
		cfg.Topology.AIFactorySU.ServersPerLeaf = serversPerLeaf
	}
	if routingMode != "" {
		cfg.Topology.Routing.Mode = routingMode
	}
	if seed != 0 {
		cfg.Scenario.Params.Seed = seed
	}
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to the YAML run configuration (required)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (debug, info, warn, error)")
	runCmd.Flags().StringVar(&outPath, "out", "-", "Path to write the JSON metrics record to (\"-\" for stdout)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Optional host:port to serve Prometheus metrics on; the gauges are set from the finished run's record")

	runCmd.Flags().IntVar(&leaves, "leaves", 0, "Override topology.ai_factory_su.leaves")
	runCmd.Flags().IntVar(&spines, "spines", 0, "Override topology.ai_factory_su.spines")
	runCmd.Flags().IntVar(&serversPerLeaf, "servers-per-leaf", 0, "Override topology.ai_factory_su.servers_per_leaf")
	runCmd.Flags().StringVar(&routingMode, "routing", "", "Override topology.routing.mode (ecmp, adaptive, flowlet)")
	runCmd.Flags().Int64Var(&seed, "seed", 0, "Override scenario.params.seed")

	_ = runCmd.MarkFlagRequired("config")

	rootCmd.AddCommand(runCmd)
}
