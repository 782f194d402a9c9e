// Command storeload runs load, stress, spike, and endurance tests against
// an e-commerce deployment and writes HTML/CSV/JSON reports with a
// pass/fail verdict.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/storeload/storeload/pkg/behavior"
	"github.com/storeload/storeload/pkg/config"
	"github.com/storeload/storeload/pkg/report"
	"github.com/storeload/storeload/pkg/runner"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	rootCmd := &cobra.Command{
		Use:           "storeload",
		Short:         "Load testing for the e-commerce microservices",
		Long:          "storeload drives synthetic shoppers against the user, product, and order services,\naggregates per-endpoint latency and error statistics, and scores the run\nagainst per-test-type objectives.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.AddCommand(newRunCmd(logger), newProbeCmd(logger), newReportCmd(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("command failed", zap.Error(err))
		os.Exit(1)
	}
}

type runFlags struct {
	host         string
	scenarioFile string
	scenarioName string
	testType     string
	users        int
	duration     time.Duration
	rampUp       time.Duration
	output       string
	statusPort   int
	seed         int64
}

func newRunCmd(logger *zap.Logger) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a test scenario and write its report",
		Long:  "Runs one scenario: a predefined one selected by --type, or a scenario from a\nYAML/JSON file. Exits non-zero when the run misses its objectives.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			scenario, err := resolveScenario(flags)
			if err != nil {
				return err
			}
			return executeRun(cmd.Context(), scenario, flags, logger)
		},
	}

	cmd.Flags().StringVar(&flags.host, "host", "http://localhost:8080", "Base URL of the API gateway")
	cmd.Flags().StringVar(&flags.scenarioFile, "scenario-file", "", "YAML or JSON scenario file")
	cmd.Flags().StringVar(&flags.scenarioName, "scenario", "", "Scenario name to run from the file (default: first enabled)")
	cmd.Flags().StringVar(&flags.testType, "type", behavior.TestTypeLoad, "Predefined test type: load, stress, spike, endurance")
	cmd.Flags().IntVar(&flags.users, "users", 0, "Override the scenario's user count")
	cmd.Flags().DurationVar(&flags.duration, "duration", 0, "Override the scenario's run duration")
	cmd.Flags().DurationVar(&flags.rampUp, "ramp-up", -1, "Override the scenario's ramp-up span")
	cmd.Flags().StringVar(&flags.output, "output", "performance_results", "Directory for report artifacts")
	cmd.Flags().IntVar(&flags.statusPort, "status-port", 0, "Serve /status and /metrics on this port during the run")
	cmd.Flags().Int64Var(&flags.seed, "seed", 0, "Randomness seed for reproducible runs (0 draws one)")
	return cmd
}

// resolveScenario picks the scenario to run: from a file when given,
// otherwise the predefined one for --type, then applies flag overrides.
func resolveScenario(flags runFlags) (config.Scenario, error) {
	var scenario config.Scenario
	if flags.scenarioFile != "" {
		scenarios, err := config.Load(flags.scenarioFile)
		if err != nil {
			return config.Scenario{}, err
		}
		found := false
		for _, s := range scenarios {
			if flags.scenarioName != "" {
				if s.Name == flags.scenarioName {
					scenario, found = s, true
					break
				}
				continue
			}
			if s.Enabled {
				scenario, found = s, true
				break
			}
		}
		if !found {
			return config.Scenario{}, fmt.Errorf("no runnable scenario in %s", flags.scenarioFile)
		}
	} else {
		s, err := config.ByType(flags.host, flags.testType)
		if err != nil {
			return config.Scenario{}, err
		}
		scenario = s
	}

	if flags.host != "" && flags.scenarioFile == "" {
		scenario.BaseURL = flags.host
	}
	if flags.users > 0 {
		scenario.Users = flags.users
	}
	if flags.duration > 0 {
		scenario.Duration = config.Duration(flags.duration)
	}
	if flags.rampUp >= 0 {
		scenario.RampUp = config.Duration(flags.rampUp)
	}
	if flags.statusPort > 0 {
		scenario.StatusPort = flags.statusPort
	}
	if flags.seed != 0 {
		scenario.Seed = flags.seed
	}
	return scenario, scenario.Validate()
}

func executeRun(ctx context.Context, scenario config.Scenario, flags runFlags, logger *zap.Logger) error {
	r, err := runner.New(scenario, runner.WithLogger(logger))
	if err != nil {
		return err
	}

	if scenario.StatusPort > 0 {
		srv, err := runner.NewStatusServer(scenario.StatusPort, r.Aggregator(), logger)
		if err != nil {
			return err
		}
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("status server shutdown", zap.Error(err))
			}
		}()
	}

	result, err := r.Run(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	rep := report.Build(scenario.Name, scenario.TestType, result.Stats, result.Trend)
	writer, err := report.NewWriter(flags.output, logger)
	if err != nil {
		return err
	}
	paths, err := writer.WriteAll(rep)
	if err != nil {
		return err
	}

	logger.Info("verdict",
		zap.String("overall", rep.Verdict.Overall),
		zap.Bool("passed", rep.Verdict.Passed),
		zap.Strings("artifacts", paths),
	)
	for _, obj := range rep.Verdict.Objectives {
		logger.Info("objective",
			zap.String("metric", obj.Metric),
			zap.Float64("actual", obj.Actual),
			zap.Float64("target", obj.Target),
			zap.String("unit", obj.Unit),
			zap.Bool("passed", obj.Passed),
		)
	}
	if !rep.Verdict.Passed {
		return fmt.Errorf("run %s missed its objectives: %s", scenario.Name, rep.Verdict.Overall)
	}
	return nil
}

func newProbeCmd(logger *zap.Logger) *cobra.Command {
	var (
		host     string
		rate     int
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Measure unloaded health-endpoint baselines",
		Long:  "Hits each service's health endpoint at a constant rate and prints the latency\nbaseline. Run this before a test to confirm the deployment is up.",
		RunE: func(_ *cobra.Command, _ []string) error {
			results, err := runner.Probe(host, rate, duration, logger)
			if err != nil {
				return err
			}
			unhealthy := 0
			for _, res := range results {
				if !res.Healthy() {
					unhealthy++
				}
			}
			out, err := json.MarshalIndent(results, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(out))
			if unhealthy > 0 {
				return fmt.Errorf("%d of %d services failed their health baseline", unhealthy, len(results))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&host, "host", "http://localhost:8080", "Base URL of the API gateway")
	cmd.Flags().IntVar(&rate, "rate", 10, "Probe requests per second per service")
	cmd.Flags().DurationVar(&duration, "duration", 10*time.Second, "Probe duration per service")
	return cmd
}

func newReportCmd(logger *zap.Logger) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "report <run.json>",
		Short: "Re-render report artifacts from a saved JSON report",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read report: %w", err)
			}
			var rep report.Report
			if err := json.Unmarshal(data, &rep); err != nil {
				return fmt.Errorf("parse report: %w", err)
			}
			if rep.Stats == nil {
				return fmt.Errorf("report %s has no statistics", args[0])
			}
			writer, err := report.NewWriter(output, logger)
			if err != nil {
				return err
			}
			paths, err := writer.WriteAll(&rep)
			if err != nil {
				return err
			}
			logger.Info("report re-rendered", zap.Strings("artifacts", paths))
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "performance_results", "Directory for report artifacts")
	return cmd
}
