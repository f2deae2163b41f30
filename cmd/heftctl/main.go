// Command heftctl plans a task graph with the HEFT scheduler and prints
// the resulting schedule, following the root-command-plus-subcommands
// shape cmd/ollamacron uses in the teacher repo, scoped down to this
// scheduler's surface.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/internal/config"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/graph"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/heft"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/logging"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/metrics"
	"github.com/khryptorgraphics/ollamamax/ollama-distributed/pkg/types"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	debug    bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "heftctl",
		Short:        "heftctl plans and inspects HEFT schedules",
		Version:      "dev",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(buildPlanCmd(), buildVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("heftctl: %v", err))
		os.Exit(1)
	}
}

// workload is the on-disk JSON shape heftctl plan reads: a list of tasks
// and profiles plus a resource pool.
type workload struct {
	Tasks     []types.Task                        `json:"tasks"`
	Profiles  map[string]*types.TaskProfile        `json:"profiles"`
	Resources []types.Resource                     `json:"resources"`
	CommLinks map[string]map[string]types.CommLink `json:"comm_links,omitempty"`
}

func buildPlanCmd() *cobra.Command {
	var inputPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Plan a task graph from a JSON workload description",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(inputPath)
		},
	}
	cmd.Flags().StringVar(&inputPath, "input", "", "path to a workload JSON file (required)")
	cmd.MarkFlagRequired("input")
	return cmd
}

func buildVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print heftctl's version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("heftctl dev")
		},
	}
}

func runPlan(inputPath string) error {
	runID := uuid.NewString()
	logger, err := logging.Configure(logging.Options{Level: logLevel, Debug: debug}, "heftctl")
	if err != nil {
		return fmt.Errorf("heftctl: %w", err)
	}
	logger = logger.With().Str("run_id", runID).Logger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		logger.Warn().Err(err).Msg("falling back to default configuration")
		cfg = config.Default()
	}

	wl, err := loadWorkload(inputPath)
	if err != nil {
		return fmt.Errorf("heftctl: %w", err)
	}

	g, err := graph.New(wl.Tasks)
	if err != nil {
		return fmt.Errorf("heftctl: invalid task graph: %w", err)
	}

	matrix := buildMatrix(wl.CommLinks)

	var reg *metrics.Registry
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
	}

	result, err := heft.Plan(g, wl.Profiles, wl.Resources, matrix, reg)
	if err != nil {
		return fmt.Errorf("heftctl: planning failed: %w", err)
	}

	printSchedule(logger, result, cfg)
	return nil
}

func loadWorkload(path string) (*workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload: %w", err)
	}
	var wl workload
	if err := json.Unmarshal(data, &wl); err != nil {
		return nil, fmt.Errorf("parsing workload: %w", err)
	}
	return &wl, nil
}

func buildMatrix(links map[string]map[string]types.CommLink) *types.CommMatrix {
	if len(links) == 0 {
		return nil
	}
	matrix := types.NewCommMatrix()
	for srcStr, dsts := range links {
		var src int
		fmt.Sscanf(srcStr, "%d", &src)
		for dstStr, link := range dsts {
			var dst int
			fmt.Sscanf(dstStr, "%d", &dst)
			matrix.Set(src, dst, link)
		}
	}
	return matrix
}

func printSchedule(logger zerolog.Logger, result *heft.Result, cfg *config.Config) {
	fmt.Println(color.HiCyanString("schedule"))
	for _, st := range result.Tasks {
		fmt.Printf("  %-12s resource=%-3d start=%-8.2f finish=%-8.2f\n", st.TaskID, st.ResourceID, st.Start, st.Finish)
	}
	fmt.Printf("%s %.2f\n", color.YellowString("makespan:"), result.Makespan)
	fmt.Printf("%s %.2f J\n", color.YellowString("total energy:"), result.TotalEnergyJ)
	fmt.Printf("%s %v\n", color.YellowString("critical path:"), result.CriticalPath)

	logger.Info().
		Float64("makespan_s", result.Makespan).
		Float64("energy_j", result.TotalEnergyJ).
		Int("policy_workers", cfg.Runtime.Workers).
		Msg("plan complete")
}
