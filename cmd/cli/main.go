package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"lec-simulator/internal/analysis"
	"lec-simulator/internal/config"
	"lec-simulator/internal/logging"
	"lec-simulator/internal/metrics"
	"lec-simulator/internal/model"
	"lec-simulator/internal/simulation"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// settings holds the persistent flags, overridable through LEC_* environment variables.
var settings = viper.New()

func main() {
	rootCmd := &cobra.Command{
		Use:   "lec",
		Short: "Local energy community simulator",
		Long: `lec simulates a community of buildings trading PV surplus hour by hour
and compares the cost against each building settling with the grid alone.`,
		SilenceUsage: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "path to YAML config (defaults to a synthetic dataset)")
	pf.String("log-level", "warn", "log level (debug, info, warn, error)")
	pf.String("log-format", "text", "log format (text or json)")

	settings.SetEnvPrefix("lec")
	settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	settings.AutomaticEnv()
	for _, name := range []string{"config", "log-level", "log-format"} {
		if err := settings.BindPFlag(name, pf.Lookup(name)); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	rootCmd.AddCommand(simulateCmd())
	rootCmd.AddCommand(compareCmd())
	rootCmd.AddCommand(sweepCmd())
	rootCmd.AddCommand(validateDataCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

// runFlags are the simulation parameters shared by simulate, compare and sweep.
type runFlags struct {
	size    int
	season  string
	pv      int
	sd      int
	battery bool
	seed    uint64
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&f.size, "size", "n", 20, "community size in buildings (5-100)")
	cmd.Flags().StringVarP(&f.season, "season", "s", string(model.SeasonSummer), "season (sum, win, aut, spr)")
	cmd.Flags().IntVar(&f.pv, "pv", 50, "share of buildings with PV (0-100)")
	cmd.Flags().IntVar(&f.sd, "sd", 0, "share of buildings with smart devices (0-100)")
	cmd.Flags().BoolVar(&f.battery, "battery", false, "give every building a battery")
	cmd.Flags().Uint64Var(&f.seed, "seed", 0, "random seed (defaults to the config seed)")
}

func (f *runFlags) params(cmd *cobra.Command, cfg *config.Config) model.SimulationParameters {
	seed := cfg.Seed
	if cmd.Flags().Changed("seed") {
		seed = f.seed
	}
	return model.SimulationParameters{
		CommunitySize: f.size,
		Season:        model.Season(f.season),
		PVPercentage:  f.pv,
		SDPercentage:  f.sd,
		WithBattery:   f.battery,
		Seed:          seed,
	}
}

func newLogger() *logrus.Logger {
	return logging.NewLogger(logging.Options{
		Level:  settings.GetString("log-level"),
		Format: settings.GetString("log-format"),
		Out:    os.Stderr,
	})
}

func loadConfig() (*config.Config, error) {
	path := settings.GetString("config")
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newEngine(cfg *config.Config, log logrus.FieldLogger) (*simulation.Engine, error) {
	provider, err := cfg.Provider()
	if err != nil {
		return nil, err
	}
	opts, err := cfg.EngineOptions()
	if err != nil {
		return nil, err
	}
	opts.Logger = log
	return simulation.New(provider, opts)
}

func setup() (*config.Config, *simulation.Engine, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	engine, err := newEngine(cfg, newLogger())
	if err != nil {
		return nil, nil, err
	}
	return cfg, engine, nil
}

func simulateCmd() *cobra.Command {
	var (
		rf      runFlags
		outPath string
		top     int
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Run one simulation and print its metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, err := setup()
			if err != nil {
				return err
			}
			out, err := engine.Run(cmd.Context(), rf.params(cmd, cfg))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			printSummary(w, out)
			printRanking(w, out.Result, top)

			if outPath != "" {
				if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
					return err
				}
				if err := simulation.WriteLedgerCSV(outPath, out.Ledger); err != nil {
					return err
				}
				fmt.Fprintf(w, "Wrote %d rows to %s\n", len(out.Ledger), outPath)
			}
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the hourly ledger CSV to this path")
	cmd.Flags().IntVar(&top, "top", 5, "number of buildings to list by savings (0 hides the table)")
	return cmd
}

func compareCmd() *cobra.Command {
	var rf runFlags
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Run the same community with and without batteries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, err := setup()
			if err != nil {
				return err
			}
			base := rf.params(cmd, cfg)
			without, with := base, base
			without.WithBattery, with.WithBattery = false, true

			outs, err := engine.RunMany(cmd.Context(), []model.SimulationParameters{without, with}, 2)
			if err != nil {
				return err
			}
			a, b := outs[0].Result, outs[1].Result

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-26s %14s %14s %14s\n", "metric", "no battery", "battery", "delta")
			row := func(name string, x, y float64) {
				fmt.Fprintf(w, "%-26s %14.3f %14.3f %+14.3f\n", name, x, y, y-x)
			}
			row("grid import kWh", a.EnergyMetrics.TotalGridImport, b.EnergyMetrics.TotalGridImport)
			row("grid export kWh", a.EnergyMetrics.TotalGridExport, b.EnergyMetrics.TotalGridExport)
			row("trading volume kWh", a.EnergyMetrics.TradingVolume, b.EnergyMetrics.TradingVolume)
			row("autarky", a.EnergyMetrics.Autarky, b.EnergyMetrics.Autarky)
			row("self-consumption rate", a.EnergyMetrics.SelfConsumptionRate, b.EnergyMetrics.SelfConsumptionRate)
			row("cost with LEC", a.CostMetrics.CostWithLEC, b.CostMetrics.CostWithLEC)
			row("cost without LEC", a.CostMetrics.CostWithoutLEC, b.CostMetrics.CostWithoutLEC)
			row("savings", a.CostMetrics.Savings, b.CostMetrics.Savings)
			return nil
		},
	}
	rf.register(cmd)
	return cmd
}

func sweepCmd() *cobra.Command {
	var (
		rf    runFlags
		pvs   []int
		seeds int
		jobs  int
	)
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Vary the PV share and report averaged metrics",
		RunE: func(cmd *cobra.Command, args []string) error {
			if seeds < 1 {
				return fmt.Errorf("--seeds must be >= 1, got %d", seeds)
			}
			cfg, engine, err := setup()
			if err != nil {
				return err
			}
			base := rf.params(cmd, cfg)
			seedList := make([]uint64, seeds)
			for i := range seedList {
				seedList[i] = base.Seed + uint64(i)
			}

			points, err := engine.SweepPV(cmd.Context(), base, pvs, seedList, jobs)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "%-4s %14s %14s %14s %8s %12s %12s\n", "pv%", "production", "traded", "import", "autarky", "cost LEC", "savings")
			for _, p := range points {
				fmt.Fprintf(w, "%-4d %14.2f %14.2f %14.2f %8.3f %12.2f %12.2f\n",
					p.PVPercentage, p.TotalProduction, p.TradingVolume, p.GridImport, p.Autarky, p.CostWithLEC, p.Savings)
			}

			production := simulation.NonDecreasing(points, func(p simulation.SweepPoint) float64 { return p.TotalProduction })
			autarky := simulation.NonDecreasing(points, func(p simulation.SweepPoint) float64 { return p.Autarky })
			fmt.Fprintf(w, "production non-decreasing: %t\nautarky non-decreasing:    %t\n", production, autarky)
			if !production {
				return fmt.Errorf("total production dropped as PV share increased")
			}
			return nil
		},
	}
	rf.register(cmd)
	cmd.Flags().IntSliceVar(&pvs, "pvs", []int{0, 25, 50, 75, 100}, "PV shares to sweep")
	cmd.Flags().IntVar(&seeds, "seeds", 3, "number of consecutive seeds averaged per point")
	cmd.Flags().IntVarP(&jobs, "jobs", "j", 4, "runs executed concurrently")
	return cmd
}

func validateDataCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate-data",
		Short: "Load the configured dataset and report its coverage and anomalies",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, err := setup()
			if err != nil {
				return err
			}
			ds, err := engine.Dataset(cmd.Context())
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "households:          %d\n", len(ds.Households))
			fmt.Fprintf(w, "hours:               %d\n", ds.Len())
			if n := len(ds.Timestamps); n > 0 {
				fmt.Fprintf(w, "range:               %s .. %s\n", ds.Timestamps[0].Format("2006-01-02 15:04"), ds.Timestamps[n-1].Format("2006-01-02 15:04"))
			}
			fmt.Fprintf(w, "max community size:  %d\n", min(len(ds.Households)/model.HouseholdsPerBuilding, model.MaxCommunitySize))
			for _, s := range model.Seasons {
				fmt.Fprintf(w, "season %-4s hours:   %d\n", s, ds.FilterSeason(s).Len())
			}
			if len(ds.Warnings) == 0 {
				fmt.Fprintln(w, "no warnings")
				return nil
			}
			fmt.Fprintf(w, "%d warnings:\n", len(ds.Warnings))
			for _, msg := range ds.Warnings {
				fmt.Fprintf(w, "  - %s\n", msg)
			}
			return nil
		},
	}
}

func printSummary(w io.Writer, out *simulation.Outcome) {
	r := out.Result
	e, c, m := r.EnergyMetrics, r.CostMetrics, r.MarketMetrics
	p := out.Params
	fmt.Fprintf(w, "Community of %d buildings, season %s, PV %d%%, SD %d%%, battery %t, seed %d (%d hours)\n",
		p.CommunitySize, p.Season, p.PVPercentage, p.SDPercentage, p.WithBattery, p.Seed, out.Hours)
	fmt.Fprintf(w, "Production=%.2f kWh Consumption=%.2f kWh Import=%.2f kWh Export=%.2f kWh\n",
		e.TotalProduction, e.TotalConsumption, e.TotalGridImport, e.TotalGridExport)
	fmt.Fprintf(w, "Traded=%.2f kWh in %d hours at avg %.2f ct/kWh (demand met %.1f%%, supply sold %.1f%%)\n",
		m.TradingVolume, m.ActiveHours, m.AverageClearingPrice, 100*m.RatioFulfilledDemand, 100*m.RatioSoldSupply)
	fmt.Fprintf(w, "Autarky=%.3f Self-consumption=%.3f\n", e.Autarky, e.SelfConsumptionRate)
	fmt.Fprintf(w, "Cost with LEC=%.2f without LEC=%.2f savings=%.2f\n", c.CostWithLEC, c.CostWithoutLEC, c.Savings)
	for _, msg := range r.Warnings {
		fmt.Fprintf(w, "warning: %s\n", msg)
	}
}

func printRanking(w io.Writer, r *metrics.Result, top int) {
	if top <= 0 {
		return
	}
	ranked := analysis.RankBySavings(r.TradingNetwork.Nodes, r.IndividualMetrics.CostWithLEC, r.IndividualMetrics.CostWithoutLEC)
	if top < len(ranked) {
		ranked = ranked[:top]
	}
	fmt.Fprintf(w, "%-4s %-8s %12s %12s %10s\n", "rank", "building", "with LEC", "without", "savings")
	for i, b := range ranked {
		fmt.Fprintf(w, "%-4d %-8s %12.2f %12.2f %10.2f\n", i+1, b.Node, b.CostWithLEC, b.CostWithoutLEC, b.Savings)
	}
}
