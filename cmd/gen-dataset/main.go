package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"lec-simulator/internal/data"

	"github.com/spf13/cobra"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	defaults := data.DefaultSyntheticOptions()
	var (
		households int
		days       int
		start      string
		seed       uint64
		outDir     string
		format     string
	)
	cmd := &cobra.Command{
		Use:          "gen-dataset",
		Short:        "Write a deterministic synthetic household dataset",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := time.Parse(time.DateOnly, start)
			if err != nil {
				return fmt.Errorf("--start must be YYYY-MM-DD: %w", err)
			}
			ds, err := data.GenerateSynthetic(cmd.Context(), data.SyntheticOptions{
				Households: households,
				Start:      from,
				Days:       days,
				Seed:       seed,
			})
			if err != nil {
				return err
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			switch format {
			case "csv":
				loadPath, pvPath := filepath.Join(outDir, "load.csv"), filepath.Join(outDir, "pv.csv")
				if err := data.WriteCSV(ds, loadPath, pvPath); err != nil {
					return err
				}
				fmt.Fprintf(w, "Wrote %d households x %d hours to %s and %s\n", len(ds.Households), ds.Len(), loadPath, pvPath)
			case "json":
				path := filepath.Join(outDir, "dataset.json")
				if err := data.WriteJSON(ds, path); err != nil {
					return err
				}
				fmt.Fprintf(w, "Wrote %d households x %d hours to %s\n", len(ds.Households), ds.Len(), path)
			default:
				return fmt.Errorf("unsupported format %q (want csv or json)", format)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&households, "households", defaults.Households, "number of households")
	cmd.Flags().IntVar(&days, "days", defaults.Days, "number of days")
	cmd.Flags().StringVar(&start, "start", defaults.Start.Format(time.DateOnly), "first day (YYYY-MM-DD)")
	cmd.Flags().Uint64Var(&seed, "seed", defaults.Seed, "generator seed")
	cmd.Flags().StringVarP(&outDir, "out", "o", "data", "output directory")
	cmd.Flags().StringVar(&format, "format", "csv", "output format (csv or json)")
	return cmd
}
