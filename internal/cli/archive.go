package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Anika-Jha/Eterna/internal/engine"
	"github.com/Anika-Jha/Eterna/internal/llm"
	"github.com/Anika-Jha/Eterna/internal/metrics"
)

// --- sweep command ---

var sweepCmd = &cobra.Command{
	Use:   "sweep",
	Short: "Run one decay pass against the database and exit",
	RunE:  runSweep,
}

func runSweep(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	eng := engine.New(db, llm.None{},
		engine.WithMetrics(metrics.New()),
		engine.WithDecay(engine.WithWorkers(cfg.Decay.Workers)),
	)
	defer eng.Stop()

	res, err := eng.Sweep(cmd.Context())
	if err != nil {
		return fmt.Errorf("sweep: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "scanned %d, faded %d, skipped %d, failed %d\n",
		res.Scanned, res.Faded, res.Skipped, res.Failed)
	return nil
}

// --- seed command ---

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert the sample archive if the database is empty",
	RunE:  runSeed,
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	n, err := db.Seed(cmd.Context())
	if err != nil {
		return fmt.Errorf("seed: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Database already seeded. Skipping.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d artifacts.\n", n)
	return nil
}

// --- stats command ---

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print dashboard statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	db, err := openDB(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := db.Stats(cmd.Context())
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "artifacts:     %d\n", s.TotalArtifacts)
	fmt.Fprintf(out, "average fade:  %d%%\n", s.AverageFadeLevel)
	fmt.Fprintf(out, "interactions:  %d\n", s.TotalInteractions)
	fmt.Fprintf(out, "at risk:       %d\n", s.ArtifactsAtRisk)
	return nil
}
