package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/spinworld/internal/config"
	"github.com/talgya/spinworld/internal/engine"
	"github.com/talgya/spinworld/internal/logging"
	"github.com/talgya/spinworld/internal/persistence"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a simulation",
		Long: `Run a simulation from a YAML configuration, or from the defaults.

Flags override the matching configuration values.

Examples:
  spinworld run                              # Standard experiment
  spinworld run --config exp.yaml --seed 7   # Reseed a stored experiment
  spinworld run --policy AGE --db runs.db    # Store per-round results`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}

			slog.SetDefault(logging.NewLogger(cfg.Logging.Level, os.Stdout))

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return runSimulation(ctx, cfg)
		},
	}

	cmd.Flags().String("config", "", "YAML configuration file")
	cmd.Flags().Int64("seed", 0, "Random seed")
	cmd.Flags().Int("rounds", 0, "Number of rounds to play")
	cmd.Flags().String("policy", "", "Network policy: THRESHOLD, UTILITY or AGE")
	cmd.Flags().String("learner", "", "Cheat learner: WINDOWED or ROUND")
	cmd.Flags().String("db", "", "SQLite database for per-round results")
	cmd.Flags().String("round-log", "", "Compressed JSONL round log")
	cmd.Flags().String("comment", "", "Free-text note stored with the run")

	return cmd
}

// loadRunConfig reads the configuration file, if any, and applies flags that
// were set explicitly.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Seed, _ = flags.GetInt64("seed")
	}
	if flags.Changed("rounds") {
		cfg.Rounds, _ = flags.GetInt("rounds")
	}
	if flags.Changed("policy") {
		cfg.Policy.Kind, _ = flags.GetString("policy")
	}
	if flags.Changed("learner") {
		cfg.Learner.Kind, _ = flags.GetString("learner")
	}
	if flags.Changed("db") {
		cfg.Storage.DBPath, _ = flags.GetString("db")
	}
	if flags.Changed("round-log") {
		cfg.Storage.RoundLog, _ = flags.GetString("round-log")
	}
	if flags.Changed("comment") {
		cfg.Storage.Comment, _ = flags.GetString("comment")
	}
	if flags.Changed("level") {
		cfg.Logging.Level, _ = flags.GetString("level")
	}

	return cfg, cfg.Validate()
}

func runSimulation(ctx context.Context, cfg config.Config) error {
	sim, err := engine.NewSimulation(cfg)
	if err != nil {
		return err
	}

	var observers []engine.Observer

	// ── Database ──────────────────────────────────────────────────────
	var db *persistence.DB
	if cfg.Storage.DBPath != "" {
		db, err = persistence.Open(cfg.Storage.DBPath)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		if err := db.CreateSimulation(sim.ID, cfg); err != nil {
			return fmt.Errorf("failed to record simulation: %w", err)
		}
		observers = append(observers, db.Recorder())
		slog.Info("database opened", "path", cfg.Storage.DBPath)
	}

	// ── Round log ─────────────────────────────────────────────────────
	if cfg.Storage.RoundLog != "" {
		rl, err := persistence.CreateRoundLog(cfg.Storage.RoundLog)
		if err != nil {
			return fmt.Errorf("failed to create round log: %w", err)
		}
		defer func() {
			if err := rl.Close(); err != nil {
				slog.Error("failed to close round log", "error", err)
			}
		}()
		observers = append(observers, rl.Observer())
	}

	// ── Run ───────────────────────────────────────────────────────────
	start := time.Now()
	runErr := sim.Run(ctx, cfg.Rounds, fanOut(observers))
	elapsed := time.Since(start)

	state := "FINISHED"
	if errors.Is(runErr, context.Canceled) {
		state = "INTERRUPTED"
		slog.Warn("simulation interrupted", "round", sim.CurrentRound().Number)
	} else if runErr != nil {
		state = "FAILED"
	}

	if db != nil {
		if err := db.FinishSimulation(sim.ID, sim.CurrentRound().Number, state); err != nil {
			slog.Error("failed to finish simulation record", "error", err)
		}
		if err := db.SaveMeta("last_simulation", sim.ID); err != nil {
			slog.Error("failed to save meta", "error", err)
		}
	}

	printSummary(sim, elapsed)
	if state == "INTERRUPTED" {
		return nil
	}
	return runErr
}

func fanOut(observers []engine.Observer) engine.Observer {
	if len(observers) == 0 {
		return nil
	}
	return func(rep engine.RoundReport) {
		for _, o := range observers {
			o(rep)
		}
	}
}

func printSummary(sim *engine.Simulation, elapsed time.Duration) {
	st := sim.Stats
	rounds := sim.CurrentRound().Number
	fmt.Printf("\nsimulation %s\n", sim.ID)
	fmt.Printf("  rounds:          %s in %s\n", humanize.Comma(int64(rounds)), elapsed.Round(time.Millisecond))
	fmt.Printf("  particles:       %d alive, %d dead, %d in a network\n", st.Alive, st.Dead, st.InNetwork)
	fmt.Printf("  networks:        %d active of %d created\n", st.ActiveNetworks, sim.Registry.Len())
	fmt.Printf("  mean pCheat:     %s\n", humanize.FtoaWithDigits(st.MeanPCheat, 3))
	fmt.Printf("  mean utility:    %s\n", humanize.FtoaWithDigits(st.MeanUtility, 3))
	fmt.Printf("  mean satisfied:  %s\n", humanize.FtoaWithDigits(st.MeanSatisfaction, 3))
	fmt.Printf("  collisions:      %s formed, %s joined, %s switched\n",
		humanize.Comma(int64(sim.Formation.Created)),
		humanize.Comma(int64(sim.Formation.Joined)),
		humanize.Comma(int64(sim.Formation.Switched)))
}
