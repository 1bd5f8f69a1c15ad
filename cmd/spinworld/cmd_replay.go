package main

import (
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/talgya/spinworld/internal/persistence"
)

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay <round-log>",
		Short: "Summarise a stored round log",
		Long: `Print one line per sampled round from a compressed JSONL round log.

Examples:
  spinworld replay rounds.jsonl.zst            # Every 100th round
  spinworld replay rounds.jsonl.zst --every 1  # Every round`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			every, _ := cmd.Flags().GetInt("every")
			if every < 1 {
				every = 1
			}

			reps, err := persistence.ReadRoundLog(args[0])
			if err != nil {
				return fmt.Errorf("failed to read round log: %w", err)
			}
			if len(reps) == 0 {
				fmt.Println("no rounds recorded")
				return nil
			}

			fmt.Printf("simulation %s, %s rounds\n", reps[0].SimulationID, humanize.Comma(int64(len(reps))))
			fmt.Printf("%8s %6s %6s %8s %8s %10s %10s %7s %9s\n",
				"round", "alive", "dead", "members", "networks", "pCheat", "utility", "caught", "expelled")
			for i, rep := range reps {
				if rep.Round%every != 0 && i != len(reps)-1 {
					continue
				}
				st := rep.Stats
				fmt.Printf("%8d %6d %6d %8d %8d %10.3f %10.3f %7d %9d\n",
					rep.Round, st.Alive, st.Dead, st.InNetwork, st.ActiveNetworks,
					st.MeanPCheat, st.MeanUtility, rep.Sanctions.Caught, rep.Sanctions.Expulsions)
			}
			return nil
		},
	}

	cmd.Flags().Int("every", 100, "Print every Nth round")
	return cmd
}
