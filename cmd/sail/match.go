package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sail-placements/sail/internal/cli"
	"github.com/sail-placements/sail/internal/match"
	"github.com/sail-placements/sail/internal/model"
)

func matchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Run and manage matching rounds",
	}
	cmd.AddCommand(matchRunCmd())
	cmd.AddCommand(matchResetCmd())
	return cmd
}

func matchRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a matching round",
		Long: `Run one matching round over all unmatched active students. Assignments
are created as pending; nothing is final until approved. The round commits
atomically, so a failed round leaves no partial placements.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			engine := match.NewEngine(store, matchWeights(), viper.GetInt("match.statement_max"))

			fmt.Println(cli.FormatTitle("Running matching round"))
			round, err := engine.Run(ctx)
			if err != nil {
				return fmt.Errorf("matching round failed: %w", err)
			}

			content := fmt.Sprintf("  • Round: %d\n  • Students considered: %d\n  • Students matched: %d",
				round.Number, round.TotalStudents, round.MatchedStudents)
			fmt.Println(cli.RenderBox("Matching Complete", content))

			if round.TotalStudents > round.MatchedStudents {
				fmt.Println(cli.FormatWarning(fmt.Sprintf("%d students remain unmatched",
					round.TotalStudents-round.MatchedStudents)))
			}
			return nil
		},
	}

	cmd.Flags().Float64("weight-preference", 0.4, "Weight of area preference rank")
	cmd.Flags().Float64("weight-grade", 0.3, "Weight of grade average")
	cmd.Flags().Float64("weight-statement", 0.2, "Weight of statement grade")
	cmd.Flags().Float64("weight-fit", 0.1, "Weight of location and work-mode fit")
	_ = viper.BindPFlag("match.weights.preference", cmd.Flags().Lookup("weight-preference"))
	_ = viper.BindPFlag("match.weights.grade", cmd.Flags().Lookup("weight-grade"))
	_ = viper.BindPFlag("match.weights.statement", cmd.Flags().Lookup("weight-statement"))
	_ = viper.BindPFlag("match.weights.fit", cmd.Flags().Lookup("weight-fit"))

	return cmd
}

func matchResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <round>",
		Short: "Undo a matching round",
		Long: `Delete every assignment a round created, release the organization
positions they held, and make the affected students matchable again.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			roundNumber, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid round number %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			engine := match.NewEngine(store, matchWeights(), viper.GetInt("match.statement_max"))
			if err := engine.Reset(ctx, roundNumber); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Round %d reset", roundNumber)))
			return nil
		},
	}
}

// matchWeights reads component weights from config, falling back to the
// defaults when unset.
func matchWeights() match.Weights {
	w := match.Weights{
		Preference: viper.GetFloat64("match.weights.preference"),
		Grade:      viper.GetFloat64("match.weights.grade"),
		Statement:  viper.GetFloat64("match.weights.statement"),
		Fit:        viper.GetFloat64("match.weights.fit"),
	}
	return w.Normalized()
}

// statusStyle renders a round status with the matching color.
func statusStyle(status model.RoundStatus) string {
	switch status {
	case model.RoundCompleted:
		return cli.SuccessStyle.Render(string(status))
	case model.RoundFailed:
		return cli.ErrorStyle.Render(string(status))
	case model.RoundRunning:
		return cli.WarningStyle.Render(string(status))
	default:
		return cli.SubtleStyle.Render(string(status))
	}
}
