package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/sail-placements/sail/internal/cli"
)

func roundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds",
		Short: "Inspect matching rounds",
	}
	cmd.AddCommand(roundsListCmd())
	cmd.AddCommand(roundsShowCmd())
	return cmd
}

func roundsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List matching rounds, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return fmt.Errorf("failed to open database: %w", err)
			}
			defer func() { _ = store.Close() }()

			rounds, err := store.GetRounds(ctx)
			if err != nil {
				return err
			}
			if len(rounds) == 0 {
				fmt.Println(cli.FormatSubtle("No matching rounds yet"))
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-7s %-10s %-9s %-8s %s",
				"ROUND", "STATUS", "STUDENTS", "MATCHED", "STARTED")))
			for _, r := range rounds {
				fmt.Printf("%-7d %-10s %-9d %-8d %s\n",
					r.Number, statusStyle(r.Status), r.TotalStudents, r.MatchedStudents,
					r.StartedAt.Local().Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}

func roundsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <round>",
		Short: "Show one round and its assignments",
		Args:  cobra.ExactArgs(1),
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

			round, err := store.GetRound(ctx, roundNumber)
			if err != nil {
				return err
			}
			if round == nil {
				return fmt.Errorf("round %d does not exist", roundNumber)
			}

			content := fmt.Sprintf("  • Status: %s\n  • Students considered: %d\n  • Students matched: %d",
				statusStyle(round.Status), round.TotalStudents, round.MatchedStudents)
			if round.ErrorMessage != "" {
				content += "\n  • Error: " + round.ErrorMessage
			}
			fmt.Println(cli.RenderBox(fmt.Sprintf("Round %d", round.Number), content))

			assignments, err := store.GetAssignmentsByRound(ctx, roundNumber)
			if err != nil {
				return err
			}
			if len(assignments) == 0 {
				return nil
			}

			fmt.Println(cli.TableHeaderStyle.Render(fmt.Sprintf("%-12s %-14s %-24s %-10s %s",
				"APPLICANT", "ORGANIZATION", "AREA", "STATUS", "SCORE")))
			for _, a := range assignments {
				fmt.Printf("%-12d %-14d %-24s %-10s %.3f\n",
					a.ApplicantID, a.OrganizationID, a.AreaOfLaw, a.Status, a.Score)
			}
			return nil
		},
	}
}
