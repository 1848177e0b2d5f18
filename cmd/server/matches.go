package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/danijoha94/vintertour/internal/models"
	"github.com/danijoha94/vintertour/internal/scorecard"
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all matches",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		matches, err := s.List(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if len(matches) == 0 {
			fmt.Fprintln(out, "Ingen kamper ennå.")
			return nil
		}
		for _, sum := range scorecard.Summaries(matches) {
			fmt.Fprintf(out, "%3d  %s  (%s)\n", sum.ID, sum.Title, sum.Matchup)
		}
		return nil
	},
}

var showCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show a match with its hole assignments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMatch(cmd, args[0])
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprint(out, scorecard.Body(m))
		fmt.Fprintln(out)
		for _, c := range scorecard.Counts(m) {
			fmt.Fprintf(out, "%-20s %2d hull\n", c.Name, c.Holes)
		}
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a match",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid match id %q", args[0])
		}
		s, closeStore, err := openStore()
		if err != nil {
			return err
		}
		defer closeStore()

		removed, err := s.Delete(cmd.Context(), id)
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("match %d not found", id)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted match %d\n", id)
		return nil
	},
}

var mailCmd = &cobra.Command{
	Use:   "mail [id]",
	Short: "Print the mailto: link with the match summary",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loadMatch(cmd, args[0])
		if err != nil {
			return err
		}
		link, err := scorecard.MailtoLink(m, cfg.Mail.Recipient)
		if errors.Is(err, scorecard.ErrIncomplete) {
			return errors.New(scorecard.IncompleteMessage)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), link)
		return nil
	},
}

func loadMatch(cmd *cobra.Command, arg string) (models.Match, error) {
	id, err := strconv.Atoi(arg)
	if err != nil {
		return models.Match{}, fmt.Errorf("invalid match id %q", arg)
	}
	s, closeStore, err := openStore()
	if err != nil {
		return models.Match{}, err
	}
	defer closeStore()

	m, ok, err := s.Get(cmd.Context(), id)
	if err != nil {
		return models.Match{}, err
	}
	if !ok {
		return models.Match{}, fmt.Errorf("match %d not found", id)
	}
	return m, nil
}
