package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"tooban/internal/history"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Inspect recorded rosters",
}

var historyLimit int

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded rosters, newest first",
	RunE:  runHistoryList,
}

var historyShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print one recorded roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

var historyDiffCmd = &cobra.Command{
	Use:   "diff ID ID",
	Short: "Compare two recorded rosters",
	Args:  cobra.ExactArgs(2),
	RunE:  runHistoryDiff,
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete ID",
	Short: "Delete a recorded roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryDelete,
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.AddCommand(historyListCmd, historyShowCmd, historyDiffCmd, historyDeleteCmd)

	historyListCmd.Flags().IntVar(&historyLimit, "limit", 20, "maximum rows")
}

func runHistoryList(cmd *cobra.Command, _ []string) error {
	services, closeServices, err := newServices()
	if err != nil {
		return err
	}
	defer closeServices()

	summaries, err := services.Repo.List(historyLimit)
	if err != nil {
		return err
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no rosters recorded")
		return nil
	}
	for _, s := range summaries {
		note := ""
		if len(s.Relaxations) > 0 {
			note = fmt.Sprintf("  (%d relaxations)", len(s.Relaxations))
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s  %04d-%02d  %s  %d assignments%s\n",
			s.ID, s.Year, int(s.Month), s.CreatedAt.Format("2006-01-02 15:04"), s.Assignments, note)
	}
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	services, closeServices, err := newServices()
	if err != nil {
		return err
	}
	defer closeServices()

	run, err := services.Repo.Find(args[0])
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), history.RenderText(run))
	return nil
}

func runHistoryDiff(cmd *cobra.Command, args []string) error {
	services, closeServices, err := newServices()
	if err != nil {
		return err
	}
	defer closeServices()

	before, err := services.Repo.Find(args[0])
	if err != nil {
		return err
	}
	after, err := services.Repo.Find(args[1])
	if err != nil {
		return err
	}

	diff := history.Diff(before, after)
	if diff == "" {
		fmt.Fprintln(cmd.OutOrStdout(), "no differences")
		return nil
	}
	fmt.Fprint(cmd.OutOrStdout(), diff)
	return nil
}

func runHistoryDelete(cmd *cobra.Command, args []string) error {
	services, closeServices, err := newServices()
	if err != nil {
		return err
	}
	defer closeServices()

	if err := services.Repo.Delete(args[0]); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "deleted", args[0])
	return nil
}
