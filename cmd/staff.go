package cmd

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"tooban/internal/config"
)

var staffCmd = &cobra.Command{
	Use:   "staff",
	Short: "Manage the configured staff",
}

var staffListCmd = &cobra.Command{
	Use:   "list",
	Short: "List configured staff",
	RunE:  runStaffList,
}

var (
	staffColor   string
	staffBlocked []string
)

var staffAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Add a staff member (or update an existing one)",
	Args:  cobra.ExactArgs(1),
	RunE:  runStaffAdd,
}

var staffRemoveCmd = &cobra.Command{
	Use:   "remove NAME",
	Short: "Remove a staff member",
	Args:  cobra.ExactArgs(1),
	RunE:  runStaffRemove,
}

var staffEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Put a staff member back into the rotation",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setStaffActive(cmd, args[0], true) },
}

var staffDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Take a staff member out of the rotation, keeping their settings",
	Args:  cobra.ExactArgs(1),
	RunE:  func(cmd *cobra.Command, args []string) error { return setStaffActive(cmd, args[0], false) },
}

func init() {
	rootCmd.AddCommand(staffCmd)
	staffCmd.AddCommand(staffListCmd, staffAddCmd, staffRemoveCmd, staffEnableCmd, staffDisableCmd)

	staffAddCmd.Flags().StringVar(&staffColor, "color", "", `display color, e.g. "#10B981"`)
	staffAddCmd.Flags().StringSliceVar(&staffBlocked, "blocked", nil,
		"weekdays the member never serves, e.g. 土,日")
}

// configWritePath is where staff edits land. Matches what was read, falling
// back to the default location when running without a config file.
func configWritePath() string {
	if path := viper.ConfigFileUsed(); path != "" {
		return path
	}
	return config.DefaultConfigPath()
}

func runStaffList(cmd *cobra.Command, _ []string) error {
	if len(cfg.Staff) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no staff configured")
		return nil
	}

	nameWidth := 0
	for _, s := range cfg.Staff {
		if w := runewidth.StringWidth(s.Name); w > nameWidth {
			nameWidth = w
		}
	}
	for _, s := range cfg.Staff {
		state := "active"
		if !s.IsActive() {
			state = "inactive"
		}
		line := runewidth.FillRight(s.Name, nameWidth+2) + runewidth.FillRight(state, 10)
		if s.Color != "" {
			line += runewidth.FillRight(s.Color, 9)
		} else {
			line += runewidth.FillRight("-", 9)
		}
		if len(s.BlockedWeekdays) > 0 {
			line += "blocked: " + strings.Join(s.BlockedWeekdays, ",")
		}
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimRight(line, " "))
	}
	return nil
}

func runStaffAdd(cmd *cobra.Command, args []string) error {
	member := config.StaffConfig{
		Name:            args[0],
		Color:           staffColor,
		BlockedWeekdays: staffBlocked,
	}
	if err := config.UpsertStaff(configWritePath(), cfg.Staff, member); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "saved %s to %s\n", member.Name, configWritePath())
	return nil
}

func runStaffRemove(cmd *cobra.Command, args []string) error {
	if err := config.RemoveStaff(configWritePath(), cfg.Staff, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", args[0])
	return nil
}

func setStaffActive(cmd *cobra.Command, name string, active bool) error {
	for _, s := range cfg.Staff {
		if s.Name != name {
			continue
		}
		s.Active = &active
		if err := config.UpsertStaff(configWritePath(), cfg.Staff, s); err != nil {
			return err
		}
		state := "enabled"
		if !active {
			state = "disabled"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", state, name)
		return nil
	}
	return fmt.Errorf("staff %q is not configured", name)
}
