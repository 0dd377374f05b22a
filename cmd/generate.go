package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"tooban/internal/almanac"
	"tooban/internal/export"
	"tooban/internal/history"
	"tooban/internal/log"
	"tooban/internal/solver"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a roster for one month",
	Long: `Generate a duty roster for one month and print it to stdout.

Dates are YYYY-MM-DD and must fall in the target month. One-off overrides
stack with the configured rules:

  tooban generate --year 2026 --month 6 --save
  tooban generate --month 7 --pin 2026-07-13=青木 --vacation 2026-07-20=馬場
  tooban generate --month 7 --no-duty 2026-07-31 --seed 42`,
	RunE: runGenerate,
}

var (
	genYear      int
	genMonth     int
	genSolutions int
	genSeed      int64
	genSave      bool
	genList      bool
	genPins      []string
	genVacations []string
	genNoDuty    []string
)

func init() {
	rootCmd.AddCommand(generateCmd)

	now := time.Now()
	generateCmd.Flags().IntVar(&genYear, "year", now.Year(), "target year")
	generateCmd.Flags().IntVar(&genMonth, "month", int(now.Month()), "target month (1-12)")
	generateCmd.Flags().IntVar(&genSolutions, "solutions", 0, "candidate rosters to search for (default from config)")
	generateCmd.Flags().Int64Var(&genSeed, "seed", 0, "search seed, 0 picks one")
	generateCmd.Flags().BoolVar(&genSave, "save", false, "record the roster in history")
	generateCmd.Flags().BoolVar(&genList, "list", false, "print one line per day instead of the grid")
	generateCmd.Flags().StringArrayVar(&genPins, "pin", nil, "pin a duty, DATE=NAME (repeatable)")
	generateCmd.Flags().StringArrayVar(&genVacations, "vacation", nil, "grant a day off, DATE=NAME (repeatable)")
	generateCmd.Flags().StringArrayVar(&genNoDuty, "no-duty", nil, "date with no duty at all (repeatable)")
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if genMonth < 1 || genMonth > 12 {
		return fmt.Errorf("invalid month %d", genMonth)
	}
	month := time.Month(genMonth)

	reg, err := cfg.StaffRegistry()
	if err != nil {
		return err
	}
	if reg.Len() == 0 {
		return errors.New("no staff configured, add staff to the config file")
	}
	active := reg.Active()
	if len(active) == 0 {
		return errors.New("all staff are disabled, enable at least one with 'tooban staff enable'")
	}

	days, err := almanac.New().Month(genYear, month)
	if err != nil {
		return err
	}

	opts := cfg.SolverOptions()
	if genSolutions > 0 {
		opts.MaxSolutions = genSolutions
	}
	if genSeed != 0 {
		opts.Seed = genSeed
	}
	if err := applyOverrides(&opts, genYear, month, genPins, genVacations, genNoDuty); err != nil {
		return err
	}

	services, closeServices, err := newServices()
	if err != nil {
		return err
	}
	defer closeServices()

	carry, err := services.Repo.CarryoverFor(genYear, month)
	if err != nil {
		log.Warn(log.CatSolver, "loading carryover failed", "error", err)
	} else {
		opts.Carryover = carry
	}
	if opts.Disperse {
		if past, err := services.Repo.PastSchedules(almanac.DateOf(genYear, month, 1), 90); err == nil {
			opts.PastSchedules = past
		}
	}

	provider, err := newTracing()
	if err != nil {
		return fmt.Errorf("initializing tracing: %w", err)
	}
	defer func() { _ = provider.Shutdown(context.Background()) }()

	ctx, span := provider.Tracer().Start(context.Background(), "roster.generate",
		trace.WithAttributes(
			attribute.Int("roster.year", genYear),
			attribute.Int("roster.month", genMonth),
			attribute.Int("roster.staff", len(active)),
		))

	sols, err := solver.New(active, days).Solve(ctx, opts)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "no feasible roster")
		span.End()
		return err
	}
	span.SetAttributes(attribute.Int("roster.candidates", len(sols)))
	span.End()

	sol := sols[0]
	sheet := export.NewSheet(cfg.Export.Title, days, sol, reg.All())
	if genList {
		fmt.Fprint(cmd.OutOrStdout(), export.RenderList(sheet))
	} else {
		fmt.Fprint(cmd.OutOrStdout(), export.RenderGrid(sheet))
	}

	if len(sol.Relaxations) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "relaxed constraints:\n  %s\n",
			strings.Join(sol.Relaxations, "\n  "))
	}
	if len(sols) > 1 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d more candidate(s) found; rerun with --seed %d to reproduce this one\n",
			len(sols)-1, sol.Seed)
	}

	if genSave {
		run := history.NewRun(sol)
		if err := services.Repo.Save(run); err != nil {
			return fmt.Errorf("saving roster: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "saved as %s\n", run.ID)
	}
	return nil
}

// applyOverrides folds the --pin/--vacation/--no-duty flags into the options.
func applyOverrides(opts *solver.Options, year int, month time.Month, pins, vacations, noDuty []string) error {
	for _, spec := range pins {
		date, name, err := parseAssignment(spec, year, month)
		if err != nil {
			return err
		}
		if opts.Pinned == nil {
			opts.Pinned = make(map[time.Time][]string)
		}
		opts.Pinned[date] = append(opts.Pinned[date], name)
	}
	for _, spec := range vacations {
		date, name, err := parseAssignment(spec, year, month)
		if err != nil {
			return err
		}
		if opts.Vacations == nil {
			opts.Vacations = make(map[string][]time.Time)
		}
		opts.Vacations[name] = append(opts.Vacations[name], date)
	}
	for _, spec := range noDuty {
		date, err := parseMonthDate(spec, year, month)
		if err != nil {
			return err
		}
		opts.NoDutyDates = append(opts.NoDutyDates, date)
	}
	return nil
}

func parseAssignment(spec string, year int, month time.Month) (time.Time, string, error) {
	datePart, name, ok := strings.Cut(spec, "=")
	if !ok || name == "" {
		return time.Time{}, "", fmt.Errorf("invalid override %q (want DATE=NAME)", spec)
	}
	date, err := parseMonthDate(datePart, year, month)
	if err != nil {
		return time.Time{}, "", err
	}
	return date, name, nil
}

func parseMonthDate(s string, year int, month time.Month) (time.Time, error) {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD)", s)
	}
	if d.Year() != year || d.Month() != month {
		return time.Time{}, fmt.Errorf("date %s is not in %04d-%02d", s, year, int(month))
	}
	return almanac.DateOf(d.Year(), d.Month(), d.Day()), nil
}
