package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"tooban/internal/almanac"
	"tooban/internal/export"
	"tooban/internal/fsatomic"
	"tooban/internal/history"
	"tooban/internal/solver"
)

var exportCmd = &cobra.Command{
	Use:       "export excel|pdf|text",
	Short:     "Export the saved roster for one month",
	Long:      `Export the most recently saved roster for a month. Save one first with 'tooban generate --save' or from the TUI.`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"excel", "pdf", "text"},
	RunE:      runExport,
}

var (
	exportYear   int
	exportMonth  int
	exportOut    string
	exportFormat string
)

func init() {
	rootCmd.AddCommand(exportCmd)

	now := time.Now()
	exportCmd.Flags().IntVar(&exportYear, "year", now.Year(), "target year")
	exportCmd.Flags().IntVar(&exportMonth, "month", int(now.Month()), "target month (1-12)")
	exportCmd.Flags().StringVar(&exportOut, "out", "", "output path (default: export.output_dir)")
	exportCmd.Flags().StringVar(&exportFormat, "format", "grid", "layout, grid (calendar) or list (one row per day)")
}

func runExport(cmd *cobra.Command, args []string) error {
	if exportMonth < 1 || exportMonth > 12 {
		return fmt.Errorf("invalid month %d", exportMonth)
	}
	if exportFormat != "grid" && exportFormat != "list" {
		return fmt.Errorf("invalid format %q, want grid or list", exportFormat)
	}
	month := time.Month(exportMonth)

	services, closeServices, err := newServices()
	if err != nil {
		return err
	}
	defer closeServices()

	run, err := services.Repo.LatestForMonth(exportYear, month)
	if err != nil {
		var nf *history.RunNotFoundError
		if errors.As(err, &nf) {
			return fmt.Errorf("no saved roster for %04d-%02d, run 'tooban generate --save' first", exportYear, exportMonth)
		}
		return err
	}

	days, err := almanac.New().Month(exportYear, month)
	if err != nil {
		return err
	}
	staff, err := cfg.StaffList()
	if err != nil {
		return err
	}
	sol := solver.Solution{
		Year:     run.Year,
		Month:    run.Month,
		Schedule: run.Schedule,
		Counts:   run.Counts(),
		Seed:     run.Seed,
	}
	sheet := export.NewSheet(cfg.Export.Title, days, sol, staff)

	list := exportFormat == "list"

	switch args[0] {
	case "excel":
		path := exportPath(run, "xlsx")
		write := export.WriteExcel
		if list {
			write = export.WriteExcelList
		}
		if err := write(path, sheet); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	case "pdf":
		path := exportPath(run, "pdf")
		write := export.WritePDF
		if list {
			write = export.WritePDFList
		}
		if err := write(path, sheet, export.PDFOptions{FontPath: cfg.Export.PDFFont}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
	case "text":
		rendered := export.RenderGrid(sheet)
		if list {
			rendered = export.RenderList(sheet)
		}
		if exportOut == "" {
			fmt.Fprint(cmd.OutOrStdout(), rendered)
			return nil
		}
		if err := fsatomic.WriteFile(exportOut, []byte(rendered), fsatomic.Options{Perm: 0o644}); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), exportOut)
	default:
		return fmt.Errorf("unknown export target %q", args[0])
	}
	return nil
}

func exportPath(run *history.Run, ext string) string {
	if exportOut != "" {
		return exportOut
	}
	dir := cfg.Export.OutputDir
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, export.FileName(cfg.Export.Title, run.Year, run.Month, ext))
}
