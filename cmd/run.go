package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/pipeline"
	"github.com/sells-group/showtimes-cli/internal/report"
)

var (
	runSite     string
	runDate     string
	runOutput   string
	runSnapshot string
	runQuick    bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Extract the showtimes of one site for one date",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		date, err := parseDate(runDate)
		if err != nil {
			return err
		}

		reg, err := initRegistry()
		if err != nil {
			return eris.Wrap(err, "load sites")
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		sess, err := openSession(ctx, runSnapshot)
		if err != nil {
			return eris.Wrap(err, "open browser session")
		}
		defer sess.Close() //nolint:errcheck

		pc := pipelineConfig()
		if runQuick {
			pc.Navigation.QuickRescrape = true
		}
		runner := pipeline.NewRunner(pipeline.New(pc, reg, initCatalogs(), st), sess)

		res, err := runner.Run(ctx, pipeline.Request{SiteKey: runSite, Date: date})
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}
		if res.Err != nil {
			formatResult(os.Stdout, res, "", 0)
			return eris.Wrap(res.Err, "pipeline run")
		}

		out, added, err := writeOutputs(res, runOutput, time.Now())
		if err != nil {
			return err
		}

		zap.L().Info("showtimes written",
			zap.String("site", res.SiteKey),
			zap.String("path", out),
			zap.Int("rows", res.Persistable),
			zap.Int("unknown_added", added),
		)
		formatResult(os.Stdout, res, out, added)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runSite, "site", "", "site key (see `showtimes-cli sites`)")
	runCmd.Flags().StringVar(&runDate, "date", "", "show date YYYY-MM-DD (default today)")
	runCmd.Flags().StringVar(&runOutput, "output", "", "showtimes CSV path (default <output.dir>/show_times-...csv)")
	runCmd.Flags().StringVar(&runSnapshot, "snapshot", "", "replay saved HTML pages from this directory instead of a live browser")
	runCmd.Flags().BoolVar(&runQuick, "quick", false, "skip base load, consent and cinema selection")
	_ = runCmd.MarkFlagRequired("site")
	rootCmd.AddCommand(runCmd)
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	d, err := time.ParseInLocation(time.DateOnly, s, time.Local)
	if err != nil {
		return time.Time{}, eris.Wrapf(err, "invalid --date %q", s)
	}
	return d, nil
}

// writeOutputs writes the showtimes CSV (to path, or a generated name in
// the output dir) and appends unknown movies to the curation list.
func writeOutputs(res *pipeline.Result, path string, now time.Time) (string, int, error) {
	if path == "" {
		path = filepath.Join(cfg.Output.Dir, report.Filename(res.CinemaName, res.ShowDate, now))
	}
	if _, err := report.ExportShowtimes(path, res.Rows); err != nil {
		return "", 0, eris.Wrap(err, "write showtimes")
	}
	added, err := report.AppendUnknown(cfg.UnknownMoviesPath(), res.Unknown)
	if err != nil {
		return path, 0, eris.Wrap(err, "write unknown movies")
	}
	return path, added, nil
}

// formatResult writes a run summary to w.
func formatResult(out io.Writer, res *pipeline.Result, path string, added int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Site:\t%s\n", res.SiteKey)
	_, _ = fmt.Fprintf(w, "Cinema:\t%s (id %d)\n", res.CinemaName, res.CinemaID)
	_, _ = fmt.Fprintf(w, "Date:\t%s\n", res.ShowDate)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", res.Status)
	if res.Err != nil {
		_, _ = fmt.Fprintf(w, "Error:\t%v\n", res.Err)
	}
	_, _ = fmt.Fprintf(w, "Rows:\t%d\n", res.Persistable)
	_, _ = fmt.Fprintf(w, "Films:\t%d\n", res.Films)
	_, _ = fmt.Fprintf(w, "Unique showtimes:\t%d (best %d)\n", res.Unique, res.Totals.Best)
	_, _ = fmt.Fprintf(w, "Cumulative rows:\t%d\n", res.Totals.Cumulative)
	_, _ = fmt.Fprintf(w, "Unknown movies:\t%d (%d new)\n", len(res.Unknown), added)
	if path != "" {
		_, _ = fmt.Fprintf(w, "Output:\t%s\n", path)
	}
	if len(res.Warnings) > 0 {
		_, _ = fmt.Fprintf(w, "Warnings:\t%s\n", strings.Join(res.Warnings, "\n\t"))
	}
	_ = w.Flush()
}
