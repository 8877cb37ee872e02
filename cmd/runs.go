package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/showtimes-cli/internal/model"
	"github.com/sells-group/showtimes-cli/internal/store"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show best showtime counts and the cumulative total",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		best, err := st.BestCounts(ctx)
		if err != nil {
			return eris.Wrap(err, "runs")
		}
		cum, err := st.Cumulative(ctx)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		formatBestCounts(os.Stdout, best, cum)
		return nil
	},
}

// -- runs list --

var runsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		siteKey, _ := cmd.Flags().GetString("site")
		limit, _ := cmd.Flags().GetInt("limit")

		runs, err := st.ListRuns(ctx, store.RunFilter{SiteKey: siteKey, Limit: limit})
		if err != nil {
			return eris.Wrap(err, "runs list")
		}

		if len(runs) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRunsList(os.Stdout, runs)
		return nil
	},
}

func init() {
	runsListCmd.Flags().String("site", "", "filter by site key")
	runsListCmd.Flags().Int("limit", 50, "max number of runs to display")

	runsCmd.AddCommand(runsListCmd)
	rootCmd.AddCommand(runsCmd)
}

// formatBestCounts writes the best count per (site, date) and the
// cumulative row total to w.
func formatBestCounts(out io.Writer, best []model.BestCount, cumulative int) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "SITE\tDATE\tBEST\tUPDATED")
	_, _ = fmt.Fprintln(w, "----\t----\t----\t-------")
	for _, b := range best {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\n",
			b.SiteKey,
			b.ShowDate,
			b.Best,
			b.UpdatedAt.Format("2006-01-02 15:04"),
		)
	}
	_, _ = fmt.Fprintf(w, "\nCumulative rows:\t%d\n", cumulative)
	_ = w.Flush()
}

// formatRunsList writes a tabular list of runs to w.
func formatRunsList(out io.Writer, runs []model.Run) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSITE\tDATE\tSTATUS\tROWS\tUNIQUE\tUNKNOWN\tCREATED")
	_, _ = fmt.Fprintln(w, "--\t----\t----\t------\t----\t------\t-------\t-------")

	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%s\n",
			truncateID(r.ID),
			r.SiteKey,
			r.ShowDate,
			r.Status,
			r.Rows,
			r.Unique,
			r.Unknown,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	_ = w.Flush()
}

// truncateID returns the first 8 characters of a UUID for compact display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
