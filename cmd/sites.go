package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/showtimes-cli/internal/site"
)

var sitesCmd = &cobra.Command{
	Use:   "sites",
	Short: "List the registered cinema sites",
	RunE: func(cmd *cobra.Command, _ []string) error {
		reg, err := initRegistry()
		if err != nil {
			return eris.Wrap(err, "load sites")
		}
		formatSites(os.Stdout, reg)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sitesCmd)
}

// formatSites writes the registered sites grouped by country to w.
func formatSites(out io.Writer, reg *site.Registry) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "COUNTRY\tKEY\tCINEMA\tVARIANT")
	_, _ = fmt.Fprintln(w, "-------\t---\t------\t-------")

	countries, groups := reg.ByCountry()
	for _, c := range countries {
		for _, a := range groups[c] {
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", c, a.Key, a.Label, a.Variant)
		}
	}
	_ = w.Flush()
}
