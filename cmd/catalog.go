package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/showtimes-cli/internal/catalog"
	"github.com/sells-group/showtimes-cli/internal/resolve"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the cinema and movie catalogs",
}

// -- catalog init --

var catalogInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create missing catalog files and add missing columns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		cs := initCatalogs()
		for _, kind := range []catalog.Kind{catalog.Cinemas, catalog.Movies} {
			t, err := cs.Load(ctx, kind)
			if err != nil {
				return eris.Wrapf(err, "catalog init %s", kind)
			}
			fmt.Fprintf(os.Stdout, "%s\t%s\t%d rows\n", kind, cs.Path(kind), t.Len())
		}
		return nil
	},
}

// -- catalog list --

var catalogListCmd = &cobra.Command{
	Use:       "list <cinemas|movies>",
	Short:     "Print the records of a catalog",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(catalog.Cinemas), string(catalog.Movies)},
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := catalog.Kind(args[0])
		if catalog.Columns(kind) == nil {
			return eris.Errorf("unknown catalog %q", args[0])
		}
		t, err := initCatalogs().Load(cmd.Context(), kind)
		if err != nil {
			return eris.Wrapf(err, "catalog list %s", kind)
		}
		formatCatalog(os.Stdout, kind, t)
		return nil
	},
}

func formatCatalog(out io.Writer, kind catalog.Kind, t *catalog.Table) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	defer func() { _ = w.Flush() }()

	if kind == catalog.Movies {
		_, _ = fmt.Fprintln(w, "ID\tTITLE\tORIGINAL TITLE\tDURATION\tRELEASE")
		for _, m := range catalog.MovieRecords(t) {
			_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", m.ID, m.Title, m.OriginalTitle, m.Duration, m.ReleaseDate)
		}
		return
	}
	_, _ = fmt.Fprintln(w, "ID\tNAME\tCITY\tWEBSITE")
	for _, c := range catalog.CinemaRecords(t) {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", c.ID, c.Name, c.City, c.Website)
	}
}

// -- catalog resolve-cinema --

var resolveSite string

var catalogResolveCinemaCmd = &cobra.Command{
	Use:   "resolve-cinema",
	Short: "Resolve a site's cinema to its catalog id, adding it when new",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		reg, err := initRegistry()
		if err != nil {
			return eris.Wrap(err, "load sites")
		}
		a, err := reg.Get(resolveSite)
		if err != nil {
			return err
		}

		m, err := resolve.NewCinemaResolver(initCatalogs()).Resolve(ctx, resolve.QueryFor(a))
		if m.ID > 0 {
			fmt.Fprintf(os.Stdout, "%s\t%d\t%s\n", a.CinemaName, m.ID, m.Method)
		}
		if err != nil {
			return eris.Wrap(err, "resolve cinema")
		}
		return nil
	},
}

func init() {
	catalogResolveCinemaCmd.Flags().StringVar(&resolveSite, "site", "", "site key (required)")
	_ = catalogResolveCinemaCmd.MarkFlagRequired("site")

	catalogCmd.AddCommand(catalogInitCmd)
	catalogCmd.AddCommand(catalogListCmd)
	catalogCmd.AddCommand(catalogResolveCinemaCmd)
	rootCmd.AddCommand(catalogCmd)
}
