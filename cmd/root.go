package main

import (
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/showtimes-cli/internal/config"
)

var cfg *config.Config

const rootLong = `Drives cinema websites to their showtime listings, extracts every
showtime and resolves cinemas and movies against the xlsx catalogs.

  run       extract one site for one date and write the CSV
  sites     list the configured cinema sites
  catalog   create, list and resolve against the catalogs
  runs      show best counts and run history from the ledger`

var rootCmd = &cobra.Command{
	Use:          "showtimes-cli",
	Short:        "Cinema showtime extraction pipeline",
	Long:         rootLong,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return eris.Wrap(err, "load config")
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return eris.Wrap(err, "init logger")
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
