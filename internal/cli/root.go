package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/mgpai22/subsync/internal/config"
	"github.com/mgpai22/subsync/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	verbose bool
	cfgFile string
	cfg     *config.Config
	logger  *logging.Logger

	// flags are bound to keys of v so they override the config file
	v = viper.New()
)

var rootCmd = &cobra.Command{
	Use:   "subsync",
	Short: "Fix drifting subtitles",
	Long: `Subsync corrects SRT subtitles that slowly drift out of sync with
their video, typically because they were timed against a different frame rate.

Pick one line whose correct time you know, pass its current and wanted
timecodes, and every timestamp in the file is scaled to match.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger = logging.NewLogger(verbose)

		loaded, err := config.Load(v, cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

// Execute runs the command line. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().
		StringVar(&cfgFile, "config", "", "Config file (default $XDG_CONFIG_HOME/subsync/config.yaml)")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
}
