package cli

import (
	"github.com/mgpai22/subsync/internal/server"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the resync engine over HTTP",
	Long: `Serve starts an HTTP API:

  POST /api/resync?from=HH:MM:SS,mmm&to=HH:MM:SS,mmm   body: SRT file
  GET  /api/health

The response body is the resynced file in the encoding it was sent in. The
ratio and entry count are returned in the X-Subsync-Ratio and
X-Subsync-Entries headers.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return server.ListenAndServe(cmd.Context(), cfg.Server, logger.Named("server"))
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", ":8080", "Address to listen on")

	cobra.CheckErr(v.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr")))
}
