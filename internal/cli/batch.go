package cli

import (
	"fmt"

	"github.com/mgpai22/subsync/internal/batch"
	"github.com/spf13/cobra"
)

var batchCmd = &cobra.Command{
	Use:   "batch [manifest]",
	Short: "Resync several files listed in a YAML manifest",
	Long: `Batch resyncs every job of a YAML manifest in parallel. Each job names an
input file and its own reference pair:

  output_prefix: new-
  jobs:
    - input: ep01.srt
      from: "00:40:50,652"
      to: "00:43:50,200"
    - input: ep02.srt
      from: "00:38:12,000"
      to: "00:41:00,120"
      output: fixed/ep02.srt

Relative paths are resolved against the manifest's directory. A failing job
does not stop the others; the command fails if any job failed.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().Int("concurrency", 4, "Number of files processed in parallel")
	batchCmd.Flags().Bool("dry-run", false, "Compute the results without writing them")
	batchCmd.Flags().BoolP("force", "f", false, "Overwrite existing output files")

	cobra.CheckErr(v.BindPFlag("concurrency", batchCmd.Flags().Lookup("concurrency")))
}

func runBatch(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	manifest, err := batch.LoadManifest(args[0])
	if err != nil {
		return err
	}
	if manifest.OutputPrefix == "" {
		manifest.OutputPrefix = cfg.OutputPrefix
	}

	logger.Infow("Starting batch",
		"manifest", args[0],
		"jobs", len(manifest.Jobs),
		"concurrency", cfg.Concurrency,
	)

	runner := &batch.Runner{
		Concurrency: cfg.Concurrency,
		Force:       force,
		DryRun:      dryRun,
		Logger:      logger.Named("batch"),
	}
	results, runErr := runner.Run(cmd.Context(), manifest)

	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(out, "FAIL %s: %v\n", res.Job.Input, res.Err)
			continue
		}
		verb := "wrote"
		if !res.File.Written {
			verb = "would write"
		}
		fmt.Fprintf(out, "ok   %s: ratio %.7f, %s %d entries to %s\n",
			res.Job.Input,
			res.File.Ratio,
			verb,
			res.File.Entries,
			res.File.Output,
		)
	}

	return runErr
}
