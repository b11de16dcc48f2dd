package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mgpai22/subsync/internal/resync"
	"github.com/mgpai22/subsync/internal/subtitle"
	"github.com/mgpai22/subsync/internal/video"
	"github.com/spf13/cobra"
)

const probeTimeout = 30 * time.Second

var resyncCmd = &cobra.Command{
	Use:   "resync [subtitle_file]",
	Short: "Scale the timing of an SRT file to remove drift",
	Long: `Resync rewrites every timestamp of an SRT file so that the subtitles
follow the video again.

Give one reference: the timecode a line currently has (--from) and the time it
is actually spoken in the video (--to). Every timestamp is multiplied by the
ratio between the two. When the subtitles also start at an offset, add a second
reference with --from2/--to2.

If you know the frame rates instead, use --fps-from with --fps-to, or let
--video read the frame rate from the video file.

Only timing lines change; text, numbering, line endings and encoding are kept.

Examples:
  subsync resync show.srt --from 00:40:50,652 --to 00:43:50,200
  subsync resync show.srt --from 00:00:05,000 --to 00:00:07,100 --from2 00:40:00,000 --to2 00:41:36,000
  subsync resync show.srt --fps-from 25 --fps-to 23.976 -o show.fixed.srt
  subsync resync show.srt --fps-from 25 --video show.mkv --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runResync,
}

func init() {
	rootCmd.AddCommand(resyncCmd)

	resyncCmd.Flags().String("from", "", "Current timecode of the reference line (HH:MM:SS,mmm)")
	resyncCmd.Flags().String("to", "", "Correct timecode of the reference line (HH:MM:SS,mmm)")
	resyncCmd.Flags().String("from2", "", "Current timecode of a second reference line")
	resyncCmd.Flags().String("to2", "", "Correct timecode of the second reference line")
	resyncCmd.Flags().Float64("fps-from", 0, "Frame rate the subtitles were timed for")
	resyncCmd.Flags().Float64("fps-to", 0, "Frame rate of the video")
	resyncCmd.Flags().String("video", "", "Read the video frame rate from this file with ffprobe")
	resyncCmd.Flags().String("prefix", "new-", "Prefix for the default output file name")
	resyncCmd.Flags().Bool("dry-run", false, "Compute the result without writing it")
	resyncCmd.Flags().BoolP("force", "f", false, "Overwrite an existing output file")

	resyncCmd.MarkFlagsRequiredTogether("from", "to")
	resyncCmd.MarkFlagsRequiredTogether("from2", "to2")
	resyncCmd.MarkFlagsMutuallyExclusive("fps-to", "video")

	cobra.CheckErr(v.BindPFlag("output_prefix", resyncCmd.Flags().Lookup("prefix")))
}

// references collects the flags that select a transform.
type references struct {
	From, To   string
	From2, To2 string
	FPSFrom    float64
	FPSTo      float64
	Video      string
}

func referencesFromFlags(cmd *cobra.Command) references {
	var refs references
	refs.From, _ = cmd.Flags().GetString("from")
	refs.To, _ = cmd.Flags().GetString("to")
	refs.From2, _ = cmd.Flags().GetString("from2")
	refs.To2, _ = cmd.Flags().GetString("to2")
	refs.FPSFrom, _ = cmd.Flags().GetFloat64("fps-from")
	refs.FPSTo, _ = cmd.Flags().GetFloat64("fps-to")
	refs.Video, _ = cmd.Flags().GetString("video")
	return refs
}

func (r references) timecodeMode() bool {
	return r.From != "" || r.To != "" || r.From2 != "" || r.To2 != ""
}

func (r references) frameRateMode() bool {
	return r.FPSFrom != 0 || r.FPSTo != 0 || r.Video != ""
}

func (r references) transform(ctx context.Context, prober video.Prober) (resync.Transform, error) {
	switch {
	case r.timecodeMode() && r.frameRateMode():
		return resync.Transform{}, errors.New("timecode references cannot be combined with frame rates")
	case r.timecodeMode():
		return r.timecodeTransform()
	case r.frameRateMode():
		return r.frameRateTransform(ctx, prober)
	}
	return resync.Transform{}, errors.New(
		"a reference is required: use --from and --to, or --fps-from with --fps-to or --video",
	)
}

func (r references) timecodeTransform() (resync.Transform, error) {
	if r.From == "" || r.To == "" {
		return resync.Transform{}, errors.New("--from and --to must be given together")
	}
	type flagValue struct{ name, value string }
	flags := []flagValue{
		{"--from", r.From},
		{"--to", r.To},
	}
	if r.From2 != "" || r.To2 != "" {
		if r.From2 == "" || r.To2 == "" {
			return resync.Transform{}, errors.New("--from2 and --to2 must be given together")
		}
		flags = append(flags,
			flagValue{"--from2", r.From2},
			flagValue{"--to2", r.To2},
		)
	}

	times := make([]time.Duration, len(flags))
	for i, flag := range flags {
		d, err := subtitle.ParseTimecode(flag.value)
		if err != nil {
			return resync.Transform{}, fmt.Errorf("invalid %s reference: %w", flag.name, err)
		}
		times[i] = d
	}

	if len(times) == 2 {
		return resync.DeriveTransform(times[0], times[1])
	}
	return resync.DeriveTwoPoint(times[0], times[1], times[2], times[3])
}

func (r references) frameRateTransform(ctx context.Context, prober video.Prober) (resync.Transform, error) {
	if r.FPSFrom == 0 {
		return resync.Transform{}, errors.New("--fps-from is required with --fps-to or --video")
	}

	videoFPS := r.FPSTo
	if r.Video != "" {
		if r.FPSTo != 0 {
			return resync.Transform{}, errors.New("--fps-to and --video are mutually exclusive")
		}
		info, err := prober.Probe(ctx, r.Video)
		if err != nil {
			return resync.Transform{}, fmt.Errorf("failed to read video frame rate: %w", err)
		}
		logger.Debugw("Probed video",
			"path", r.Video,
			"fps", info.FrameRate,
			"duration", info.Duration.String(),
		)
		videoFPS = info.FrameRate
	}
	if videoFPS == 0 {
		return resync.Transform{}, errors.New("--fps-to or --video is required with --fps-from")
	}

	return resync.FromFrameRates(r.FPSFrom, videoFPS)
}

func runResync(cmd *cobra.Command, args []string) error {
	input := args[0]
	out := cmd.OutOrStdout()

	outputPath, _ := cmd.Flags().GetString("output")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	force, _ := cmd.Flags().GetBool("force")

	t, err := referencesFromFlags(cmd).transform(cmd.Context(), video.NewProber(probeTimeout))
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Computed ratio is %.7f\n", t.Ratio())
	warnDeviation(t)

	logger.Debugw("Starting resync",
		"input", input,
		"transform", t.String(),
		"dry_run", dryRun,
	)

	result, err := resync.ResyncFile(input, t, resync.FileOptions{
		Output: outputPath,
		Prefix: cfg.OutputPrefix,
		Force:  force,
		DryRun: dryRun,
	})
	if err != nil {
		if errors.Is(err, resync.ErrOutputExists) {
			return fmt.Errorf("%w (use --force to overwrite)", err)
		}
		return err
	}

	if !result.Written {
		fmt.Fprintf(out, "Dry run: %d entries would be written to %s\n", result.Entries, result.Output)
		return nil
	}
	fmt.Fprintf(out, "Sync finished in %dms. Wrote to file %s\n", result.Elapsed.Milliseconds(), result.Output)
	return nil
}

// warnDeviation flags ratios that are unlikely to come from a frame-rate
// mismatch, usually a typo in one of the references.
func warnDeviation(t resync.Transform) {
	if cfg.MaxRatioDeviation > 0 && t.Deviation() > cfg.MaxRatioDeviation {
		logger.Warnw("Ratio is far from 1, check the references",
			"ratio", t.Ratio(),
			"max_deviation", cfg.MaxRatioDeviation,
		)
	}
}
