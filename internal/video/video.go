package video

import (
	"context"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// video file information
type Info struct {
	Path      string
	Duration  time.Duration
	Width     int
	Height    int
	FrameRate float64
	Codec     string
	HasAudio  bool
}

// reads stream information from a video file
type Prober interface {
	Probe(ctx context.Context, videoPath string) (*Info, error)
}

// default implementation using ffprobe
type FFprobe struct {
	timeout time.Duration
}

func NewProber(timeout time.Duration) *FFprobe {
	return &FFprobe{timeout: timeout}
}

// retrieves video file information
func (p *FFprobe) Probe(ctx context.Context, videoPath string) (*Info, error) {
	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("video file not found: %s", videoPath)
	}

	timeout := p.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); timeout == 0 || remaining < timeout {
			timeout = remaining
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := ffmpeg.ProbeWithTimeout(videoPath, timeout, ffmpeg.KwArgs{})
	if err != nil {
		return nil, fmt.Errorf("ffprobe failed: %w", err)
	}

	info, err := parseProbe(out)
	if err != nil {
		return nil, err
	}
	info.Path = videoPath
	return info, nil
}

func parseProbe(raw string) (*Info, error) {
	if !gjson.Valid(raw) {
		return nil, fmt.Errorf("ffprobe returned invalid JSON")
	}

	stream := gjson.Get(raw, `streams.#(codec_type=="video")`)
	if !stream.Exists() {
		return nil, fmt.Errorf("no video stream found")
	}

	// avg_frame_rate is 0/0 for some containers
	rate, err := ParseFrameRate(stream.Get("avg_frame_rate").String())
	if err != nil {
		rate, err = ParseFrameRate(stream.Get("r_frame_rate").String())
		if err != nil {
			return nil, fmt.Errorf("unknown frame rate: %w", err)
		}
	}

	seconds := gjson.Get(raw, "format.duration").Float()

	return &Info{
		Duration:  time.Duration(math.Round(seconds*1000)) * time.Millisecond,
		Width:     int(stream.Get("width").Int()),
		Height:    int(stream.Get("height").Int()),
		FrameRate: rate,
		Codec:     stream.Get("codec_name").String(),
		HasAudio:  gjson.Get(raw, `streams.#(codec_type=="audio")`).Exists(),
	}, nil
}

// ParseFrameRate accepts ffprobe rationals like "24000/1001" and plain
// decimals like "23.976".
func ParseFrameRate(s string) (float64, error) {
	s = strings.TrimSpace(s)
	num, den, isRatio := strings.Cut(s, "/")

	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	d := 1.0
	if isRatio {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid frame rate %q", s)
		}
	}
	if n <= 0 || d <= 0 {
		return 0, fmt.Errorf("invalid frame rate %q", s)
	}
	return n / d, nil
}
