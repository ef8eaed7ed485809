// Package media inspects staged video files with ffprobe.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// ErrNoVideoStreams is returned when a file carries no video stream.
var ErrNoVideoStreams = errors.New("media: no video streams")

// VideoStream describes one video stream of a probed file.
type VideoStream struct {
	Codec     string
	Width     int
	Height    int
	FrameRate float64
}

// ProbeResult is what the catalog needs to know about an uploaded video.
type ProbeResult struct {
	Duration     time.Duration
	VideoStreams []VideoStream
}

// Prober extracts media information from a local file.
type Prober interface {
	Probe(ctx context.Context, path string) (*ProbeResult, error)
}

// LocalProber runs the ffprobe binary found at Bin (or on PATH when empty).
type LocalProber struct {
	Bin string
}

// Probe runs ffprobe against path.
func (p *LocalProber) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("media: empty path")
	}
	bin := p.Bin
	if bin == "" {
		bin = "ffprobe"
	}
	cmd := exec.CommandContext(ctx, bin,
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return nil, fmt.Errorf("ffprobe %s: %s", path, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return nil, fmt.Errorf("run ffprobe: %w", err)
	}
	return parseProbeOutput(out)
}

type probeOutput struct {
	Streams []struct {
		CodecType    string `json:"codec_type"`
		CodecName    string `json:"codec_name"`
		Width        int    `json:"width"`
		Height       int    `json:"height"`
		AvgFrameRate string `json:"avg_frame_rate"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

func parseProbeOutput(payload []byte) (*ProbeResult, error) {
	var raw probeOutput
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, fmt.Errorf("decode ffprobe output: %w", err)
	}

	result := &ProbeResult{}
	for _, s := range raw.Streams {
		if s.CodecType != "video" {
			continue
		}
		result.VideoStreams = append(result.VideoStreams, VideoStream{
			Codec:     s.CodecName,
			Width:     s.Width,
			Height:    s.Height,
			FrameRate: parseRate(s.AvgFrameRate),
		})
	}
	if len(result.VideoStreams) == 0 {
		return nil, ErrNoVideoStreams
	}

	if raw.Format.Duration != "" {
		secs, err := strconv.ParseFloat(raw.Format.Duration, 64)
		if err != nil {
			return nil, fmt.Errorf("parse duration %q: %w", raw.Format.Duration, err)
		}
		result.Duration = time.Duration(secs * float64(time.Second))
	}
	return result, nil
}

// parseRate turns "30000/1001" into 29.97.
func parseRate(rate string) float64 {
	num, den, ok := strings.Cut(rate, "/")
	if !ok {
		f, _ := strconv.ParseFloat(rate, 64)
		return f
	}
	n, err1 := strconv.ParseFloat(num, 64)
	d, err2 := strconv.ParseFloat(den, 64)
	if err1 != nil || err2 != nil || d == 0 {
		return 0
	}
	return n / d
}
