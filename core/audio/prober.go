// Package audio inspects uploaded audio files.
package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"

	"tunex/core/apperr"
)

// Prober reports the duration of an audio file in seconds.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
}

// FFprobe runs the ffprobe binary.
type FFprobe struct {
	path string
	run  func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)
}

// NewFFprobe 创建 ffprobe 探测器，path 为空时使用 PATH 中的 ffprobe
func NewFFprobe(path string) *FFprobe {
	if path == "" {
		path = "ffprobe"
	}
	return &FFprobe{path: path, run: runCommand}
}

func runCommand(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr
	err := cmd.Run()
	return out.Bytes(), stderr.Bytes(), err
}

// Duration returns the container duration reported by ffprobe.
func (p *FFprobe) Duration(ctx context.Context, path string) (float64, error) {
	out, stderr, err := p.run(ctx, p.path,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	if err != nil {
		return 0, apperr.NewServiceError("ffprobe", fmt.Errorf("probe %s: %w: %s", path, err, stderr))
	}
	return parseProbeOutput(out)
}

func parseProbeOutput(out []byte) (float64, error) {
	var probeData struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &probeData); err != nil {
		return 0, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}
	if probeData.Format.Duration == "" {
		return 0, fmt.Errorf("duration not found in ffprobe output: %s", out)
	}
	duration, err := strconv.ParseFloat(probeData.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration %q: %w", probeData.Format.Duration, err)
	}
	return duration, nil
}
