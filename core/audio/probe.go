package audio

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os/exec"
	"strconv"

	"musee/logger"
)

// FFprobeProber implements Prober by shelling out to ffprobe.
type FFprobeProber struct {
	ffprobePath string
}

// NewFFprobeProber creates a prober using the given ffprobe binary.
func NewFFprobeProber(ffprobePath string) *FFprobeProber {
	return &FFprobeProber{ffprobePath: ffprobePath}
}

// ffprobeFormat mirrors the format section of ffprobe's JSON output.
// ffprobe emits numeric fields as strings.
type ffprobeFormat struct {
	Format struct {
		BitRate  string `json:"bit_rate"`
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe extracts the container bit rate (rounded to kbps) and duration.
// A missing or zero bit rate is fatal for the whole pipeline.
func (p *FFprobeProber) Probe(ctx context.Context, localPath string) (*ProbeResult, error) {
	args := []string{
		"-v", "error",
		"-show_entries", "format=bit_rate,duration",
		"-of", "json",
		localPath,
	}

	cmd := exec.CommandContext(ctx, p.ffprobePath, args...)
	var out bytes.Buffer
	var stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffprobe execution failed for %s: %w\nFFprobe Error: %s", localPath, err, stderr.String())
	}

	result, err := parseProbeOutput(out.Bytes())
	if err != nil {
		return nil, err
	}

	logger.Debug("probed source audio",
		logger.String("file", localPath),
		logger.Int("bitrateKbps", result.SourceBitrateKbps),
		logger.Float64("durationSeconds", result.DurationSeconds))

	return result, nil
}

// parseProbeOutput converts raw ffprobe JSON into a ProbeResult. Split out
// of Probe so the parsing rules are testable without an ffprobe binary.
func parseProbeOutput(data []byte) (*ProbeResult, error) {
	var probed ffprobeFormat
	if err := json.Unmarshal(data, &probed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal ffprobe output: %w", err)
	}

	if probed.Format.BitRate == "" {
		return nil, ErrBitrateUndeterminable
	}
	bits, err := strconv.ParseFloat(probed.Format.BitRate, 64)
	if err != nil || bits <= 0 {
		return nil, ErrBitrateUndeterminable
	}

	result := &ProbeResult{
		SourceBitrateKbps: int(math.Round(bits / 1000)),
	}
	if result.SourceBitrateKbps <= 0 {
		return nil, ErrBitrateUndeterminable
	}

	// Duration is informational only; ignore parse failures.
	if probed.Format.Duration != "" {
		if d, err := strconv.ParseFloat(probed.Format.Duration, 64); err == nil {
			result.DurationSeconds = d
		}
	}

	return result, nil
}
