package audio

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"musee/logger"
)

// FFmpegEncoder implements Encoder by shelling out to ffmpeg.
type FFmpegEncoder struct {
	ffmpegPath string
}

// NewFFmpegEncoder creates an encoder using the given ffmpeg binary.
func NewFFmpegEncoder(ffmpegPath string) *FFmpegEncoder {
	return &FFmpegEncoder{ffmpegPath: ffmpegPath}
}

// EncodeProgressive re-encodes the source to a single mp3 file at the given
// bitrate. Any stray video track is dropped; the source is audio-only by
// contract but must not error on embedded cover art streams.
func (e *FFmpegEncoder) EncodeProgressive(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error {
	args := []string{
		"-y",
		"-threads", "0",
		"-i", inputPath,
		"-vn",
		"-c:a", "libmp3lame",
		"-b:a", fmt.Sprintf("%dk", bitrateKbps),
		"-map_metadata", "-1",
		outputPath,
	}

	if err := e.run(ctx, args, inputPath); err != nil {
		return err
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("progressive output missing %s: %w", outputPath, err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("progressive output empty: %s", outputPath)
	}

	logger.Info("progressive encode complete",
		logger.String("output", outputPath),
		logger.Int("bitrateKbps", bitrateKbps),
		logger.Int64("size", info.Size()))

	return nil
}

// EncodeRendition re-encodes the source to one segmented HLS rendition in
// outputDir. The playlist is VOD-complete with independent segments so
// players can seek and fetch in parallel.
func (e *FFmpegEncoder) EncodeRendition(ctx context.Context, inputPath string, spec RenditionSpec, outputDir string) (*RenditionArtifact, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create rendition directory %s: %w", outputDir, err)
	}

	playlistPath := filepath.Join(outputDir, "index.m3u8")
	segmentPattern := filepath.Join(outputDir, "seg_%05d.ts")

	// Watch the rendition directory while ffmpeg runs so segment
	// availability shows up in the logs as it happens.
	watch := newSegmentWatcher(outputDir)
	watch.Start(ctx)

	args := []string{
		"-y",
		"-threads", "0",
		"-i", inputPath,
		"-vn",
		"-c:a", "aac",
		"-b:a", fmt.Sprintf("%dk", spec.BitrateKbps),
		"-ac", "2",
		"-ar", "48000",
		"-map_metadata", "-1",
		"-f", "hls",
		"-hls_time", fmt.Sprintf("%d", spec.SegmentSeconds),
		"-hls_playlist_type", "vod",
		"-hls_list_size", "0",
		"-hls_flags", "independent_segments",
		"-hls_segment_filename", segmentPattern,
		playlistPath,
	}

	err := e.run(ctx, args, inputPath)
	segCount, firstSegmentIn := watch.Stop()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(playlistPath); err != nil {
		return nil, fmt.Errorf("rendition playlist not generated %s: %w", playlistPath, err)
	}

	segments, err := filepath.Glob(filepath.Join(outputDir, "seg_*.ts"))
	if err != nil {
		return nil, fmt.Errorf("failed to list segments in %s: %w", outputDir, err)
	}
	if len(segments) == 0 {
		return nil, fmt.Errorf("no segments produced in %s", outputDir)
	}
	sort.Strings(segments)

	logger.Info("rendition encode complete",
		logger.Int("bitrateKbps", spec.BitrateKbps),
		logger.Int("segments", len(segments)),
		logger.Int("watchedSegments", segCount),
		logger.Duration("firstSegmentIn", firstSegmentIn))

	return &RenditionArtifact{
		BitrateKbps:  spec.BitrateKbps,
		Dir:          outputDir,
		PlaylistPath: playlistPath,
		Segments:     segments,
	}, nil
}

func (e *FFmpegEncoder) run(ctx context.Context, args []string, inputPath string) error {
	cmd := exec.CommandContext(ctx, e.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	logger.Debug("executing ffmpeg",
		logger.String("path", e.ffmpegPath),
		logger.String("args", strings.Join(args, " ")))

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("ffmpeg timed out for %s: %w", inputPath, ctx.Err())
		}
		return fmt.Errorf("ffmpeg execution failed for %s: %w\nFFmpeg Error: %s", inputPath, err, stderr.String())
	}
	return nil
}
