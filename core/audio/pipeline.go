package audio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"musee/logger"

	"github.com/google/uuid"
)

// PipelineConfig carries the per-deployment knobs of the processing
// pipeline. Zero values are replaced with defaults by NewPipeline.
type PipelineConfig struct {
	GenerateProgressive bool
	RenditionBitrates   []int
	SegmentSeconds      int
	// StrictUpload fails the whole run on any upload error. The default
	// best-effort mode logs per-file failures and omits their keys.
	StrictUpload  bool
	EncodeTimeout time.Duration
	// ScratchDir is the base under which each run gets its own
	// uuid-named scratch root.
	ScratchDir string
}

// DefaultRenditionBitrates is the standard HLS ladder in kbps.
var DefaultRenditionBitrates = []int{96, 160, 320}

// Pipeline coordinates probe, encode, package, upload and cleanup for one
// submitted audio file. Collaborators are injected so tests can substitute
// doubles for ffmpeg and object storage.
type Pipeline struct {
	prober   Prober
	encoder  Encoder
	uploader Uploader
	cfg      PipelineConfig
}

// NewPipeline wires a pipeline from its collaborators.
func NewPipeline(prober Prober, encoder Encoder, uploader Uploader, cfg PipelineConfig) *Pipeline {
	if len(cfg.RenditionBitrates) == 0 {
		cfg.RenditionBitrates = DefaultRenditionBitrates
	}
	if cfg.SegmentSeconds <= 0 {
		cfg.SegmentSeconds = 4
	}
	if cfg.EncodeTimeout <= 0 {
		cfg.EncodeTimeout = 10 * time.Minute
	}
	if cfg.ScratchDir == "" {
		cfg.ScratchDir = filepath.Join(os.TempDir(), "musee_audio")
	}
	return &Pipeline{prober: prober, encoder: encoder, uploader: uploader, cfg: cfg}
}

// Process runs the full pipeline for one source file and returns the
// manifest of stored artifacts. All local scratch state is removed before
// returning, on success and failure alike.
func (p *Pipeline) Process(ctx context.Context, source SourceAudio, trackID string) (*Manifest, error) {
	start := time.Now()

	scratch := filepath.Join(p.cfg.ScratchDir, uuid.NewString())
	if err := os.MkdirAll(scratch, 0755); err != nil {
		return nil, fmt.Errorf("failed to create scratch directory %s: %w", scratch, err)
	}
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("scratch cleanup failed",
				logger.String("dir", scratch),
				logger.ErrorField(err))
		}
	}()

	inputPath, err := p.spool(source, scratch)
	if err != nil {
		return nil, err
	}

	probeCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	probed, err := p.prober.Probe(probeCtx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("probe failed: %w", err)
	}

	logger.Info("pipeline started",
		logger.String("trackId", trackID),
		logger.Int("sourceBitrateKbps", probed.SourceBitrateKbps),
		logger.Float64("durationSeconds", probed.DurationSeconds),
		logger.Bool("progressive", p.cfg.GenerateProgressive))

	progressivePath, artifacts, hlsRoot := p.encodeAll(ctx, inputPath, trackID, probed.SourceBitrateKbps, scratch)

	if progressivePath == "" && len(artifacts) == 0 {
		return nil, fmt.Errorf("every encode failed for track %s: %w", trackID, ErrNoUsableOutputs)
	}

	hlsPackaged := false
	if len(artifacts) > 0 {
		masterPath := filepath.Join(hlsRoot, "master.m3u8")
		if err := WriteMasterPlaylist(masterPath, artifacts); err != nil {
			logger.Error("master playlist packaging failed",
				logger.String("trackId", trackID),
				logger.ErrorField(err))
		} else {
			hlsPackaged = true
		}
	}

	manifest, err := p.uploadAll(ctx, trackID, probed.SourceBitrateKbps, progressivePath, hlsRoot, hlsPackaged)
	if err != nil {
		return nil, err
	}

	if len(manifest.ProgressiveFiles) == 0 && manifest.HLSMasterKey == "" {
		return nil, fmt.Errorf("nothing stored for track %s: %w", trackID, ErrNoUsableOutputs)
	}

	logger.Info("pipeline complete",
		logger.String("trackId", trackID),
		logger.Int("renditions", len(artifacts)),
		logger.Bool("hls", manifest.HLSMasterKey != ""),
		logger.Duration("totalTime", time.Since(start)))

	return manifest, nil
}

// spool materializes the source into the scratch directory so ffmpeg can
// read it from disk.
func (p *Pipeline) spool(source SourceAudio, scratch string) (string, error) {
	ext := filepath.Ext(source.Filename)
	if ext == "" {
		ext = ".in"
	}
	inputPath := filepath.Join(scratch, "source"+ext)

	switch {
	case len(source.Data) > 0:
		if err := os.WriteFile(inputPath, source.Data, 0644); err != nil {
			return "", fmt.Errorf("failed to spool source buffer: %w", err)
		}
	case source.Path != "":
		if err := copyFile(source.Path, inputPath); err != nil {
			return "", fmt.Errorf("failed to spool source file %s: %w", source.Path, err)
		}
	default:
		return "", ErrUnsupportedInput
	}
	return inputPath, nil
}

// encodeAll fans out the progressive encode and one goroutine per eligible
// rendition, then joins. Branch failures are logged and recorded; they never
// abort sibling branches.
func (p *Pipeline) encodeAll(ctx context.Context, inputPath, trackID string, sourceKbps int, scratch string) (string, []*RenditionArtifact, string) {
	hlsRoot := filepath.Join(scratch, "hls")

	var wg sync.WaitGroup
	var mu sync.Mutex
	var artifacts []*RenditionArtifact
	progressivePath := ""

	if p.cfg.GenerateProgressive {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ectx, cancel := context.WithTimeout(ctx, p.cfg.EncodeTimeout)
			defer cancel()

			out := filepath.Join(scratch, fmt.Sprintf("track_%s_%dk.mp3", trackID, sourceKbps))
			if err := p.encoder.EncodeProgressive(ectx, inputPath, out, sourceKbps); err != nil {
				logger.Error("progressive encode failed",
					logger.String("trackId", trackID),
					logger.ErrorField(err))
				return
			}
			mu.Lock()
			progressivePath = out
			mu.Unlock()
		}()
	}

	for _, kbps := range p.cfg.RenditionBitrates {
		// Never upscale: renditions above the source bitrate are skipped.
		if kbps > sourceKbps {
			logger.Debug("skipping rendition above source bitrate",
				logger.String("trackId", trackID),
				logger.Int("renditionKbps", kbps),
				logger.Int("sourceKbps", sourceKbps))
			continue
		}

		wg.Add(1)
		go func(kbps int) {
			defer wg.Done()
			ectx, cancel := context.WithTimeout(ctx, p.cfg.EncodeTimeout)
			defer cancel()

			spec := RenditionSpec{BitrateKbps: kbps, SegmentSeconds: p.cfg.SegmentSeconds}
			outDir := filepath.Join(hlsRoot, fmt.Sprintf("v%d", kbps))
			artifact, err := p.encoder.EncodeRendition(ectx, inputPath, spec, outDir)
			if err != nil {
				logger.Error("rendition encode failed",
					logger.String("trackId", trackID),
					logger.Int("bitrateKbps", kbps),
					logger.ErrorField(err))
				return
			}
			mu.Lock()
			artifacts = append(artifacts, artifact)
			mu.Unlock()
		}(kbps)
	}

	wg.Wait()
	return progressivePath, artifacts, hlsRoot
}

// uploadAll pushes the progressive file and the packaged HLS tree, applying
// the configured upload failure policy.
func (p *Pipeline) uploadAll(ctx context.Context, trackID string, sourceKbps int, progressivePath, hlsRoot string, hlsPackaged bool) (*Manifest, error) {
	manifest := &Manifest{
		SourceBitrateKbps: sourceKbps,
		ProgressiveFiles:  make(map[string]string),
	}

	if progressivePath != "" {
		key := ProgressiveKey(trackID, sourceKbps, "mp3")
		stored, err := p.uploader.Upload(ctx, progressivePath, key)
		if err != nil {
			if p.cfg.StrictUpload {
				return nil, fmt.Errorf("progressive upload failed: %w", err)
			}
			logger.Warn("progressive upload failed, omitting from manifest",
				logger.String("trackId", trackID),
				logger.String("key", key),
				logger.ErrorField(err))
		} else {
			manifest.ProgressiveFiles[progressiveVariantName(sourceKbps, "mp3")] = stored
		}
	}

	if hlsPackaged {
		keys, err := p.uploader.UploadTree(ctx, hlsRoot, HLSPrefix(trackID))
		if err != nil {
			if p.cfg.StrictUpload {
				return nil, fmt.Errorf("hls tree upload failed: %w", err)
			}
			logger.Warn("partial hls tree upload",
				logger.String("trackId", trackID),
				logger.Int("uploaded", len(keys)),
				logger.ErrorField(err))
		}

		masterKey := MasterKey(trackID)
		stored := false
		for _, k := range keys {
			if k == masterKey {
				stored = true
				break
			}
		}
		if stored {
			manifest.HLSMasterKey = masterKey
		} else {
			logger.Error("master playlist not stored, hls ladder unavailable",
				logger.String("trackId", trackID),
				logger.String("key", masterKey))
		}
	}

	return manifest, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
