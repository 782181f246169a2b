package audio

import (
	"context"
	"errors"
)

// Sentinel errors for the terminal failure modes of a pipeline run. Branch
// level failures (a single rendition, a single file upload) are wrapped and
// logged where they happen; only these surface to the caller.
var (
	// ErrUnsupportedInput means the source carried neither a byte buffer
	// nor a readable local path.
	ErrUnsupportedInput = errors.New("unsupported audio input")

	// ErrBitrateUndeterminable means the container metadata had no usable
	// bit rate. Fatal: encoding without a known source bitrate would
	// silently produce a wrong ladder.
	ErrBitrateUndeterminable = errors.New("unable to determine audio bitrate")

	// ErrNoUsableOutputs means every encode (or every upload, under strict
	// policy) failed and nothing playable reached storage.
	ErrNoUsableOutputs = errors.New("no usable audio outputs produced")
)

// SourceAudio is the transient input to one pipeline run. Exactly one of
// Data or Path must be set. Filename is only used to infer the spool
// extension.
type SourceAudio struct {
	Data     []byte
	Path     string
	Filename string
	MimeType string
}

// ProbeResult holds the container metadata the pipeline needs. Immutable
// once produced.
type ProbeResult struct {
	SourceBitrateKbps int
	DurationSeconds   float64
}

// RenditionSpec describes one rung of the HLS ladder.
type RenditionSpec struct {
	BitrateKbps    int
	SegmentSeconds int
}

// RenditionArtifact is the local output of one successful rendition encode.
// It lives on scratch storage only until the upload step consumes it.
type RenditionArtifact struct {
	BitrateKbps  int
	Dir          string
	PlaylistPath string
	Segments     []string // ordered segment file paths
}

// Manifest is the only artifact that outlives a pipeline run. It is handed
// to the external persistence layer, which must treat an empty HLSMasterKey
// as "no HLS ladder available".
type Manifest struct {
	SourceBitrateKbps int               `json:"bitrate"`
	ProgressiveFiles  map[string]string `json:"files"`          // "<kbps>k_<ext>" -> object key
	HLSMasterKey      string            `json:"hls_master_key"` // empty if HLS was skipped or failed
}

// Prober extracts format metadata from a spooled source file.
type Prober interface {
	Probe(ctx context.Context, localPath string) (*ProbeResult, error)
}

// Encoder produces the progressive file and the HLS renditions.
type Encoder interface {
	EncodeProgressive(ctx context.Context, inputPath, outputPath string, bitrateKbps int) error
	EncodeRendition(ctx context.Context, inputPath string, spec RenditionSpec, outputDir string) (*RenditionArtifact, error)
}

// Uploader pushes local artifacts to object storage under deterministic
// keys. UploadTree returns the keys that succeeded; a non-nil error reports
// the files that did not, leaving the fail-vs-continue policy to the caller.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectKey string) (string, error)
	UploadTree(ctx context.Context, localRoot, keyPrefix string) ([]string, error)
}
