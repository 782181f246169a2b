package audio

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// bandwidthOverheadFactor inflates the nominal audio bitrate to estimate the
// BANDWIDTH attribute, covering TS container and segmenting overhead. An
// estimate for client ABR heuristics, not a measured value.
const bandwidthOverheadFactor = 2

// hlsAudioCodec is the RFC 6381 codec string for AAC-LC.
const hlsAudioCodec = "mp4a.40.2"

// BuildMasterPlaylist renders the multi-variant master playlist text for the
// given renditions, ascending by bitrate. Equal bitrates keep their input
// order. Callers must not pass an empty artifact list.
func BuildMasterPlaylist(artifacts []*RenditionArtifact) string {
	ordered := make([]*RenditionArtifact, len(artifacts))
	copy(ordered, artifacts)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].BitrateKbps < ordered[j].BitrateKbps
	})

	var b strings.Builder
	b.WriteString("#EXTM3U\n")
	b.WriteString("#EXT-X-VERSION:3\n")
	b.WriteString("#EXT-X-INDEPENDENT-SEGMENTS\n")
	for _, art := range ordered {
		bandwidth := art.BitrateKbps * 1000 * bandwidthOverheadFactor
		b.WriteString(fmt.Sprintf("#EXT-X-STREAM-INF:BANDWIDTH=%d,CODECS=%q\n", bandwidth, hlsAudioCodec))
		b.WriteString(fmt.Sprintf("v%d/index.m3u8\n", art.BitrateKbps))
	}
	return b.String()
}

// WriteMasterPlaylist writes the master playlist into the local HLS tree so
// the tree upload carries it along with the renditions.
func WriteMasterPlaylist(path string, artifacts []*RenditionArtifact) error {
	if len(artifacts) == 0 {
		return fmt.Errorf("no renditions to package")
	}
	if err := os.WriteFile(path, []byte(BuildMasterPlaylist(artifacts)), 0644); err != nil {
		return fmt.Errorf("failed to write master playlist %s: %w", path, err)
	}
	return nil
}
