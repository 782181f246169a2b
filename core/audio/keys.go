package audio

import "fmt"

// Object key layout. These strings are a wire contract with the serving
// layer: keys must stay stable across re-processing so stored manifests
// remain re-signable indefinitely.
//
//	audio/track_<trackId>_<kbps>k.<ext>
//	hls/track_<trackId>/master.m3u8
//	hls/track_<trackId>/v<kbps>/index.m3u8
//	hls/track_<trackId>/v<kbps>/seg_<%05d>.ts

// ProgressiveKey returns the flat object key for a progressive encode.
func ProgressiveKey(trackID string, bitrateKbps int, ext string) string {
	return fmt.Sprintf("audio/track_%s_%dk.%s", trackID, bitrateKbps, ext)
}

// HLSPrefix returns the object key prefix holding a track's HLS tree.
func HLSPrefix(trackID string) string {
	return fmt.Sprintf("hls/track_%s", trackID)
}

// MasterKey returns the object key of a track's master playlist.
func MasterKey(trackID string) string {
	return HLSPrefix(trackID) + "/master.m3u8"
}

// RenditionPlaylistKey returns the object key of one rendition's playlist.
func RenditionPlaylistKey(trackID string, bitrateKbps int) string {
	return fmt.Sprintf("%s/v%d/index.m3u8", HLSPrefix(trackID), bitrateKbps)
}

// SegmentKey returns the object key of one segment, zero padded to five
// digits to match ffmpeg's seg_%05d.ts output naming.
func SegmentKey(trackID string, bitrateKbps, index int) string {
	return fmt.Sprintf("%s/v%d/seg_%05d.ts", HLSPrefix(trackID), bitrateKbps, index)
}

// progressiveVariantName is the manifest map key for a progressive encode,
// e.g. "320k_mp3".
func progressiveVariantName(bitrateKbps int, ext string) string {
	return fmt.Sprintf("%dk_%s", bitrateKbps, ext)
}
