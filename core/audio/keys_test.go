package audio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObjectKeyLayout(t *testing.T) {
	assert.Equal(t, "audio/track_42_320k.mp3", ProgressiveKey("42", 320, "mp3"))
	assert.Equal(t, "hls/track_42", HLSPrefix("42"))
	assert.Equal(t, "hls/track_42/master.m3u8", MasterKey("42"))
	assert.Equal(t, "hls/track_42/v96/index.m3u8", RenditionPlaylistKey("42", 96))
}

func TestSegmentKeyZeroPadding(t *testing.T) {
	assert.Equal(t, "hls/track_42/v96/seg_00000.ts", SegmentKey("42", 96, 0))
	assert.Equal(t, "hls/track_42/v96/seg_00011.ts", SegmentKey("42", 96, 11))
	assert.Equal(t, "hls/track_42/v160/seg_12345.ts", SegmentKey("42", 160, 12345))
}

func TestProgressiveVariantName(t *testing.T) {
	assert.Equal(t, "320k_mp3", progressiveVariantName(320, "mp3"))
	assert.Equal(t, "96k_ogg", progressiveVariantName(96, "ogg"))
}
