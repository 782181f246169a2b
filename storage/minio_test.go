package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContentTypeFor(t *testing.T) {
	cases := map[string]string{
		"hls/track_1/master.m3u8":     "application/vnd.apple.mpegurl",
		"hls/track_1/v96/seg_0001.ts": "video/mp2t",
		"audio/track_1_320k.mp3":      "audio/mpeg",
		"song.FLAC":                   "audio/flac",
		"song.wav":                    "audio/wav",
		"song.m4a":                    "audio/mp4",
		"song.ogg":                    "audio/ogg",
		"song.aac":                    "audio/aac",
		"mystery.bin":                 "application/octet-stream",
		"noextension":                 "application/octet-stream",
	}
	for path, want := range cases {
		assert.Equal(t, want, ContentTypeFor(path), "path %q", path)
	}
}

func TestFormatSize(t *testing.T) {
	assert.Equal(t, "512 B", FormatSize(512))
	assert.Equal(t, "1.0 KB", FormatSize(1024))
	assert.Equal(t, "1.5 MB", FormatSize(1536*1024))
	assert.Equal(t, "2.0 GB", FormatSize(2*1024*1024*1024))
}
