package audio

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMasterPlaylistOrdering(t *testing.T) {
	// Deliberately unordered input; the packager must sort ascending.
	artifacts := []*RenditionArtifact{
		{BitrateKbps: 160},
		{BitrateKbps: 96},
	}

	playlist := BuildMasterPlaylist(artifacts)

	expected := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-INDEPENDENT-SEGMENTS",
		`#EXT-X-STREAM-INF:BANDWIDTH=192000,CODECS="mp4a.40.2"`,
		"v96/index.m3u8",
		`#EXT-X-STREAM-INF:BANDWIDTH=320000,CODECS="mp4a.40.2"`,
		"v160/index.m3u8",
		"",
	}, "\n")
	assert.Equal(t, expected, playlist)
}

func TestBuildMasterPlaylistOnlySucceededRenditions(t *testing.T) {
	// 320 failed to encode, so it is simply absent from the input.
	artifacts := []*RenditionArtifact{
		{BitrateKbps: 96},
		{BitrateKbps: 160},
	}

	playlist := BuildMasterPlaylist(artifacts)

	assert.Equal(t, 2, strings.Count(playlist, "#EXT-X-STREAM-INF"))
	assert.NotContains(t, playlist, "v320")

	// Every STREAM-INF line is immediately followed by its playlist URI.
	lines := strings.Split(strings.TrimRight(playlist, "\n"), "\n")
	for i, line := range lines {
		if strings.HasPrefix(line, "#EXT-X-STREAM-INF") {
			require.Less(t, i+1, len(lines))
			assert.True(t, strings.HasSuffix(lines[i+1], "/index.m3u8"), "line after STREAM-INF: %q", lines[i+1])
		}
	}
}

func TestBuildMasterPlaylistStableOnEqualBitrates(t *testing.T) {
	a := &RenditionArtifact{BitrateKbps: 128, Dir: "a"}
	b := &RenditionArtifact{BitrateKbps: 128, Dir: "b"}

	first := BuildMasterPlaylist([]*RenditionArtifact{a, b})
	second := BuildMasterPlaylist([]*RenditionArtifact{a, b})
	assert.Equal(t, first, second)
}

func TestWriteMasterPlaylist(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "master.m3u8")

	err := WriteMasterPlaylist(path, []*RenditionArtifact{{BitrateKbps: 96}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "v96/index.m3u8")
}

func TestWriteMasterPlaylistRejectsEmpty(t *testing.T) {
	err := WriteMasterPlaylist(filepath.Join(t.TempDir(), "master.m3u8"), nil)
	require.Error(t, err)
}
