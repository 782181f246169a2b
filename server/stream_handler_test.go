package server

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRewritePlaylistMaster(t *testing.T) {
	body := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-VERSION:3",
		"#EXT-X-INDEPENDENT-SEGMENTS",
		`#EXT-X-STREAM-INF:BANDWIDTH=192000,CODECS="mp4a.40.2"`,
		"v96/index.m3u8",
		`#EXT-X-STREAM-INF:BANDWIDTH=320000,CODECS="mp4a.40.2"`,
		"v160/index.m3u8",
		"",
	}, "\n")

	var signedKeys []string
	out, err := rewritePlaylist(body, "hls/track_5", func(key string) (string, error) {
		signedKeys = append(signedKeys, key)
		return "https://store.example/" + key + "?sig=abc", nil
	})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"hls/track_5/v96/index.m3u8",
		"hls/track_5/v160/index.m3u8",
	}, signedKeys)

	lines := strings.Split(out, "\n")
	assert.Equal(t, "#EXTM3U", lines[0])
	assert.Equal(t, "https://store.example/hls/track_5/v96/index.m3u8?sig=abc", lines[4])
	assert.Equal(t, "https://store.example/hls/track_5/v160/index.m3u8?sig=abc", lines[6])
	// Comment lines are untouched.
	assert.Equal(t, `#EXT-X-STREAM-INF:BANDWIDTH=192000,CODECS="mp4a.40.2"`, lines[3])
}

func TestRewritePlaylistVariantSegments(t *testing.T) {
	body := strings.Join([]string{
		"#EXTM3U",
		"#EXT-X-TARGETDURATION:4",
		"#EXTINF:4.000000,",
		"seg_00000.ts",
		"#EXTINF:3.523000,",
		"seg_00001.ts",
		"#EXT-X-ENDLIST",
	}, "\n")

	out, err := rewritePlaylist(body, "hls/track_5/v96", func(key string) (string, error) {
		return "signed:" + key, nil
	})
	require.NoError(t, err)

	assert.Contains(t, out, "signed:hls/track_5/v96/seg_00000.ts")
	assert.Contains(t, out, "signed:hls/track_5/v96/seg_00001.ts")
	assert.Contains(t, out, "#EXT-X-ENDLIST")
}

func TestRewritePlaylistSignError(t *testing.T) {
	_, err := rewritePlaylist("#EXTM3U\nseg_00000.ts\n", "p", func(key string) (string, error) {
		return "", errors.New("no credentials")
	})
	require.Error(t, err)
}

func TestRewritePlaylistBlankLines(t *testing.T) {
	signCalls := 0
	out, err := rewritePlaylist("#EXTM3U\n\n\n", "p", func(key string) (string, error) {
		signCalls++
		return key, nil
	})
	require.NoError(t, err)
	assert.Zero(t, signCalls)
	assert.Equal(t, "#EXTM3U\n\n\n", out)
}

func TestVariantRejectsInvalidBitrate(t *testing.T) {
	handler := NewStreamHandler(nil, 0)
	router := mux.NewRouter()
	router.HandleFunc("/api/tracks/{id}/hls/v{bitrate}/index.m3u8", handler.GetVariant)

	for _, bad := range []string{"abc", "-96", "0"} {
		req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/tracks/1/hls/v%s/index.m3u8", bad), nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "bitrate %q", bad)
	}
}

func TestProgressiveRejectsInvalidBitrate(t *testing.T) {
	handler := NewStreamHandler(nil, 0)
	router := mux.NewRouter()
	router.HandleFunc("/api/tracks/{id}/audio/{bitrate}", handler.GetProgressive)

	req := httptest.NewRequest(http.MethodGet, "/api/tracks/1/audio/notanumber", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
