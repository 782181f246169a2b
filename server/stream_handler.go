package server

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"musee/cache"
	"musee/core/audio"
	"musee/logger"
	"musee/storage"

	"github.com/gorilla/mux"
)

const playlistContentType = "application/vnd.apple.mpegurl"

// StreamHandler serves a track's stored HLS playlists with every reference
// rewritten into a short-lived signed URL, plus a redirect endpoint for the
// progressive file. Stored objects stay private; only these URLs grant read
// access.
type StreamHandler struct {
	store *storage.Client
	ttl   time.Duration
}

// NewStreamHandler creates a handler signing URLs with the given TTL.
func NewStreamHandler(store *storage.Client, ttl time.Duration) *StreamHandler {
	return &StreamHandler{store: store, ttl: ttl}
}

// rewritePlaylist maps every non-comment line of an HLS playlist through
// sign, resolving it relative to keyPrefix first. Comment and blank lines
// pass through untouched.
func rewritePlaylist(body, keyPrefix string, sign func(objectKey string) (string, error)) (string, error) {
	lines := strings.Split(body, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		signed, err := sign(keyPrefix + "/" + trimmed)
		if err != nil {
			return "", err
		}
		lines[i] = signed
	}
	return strings.Join(lines, "\n"), nil
}

// GetMaster handles GET /api/tracks/{id}/hls/master.m3u8.
func (h *StreamHandler) GetMaster(w http.ResponseWriter, r *http.Request) {
	trackID := mux.Vars(r)["id"]
	h.servePlaylist(w, r, trackID, "master", audio.MasterKey(trackID), audio.HLSPrefix(trackID))
}

// GetVariant handles GET /api/tracks/{id}/hls/v{bitrate}/index.m3u8.
func (h *StreamHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trackID := vars["id"]
	bitrate, err := strconv.Atoi(vars["bitrate"])
	if err != nil || bitrate <= 0 {
		http.Error(w, "invalid bitrate", http.StatusBadRequest)
		return
	}

	name := fmt.Sprintf("v%d", bitrate)
	key := audio.RenditionPlaylistKey(trackID, bitrate)
	prefix := audio.HLSPrefix(trackID) + "/" + name
	h.servePlaylist(w, r, trackID, name, key, prefix)
}

// GetProgressive handles GET /api/tracks/{id}/audio/{bitrate}, redirecting
// to a signed URL for the stored progressive mp3.
func (h *StreamHandler) GetProgressive(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	trackID := vars["id"]
	bitrate, err := strconv.Atoi(vars["bitrate"])
	if err != nil || bitrate <= 0 {
		http.Error(w, "invalid bitrate", http.StatusBadRequest)
		return
	}

	key := audio.ProgressiveKey(trackID, bitrate, "mp3")
	signed, err := h.store.SignURL(r.Context(), key, h.ttl)
	if err != nil {
		logger.Error("failed to sign progressive url",
			logger.String("trackId", trackID),
			logger.String("key", key),
			logger.ErrorField(err))
		http.Error(w, "audio not available", http.StatusNotFound)
		return
	}

	http.Redirect(w, r, signed, http.StatusFound)
}

// servePlaylist returns a cached rewritten playlist when available,
// otherwise downloads, rewrites and caches it. The cache TTL is half the
// signing TTL so cached bodies expire before the URLs they contain.
func (h *StreamHandler) servePlaylist(w http.ResponseWriter, r *http.Request, trackID, name, objectKey, keyPrefix string) {
	cacheKey := cache.PlaylistKey(trackID, name)
	if body, ok := cache.GetPlaylist(cacheKey); ok {
		w.Header().Set("Content-Type", playlistContentType)
		fmt.Fprint(w, body)
		return
	}

	body, err := h.store.DownloadText(r.Context(), objectKey)
	if err != nil {
		logger.Warn("playlist not found",
			logger.String("trackId", trackID),
			logger.String("key", objectKey),
			logger.ErrorField(err))
		http.Error(w, "playlist not found", http.StatusNotFound)
		return
	}

	rewritten, err := rewritePlaylist(body, keyPrefix, func(key string) (string, error) {
		return h.store.SignURL(r.Context(), key, h.ttl)
	})
	if err != nil {
		logger.Error("playlist rewrite failed",
			logger.String("trackId", trackID),
			logger.String("key", objectKey),
			logger.ErrorField(err))
		http.Error(w, "failed to prepare playlist", http.StatusInternalServerError)
		return
	}

	cache.SetPlaylist(cacheKey, rewritten, h.ttl/2)

	w.Header().Set("Content-Type", playlistContentType)
	fmt.Fprint(w, rewritten)
}
