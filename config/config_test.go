package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseBitrateList(t *testing.T) {
	fallback := []int{96, 160, 320}

	assert.Equal(t, []int{64, 128}, parseBitrateList("64, 128", fallback))
	assert.Equal(t, []int{128}, parseBitrateList("abc,128,-5,0", fallback))
	assert.Equal(t, fallback, parseBitrateList("", fallback))
	assert.Equal(t, fallback, parseBitrateList("x,y", fallback))
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("MUSEE_TEST_FLAG", "0")
	assert.False(t, getEnvBool("MUSEE_TEST_FLAG", true))

	t.Setenv("MUSEE_TEST_FLAG", "false")
	assert.False(t, getEnvBool("MUSEE_TEST_FLAG", true))

	t.Setenv("MUSEE_TEST_FLAG", "1")
	assert.True(t, getEnvBool("MUSEE_TEST_FLAG", false))

	assert.True(t, getEnvBool("MUSEE_TEST_UNSET", true))
	assert.False(t, getEnvBool("MUSEE_TEST_UNSET", false))
}

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, []int{96, 160, 320}, cfg.RenditionBitrates)
	assert.Equal(t, 4, cfg.SegmentSeconds)
	assert.Equal(t, 38, cfg.UploadConcurrency)
	assert.True(t, cfg.GenerateProgressive)
	assert.False(t, cfg.StrictUpload)
	assert.Equal(t, time.Hour, cfg.SignedURLTTL)
	assert.Equal(t, 10*time.Minute, cfg.EncodeTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("HLS_VARIANTS", "64,128")
	t.Setenv("HLS_SEGMENT_DURATION", "6")
	t.Setenv("GENERATE_PROGRESSIVE", "0")
	t.Setenv("STRICT_UPLOAD", "1")
	t.Setenv("SIGNED_URL_TTL_SECONDS", "120")

	cfg := Load()

	assert.Equal(t, []int{64, 128}, cfg.RenditionBitrates)
	assert.Equal(t, 6, cfg.SegmentSeconds)
	assert.False(t, cfg.GenerateProgressive)
	assert.True(t, cfg.StrictUpload)
	assert.Equal(t, 2*time.Minute, cfg.SignedURLTTL)
}
