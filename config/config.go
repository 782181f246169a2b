package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config stores the application configuration. Values come from the
// environment (optionally seeded by a .env file) with sensible defaults.
type Config struct {
	// FFmpeg
	FFmpegPath  string
	FFprobePath string

	// Pipeline
	GenerateProgressive bool
	RenditionBitrates   []int // kbps
	SegmentSeconds      int
	UploadConcurrency   int
	StrictUpload        bool
	EncodeTimeout       time.Duration
	ScratchDir          string // invocation scratch roots are created under here

	// MinIO
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Signed URLs
	SignedURLTTL time.Duration

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// HTTP server
	ServerPort string

	// Logging
	LogLevel string
	LogFile  string
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool treats "0", "false", "no" and "off" as false, anything else set as true.
func getEnvBool(key string, fallback bool) bool {
	value, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "0", "false", "no", "off":
		return false
	default:
		return true
	}
}

// parseBitrateList parses a comma separated kbps list like "96,160,320",
// dropping anything that is not a positive integer.
func parseBitrateList(raw string, fallback []int) []int {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			continue
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override variables that are already set.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on existing environment variables and defaults.")
	}

	ffmpegPath := getEnv("FFMPEG_PATH", "ffmpeg")
	ffprobePath := getEnv("FFPROBE_PATH", strings.Replace(ffmpegPath, "ffmpeg", "ffprobe", 1))

	return &Config{
		FFmpegPath:  ffmpegPath,
		FFprobePath: ffprobePath,

		GenerateProgressive: getEnvBool("GENERATE_PROGRESSIVE", true),
		RenditionBitrates:   parseBitrateList(getEnv("HLS_VARIANTS", ""), []int{96, 160, 320}),
		SegmentSeconds:      getEnvInt("HLS_SEGMENT_DURATION", 4),
		UploadConcurrency:   getEnvInt("UPLOAD_CONCURRENCY", 38),
		StrictUpload:        getEnvBool("STRICT_UPLOAD", false),
		EncodeTimeout:       time.Duration(getEnvInt("ENCODE_TIMEOUT_SECONDS", 600)) * time.Second,
		ScratchDir:          getEnv("AUDIO_SCRATCH_DIR", filepath.Join(os.TempDir(), "musee_audio")),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinioBucket:    getEnv("MINIO_BUCKET", "musee"),
		MinioRegion:    getEnv("MINIO_REGION", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		SignedURLTTL: time.Duration(getEnvInt("SIGNED_URL_TTL_SECONDS", 3600)) * time.Second,

		RedisHost:     getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		ServerPort: getEnv("SERVER_PORT", "8080"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),
	}
}
