package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"path/filepath"

	"musee/config"
	"musee/core/audio"
	"musee/logger"
	"musee/storage"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var (
	processInput string
	processTrack string
)

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the transcoding pipeline for a local audio file",
	Long: `Probe a local audio file, produce the progressive encode and the HLS
ladder, upload everything to object storage and print the resulting manifest
as JSON.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		logger.Init(logger.Config{
			Level:      cfg.LogLevel,
			OutputPath: cfg.LogFile,
			MaxSize:    100,
			MaxBackups: 5,
			MaxAge:     30,
		})

		if processInput == "" {
			log.Fatal("--input is required")
		}
		trackID := processTrack
		if trackID == "" {
			trackID = uuid.NewString()
		}

		store, err := storage.NewClient(storage.Options{
			Endpoint:          cfg.MinioEndpoint,
			AccessKey:         cfg.MinioAccessKey,
			SecretKey:         cfg.MinioSecretKey,
			Bucket:            cfg.MinioBucket,
			Region:            cfg.MinioRegion,
			UseSSL:            cfg.MinioUseSSL,
			UploadConcurrency: cfg.UploadConcurrency,
		})
		if err != nil {
			log.Fatalf("failed to initialize storage: %v", err)
		}
		if err := store.EnsureBucket(context.Background(), cfg.MinioRegion); err != nil {
			log.Fatalf("failed to ensure bucket: %v", err)
		}

		pipeline := audio.NewPipeline(
			audio.NewFFprobeProber(cfg.FFprobePath),
			audio.NewFFmpegEncoder(cfg.FFmpegPath),
			store,
			audio.PipelineConfig{
				GenerateProgressive: cfg.GenerateProgressive,
				RenditionBitrates:   cfg.RenditionBitrates,
				SegmentSeconds:      cfg.SegmentSeconds,
				StrictUpload:        cfg.StrictUpload,
				EncodeTimeout:       cfg.EncodeTimeout,
				ScratchDir:          cfg.ScratchDir,
			},
		)

		source := audio.SourceAudio{
			Path:     processInput,
			Filename: filepath.Base(processInput),
		}
		manifest, err := pipeline.Process(context.Background(), source, trackID)
		if err != nil {
			log.Fatalf("pipeline failed for track %s: %v", trackID, err)
		}

		out, err := json.MarshalIndent(manifest, "", "  ")
		if err != nil {
			log.Fatalf("failed to render manifest: %v", err)
		}
		fmt.Println(string(out))
	},
}

func init() {
	processCmd.Flags().StringVarP(&processInput, "input", "i", "", "path to the source audio file")
	processCmd.Flags().StringVarP(&processTrack, "track", "t", "", "track identifier (defaults to a new uuid)")
	rootCmd.AddCommand(processCmd)
}
