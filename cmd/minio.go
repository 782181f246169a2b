package cmd

import (
	"context"
	"fmt"
	"log"

	"musee/config"
	"musee/storage"

	"github.com/spf13/cobra"
)

var (
	minioPrefix string
	minioDelete bool
)

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect or clean the audio object store",
	Long: `List the objects under a key prefix with aggregate size statistics, or
delete a prefix recursively (for example a single track's HLS tree).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		store, err := storage.NewClient(storage.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			Region:    cfg.MinioRegion,
			UseSSL:    cfg.MinioUseSSL,
		})
		if err != nil {
			log.Fatalf("failed to create storage client: %v", err)
		}

		ctx := context.Background()

		if minioDelete {
			if minioPrefix == "" {
				log.Fatal("--prefix is required for --delete")
			}
			removed, err := store.RemovePrefix(ctx, minioPrefix)
			if err != nil {
				log.Fatalf("failed to remove prefix: %v", err)
			}
			fmt.Printf("removed %d objects under %s\n", removed, minioPrefix)
			return
		}

		objects, stats, err := store.ListPrefix(ctx, minioPrefix)
		if err != nil {
			log.Fatalf("failed to list objects: %v", err)
		}

		fmt.Printf("bucket: %s\n", store.Bucket())
		fmt.Printf("prefix: %q\n", minioPrefix)
		fmt.Printf("objects: %d\n", stats.Objects)
		fmt.Printf("total size: %s\n", storage.FormatSize(stats.TotalSize))
		if !stats.LastModified.IsZero() {
			fmt.Printf("last modified: %s\n", stats.LastModified.Format("2006-01-02 15:04:05"))
		}
		for _, obj := range objects {
			fmt.Printf("  %s (%s, %s)\n", obj.Key, storage.FormatSize(obj.Size), obj.ContentType)
		}
	},
}

func init() {
	minioCmd.Flags().StringVarP(&minioPrefix, "prefix", "p", "", "object key prefix to operate on")
	minioCmd.Flags().BoolVar(&minioDelete, "delete", false, "recursively delete the prefix")
	rootCmd.AddCommand(minioCmd)
}
