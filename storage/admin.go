package storage

import (
	"context"
	"fmt"
	"time"

	"musee/logger"

	"github.com/minio/minio-go/v7"
)

// PrefixStats summarizes the objects under one key prefix.
type PrefixStats struct {
	Objects      int64
	TotalSize    int64
	LastModified time.Time
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	LastModified time.Time
	ContentType  string
}

// ListPrefix returns the objects under prefix along with aggregate stats.
func (c *Client) ListPrefix(ctx context.Context, prefix string) ([]ObjectInfo, *PrefixStats, error) {
	stats := &PrefixStats{}
	var objects []ObjectInfo

	for object := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return nil, nil, fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		stats.Objects++
		stats.TotalSize += object.Size
		if object.LastModified.After(stats.LastModified) {
			stats.LastModified = object.LastModified
		}
		objects = append(objects, ObjectInfo{
			Key:          object.Key,
			Size:         object.Size,
			LastModified: object.LastModified,
			ContentType:  object.ContentType,
		})
	}

	return objects, stats, nil
}

// RemovePrefix deletes every object under prefix. Used to purge a track's
// artifacts; the pipeline itself never needs this because re-processing
// overwrites keys in place.
func (c *Client) RemovePrefix(ctx context.Context, prefix string) (int, error) {
	var toDelete []minio.ObjectInfo
	for object := range c.mc.ListObjects(ctx, c.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	}) {
		if object.Err != nil {
			return 0, fmt.Errorf("failed to list objects under %s: %w", prefix, object.Err)
		}
		toDelete = append(toDelete, object)
	}
	if len(toDelete) == 0 {
		return 0, nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(toDelete))
	go func() {
		defer close(objectsCh)
		for _, obj := range toDelete {
			objectsCh <- obj
		}
	}()

	// The returned channel only carries failures.
	for rErr := range c.mc.RemoveObjects(ctx, c.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if rErr.Err != nil {
			return 0, fmt.Errorf("failed to remove %s: %w", rErr.ObjectName, rErr.Err)
		}
	}

	logger.Info("removed prefix",
		logger.String("prefix", prefix),
		logger.Int("objects", len(toDelete)))
	return len(toDelete), nil
}

// FormatSize renders a byte count in human units for CLI output.
func FormatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
