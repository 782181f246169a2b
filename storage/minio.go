package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"musee/logger"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// minTTL is the floor applied to signed URL expiries so a caller can never
// request a near-instant expiry.
const minTTL = 60 * time.Second

// defaultTTL is used when SignURL is called with a non-positive TTL.
const defaultTTL = time.Hour

// putTimeout bounds a single object upload; transcoded artifacts are small
// but the provider can stall.
const putTimeout = 2 * time.Minute

// Client wraps a MinIO connection scoped to one bucket. It is injected into
// the pipeline and the serving layer rather than held as package state.
type Client struct {
	mc     *minio.Client
	bucket string

	// uploadConcurrency is the worker pool width for UploadTree.
	uploadConcurrency int
}

// Options configures a Client.
type Options struct {
	Endpoint          string
	AccessKey         string
	SecretKey         string
	Bucket            string
	Region            string
	UseSSL            bool
	UploadConcurrency int
}

// NewClient creates a bucket-scoped MinIO client.
func NewClient(opts Options) (*Client, error) {
	mc, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKey, opts.SecretKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	concurrency := opts.UploadConcurrency
	if concurrency <= 0 {
		concurrency = 38
	}

	return &Client{
		mc:                mc,
		bucket:            opts.Bucket,
		uploadConcurrency: concurrency,
	}, nil
}

// Bucket returns the bucket this client is scoped to.
func (c *Client) Bucket() string {
	return c.bucket
}

// EnsureBucket creates the bucket if it does not exist yet.
func (c *Client) EnsureBucket(ctx context.Context, region string) error {
	exists, err := c.mc.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", c.bucket, err)
	}
	if exists {
		return nil
	}
	if err := c.mc.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{Region: region}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", c.bucket, err)
	}
	logger.Info("created bucket", logger.String("bucket", c.bucket))
	return nil
}

// Upload stores one local file under objectKey, overwriting any previous
// object (upsert semantics). Returns the stored object key, never a URL.
func (c *Client) Upload(ctx context.Context, localPath, objectKey string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, putTimeout)
	defer cancel()

	opts := minio.PutObjectOptions{ContentType: ContentTypeFor(localPath)}
	if _, err := c.mc.FPutObject(ctx, c.bucket, objectKey, localPath, opts); err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", objectKey, err)
	}

	logger.Debug("uploaded object",
		logger.String("key", objectKey),
		logger.String("contentType", opts.ContentType))
	return objectKey, nil
}

// UploadTree walks localRoot recursively and uploads every file under
// keyPrefix, preserving the relative directory layout, with a bounded worker
// pool. It returns the keys that were stored; per-file failures are joined
// into the returned error so the caller decides whether they are fatal.
func (c *Client) UploadTree(ctx context.Context, localRoot, keyPrefix string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(localRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", localRoot, err)
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var mu sync.Mutex
	var keys []string
	var failures []error

	workers := c.uploadConcurrency
	if workers > len(files) {
		workers = len(files)
	}
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range jobs {
				rel, relErr := filepath.Rel(localRoot, path)
				if relErr != nil {
					mu.Lock()
					failures = append(failures, relErr)
					mu.Unlock()
					continue
				}
				key := keyPrefix + "/" + filepath.ToSlash(rel)
				if _, upErr := c.Upload(ctx, path, key); upErr != nil {
					logger.Warn("tree upload failed for file",
						logger.String("key", key),
						logger.ErrorField(upErr))
					mu.Lock()
					failures = append(failures, upErr)
					mu.Unlock()
					continue
				}
				mu.Lock()
				keys = append(keys, key)
				mu.Unlock()
			}
		}()
	}

	for _, path := range files {
		jobs <- path
	}
	close(jobs)
	wg.Wait()

	logger.Info("tree upload finished",
		logger.String("prefix", keyPrefix),
		logger.Int("uploaded", len(keys)),
		logger.Int("failed", len(failures)))

	return keys, errors.Join(failures...)
}

// SignURL produces a short-lived presigned GET URL for a stored object key.
// Pure function of credentials, bucket, key and expiry; no network call.
func (c *Client) SignURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if ttl < minTTL {
		ttl = minTTL
	}

	u, err := c.mc.PresignedGetObject(ctx, c.bucket, objectKey, ttl, url.Values{})
	if err != nil {
		return "", fmt.Errorf("failed to sign %s: %w", objectKey, err)
	}
	return u.String(), nil
}

// DownloadText fetches a stored object and returns its body as a string.
// Intended for playlists, which are small.
func (c *Client) DownloadText(ctx context.Context, objectKey string) (string, error) {
	obj, err := c.mc.GetObject(ctx, c.bucket, objectKey, minio.GetObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to get %s: %w", objectKey, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", objectKey, err)
	}
	return string(data), nil
}

// ContentTypeFor maps a file extension to the content type stored alongside
// the object. Unknown extensions fall back to a generic binary type.
func ContentTypeFor(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".m3u8":
		return "application/vnd.apple.mpegurl"
	case ".ts":
		return "video/mp2t"
	case ".mp3":
		return "audio/mpeg"
	case ".aac":
		return "audio/aac"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".wav":
		return "audio/wav"
	case ".m4a", ".mp4":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}
