// Package media stores uploaded files in an S3-compatible bucket and hands
// back the public URLs they are served from.
package media

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/gosimple/slug"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Uploader writes media objects to a bucket. Object names are derived from
// the content hash plus a slugified form of the client's filename, so
// re-uploading the same bytes under the same name is idempotent.
type Uploader struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

func NewUploader(endpoint, accessKey, secretKey, bucket, publicURL string, useSSL bool) (*Uploader, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &Uploader{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// Upload stores the file and returns its public URL. The whole payload is
// buffered to hash it before the object name is known; media uploads are
// bounded by the server's request size limit.
func (u *Uploader) Upload(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read upload: %w", err)
	}

	name := ObjectName(filename, data)

	_, err = u.client.PutObject(ctx, u.bucket, name, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType:        contentType,
		ContentDisposition: "inline",
		CacheControl:       "public, max-age=31536000, immutable",
	})
	if err != nil {
		return "", fmt.Errorf("failed to store %s: %w", name, err)
	}

	return u.publicURL + "/" + name, nil
}

// ObjectName builds the bucket key: a short content-hash prefix, the
// slugified base name, and the original extension.
func ObjectName(filename string, data []byte) string {
	sum := sha256.Sum256(data)
	ext := strings.ToLower(path.Ext(filename))
	base := strings.TrimSuffix(path.Base(filename), path.Ext(filename))
	return hex.EncodeToString(sum[:])[:6] + "_" + slug.Make(base) + ext
}
