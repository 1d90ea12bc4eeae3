package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
)

// OSSStore keeps objects in an Alibaba Cloud OSS bucket.
type OSSStore struct {
	bucket     *oss.Bucket
	publicBase string
}

// NewOSSStore connects to bucketName at endpoint.
// publicBase is the bucket's public URL, e.g. https://bucket.oss-ap-southeast-1.aliyuncs.com
func NewOSSStore(endpoint, accessKeyID, accessKeySecret, bucketName, publicBase string) (*OSSStore, error) {
	client, err := oss.New(endpoint, accessKeyID, accessKeySecret)
	if err != nil {
		return nil, fmt.Errorf("oss.New: %w", err)
	}
	bkt, err := client.Bucket(bucketName)
	if err != nil {
		return nil, fmt.Errorf("oss bucket %s: %w", bucketName, err)
	}
	return &OSSStore{bucket: bkt, publicBase: strings.TrimRight(publicBase, "/")}, nil
}

// Put uploads data with a long-lived cache header; keys are never rewritten in place.
func (s *OSSStore) Put(ctx context.Context, key, contentType string, data []byte) error {
	return s.bucket.PutObject(key, bytes.NewReader(data),
		oss.WithContext(ctx),
		oss.ContentType(contentType),
		oss.ContentDisposition("inline"),
		oss.CacheControl("public, max-age=31536000, immutable"),
	)
}

// Open downloads the object at key.
func (s *OSSStore) Open(ctx context.Context, key string) ([]byte, error) {
	body, err := s.bucket.GetObject(key, oss.WithContext(ctx))
	if err != nil {
		if se, ok := err.(oss.ServiceError); ok && se.StatusCode == 404 {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer body.Close()
	return io.ReadAll(body)
}

// Delete removes the object at key. OSS treats a missing key as success.
func (s *OSSStore) Delete(ctx context.Context, key string) error {
	return s.bucket.DeleteObject(key, oss.WithContext(ctx))
}

// URL is the public address of key.
func (s *OSSStore) URL(key string) string {
	if key == "" {
		return ""
	}
	return s.publicBase + "/" + key
}
