package dao

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"time"

	errors "github.com/Laisky/errors/v2"
	gconfig "github.com/Laisky/go-config/v2"
	"github.com/Laisky/zap"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/Laisky/laisky-drive/library/log"
)

// ObjectStore wraps the remote S3-compatible store holding file payloads.
//
// Keys are `<ownerID>/<uuid>`; a key is allocated once per upload and
// never reused, so a ref uniquely identifies one immutable payload.
type ObjectStore struct {
	client *minio.Client
	bucket string
}

func NewObjectStore(client *minio.Client, bucket string) *ObjectStore {
	return &ObjectStore{
		client: client,
		bucket: bucket,
	}
}

// NewObjectStoreFromSettings dials the object store configured under
// `settings.storage`.
func NewObjectStoreFromSettings(ctx context.Context) *ObjectStore {
	client, err := minio.New(
		gconfig.Shared.GetString("settings.storage.endpoint"),
		&minio.Options{
			Creds: credentials.NewStaticV4(
				gconfig.Shared.GetString("settings.storage.access_key"),
				gconfig.Shared.GetString("settings.storage.secret_key"),
				"",
			),
			Secure: gconfig.Shared.GetBool("settings.storage.use_ssl"),
		},
	)
	if err != nil {
		log.Logger.Panic("connect to object store", zap.Error(err))
	}

	return NewObjectStore(client, gconfig.Shared.GetString("settings.storage.bucket"))
}

// Put uploads a payload under a freshly generated key tagged with the
// owning user and returns the key.
func (s *ObjectStore) Put(ctx context.Context, r io.Reader, size int64, ownerID uint64, contentType string) (string, error) {
	objectRef := fmt.Sprintf("%d/%s", ownerID, uuid.New().String())

	if _, err := s.client.PutObject(ctx, s.bucket, objectRef, r, size,
		minio.PutObjectOptions{
			ContentType: contentType,
			UserMetadata: map[string]string{
				"owner-id": strconv.FormatUint(ownerID, 10),
			},
		},
	); err != nil {
		return "", errors.Wrapf(err, "put object `%s`", objectRef)
	}

	return objectRef, nil
}

// GetStream opens a payload for streaming. The returned reader is lazy;
// transport errors surface on the first read, and the caller must close it.
func (s *ObjectStore) GetStream(ctx context.Context, objectRef string) (io.ReadCloser, error) {
	object, err := s.client.GetObject(ctx, s.bucket, objectRef, minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrapf(err, "get object `%s`", objectRef)
	}

	return object, nil
}

// DeleteMany removes a batch of payloads. Any per-object failure fails
// the whole batch so callers can keep metadata and storage consistent.
func (s *ObjectStore) DeleteMany(ctx context.Context, objectRefs []string) error {
	if len(objectRefs) == 0 {
		return nil
	}

	objectsCh := make(chan minio.ObjectInfo, len(objectRefs))
	for _, ref := range objectRefs {
		objectsCh <- minio.ObjectInfo{Key: ref}
	}
	close(objectsCh)

	for removeErr := range s.client.RemoveObjects(ctx, s.bucket, objectsCh, minio.RemoveObjectsOptions{}) {
		if removeErr.Err != nil {
			return errors.Wrapf(removeErr.Err, "remove object `%s`", removeErr.ObjectName)
		}
	}

	return nil
}

// PresignedURL signs a time-limited direct download link for a payload.
func (s *ObjectStore) PresignedURL(ctx context.Context, objectRef string, ttl time.Duration) (string, error) {
	signed, err := s.client.PresignedGetObject(ctx, s.bucket, objectRef, ttl, url.Values{})
	if err != nil {
		return "", errors.Wrapf(err, "presign object `%s`", objectRef)
	}

	return signed.String(), nil
}
