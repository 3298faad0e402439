package storagesvc

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/kurin/blazer/b2"
	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

// B2Storage stores uploaded objects in Backblaze B2. Buckets are resolved
// lazily and cached; the two the app uses (avatars and lecture videos) must
// exist already.
type B2Storage struct {
	client *b2.Client

	mu      sync.Mutex
	buckets map[string]*b2.Bucket
}

var _ core.FileStorage = (*B2Storage)(nil)

func NewB2Storage(ctx context.Context, conf *core.Config) (*B2Storage, error) {
	client, err := b2.NewClient(ctx, conf.Storage.AccountID, conf.Storage.AppKey)
	if err != nil {
		return nil, errors.Wrap(err, "creating b2 client")
	}
	return &B2Storage{
		client:  client,
		buckets: make(map[string]*b2.Bucket),
	}, nil
}

func (s *B2Storage) bucket(ctx context.Context, name string) (*b2.Bucket, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bkt, ok := s.buckets[name]; ok {
		return bkt, nil
	}
	bkt, err := s.client.Bucket(ctx, name)
	if err != nil {
		return nil, errors.Wrapf(err, "getting bucket %s", name)
	}
	s.buckets[name] = bkt
	return bkt, nil
}

func (s *B2Storage) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) (string, error) {
	bkt, err := s.bucket(ctx, bucket)
	if err != nil {
		return "", err
	}

	obj := bkt.Object(key)
	w := obj.NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: contentType}))

	if _, err = io.Copy(w, r); err != nil {
		_ = w.Close()
		return "", errors.Wrap(err, "writing object")
	}
	if err = w.Close(); err != nil {
		return "", errors.Wrap(err, "closing object writer")
	}

	return fmt.Sprintf("%s/file/%s/%s", bkt.BaseURL(), bkt.Name(), key), nil
}

func (s *B2Storage) Delete(ctx context.Context, bucket, key string) error {
	bkt, err := s.bucket(ctx, bucket)
	if err != nil {
		return err
	}
	if err = bkt.Object(key).Delete(ctx); err != nil {
		return errors.Wrap(err, "deleting object")
	}
	return nil
}
