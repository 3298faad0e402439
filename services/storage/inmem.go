package storagesvc

import (
	"context"
	"io"
	"io/ioutil"
	"sync"

	"github.com/pkg/errors"

	"github.com/darasahq/darasa/core"
)

// InMemStorage keeps uploaded objects in memory; for tests.
type InMemStorage struct {
	mu      sync.Mutex
	objects map[string][]byte // "<bucket>/<key>" -> content
}

var _ core.FileStorage = (*InMemStorage)(nil)

func NewInMemStorage() *InMemStorage {
	return &InMemStorage{objects: make(map[string][]byte)}
}

func (s *InMemStorage) Upload(ctx context.Context, bucket, key string, r io.Reader, contentType string) (string, error) {
	data, err := ioutil.ReadAll(r)
	if err != nil {
		return "", errors.Wrap(err, "reading object")
	}

	s.mu.Lock()
	s.objects[bucket+"/"+key] = data
	s.mu.Unlock()

	return "https://storage.local/file/" + bucket + "/" + key, nil
}

func (s *InMemStorage) Delete(ctx context.Context, bucket, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := bucket + "/" + key
	if _, ok := s.objects[path]; !ok {
		return errors.Errorf("object not found: %s", path)
	}
	delete(s.objects, path)
	return nil
}

// Object returns the stored content for tests.
func (s *InMemStorage) Object(bucket, key string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+key]
	return data, ok
}
