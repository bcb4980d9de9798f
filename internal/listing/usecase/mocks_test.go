package usecase

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/listing/media"
)

type MockListingRepository struct{ mock.Mock }

func (m *MockListingRepository) Create(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) Update(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingRepository) FindByFilter(ctx context.Context, filter domain.Filter) ([]*domain.Listing, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Listing), args.Error(1)
}

type MockProfileRepository struct{ mock.Mock }

func (m *MockProfileRepository) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.Profile, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]*domain.Profile), args.Error(1)
}

type MockListingCache struct{ mock.Mock }

func (m *MockListingCache) GetListing(ctx context.Context, id string) (*domain.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Listing), args.Error(1)
}
func (m *MockListingCache) SetListing(ctx context.Context, listing *domain.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}
func (m *MockListingCache) DeleteListing(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockEventPublisher struct{ mock.Mock }

func (m *MockEventPublisher) Publish(ctx context.Context, subject string, data interface{}) error {
	args := m.Called(ctx, subject, data)
	return args.Error(0)
}

type MockMailer struct{ mock.Mock }

func (m *MockMailer) SendListingCreatedEmail(toEmail, listingTitle string) error {
	args := m.Called(toEmail, listingTitle)
	return args.Error(0)
}

// memStorage is an in-memory object store that records every mutation.
type memStorage struct {
	mu         sync.Mutex
	objects    map[string]memObject
	failPut    map[string]error
	failDelete map[string]error
	failList   error
	puts       []string
	deletes    []string
}

type memObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

func newMemStorage() *memStorage {
	return &memStorage{
		objects:    map[string]memObject{},
		failPut:    map[string]error{},
		failDelete: map[string]error{},
	}
}

func (s *memStorage) Put(_ context.Context, path string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failPut[path]; err != nil {
		return err
	}
	s.puts = append(s.puts, path)
	s.objects[path] = memObject{data: bytes.Clone(data), contentType: contentType, modified: time.Now()}
	return nil
}

func (s *memStorage) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failDelete[path]; err != nil {
		return err
	}
	s.deletes = append(s.deletes, path)
	delete(s.objects, path)
	return nil
}

func (s *memStorage) PublicURL(path string) string {
	return "https://cdn.test/listings/" + path
}

func (s *memStorage) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var out []ObjectInfo
	for k, o := range s.objects {
		if len(k) >= len(prefix) && k[:len(prefix)] == prefix {
			out = append(out, ObjectInfo{Key: k, LastModified: o.modified})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// seed stores objects at the given keys with a modification time in the past.
func (s *memStorage) seed(age time.Duration, keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.objects[k] = memObject{data: []byte(k), contentType: jpegContentType, modified: time.Now().Add(-age)}
	}
}

func (s *memStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *memStorage) mutations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.puts) + len(s.deletes)
}

// stubCodec tags its input instead of transcoding it and rejects "bad".
type stubCodec struct{}

func (stubCodec) EncodeFull(data []byte) ([]byte, error) {
	if string(data) == "bad" {
		return nil, fmt.Errorf("%w: stub", media.ErrDecode)
	}
	return append([]byte("full:"), data...), nil
}

func (stubCodec) EncodeThumb(data []byte) ([]byte, error) {
	if string(data) == "bad" {
		return nil, fmt.Errorf("%w: stub", media.ErrDecode)
	}
	return append([]byte("thumb:"), data...), nil
}

var errStore = errors.New("store unavailable")

func file(name, data string) domain.UploadedFile {
	return domain.UploadedFile{Name: name, ContentType: "image/png", Data: []byte(data)}
}

func sampleListing(id, owner string, imageCount int) *domain.Listing {
	now := time.Now().UTC()
	return &domain.Listing{
		ID:         id,
		UserID:     owner,
		Title:      "Road bike",
		Price:      450,
		IsActive:   true,
		ImageCount: imageCount,
		Version:    3,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
