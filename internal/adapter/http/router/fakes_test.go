package router_test

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/finlay-davidson/flog-it/internal/adapter/auth"
	"github.com/finlay-davidson/flog-it/internal/listing/domain"
	"github.com/finlay-davidson/flog-it/internal/listing/usecase"
)

// memRepo is an in-memory ListingRepository with versioned updates.
type memRepo struct {
	mu        sync.Mutex
	rows      map[string]domain.Listing
	failFind  error
	conflicts bool
}

func newMemRepo() *memRepo {
	return &memRepo{rows: map[string]domain.Listing{}}
}

func (r *memRepo) Create(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[l.ID] = *l
	return nil
}

func (r *memRepo) Update(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.rows[l.ID]
	if !ok {
		return domain.ErrListingNotFound
	}
	if r.conflicts || cur.Version != l.Version {
		return domain.ErrVersionConflict
	}
	l.Version++
	r.rows[l.ID] = *l
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.rows[id]
	if !ok {
		return nil, domain.ErrListingNotFound
	}
	return &l, nil
}

func (r *memRepo) FindByFilter(_ context.Context, f domain.Filter) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failFind != nil {
		return nil, r.failFind
	}
	var out []*domain.Listing
	for _, row := range r.rows {
		l := row
		switch {
		case f.ActiveOnly && !l.IsActive,
			f.UserID != "" && l.UserID != f.UserID,
			f.Query != "" && !strings.Contains(strings.ToLower(l.Title), strings.ToLower(f.Query)),
			f.MinPrice != nil && l.Price < *f.MinPrice,
			f.MaxPrice != nil && l.Price > *f.MaxPrice:
			continue
		}
		out = append(out, &l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memRepo) get(id string) domain.Listing {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rows[id]
}

func (r *memRepo) put(l domain.Listing) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[l.ID] = l
}

// memStore is an in-memory object store.
type memStore struct {
	mu        sync.Mutex
	objects   map[string]usecase.ObjectInfo
	mutations int
}

func newMemStore() *memStore {
	return &memStore{objects: map[string]usecase.ObjectInfo{}}
}

func (s *memStore) Put(_ context.Context, path string, _ []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if contentType != "image/jpeg" {
		return errors.New("unexpected content type " + contentType)
	}
	s.mutations++
	s.objects[path] = usecase.ObjectInfo{Key: path, LastModified: time.Now()}
	return nil
}

func (s *memStore) Delete(_ context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mutations++
	delete(s.objects, path)
	return nil
}

func (s *memStore) PublicURL(path string) string {
	return "https://cdn.test/listings/" + path
}

func (s *memStore) List(_ context.Context, prefix string) ([]usecase.ObjectInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []usecase.ObjectInfo
	for k, o := range s.objects {
		if strings.HasPrefix(k, prefix) {
			out = append(out, o)
		}
	}
	return out, nil
}

func (s *memStore) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.objects))
	for k := range s.objects {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *memStore) mutationCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mutations
}

// staticVerifier accepts the tokens it was built with.
type staticVerifier map[string]domain.Identity

func (v staticVerifier) Verify(_ context.Context, token string) (domain.Identity, error) {
	id, ok := v[token]
	if !ok {
		return domain.Identity{}, auth.ErrInvalidToken
	}
	return id, nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// memProfiles is a fixed ProfileRepository keyed by user id.
type memProfiles map[string]*domain.Profile

func (p memProfiles) FindByUserIDs(_ context.Context, userIDs []string) (map[string]*domain.Profile, error) {
	out := make(map[string]*domain.Profile, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := p[id]; ok {
			out[id] = profile
		}
	}
	return out, nil
}

// hugePNGHeader declares a 50000x50000 grayscale PNG without any pixel data.
func hugePNGHeader() []byte {
	ihdr := make([]byte, 13)
	binary.BigEndian.PutUint32(ihdr[0:], 50_000)
	binary.BigEndian.PutUint32(ihdr[4:], 50_000)
	ihdr[8] = 8

	chunk := append([]byte("IHDR"), ihdr...)
	var buf bytes.Buffer
	buf.WriteString("\x89PNG\r\n\x1a\n")
	_ = binary.Write(&buf, binary.BigEndian, uint32(len(ihdr)))
	buf.Write(chunk)
	_ = binary.Write(&buf, binary.BigEndian, crc32.ChecksumIEEE(chunk))
	return buf.Bytes()
}
