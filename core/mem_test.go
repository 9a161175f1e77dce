package core

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
)

// In-memory fakes backing handler and service tests; they mirror the
// repository contracts including ErrNotFound/ErrConflict reporting.

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*UserRecord

	// updateConflicts forces UpdateFindHash to report ErrConflict that many
	// times; -1 means always. updateCalls counts every attempt.
	updateConflicts int
	updateCalls     int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*UserRecord)}
}

func (r *memUserRepo) Create(_ context.Context, user *UserRecord) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return nil, ErrConflict
		}
	}
	u := *user
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now()
	r.users[u.ID] = &u
	out := u
	return &out, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	return r.findBy(func(u *UserRecord) bool { return u.Username == username })
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*UserRecord, error) {
	return r.findBy(func(u *UserRecord) bool { return u.ID == id })
}

func (r *memUserRepo) FindByFindHash(_ context.Context, findHash string) (*UserRecord, error) {
	if findHash == "" {
		return nil, ErrNotFound
	}
	return r.findBy(func(u *UserRecord) bool { return u.FindHash == findHash })
}

func (r *memUserRepo) findBy(match func(*UserRecord) bool) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			out := *u
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *memUserRepo) UpdateFindHash(_ context.Context, id, findHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	if r.updateConflicts == -1 {
		return ErrConflict
	}
	if r.updateConflicts > 0 {
		r.updateConflicts--
		return ErrConflict
	}
	u, ok := r.users[id]
	if !ok {
		return ErrNotFound
	}
	for _, other := range r.users {
		if other.ID != id && other.FindHash == findHash {
			return ErrConflict
		}
	}
	u.FindHash = findHash
	return nil
}

type memGalleryRepo struct {
	mu        sync.Mutex
	galleries map[string]*GalleryRecord
}

func newMemGalleryRepo() *memGalleryRepo {
	return &memGalleryRepo{galleries: make(map[string]*GalleryRecord)}
}

func (r *memGalleryRepo) Create(_ context.Context, g *GalleryRecord) (*GalleryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *g
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.galleries[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memGalleryRepo) FindByID(_ context.Context, id string) (*GalleryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.galleries[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *g
	return &out, nil
}

func (r *memGalleryRepo) ListByUser(_ context.Context, userID string) ([]GalleryRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []GalleryRecord{}
	for _, g := range r.galleries {
		if g.UserID == userID {
			items = append(items, *g)
		}
	}
	return items, nil
}

func (r *memGalleryRepo) Update(_ context.Context, g *GalleryRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.galleries[g.ID]; !ok {
		return ErrNotFound
	}
	cp := *g
	r.galleries[g.ID] = &cp
	return nil
}

func (r *memGalleryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.galleries[id]; !ok {
		return ErrNotFound
	}
	delete(r.galleries, id)
	return nil
}

type memPhotoRepo struct {
	mu     sync.Mutex
	photos map[string]*PhotoRecord
}

func newMemPhotoRepo() *memPhotoRepo {
	return &memPhotoRepo{photos: make(map[string]*PhotoRecord)}
}

func (r *memPhotoRepo) Create(_ context.Context, p *PhotoRecord) (*PhotoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, other := range r.photos {
		if other.ObjectKey == p.ObjectKey {
			return nil, ErrConflict
		}
	}
	cp := *p
	cp.ID = uuid.NewString()
	cp.CreatedAt = time.Now()
	r.photos[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r *memPhotoRepo) FindByID(_ context.Context, id string) (*PhotoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.photos[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *memPhotoRepo) ListByUser(_ context.Context, userID string) ([]PhotoRecord, error) {
	return r.list(func(p *PhotoRecord) bool { return p.UserID == userID })
}

func (r *memPhotoRepo) ListByGallery(_ context.Context, galleryID string) ([]PhotoRecord, error) {
	return r.list(func(p *PhotoRecord) bool { return p.GalleryID == galleryID })
}

func (r *memPhotoRepo) list(match func(*PhotoRecord) bool) ([]PhotoRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items := []PhotoRecord{}
	for _, p := range r.photos {
		if match(p) {
			items = append(items, *p)
		}
	}
	return items, nil
}

func (r *memPhotoRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.photos[id]; !ok {
		return ErrNotFound
	}
	delete(r.photos, id)
	return nil
}

type memBlobStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	putErr  error
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{objects: make(map[string][]byte)}
}

func (s *memBlobStore) Put(_ context.Context, key, _ string, body io.Reader) (string, error) {
	if s.putErr != nil {
		return "", s.putErr
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(body); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = buf.Bytes()
	return fmt.Sprintf("https://blobs.test/%s", key), nil
}

func (s *memBlobStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

type memQueue struct {
	mu      sync.Mutex
	pending map[string][]string
}

func newMemQueue() *memQueue {
	return &memQueue{pending: make(map[string][]string)}
}

func (q *memQueue) Enqueue(_ context.Context, pendingKey string, value string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.pending[pendingKey] = append(q.pending[pendingKey], value)
	return nil
}

func (q *memQueue) Reserve(_ context.Context, pendingKey, _ string, _ time.Duration) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.pending[pendingKey]
	if len(items) == 0 {
		return "", ErrNotFound
	}
	v := items[0]
	q.pending[pendingKey] = items[1:]
	return v, nil
}

func (q *memQueue) Ack(_ context.Context, _ string, _ string) error { return nil }

func (q *memQueue) RequeueExpired(_ context.Context, _, _ string, _ time.Time) ([]string, error) {
	return nil, nil
}
