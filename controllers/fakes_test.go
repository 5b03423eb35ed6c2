package controllers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cppla/blogpress/models"
	"github.com/cppla/blogpress/repository"
	"github.com/cppla/blogpress/storage"
)

type memUsers struct {
	mu    sync.Mutex
	byID  map[string]models.User
	fail  error
	calls int
}

func newMemUsers() *memUsers { return &memUsers{byID: map[string]models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.fail != nil {
		return m.fail
	}
	for _, other := range m.byID {
		if other.Username == u.Username || other.Email == u.Email {
			return repository.ErrDuplicate
		}
	}
	u.PrepareCreate()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *memUsers) Update(_ context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	upd.Apply(&u)
	for otherID, other := range m.byID {
		if otherID != id && (other.Username == u.Username || other.Email == u.Email) {
			return nil, repository.ErrDuplicate
		}
	}
	u.UpdatedAt = time.Now()
	m.byID[id] = u
	return &u, nil
}

func (m *memUsers) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memPosts struct {
	mu   sync.Mutex
	byID map[string]models.Post
}

func newMemPosts() *memPosts { return &memPosts{byID: map[string]models.Post{}} }

func (m *memPosts) Create(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.byID {
		if other.Title == p.Title || other.Slug == p.Slug {
			return repository.ErrDuplicate
		}
	}
	p.PrepareCreate()
	m.byID[p.ID] = *p
	return nil
}

func (m *memPosts) GetByID(_ context.Context, id string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memPosts) List(_ context.Context, filter models.PostFilter) ([]models.Post, error) {
	f := repository.NormalizeFilter(filter)
	m.mu.Lock()
	var out []models.Post
	for _, p := range m.byID {
		if f.UserID != "" && p.UserID != f.UserID ||
			f.Category != "" && p.Category != f.Category ||
			f.Slug != "" && p.Slug != f.Slug ||
			f.PostID != "" && p.ID != f.PostID {
			continue
		}
		if f.SearchTerm != "" && !strings.Contains(strings.ToLower(p.Title+p.Content), strings.ToLower(f.SearchTerm)) {
			continue
		}
		out = append(out, p)
	}
	m.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if f.Ascending {
			return out[i].UpdatedAt.Before(out[j].UpdatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	if f.StartIndex >= len(out) {
		return []models.Post{}, nil
	}
	out = out[f.StartIndex:]
	if len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (m *memPosts) Count(_ context.Context, since time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, p := range m.byID {
		if since.IsZero() || !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (m *memPosts) Update(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[p.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, other := range m.byID {
		if id != p.ID && (other.Title == p.Title || other.Slug == p.Slug) {
			return repository.ErrDuplicate
		}
	}
	p.UpdatedAt = time.Now()
	m.byID[p.ID] = *p
	return nil
}

func (m *memPosts) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

const memStoreBase = "https://cdn.test/blog/"

type memStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	removed  []string
	progress []storage.Progress
	fail     error
}

func newMemStore() *memStore { return &memStore{objects: map[string][]byte{}} }

func (s *memStore) Upload(_ context.Context, key string, r io.Reader, size int64, contentType string, progress storage.ProgressFunc) (*storage.Object, error) {
	if s.fail != nil {
		return nil, s.fail
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, r)
	if err != nil {
		return nil, err
	}
	if n != size {
		return nil, fmt.Errorf("short upload: %d of %d", n, size)
	}
	p := storage.Progress{Transferred: n, Total: size}
	if progress != nil {
		progress(p)
	}
	s.mu.Lock()
	s.objects[key] = buf.Bytes()
	s.progress = append(s.progress, p)
	s.mu.Unlock()
	return &storage.Object{Key: key, URL: memStoreBase + key, Size: n, ContentType: contentType}, nil
}

func (s *memStore) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	s.removed = append(s.removed, key)
	return nil
}

func (s *memStore) KeyFromURL(rawURL string) (string, bool) {
	if !strings.HasPrefix(rawURL, memStoreBase) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, memStoreBase), true
}
